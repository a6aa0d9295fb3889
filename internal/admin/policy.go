// Package admin serves the JSON admin sites. One owner-scoped resource set
// is mounted under each site prefix.
package admin

import (
	"lukeblog/internal/models"
	"lukeblog/internal/repository"

	"gorm.io/gorm"
)

// OwnerPolicy limits non-superusers to the rows they own.
type OwnerPolicy struct{}

// Scope restricts a query to actor's rows unless actor is a superuser.
func (OwnerPolicy) Scope(actor *models.User) repository.Scope {
	return func(tx *gorm.DB) *gorm.DB {
		if actor != nil && actor.IsSuperuser {
			return tx
		}
		var id uint
		if actor != nil {
			id = actor.ID
		}
		return tx.Where("owner_id = ?", id)
	}
}

// Stamp makes actor the owner of obj, whatever the client sent.
func (OwnerPolicy) Stamp(obj models.Owned, actor *models.User) {
	obj.SetOwnerID(actor.ID)
}
