package models

import "time"

// Admin log actions.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// AdminLogEntry records one admin mutation.
type AdminLogEntry struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	Site       string    `gorm:"size:32" json:"site"`
	Resource   string    `gorm:"size:32;index" json:"resource"`
	ObjectID   uint      `json:"object_id"`
	ObjectRepr string    `gorm:"size:200" json:"object_repr"`
	Action     string    `gorm:"size:16" json:"action"`
	Message    string    `gorm:"size:500" json:"message"`
	CreatedAt  time.Time `json:"created_time"`
}

// AllModels lists every model for migrations.
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Tag{},
		&Post{},
		&Comment{},
		&Link{},
		&SideBar{},
		&AdminLogEntry{},
	}
}
