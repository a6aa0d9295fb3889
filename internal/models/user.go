// Package models contains data structures for the blog's domain models.
package models

import "time"

// User is an author account. Only staff and superusers may use the admin sites.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"size:150;uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"size:254" json:"email"`
	Password    string    `gorm:"not null" json:"-"`
	IsStaff     bool      `gorm:"default:false" json:"is_staff"`
	IsSuperuser bool      `gorm:"default:false" json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
}

// CanAdmin reports whether the user may sign in to an admin site.
func (u *User) CanAdmin() bool {
	return u != nil && (u.IsStaff || u.IsSuperuser)
}
