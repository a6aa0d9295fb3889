package models

import "time"

// Link is a friend link shown on /links/. Higher weight sorts first.
type Link struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:50;not null" json:"title"`
	Href      string    `gorm:"size:200;not null" json:"href"`
	Status    int       `gorm:"not null" json:"status"`
	Weight    int       `gorm:"default:1" json:"weight"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Owner     *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_time"`
}

func (l *Link) GetOwnerID() uint   { return l.OwnerID }
func (l *Link) SetOwnerID(id uint) { l.OwnerID = id }
