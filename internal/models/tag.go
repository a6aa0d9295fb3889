package models

import "time"

// Tag labels posts; a post may carry many tags.
type Tag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:10;not null" json:"name"`
	Status    int       `gorm:"not null" json:"status"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Owner     *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_time"`
}

func (t *Tag) GetOwnerID() uint   { return t.OwnerID }
func (t *Tag) SetOwnerID(id uint) { t.OwnerID = id }
