package models

import "time"

// SideBar display types.
const (
	SideBarHTML     = 1
	SideBarLatest   = 2
	SideBarHot      = 3
	SideBarComments = 4
)

// SideBar is a configurable block rendered next to every public page.
type SideBar struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:50;not null" json:"title"`
	DisplayType int       `gorm:"default:1" json:"display_type"`
	Content     string    `gorm:"size:500" json:"content"`
	Status      int       `gorm:"not null" json:"status"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt   time.Time `json:"created_time"`
}

func (s *SideBar) GetOwnerID() uint   { return s.OwnerID }
func (s *SideBar) SetOwnerID(id uint) { s.OwnerID = id }

// ValidDisplayType reports whether t names a known sidebar type.
func ValidDisplayType(t int) bool {
	return t >= SideBarHTML && t <= SideBarComments
}
