package models

import (
	"time"

	"lukeblog/internal/markup"

	"gorm.io/gorm"
)

// Post is a blog article. ContentHTML is derived from Content and IsMD on every save.
type Post struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Desc        string    `gorm:"size:1024" json:"desc"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	ContentHTML string    `gorm:"type:text" json:"content_html"`
	IsMD        bool      `gorm:"column:is_md;default:false" json:"is_md"`
	Status      int       `gorm:"index" json:"status"`
	CategoryID  uint      `gorm:"not null;index" json:"category_id"`
	Category    *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE" json:"category,omitempty"`
	Tags        []*Tag    `gorm:"many2many:post_tags;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	OwnerID     uint      `gorm:"not null;index" json:"owner_id"`
	Owner       *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	PV          int       `gorm:"column:pv;default:1" json:"pv"`
	UV          int       `gorm:"column:uv;default:1" json:"uv"`
	CreatedAt   time.Time `json:"created_time"`
}

func (p *Post) GetOwnerID() uint   { return p.OwnerID }
func (p *Post) SetOwnerID(id uint) { p.OwnerID = id }

// BeforeSave keeps ContentHTML in sync with Content for every create and update.
func (p *Post) BeforeSave(_ *gorm.DB) error {
	p.ContentHTML = markup.Render(p.Content, p.IsMD)
	return nil
}

// CategoryName returns the category name or "" when not loaded.
func (p *Post) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

// OwnerName returns the author's username or "" when not loaded.
func (p *Post) OwnerName() string {
	if p.Owner == nil {
		return ""
	}
	return p.Owner.Username
}

// TagNames returns the names of the loaded tags.
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}
