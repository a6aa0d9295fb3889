package models

import "time"

// Category groups posts. Deleting a category removes its posts.
type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	Status    int       `gorm:"index" json:"status"`
	IsNav     bool      `gorm:"default:false" json:"is_nav"`
	OwnerID   uint      `gorm:"not null;index" json:"owner_id"`
	Owner     *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_time"`
	// PostCount is computed for admin listings.
	PostCount int64 `gorm:"-" json:"post_count"`
}

func (c *Category) GetOwnerID() uint   { return c.OwnerID }
func (c *Category) SetOwnerID(id uint) { c.OwnerID = id }

// Navs splits categories into navigation entries and the rest.
type Navs struct {
	Navs       []*Category
	Categories []*Category
}

// SplitNavs partitions normal categories by their IsNav flag, keeping order.
func SplitNavs(categories []*Category) Navs {
	var out Navs
	for _, c := range categories {
		if c.Status != StatusNormal {
			continue
		}
		if c.IsNav {
			out.Navs = append(out.Navs, c)
		} else {
			out.Categories = append(out.Categories, c)
		}
	}
	return out
}
