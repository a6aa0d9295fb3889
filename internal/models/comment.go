package models

import "time"

// Comment is a visitor comment attached to a page path such as /post/5.html.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Target    string    `gorm:"size:100;not null;index" json:"target"`
	Nickname  string    `gorm:"size:50;not null" json:"nickname"`
	Email     string    `gorm:"size:50;not null" json:"email"`
	Website   string    `gorm:"size:100" json:"website"`
	Content   string    `gorm:"size:2000;not null" json:"content"`
	Status    int       `gorm:"index" json:"status"`
	CreatedAt time.Time `json:"created_time"`
}
