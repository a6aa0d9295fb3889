package models

// Status values shared by categories, tags, posts, comments and links.
const (
	StatusDelete = 0
	StatusNormal = 1
	// StatusDraft applies to posts only.
	StatusDraft = 2
)

// SideBar visibility.
const (
	SideBarHide = 0
	SideBarShow = 1
)

// StatusLabel returns a human readable label for a status value.
func StatusLabel(status int) string {
	switch status {
	case StatusNormal:
		return "normal"
	case StatusDelete:
		return "deleted"
	case StatusDraft:
		return "draft"
	default:
		return "unknown"
	}
}

// Owned is implemented by every entity that belongs to an author.
type Owned interface {
	GetOwnerID() uint
	SetOwnerID(id uint)
}
