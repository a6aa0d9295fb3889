package repository

import (
	"context"

	"lukeblog/internal/models"

	"gorm.io/gorm"
)

// SideBarRepository reads sidebar blocks.
type SideBarRepository interface {
	ListVisible(ctx context.Context) ([]*models.SideBar, error)
}

type sideBarRepository struct {
	db *gorm.DB
}

// NewSideBarRepository creates a new sidebar repository
func NewSideBarRepository(db *gorm.DB) SideBarRepository {
	return &sideBarRepository{db: db}
}

func (r *sideBarRepository) ListVisible(ctx context.Context) ([]*models.SideBar, error) {
	out := make([]*models.SideBar, 0)
	err := r.db.WithContext(ctx).
		Where("status = ?", models.SideBarShow).
		Order("id").
		Find(&out).Error
	return out, err
}
