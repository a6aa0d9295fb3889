package repository

import (
	"context"

	"lukeblog/internal/models"

	"gorm.io/gorm"
)

// LinkRepository reads friend links.
type LinkRepository interface {
	ListNormal(ctx context.Context) ([]*models.Link, error)
}

type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

// ListNormal returns normal links, heaviest first.
func (r *linkRepository) ListNormal(ctx context.Context) ([]*models.Link, error) {
	out := make([]*models.Link, 0)
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusNormal).
		Order("weight DESC").Order("id").
		Find(&out).Error
	return out, err
}
