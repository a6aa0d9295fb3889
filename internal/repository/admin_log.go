package repository

import (
	"context"

	"lukeblog/internal/models"

	"gorm.io/gorm"
)

// AdminLogRepository stores the admin change history.
type AdminLogRepository interface {
	Create(ctx context.Context, entry *models.AdminLogEntry) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]*models.AdminLogEntry, error)
}

type adminLogRepository struct {
	db *gorm.DB
}

// NewAdminLogRepository creates a new admin log repository
func NewAdminLogRepository(db *gorm.DB) AdminLogRepository {
	return &adminLogRepository{db: db}
}

func (r *adminLogRepository) Create(ctx context.Context, entry *models.AdminLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *adminLogRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]*models.AdminLogEntry, error) {
	out := make([]*models.AdminLogEntry, 0, limit)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
