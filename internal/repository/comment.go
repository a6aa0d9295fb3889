package repository

import (
	"context"

	"lukeblog/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	ListByTarget(ctx context.Context, target string) ([]*models.Comment, error)
	Recent(ctx context.Context, limit int) ([]*models.Comment, error)
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

// ListByTarget returns visible comments on target, newest first.
func (r *commentRepository) ListByTarget(ctx context.Context, target string) ([]*models.Comment, error) {
	out := make([]*models.Comment, 0)
	err := r.db.WithContext(ctx).
		Where("target = ? AND status = ?", target, models.StatusNormal).
		Order("id DESC").
		Find(&out).Error
	return out, err
}

func (r *commentRepository) Recent(ctx context.Context, limit int) ([]*models.Comment, error) {
	out := make([]*models.Comment, 0, limit)
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusNormal).
		Order("id DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}
