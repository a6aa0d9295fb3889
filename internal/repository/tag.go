package repository

import (
	"context"

	"lukeblog/internal/models"

	"gorm.io/gorm"
)

// TagRepository defines tag lookups.
type TagRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Tag, error)
	FindByIDs(ctx context.Context, ids []uint, scopes ...Scope) ([]*models.Tag, error)
	Delete(ctx context.Context, t *models.Tag) error
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) GetByID(ctx context.Context, id uint) (*models.Tag, error) {
	var t models.Tag
	if err := r.db.WithContext(ctx).First(&t, id).Error; err != nil {
		return nil, lookupError(err, "Tag", id)
	}
	return &t, nil
}

// FindByIDs returns the tags among ids visible within scopes, ordered by id.
func (r *tagRepository) FindByIDs(ctx context.Context, ids []uint, scopes ...Scope) ([]*models.Tag, error) {
	out := make([]*models.Tag, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).
		Scopes(scopes...).
		Where("id IN ?", ids).
		Order("id").
		Find(&out).Error
	return out, err
}

// Delete removes t and its post links together.
func (r *tagRepository) Delete(ctx context.Context, t *models.Tag) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM post_tags WHERE tag_id = ?", t.ID).Error; err != nil {
			return err
		}
		return tx.Delete(t).Error
	})
}
