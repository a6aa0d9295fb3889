package repository

import (
	"context"

	"lukeblog/internal/models"

	"gorm.io/gorm"
)

// CategoryRepository defines category lookups used by the public site and API.
type CategoryRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Category, error)
	ListNormal(ctx context.Context) ([]*models.Category, error)
	ListNormalPage(ctx context.Context, limit, offset int) ([]*models.Category, int64, error)
	Navs(ctx context.Context) (models.Navs, error)
	DeleteCascade(ctx context.Context, c *models.Category) error
}

type categoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) GetByID(ctx context.Context, id uint) (*models.Category, error) {
	var c models.Category
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, lookupError(err, "Category", id)
	}
	return &c, nil
}

func (r *categoryRepository) ListNormal(ctx context.Context) ([]*models.Category, error) {
	out := make([]*models.Category, 0)
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusNormal).
		Order("id").
		Find(&out).Error
	return out, err
}

func (r *categoryRepository) ListNormalPage(ctx context.Context, limit, offset int) ([]*models.Category, int64, error) {
	var total int64
	base := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Category{}).Where("status = ?", models.StatusNormal)
	}
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := make([]*models.Category, 0)
	if err := base().Order("id").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Navs loads normal categories split into navigation and footer groups.
func (r *categoryRepository) Navs(ctx context.Context) (models.Navs, error) {
	all, err := r.ListNormal(ctx)
	if err != nil {
		return models.Navs{}, err
	}
	return models.SplitNavs(all), nil
}

// DeleteCascade removes c, its posts and their tag links in one transaction.
func (r *categoryRepository) DeleteCascade(ctx context.Context, c *models.Category) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := tx.Model(&models.Post{}).Select("id").Where("category_id = ?", c.ID)
		if err := tx.Exec("DELETE FROM post_tags WHERE post_id IN (?)", ids).Error; err != nil {
			return err
		}
		if err := tx.Where("category_id = ?", c.ID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		return tx.Delete(c).Error
	})
}
