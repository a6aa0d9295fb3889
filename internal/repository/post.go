package repository

import (
	"context"
	"strings"

	"lukeblog/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows post listings. Zero values mean "no constraint".
type PostFilter struct {
	CategoryID uint
	TagID      uint
	OwnerID    uint
	// Keyword matches title or description.
	Keyword string
	// Query is the admin search: title or category name.
	Query string
	// Statuses defaults to published only when empty and AnyStatus is false.
	Statuses  []int
	AnyStatus bool
	Scopes    []Scope
}

func (f PostFilter) apply(tx *gorm.DB) *gorm.DB {
	tx = tx.Scopes(f.Scopes...)
	switch {
	case f.AnyStatus:
	case len(f.Statuses) > 0:
		tx = tx.Where("posts.status IN ?", f.Statuses)
	default:
		tx = tx.Where("posts.status = ?", models.StatusNormal)
	}
	if f.CategoryID != 0 {
		tx = tx.Where("posts.category_id = ?", f.CategoryID)
	}
	if f.TagID != 0 {
		tx = tx.Where("posts.id IN (SELECT post_id FROM post_tags WHERE tag_id = ?)", f.TagID)
	}
	if f.OwnerID != 0 {
		tx = tx.Where("posts.owner_id = ?", f.OwnerID)
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		p := containsPattern(kw)
		tx = tx.Where("(LOWER(posts.title) LIKE ? ESCAPE '\\' OR LOWER(posts.\"desc\") LIKE ? ESCAPE '\\')", p, p)
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		p := containsPattern(q)
		tx = tx.Where("(LOWER(posts.title) LIKE ? ESCAPE '\\' OR posts.category_id IN (SELECT id FROM categories WHERE LOWER(name) LIKE ? ESCAPE '\\'))", p, p)
	}
	return tx
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, scopes ...Scope) (*models.Post, error)
	GetPublished(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, int64, error)
	Hot(ctx context.Context, limit int) ([]*models.Post, error)
	Latest(ctx context.Context, limit int) ([]*models.Post, error)
	IncrementViews(ctx context.Context, id uint, pv, uv bool) error
	CountByCategory(ctx context.Context, categoryIDs []uint) (map[uint]int64, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Omit("Category", "Owner").Create(post).Error
}

// Update saves the post columns and replaces its tag set. The view
// counters are only ever changed by IncrementViews.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags := post.Tags
		if err := tx.Omit("Category", "Owner", "Tags", "PV", "UV").Save(post).Error; err != nil {
			return err
		}
		assoc := tx.Model(post).Association("Tags")
		var err error
		if len(tags) == 0 {
			err = assoc.Clear()
		} else {
			err = assoc.Replace(tags)
		}
		if err != nil {
			return err
		}
		post.Tags = tags
		return nil
	})
}

func (r *postRepository) Delete(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(post).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
}

func (r *postRepository) withDetails(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Category").
		Preload("Owner").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") })
}

func (r *postRepository) GetByID(ctx context.Context, id uint, scopes ...Scope) (*models.Post, error) {
	var post models.Post
	if err := r.withDetails(ctx).Scopes(scopes...).First(&post, id).Error; err != nil {
		return nil, lookupError(err, "Post", id)
	}
	return &post, nil
}

// GetPublished returns the post only when its status is normal.
func (r *postRepository) GetPublished(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.withDetails(ctx).
		Where("posts.status = ?", models.StatusNormal).
		First(&post, id).Error
	if err != nil {
		return nil, lookupError(err, "Post", id)
	}
	return &post, nil
}

// List returns newest-first posts matching filter together with the total count.
func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int) ([]*models.Post, int64, error) {
	var total int64
	if err := filter.apply(r.db.WithContext(ctx).Model(&models.Post{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	posts := make([]*models.Post, 0)
	q := filter.apply(r.withDetails(ctx).Model(&models.Post{})).Order("posts.id DESC")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Hot returns published posts ordered by page views.
func (r *postRepository) Hot(ctx context.Context, limit int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, limit)
	err := r.db.WithContext(ctx).
		Select("id", "title", "pv", "uv", "category_id", "owner_id", "created_at").
		Where("status = ?", models.StatusNormal).
		Order("pv DESC").Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) Latest(ctx context.Context, limit int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, limit)
	err := r.db.WithContext(ctx).
		Select("id", "title", "category_id", "owner_id", "created_at").
		Where("status = ?", models.StatusNormal).
		Order("id DESC").
		Limit(limit).
		Find(&posts).Error
	return posts, err
}

// IncrementViews bumps pv and/or uv in a single UPDATE so concurrent
// visits never lose counts.
func (r *postRepository) IncrementViews(ctx context.Context, id uint, pv, uv bool) error {
	cols := map[string]interface{}{}
	if pv {
		cols["pv"] = gorm.Expr("pv + ?", 1)
	}
	if uv {
		cols["uv"] = gorm.Expr("uv + ?", 1)
	}
	if len(cols) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", id).
		UpdateColumns(cols).Error
}

// CountByCategory counts posts of any status per category.
func (r *postRepository) CountByCategory(ctx context.Context, categoryIDs []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(categoryIDs))
	if len(categoryIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		CategoryID uint
		Total      int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("category_id, COUNT(*) AS total").
		Where("category_id IN ?", categoryIDs).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CategoryID] = row.Total
	}
	return out, nil
}
