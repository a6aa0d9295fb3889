package seed

import (
	"context"
	"fmt"
	"log/slog"

	"lukeblog/internal/middleware"
	"lukeblog/internal/models"
	"lukeblog/internal/service"

	"gorm.io/gorm"
)

// Options size the generated data set.
type Options struct {
	Users           int
	CategoriesEach  int
	TagsEach        int
	PostsEach       int
	Links           int
	CommentsPerPost int
	// Seed makes runs reproducible; zero picks a random seed.
	Seed int64
}

// DefaultOptions is a small blog that exercises every page.
func DefaultOptions() Options {
	return Options{
		Users:           3,
		CategoriesEach:  2,
		TagsEach:        3,
		PostsEach:       8,
		Links:           5,
		CommentsPerPost: 2,
	}
}

// Summary counts what a run created.
type Summary struct {
	Users      int
	Categories int
	Tags       int
	Posts      int
	Links      int
	SideBars   int
	Comments   int
}

// Seeder fills a database with demo content.
type Seeder struct {
	db *gorm.DB
}

func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll deletes every blog row, users included.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tx := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := tx.Exec("DELETE FROM post_tags").Error; err != nil {
		return fmt.Errorf("clear post_tags: %w", err)
	}
	for _, m := range []interface{}{
		&models.AdminLogEntry{},
		&models.Comment{},
		&models.Post{},
		&models.Tag{},
		&models.Category{},
		&models.Link{},
		&models.SideBar{},
		&models.User{},
	} {
		if err := tx.Delete(m).Error; err != nil {
			return fmt.Errorf("clear %T: %w", m, err)
		}
	}
	middleware.Logger.InfoContext(ctx, "database cleared")
	return nil
}

// Run generates users with their categories, tags and posts, then the
// links, one sidebar of each display type and comments.
func (s *Seeder) Run(ctx context.Context, opts Options) (Summary, error) {
	var sum Summary
	f := NewFactory(s.db, opts.Seed)

	var first *models.User
	var targets []string
	for i := 0; i < opts.Users; i++ {
		user, err := f.CreateUser(ctx)
		if err != nil {
			return sum, err
		}
		sum.Users++
		if first == nil {
			first = user
		}

		tags := make([]*models.Tag, 0, opts.TagsEach)
		for j := 0; j < opts.TagsEach; j++ {
			tag, err := f.CreateTag(ctx, user)
			if err != nil {
				return sum, err
			}
			tags = append(tags, tag)
			sum.Tags++
		}

		categories := make([]*models.Category, 0, opts.CategoriesEach)
		for j := 0; j < opts.CategoriesEach; j++ {
			category, err := f.CreateCategory(ctx, user)
			if err != nil {
				return sum, err
			}
			categories = append(categories, category)
			sum.Categories++
		}
		if len(categories) == 0 {
			continue
		}

		for j := 0; j < opts.PostsEach; j++ {
			category := categories[j%len(categories)]
			post, err := f.CreatePost(ctx, user, category, pickTags(f, tags))
			if err != nil {
				return sum, err
			}
			sum.Posts++
			if post.Status == models.StatusNormal {
				targets = append(targets, service.PostTarget(post.ID))
			}
		}
	}

	if first == nil {
		return sum, nil
	}

	for i := 0; i < opts.Links; i++ {
		if _, err := f.CreateLink(ctx, first); err != nil {
			return sum, err
		}
		sum.Links++
	}

	for _, sb := range []struct {
		kind  int
		title string
	}{
		{models.SideBarHTML, "About"},
		{models.SideBarLatest, "Latest posts"},
		{models.SideBarHot, "Hot posts"},
		{models.SideBarComments, "Recent comments"},
	} {
		if _, err := f.CreateSideBar(ctx, first, sb.kind, sb.title); err != nil {
			return sum, err
		}
		sum.SideBars++
	}

	targets = append(targets, service.LinksTarget)
	for _, target := range targets {
		for i := 0; i < opts.CommentsPerPost; i++ {
			if _, err := f.CreateComment(ctx, target); err != nil {
				return sum, err
			}
			sum.Comments++
		}
	}

	middleware.Logger.InfoContext(ctx, "seed complete",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
	)
	return sum, nil
}

// pickTags returns a random subset of tags.
func pickTags(f *Factory, tags []*models.Tag) []*models.Tag {
	var out []*models.Tag
	for _, t := range tags {
		if f.faker.Bool() {
			out = append(out, t)
		}
	}
	return out
}
