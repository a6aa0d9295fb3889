// Package seed creates demo content for development databases and tests.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"lukeblog/internal/models"
	"lukeblog/internal/repository"
	"lukeblog/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every generated author.
const DefaultPassword = "password123"

// Factory builds and persists blog rows filled with fake data.
type Factory struct {
	db    *gorm.DB
	posts repository.PostRepository
	faker *gofakeit.Faker
	// MaxDays spreads post creation times over the last MaxDays days.
	MaxDays int

	passwordHash string
}

// NewFactory binds a factory to db. A zero seed picks a random one.
func NewFactory(db *gorm.DB, seed int64) *Factory {
	return &Factory{
		db:      db,
		posts:   repository.NewPostRepository(db),
		faker:   gofakeit.New(seed),
		MaxDays: 90,
	}
}

func (f *Factory) hash() (string, error) {
	if f.passwordHash == "" {
		h, err := service.HashPassword(DefaultPassword)
		if err != nil {
			return "", err
		}
		f.passwordHash = h
	}
	return f.passwordHash, nil
}

// CreateUser persists a staff author. Overrides run before the insert.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	hash, err := f.hash()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: fmt.Sprintf("%s%d", f.faker.Username(), f.faker.Number(100, 999)),
		Email:    f.faker.Email(),
		Password: hash,
		IsStaff:  true,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// CreateCategory persists a normal category owned by owner.
func (f *Factory) CreateCategory(ctx context.Context, owner *models.User, overrides ...func(*models.Category)) (*models.Category, error) {
	category := &models.Category{
		Name:    clip(capitalize(f.faker.BuzzWord()), 50),
		Status:  models.StatusNormal,
		IsNav:   f.faker.Bool(),
		OwnerID: owner.ID,
	}
	for _, override := range overrides {
		override(category)
	}
	if err := f.db.WithContext(ctx).Create(category).Error; err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// CreateTag persists a normal tag owned by owner.
func (f *Factory) CreateTag(ctx context.Context, owner *models.User, overrides ...func(*models.Tag)) (*models.Tag, error) {
	tag := &models.Tag{
		Name:    clip(strings.ToLower(f.faker.Word()), 10),
		Status:  models.StatusNormal,
		OwnerID: owner.ID,
	}
	for _, override := range overrides {
		override(tag)
	}
	if err := f.db.WithContext(ctx).Create(tag).Error; err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return tag, nil
}

// BuildPost returns an unsaved post. Roughly half are Markdown, the rest
// rich-text HTML; one in five is a draft.
func (f *Factory) BuildPost(owner *models.User, category *models.Category, tags []*models.Tag) *models.Post {
	title := clip(strings.TrimSuffix(f.faker.Sentence(f.faker.Number(3, 8)), "."), 255)
	post := &models.Post{
		Title:      title,
		Desc:       clip(f.faker.Sentence(12), 1024),
		Status:     models.StatusNormal,
		CategoryID: category.ID,
		OwnerID:    owner.ID,
		Tags:       tags,
		PV:         f.faker.Number(1, 500),
		UV:         f.faker.Number(1, 200),
		CreatedAt:  f.pastTime(),
	}
	if f.faker.Number(1, 5) == 1 {
		post.Status = models.StatusDraft
	}
	if f.faker.Bool() {
		post.IsMD = true
		post.Content = fmt.Sprintf("## %s\n\n%s\n\n- %s\n- %s\n\n```go\nfmt.Println(%q)\n```\n",
			title,
			f.faker.Paragraph(2, 4, 10, "\n\n"),
			f.faker.Sentence(5),
			f.faker.Sentence(5),
			f.faker.Word(),
		)
	} else {
		post.Content = fmt.Sprintf("<h2>%s</h2><p>%s</p><p>%s</p>",
			title, f.faker.Paragraph(1, 4, 10, " "), f.faker.Sentence(10))
	}
	return post
}

// CreatePost builds and persists a post with its tags.
func (f *Factory) CreatePost(ctx context.Context, owner *models.User, category *models.Category, tags []*models.Tag, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(owner, category, tags)
	for _, override := range overrides {
		override(post)
	}
	if err := f.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// CreateLink persists a normal friend link.
func (f *Factory) CreateLink(ctx context.Context, owner *models.User) (*models.Link, error) {
	link := &models.Link{
		Title:   clip(f.faker.Company(), 50),
		Href:    f.faker.URL(),
		Status:  models.StatusNormal,
		Weight:  f.faker.Number(1, 6),
		OwnerID: owner.ID,
	}
	if err := f.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, fmt.Errorf("create link: %w", err)
	}
	return link, nil
}

// CreateSideBar persists a visible sidebar of the given display type.
func (f *Factory) CreateSideBar(ctx context.Context, owner *models.User, displayType int, title string) (*models.SideBar, error) {
	sideBar := &models.SideBar{
		Title:       clip(title, 50),
		DisplayType: displayType,
		Status:      models.SideBarShow,
		OwnerID:     owner.ID,
	}
	if displayType == models.SideBarHTML {
		sideBar.Content = clip("<p>"+f.faker.Sentence(15)+"</p>", 500)
	}
	if err := f.db.WithContext(ctx).Create(sideBar).Error; err != nil {
		return nil, fmt.Errorf("create sidebar: %w", err)
	}
	return sideBar, nil
}

// CreateComment persists a visible comment on target.
func (f *Factory) CreateComment(ctx context.Context, target string) (*models.Comment, error) {
	comment := &models.Comment{
		Target:    target,
		Nickname:  clip(f.faker.Name(), 50),
		Email:     clip(f.faker.Email(), 50),
		Website:   clip(f.faker.URL(), 100),
		Content:   clip(f.faker.Sentence(f.faker.Number(4, 20)), 500),
		Status:    models.StatusNormal,
		CreatedAt: f.pastTime(),
	}
	if err := f.db.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.MaxDays
	if maxDays <= 0 {
		maxDays = 1
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute
	return time.Now().Add(-back)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
