package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"lukeblog/internal/models"
	"lukeblog/internal/repository"
	"lukeblog/internal/service"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// FixtureSet is a hand-written data set, usually loaded from YAML.
// Rows refer to users, categories and tags by name.
type FixtureSet struct {
	Users      []UserFixture     `yaml:"users"`
	Categories []CategoryFixture `yaml:"categories"`
	Tags       []TagFixture      `yaml:"tags"`
	Posts      []PostFixture     `yaml:"posts"`
	Links      []LinkFixture     `yaml:"links"`
	SideBars   []SideBarFixture  `yaml:"sidebars"`
	Comments   []CommentFixture  `yaml:"comments"`
}

type UserFixture struct {
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	Superuser bool   `yaml:"superuser"`
}

type CategoryFixture struct {
	Name  string `yaml:"name"`
	Owner string `yaml:"owner"`
	Nav   bool   `yaml:"nav"`
}

type TagFixture struct {
	Name  string `yaml:"name"`
	Owner string `yaml:"owner"`
}

type PostFixture struct {
	Title    string   `yaml:"title"`
	Desc     string   `yaml:"desc"`
	Content  string   `yaml:"content"`
	Markdown bool     `yaml:"markdown"`
	Draft    bool     `yaml:"draft"`
	Owner    string   `yaml:"owner"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
}

type LinkFixture struct {
	Title  string `yaml:"title"`
	Href   string `yaml:"href"`
	Weight int    `yaml:"weight"`
	Owner  string `yaml:"owner"`
}

type SideBarFixture struct {
	Title       string `yaml:"title"`
	DisplayType int    `yaml:"display_type"`
	Content     string `yaml:"content"`
	Owner       string `yaml:"owner"`
}

type CommentFixture struct {
	// Post names the post by title; when empty the comment goes on Target.
	Post     string `yaml:"post"`
	Target   string `yaml:"target"`
	Nickname string `yaml:"nickname"`
	Email    string `yaml:"email"`
	Website  string `yaml:"website"`
	Content  string `yaml:"content"`
}

// LoadFixtures decodes a YAML fixture file. Unknown keys are rejected.
func LoadFixtures(r io.Reader) (*FixtureSet, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var set FixtureSet
	if err := dec.Decode(&set); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &set, nil
}

// fixtureRefs resolves names used inside a fixture set.
type fixtureRefs struct {
	users      map[string]*models.User
	categories map[string]*models.Category
	tags       map[string]*models.Tag
	posts      map[string]*models.Post
}

func (r *fixtureRefs) user(name string) (*models.User, error) {
	if u, ok := r.users[name]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("unknown user %q", name)
}

// Apply inserts the fixture set in one transaction.
func (s *Seeder) Apply(ctx context.Context, set *FixtureSet) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		refs := &fixtureRefs{
			users:      map[string]*models.User{},
			categories: map[string]*models.Category{},
			tags:       map[string]*models.Tag{},
			posts:      map[string]*models.Post{},
		}
		steps := []func(context.Context, *gorm.DB, *FixtureSet, *fixtureRefs) error{
			applyUsers,
			applyCategories,
			applyTags,
			applyPosts,
			applyLinks,
			applySideBars,
			applyComments,
		}
		for _, step := range steps {
			if err := step(ctx, tx, set, refs); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyUsers(_ context.Context, tx *gorm.DB, set *FixtureSet, refs *fixtureRefs) error {
	for _, in := range set.Users {
		password := in.Password
		if password == "" {
			password = DefaultPassword
		}
		hash, err := service.HashPassword(password)
		if err != nil {
			return err
		}
		u := &models.User{
			Username:    in.Username,
			Email:       in.Email,
			Password:    hash,
			IsStaff:     true,
			IsSuperuser: in.Superuser,
		}
		if err := tx.Create(u).Error; err != nil {
			return fmt.Errorf("user %q: %w", in.Username, err)
		}
		refs.users[in.Username] = u
	}
	return nil
}

func applyCategories(_ context.Context, tx *gorm.DB, set *FixtureSet, refs *fixtureRefs) error {
	for _, in := range set.Categories {
		owner, err := refs.user(in.Owner)
		if err != nil {
			return fmt.Errorf("category %q: %w", in.Name, err)
		}
		c := &models.Category{Name: in.Name, Status: models.StatusNormal, IsNav: in.Nav, OwnerID: owner.ID}
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("category %q: %w", in.Name, err)
		}
		refs.categories[in.Name] = c
	}
	return nil
}

func applyTags(_ context.Context, tx *gorm.DB, set *FixtureSet, refs *fixtureRefs) error {
	for _, in := range set.Tags {
		owner, err := refs.user(in.Owner)
		if err != nil {
			return fmt.Errorf("tag %q: %w", in.Name, err)
		}
		t := &models.Tag{Name: in.Name, Status: models.StatusNormal, OwnerID: owner.ID}
		if err := tx.Create(t).Error; err != nil {
			return fmt.Errorf("tag %q: %w", in.Name, err)
		}
		refs.tags[in.Name] = t
	}
	return nil
}

func applyPosts(ctx context.Context, tx *gorm.DB, set *FixtureSet, refs *fixtureRefs) error {
	posts := repository.NewPostRepository(tx)
	for _, in := range set.Posts {
		owner, err := refs.user(in.Owner)
		if err != nil {
			return fmt.Errorf("post %q: %w", in.Title, err)
		}
		category, ok := refs.categories[in.Category]
		if !ok {
			return fmt.Errorf("post %q: unknown category %q", in.Title, in.Category)
		}
		p := &models.Post{
			Title:      in.Title,
			Desc:       in.Desc,
			Content:    strings.TrimSpace(in.Content),
			IsMD:       in.Markdown,
			Status:     models.StatusNormal,
			CategoryID: category.ID,
			OwnerID:    owner.ID,
		}
		if in.Draft {
			p.Status = models.StatusDraft
		}
		for _, name := range in.Tags {
			tag, ok := refs.tags[name]
			if !ok {
				return fmt.Errorf("post %q: unknown tag %q", in.Title, name)
			}
			p.Tags = append(p.Tags, tag)
		}
		if err := posts.Create(ctx, p); err != nil {
			return fmt.Errorf("post %q: %w", in.Title, err)
		}
		refs.posts[in.Title] = p
	}
	return nil
}

func applyLinks(_ context.Context, tx *gorm.DB, set *FixtureSet, refs *fixtureRefs) error {
	for _, in := range set.Links {
		owner, err := refs.user(in.Owner)
		if err != nil {
			return fmt.Errorf("link %q: %w", in.Title, err)
		}
		weight := in.Weight
		if weight == 0 {
			weight = 1
		}
		l := &models.Link{Title: in.Title, Href: in.Href, Status: models.StatusNormal, Weight: weight, OwnerID: owner.ID}
		if err := tx.Create(l).Error; err != nil {
			return fmt.Errorf("link %q: %w", in.Title, err)
		}
	}
	return nil
}

func applySideBars(_ context.Context, tx *gorm.DB, set *FixtureSet, refs *fixtureRefs) error {
	for _, in := range set.SideBars {
		owner, err := refs.user(in.Owner)
		if err != nil {
			return fmt.Errorf("sidebar %q: %w", in.Title, err)
		}
		if !models.ValidDisplayType(in.DisplayType) {
			return fmt.Errorf("sidebar %q: invalid display_type %d", in.Title, in.DisplayType)
		}
		sb := &models.SideBar{
			Title:       in.Title,
			DisplayType: in.DisplayType,
			Content:     in.Content,
			Status:      models.SideBarShow,
			OwnerID:     owner.ID,
		}
		if err := tx.Create(sb).Error; err != nil {
			return fmt.Errorf("sidebar %q: %w", in.Title, err)
		}
	}
	return nil
}

func applyComments(_ context.Context, tx *gorm.DB, set *FixtureSet, refs *fixtureRefs) error {
	for i, in := range set.Comments {
		target := in.Target
		if in.Post != "" {
			p, ok := refs.posts[in.Post]
			if !ok {
				return fmt.Errorf("comment %d: unknown post %q", i, in.Post)
			}
			target = service.PostTarget(p.ID)
		}
		if target == "" {
			target = service.LinksTarget
		}
		c := &models.Comment{
			Target:   target,
			Nickname: in.Nickname,
			Email:    in.Email,
			Website:  in.Website,
			Content:  in.Content,
			Status:   models.StatusNormal,
		}
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("comment %d: %w", i, err)
		}
	}
	return nil
}
