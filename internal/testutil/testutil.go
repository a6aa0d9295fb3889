// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"lukeblog/internal/database"
	"lukeblog/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB returns a migrated in-memory sqlite database private to the test.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), logger.Silent)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// every pooled connection would get its own empty :memory: database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Fixtures creates related rows with minimal boilerplate.
type Fixtures struct {
	t  testing.TB
	db *gorm.DB
}

// NewFixtures binds fixture helpers to db.
func NewFixtures(t testing.TB, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) create(v interface{}) {
	f.t.Helper()
	if err := f.db.Create(v).Error; err != nil {
		f.t.Fatalf("create %T: %v", v, err)
	}
}

// User creates a staff author.
func (f *Fixtures) User(username string, superuser bool) *models.User {
	u := &models.User{Username: username, Email: username + "@example.com", Password: "x", IsStaff: true, IsSuperuser: superuser}
	f.create(u)
	return u
}

// Category creates a normal category owned by owner.
func (f *Fixtures) Category(owner *models.User, name string, isNav bool) *models.Category {
	c := &models.Category{Name: name, Status: models.StatusNormal, IsNav: isNav, OwnerID: owner.ID}
	f.create(c)
	return c
}

// Tag creates a normal tag owned by owner.
func (f *Fixtures) Tag(owner *models.User, name string) *models.Tag {
	tag := &models.Tag{Name: name, Status: models.StatusNormal, OwnerID: owner.ID}
	f.create(tag)
	return tag
}

// Post creates a post in category with the given status and tags.
func (f *Fixtures) Post(owner *models.User, category *models.Category, title string, status int, tags ...*models.Tag) *models.Post {
	p := &models.Post{
		Title:      title,
		Desc:       "about " + title,
		Content:    "# " + title,
		IsMD:       true,
		Status:     status,
		CategoryID: category.ID,
		OwnerID:    owner.ID,
		Tags:       tags,
	}
	f.create(p)
	return p
}

// Comment creates a visible comment on target.
func (f *Fixtures) Comment(target, content string) *models.Comment {
	c := &models.Comment{Target: target, Nickname: "reader", Email: "reader@example.com", Website: "https://example.com", Content: content, Status: models.StatusNormal}
	f.create(c)
	return c
}

// TinyPNG returns an in-memory PNG of the requested size filled with fill.
func TinyPNG(t testing.TB, w, h int, fill color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, fill)
		}
	}
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
