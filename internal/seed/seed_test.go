package seed

import (
	"context"
	"os"
	"strings"
	"testing"

	"lukeblog/internal/models"
	"lukeblog/internal/service"
	"lukeblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestRun(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()

	opts := DefaultOptions()
	opts.Seed = 42
	sum, err := NewSeeder(db).Run(ctx, opts)
	require.NoError(t, err)

	assert.Equal(t, opts.Users, sum.Users)
	assert.Equal(t, opts.Users*opts.PostsEach, sum.Posts)
	assert.Equal(t, 4, sum.SideBars)
	assert.EqualValues(t, sum.Users, count(t, db, &models.User{}))
	assert.EqualValues(t, sum.Posts, count(t, db, &models.Post{}))
	assert.EqualValues(t, sum.Comments, count(t, db, &models.Comment{}))
	assert.EqualValues(t, opts.Links, count(t, db, &models.Link{}))

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	for _, p := range posts {
		assert.NotEmpty(t, p.ContentHTML, "content_html is rendered on save")
		if p.IsMD {
			assert.Contains(t, p.ContentHTML, "<h2>")
		}
	}

	var user models.User
	require.NoError(t, db.First(&user).Error)
	assert.True(t, user.IsStaff)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(DefaultPassword)))
}

func TestRun_CommentsTargetPublishedPages(t *testing.T) {
	db := testutil.NewTestDB(t)
	opts := Options{Users: 1, CategoriesEach: 1, PostsEach: 5, CommentsPerPost: 1, Seed: 7}
	_, err := NewSeeder(db).Run(context.Background(), opts)
	require.NoError(t, err)

	var comments []models.Comment
	require.NoError(t, db.Find(&comments).Error)
	require.NotEmpty(t, comments)
	for _, c := range comments {
		if c.Target == service.LinksTarget {
			continue
		}
		require.True(t, strings.HasPrefix(c.Target, "/post/"), c.Target)
		var p models.Post
		require.NoError(t, db.Where("? = '/post/' || id || '.html'", c.Target).First(&p).Error)
		assert.Equal(t, models.StatusNormal, p.Status)
	}
}

func TestClearAll(t *testing.T) {
	db := testutil.NewTestDB(t)
	ctx := context.Background()
	s := NewSeeder(db)
	_, err := s.Run(ctx, Options{Users: 1, CategoriesEach: 1, TagsEach: 2, PostsEach: 3, Links: 1, CommentsPerPost: 1, Seed: 1})
	require.NoError(t, err)

	require.NoError(t, s.ClearAll(ctx))
	for _, m := range []interface{}{&models.User{}, &models.Post{}, &models.Tag{}, &models.Comment{}, &models.SideBar{}} {
		assert.Zero(t, count(t, db, m), "%T", m)
	}
	var joins int64
	require.NoError(t, db.Table("post_tags").Count(&joins).Error)
	assert.Zero(t, joins)
}

func TestFixtures(t *testing.T) {
	db := testutil.NewTestDB(t)
	f, err := os.Open("testdata/blog.yml")
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	set, err := LoadFixtures(f)
	require.NoError(t, err)
	require.Len(t, set.Posts, 3)

	require.NoError(t, NewSeeder(db).Apply(context.Background(), set))

	var luke models.User
	require.NoError(t, db.Where("username = ?", "luke").First(&luke).Error)
	assert.True(t, luke.IsSuperuser)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(luke.Password), []byte("skywalker-123")))

	var hello models.Post
	require.NoError(t, db.Preload("Tags").Where("title = ?", "Hello Fiber").First(&hello).Error)
	assert.Contains(t, hello.ContentHTML, "<h1>Hello Fiber</h1>")
	assert.Len(t, hello.Tags, 2)

	var draft models.Post
	require.NoError(t, db.Where("title = ?", "Unfinished").First(&draft).Error)
	assert.Equal(t, models.StatusDraft, draft.Status)

	var comment models.Comment
	require.NoError(t, db.Where("nickname = ?", "reader").First(&comment).Error)
	assert.Equal(t, service.PostTarget(hello.ID), comment.Target)
	require.NoError(t, db.Where("nickname = ?", "friend").First(&comment).Error)
	assert.Equal(t, service.LinksTarget, comment.Target)
}

func TestFixtures_Rejections(t *testing.T) {
	_, err := LoadFixtures(strings.NewReader("users:\n  - username: a\n    colour: red\n"))
	assert.Error(t, err, "unknown keys are rejected")

	db := testutil.NewTestDB(t)
	set, err := LoadFixtures(strings.NewReader("categories:\n  - name: Go\n    owner: ghost\n"))
	require.NoError(t, err)
	err = NewSeeder(db).Apply(context.Background(), set)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown user "ghost"`)
	assert.Zero(t, count(t, db, &models.Category{}))
}
