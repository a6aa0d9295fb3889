package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"testing"

	"lukeblog/internal/cache"
	"lukeblog/internal/models"
	"lukeblog/internal/repository"
	"lukeblog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRSS(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.User("luke", false)
	cat := fx.Category(owner, "go", false)
	var newest *models.Post
	for i := 0; i < 7; i++ {
		newest = fx.Post(owner, cat, fmt.Sprintf("post %d", i), models.StatusNormal)
	}
	fx.Post(owner, cat, "draft", models.StatusDraft)

	b := NewBuilder(repository.NewPostRepository(db), cache.NewMemoryStore(), Options{
		SiteURL: "https://blog.example.com/",
		Title:   "LukeBlog",
	})
	raw, err := b.RSS(context.Background())
	require.NoError(t, err)

	body := string(raw)
	assert.True(t, strings.HasPrefix(body, xml.Header))
	assert.Contains(t, body, `xmlns:content="http://purl.org/rss/1.0/modules/content/"`)
	assert.Contains(t, body, "<content:html>&lt;h1&gt;post 6&lt;/h1&gt;")
	assert.NotContains(t, body, "draft")

	var doc rssDoc
	require.NoError(t, xml.Unmarshal(raw, &doc))
	require.Len(t, doc.Channel.Items, ItemLimit)
	first := doc.Channel.Items[0]
	assert.Equal(t, "post 6", first.Title)
	assert.Equal(t, fmt.Sprintf("https://blog.example.com/post/%d.html", newest.ID), first.Link)
	assert.Equal(t, first.Link, first.GUID)
	assert.Equal(t, "about post 6", first.Description)
	assert.Equal(t, "https://blog.example.com/rss/", doc.Channel.Link)
}

func TestSitemapIsCached(t *testing.T) {
	t.Parallel()
	db := testutil.NewTestDB(t)
	fx := testutil.NewFixtures(t, db)
	owner := fx.User("luke", false)
	cat := fx.Category(owner, "go", false)
	p := fx.Post(owner, cat, "hello", models.StatusNormal)
	fx.Post(owner, cat, "hidden", models.StatusDelete)

	store := cache.NewMemoryStore()
	b := NewBuilder(repository.NewPostRepository(db), store, Options{SiteURL: "https://blog.example.com"})
	ctx := context.Background()

	raw, err := b.Sitemap(ctx)
	require.NoError(t, err)
	var set urlSet
	require.NoError(t, xml.Unmarshal(raw, &set))
	require.Len(t, set.URLs, 1)
	assert.Equal(t, fmt.Sprintf("https://blog.example.com/post/%d.html", p.ID), set.URLs[0].Loc)
	assert.Equal(t, "weekly", set.URLs[0].ChangeFreq)
	assert.Equal(t, "1.0", set.URLs[0].Priority)
	assert.Equal(t, p.CreatedAt.UTC().Format("2006-01-02"), set.URLs[0].LastMod)

	ok, err := store.Exists(ctx, cache.SitemapKey)
	require.NoError(t, err)
	assert.True(t, ok)

	// new posts stay invisible until the cached document expires
	fx.Post(owner, cat, "later", models.StatusNormal)
	again, err := b.Sitemap(ctx)
	require.NoError(t, err)
	assert.Equal(t, raw, again)

	require.NoError(t, store.Delete(ctx, cache.SitemapKey))
	fresh, err := b.Sitemap(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(fresh), "<url>"))
}
