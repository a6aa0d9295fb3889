package server

import (
	"net/http"
	"strconv"
	"testing"

	"lukeblog/internal/models"
	"lukeblog/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_ListsPublishedPostsOnly(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fx.User("luke", false)
	cat := env.fx.Category(owner, "Go", true)
	env.fx.Post(owner, cat, "Published one", models.StatusNormal)
	env.fx.Post(owner, cat, "Still a draft", models.StatusDraft)
	env.fx.Post(owner, cat, "Removed", models.StatusDelete)

	resp := env.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	body := readBody(t, resp)
	assert.Contains(t, body, "Published one")
	assert.NotContains(t, body, "Still a draft")
	assert.NotContains(t, body, "Removed")
	assert.Contains(t, body, `href="/category/`)
}

func TestIndex_Pagination(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fx.User("luke", false)
	cat := env.fx.Category(owner, "Go", false)
	for _, title := range []string{"first", "second", "third"} {
		env.fx.Post(owner, cat, title, models.StatusNormal)
	}

	body := readBody(t, env.get("/"))
	assert.Contains(t, body, "third")
	assert.Contains(t, body, "second")
	assert.NotContains(t, body, ">first<")
	assert.Contains(t, body, "Page 1 of 2")

	body = readBody(t, env.get("/?page=2"))
	assert.Contains(t, body, ">first<")

	resp := env.get("/?page=3")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCategoryTagAndAuthorPages(t *testing.T) {
	env := newTestEnv(t)
	luke := env.fx.User("luke", false)
	leia := env.fx.User("leia", false)
	goCat := env.fx.Category(luke, "Go", false)
	rustCat := env.fx.Category(leia, "Rust", false)
	tag := env.fx.Tag(luke, "web")
	env.fx.Post(luke, goCat, "Fiber routing", models.StatusNormal, tag)
	env.fx.Post(leia, rustCat, "Borrow checker", models.StatusNormal)

	body := readBody(t, env.get("/category/" + uintStr(goCat.ID) + "/"))
	assert.Contains(t, body, "Category: Go")
	assert.Contains(t, body, "Fiber routing")
	assert.NotContains(t, body, "Borrow checker")

	body = readBody(t, env.get("/tag/" + uintStr(tag.ID) + "/"))
	assert.Contains(t, body, "Tag: web")
	assert.Contains(t, body, "Fiber routing")
	assert.NotContains(t, body, "Borrow checker")

	body = readBody(t, env.get("/author/" + uintStr(leia.ID)))
	assert.Contains(t, body, "Author: leia")
	assert.Contains(t, body, "Borrow checker")
	assert.NotContains(t, body, "Fiber routing")

	assert.Equal(t, http.StatusNotFound, env.get("/category/999/").StatusCode)
	assert.Equal(t, http.StatusNotFound, env.get("/tag/abc/").StatusCode)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fx.User("luke", false)
	cat := env.fx.Category(owner, "Go", false)
	env.fx.Post(owner, cat, "Context cancellation", models.StatusNormal)
	env.fx.Post(owner, cat, "Generics", models.StatusNormal)

	body := readBody(t, env.get("/search/?keyword=context"))
	assert.Contains(t, body, "Search: context")
	assert.Contains(t, body, "Context cancellation")
	assert.NotContains(t, body, ">Generics<")
}

func TestPostDetail_CountsVisitOncePerWindow(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fx.User("luke", false)
	cat := env.fx.Category(owner, "Go", false)
	post := env.fx.Post(owner, cat, "Hello", models.StatusNormal)
	env.fx.Comment(service.PostTarget(post.ID), "first comment here")

	var before models.Post
	require.NoError(t, env.db.First(&before, post.ID).Error)

	resp := env.get(service.PostTarget(post.ID), "Cookie", "uid="+testVisitor)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "<h2>Hello</h2>")
	assert.Contains(t, body, "first comment here")
	assert.Contains(t, body, `name="target" value="/post/`)

	resp = env.get(service.PostTarget(post.ID), "Cookie", "uid="+testVisitor)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var after models.Post
	require.NoError(t, env.db.First(&after, post.ID).Error)
	assert.Equal(t, before.PV+1, after.PV)
	assert.Equal(t, before.UV+1, after.UV)
}

func TestPostDetail_NotFound(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fx.User("luke", false)
	cat := env.fx.Category(owner, "Go", false)
	draft := env.fx.Post(owner, cat, "Draft", models.StatusDraft)

	for _, path := range []string{
		service.PostTarget(draft.ID),
		"/post/999.html",
		"/post/1",
		"/post/abc.html",
	} {
		resp := env.get(path)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestLinksPage(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fx.User("luke", false)
	require.NoError(t, env.db.Create(&models.Link{
		Title: "Go blog", Href: "https://go.dev/blog", Status: models.StatusNormal, Weight: 5, OwnerID: owner.ID,
	}).Error)
	require.NoError(t, env.db.Create(&models.Link{
		Title: "Hidden", Href: "https://example.com", Status: models.StatusDelete, Weight: 1, OwnerID: owner.ID,
	}).Error)
	env.fx.Comment(service.LinksTarget, "great links page")

	resp := env.get("/links/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "Go blog")
	assert.NotContains(t, body, "Hidden")
	assert.Contains(t, body, "great links page")
}

func TestSideBarsRenderOnPages(t *testing.T) {
	env := newTestEnv(t)
	owner := env.fx.User("luke", false)
	cat := env.fx.Category(owner, "Go", false)
	env.fx.Post(owner, cat, "Latest thing", models.StatusNormal)
	require.NoError(t, env.db.Create(&models.SideBar{
		Title: "About", DisplayType: models.SideBarHTML, Content: "<b>hi there</b>", Status: models.SideBarShow, OwnerID: owner.ID,
	}).Error)
	require.NoError(t, env.db.Create(&models.SideBar{
		Title: "Newest", DisplayType: models.SideBarLatest, Status: models.SideBarShow, OwnerID: owner.ID,
	}).Error)

	body := readBody(t, env.get("/links/"))
	assert.Contains(t, body, "<b>hi there</b>")
	assert.Contains(t, body, "Newest")
	assert.Contains(t, body, "Latest thing")
}

func uintStr(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
