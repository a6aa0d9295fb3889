package view

import (
	"bytes"
	"testing"
	"time"

	"lukeblog/internal/models"
	"lukeblog/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func layout() Layout {
	return Layout{
		SiteTitle: "LukeBlog",
		Navs: models.Navs{
			Navs:       []*models.Category{{ID: 1, Name: "Go"}},
			Categories: []*models.Category{{ID: 2, Name: "Misc"}},
		},
		SideBars: []service.SideBarBlock{
			{SideBar: &models.SideBar{Title: "About", DisplayType: models.SideBarHTML, Content: "<b>hi</b>"}},
			{SideBar: &models.SideBar{Title: "Hot", DisplayType: models.SideBarHot}, Posts: []*models.Post{{ID: 9, Title: "popular"}}},
		},
	}
}

func render(t *testing.T, page string, data any) string {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, page, data))
	return buf.String()
}

func TestListPage(t *testing.T) {
	t.Parallel()
	page := ListPage{
		Layout:  layout(),
		Keyword: "go lang",
		Posts: []*models.Post{{
			ID: 3, Title: "Channels", Desc: "about <channels>",
			Category:  &models.Category{ID: 1, Name: "Go"},
			Owner:     &models.User{ID: 4, Username: "luke"},
			Tags:      []*models.Tag{{ID: 5, Name: "conc"}},
			CreatedAt: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC),
		}},
		Pagination: service.Pagination{Page: 2, Size: 1, Total: 3},
		Path:       "/search/",
	}
	html := render(t, PageList, page)

	assert.Contains(t, html, "<title>go lang · LukeBlog</title>")
	assert.Contains(t, html, `<a href="/post/3.html">Channels</a>`)
	assert.Contains(t, html, "about &lt;channels&gt;")
	assert.Contains(t, html, `href="/author/4"`)
	assert.Contains(t, html, `href="/tag/5/"`)
	assert.Contains(t, html, "2024-01-02 03:04")
	assert.Contains(t, html, `href="/search/?keyword=go`)
	assert.Contains(t, html, "page=1")
	assert.Contains(t, html, "page=3")
	assert.Contains(t, html, "Page 2 of 3")
	// sidebars
	assert.Contains(t, html, "<b>hi</b>")
	assert.Contains(t, html, `<a href="/post/9.html">popular</a>`)
	assert.Contains(t, html, `<a href="/category/2/">Misc</a>`)
}

func TestListPageURL(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "/?page=2", ListPage{Path: "/"}.PageURL(2))
	assert.Equal(t, "/search/?keyword=a%26b&page=1", ListPage{Path: "/search/", Keyword: "a&b"}.PageURL(1))
}

func TestDetailPage(t *testing.T) {
	t.Parallel()
	page := DetailPage{
		Layout: layout(),
		Post:   &models.Post{ID: 7, Title: "Hello", ContentHTML: "<h1>Hello</h1>"},
		Comments: []*models.Comment{
			{Nickname: "ann", Website: "javascript:alert(1)", Content: "<script>x</script>"},
		},
		Form: CommentForm{Target: "/post/7.html"},
	}
	html := render(t, PageDetail, page)

	assert.Contains(t, html, "<h1>Hello</h1>")
	assert.Contains(t, html, `name="target" value="/post/7.html"`)
	assert.Contains(t, html, "&lt;script&gt;x&lt;/script&gt;")
	assert.NotContains(t, html, "javascript:alert")
}

func TestCommentResultPage(t *testing.T) {
	t.Parallel()
	errs := models.FieldErrors{}
	errs.Add("content", "content is too short")
	html := render(t, PageCommentResult, CommentResultPage{
		Layout: layout(),
		Target: "/links/",
		Form:   CommentForm{Target: "/links/", Values: service.CommentInput{Nickname: "ann"}, Errors: errs},
	})
	assert.Contains(t, html, "content: content is too short")
	assert.Contains(t, html, `value="ann"`)
	assert.Contains(t, html, `<a href="/links/">Back</a>`)

	html = render(t, PageCommentResult, CommentResultPage{Layout: layout(), Succeed: true, Target: "/links/"})
	assert.Contains(t, html, "your comment was posted")
	assert.NotContains(t, html, "comment-form")
}

func TestLinksAndErrorPages(t *testing.T) {
	t.Parallel()
	html := render(t, PageLinks, LinksPage{
		Layout: layout(),
		Links:  []*models.Link{{Title: "Go", Href: "https://go.dev"}},
		Form:   CommentForm{Target: "/links/"},
	})
	assert.Contains(t, html, `<a href="https://go.dev" target="_blank" rel="noopener">Go</a>`)
	assert.Contains(t, html, "No comments yet.")

	html = render(t, PageError, ErrorPage{Status: 404, Message: "Post with ID 3 not found"})
	assert.Contains(t, html, "<h2>404</h2>")
	assert.Contains(t, html, "Post with ID 3 not found")
}

func TestRenderUnknownPage(t *testing.T) {
	t.Parallel()
	r, err := New()
	require.NoError(t, err)
	assert.Error(t, r.Render(&bytes.Buffer{}, "nope", nil))
}
