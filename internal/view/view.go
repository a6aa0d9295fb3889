// Package view renders the public HTML pages from embedded templates.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"
	"time"

	"lukeblog/internal/models"
	"lukeblog/internal/service"
)

//go:embed templates/*.html
var files embed.FS

// Page names.
const (
	PageList          = "list"
	PageDetail        = "detail"
	PageLinks         = "links"
	PageCommentResult = "comment_result"
	PageError         = "error"
)

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	// raw marks author-supplied HTML as safe. Only post bodies and HTML
	// sidebars go through it.
	"raw":        func(s string) template.HTML { return template.HTML(s) },
	"postURL":    service.PostTarget,
	"statusName": models.StatusLabel,
}

// Layout is shared by every page.
type Layout struct {
	SiteTitle string
	Navs      models.Navs
	SideBars  []service.SideBarBlock
}

// ListPage lists posts, optionally narrowed to a category, tag, author or keyword.
type ListPage struct {
	Layout
	Category *models.Category
	Tag      *models.Tag
	Author   *models.User
	Keyword  string
	Posts    []*models.Post
	service.Pagination
	// Path is the listing URL the pagination links point at.
	Path string
}

// PageURL returns the listing URL for page n, keeping the search keyword.
func (p ListPage) PageURL(n int) string {
	q := url.Values{}
	if p.Keyword != "" {
		q.Set("keyword", p.Keyword)
	}
	q.Set("page", strconv.Itoa(n))
	return p.Path + "?" + q.Encode()
}

// CommentForm carries the comment form state.
type CommentForm struct {
	Target string
	Values service.CommentInput
	Errors models.FieldErrors
}

// DetailPage shows one post with its comments.
type DetailPage struct {
	Layout
	Post     *models.Post
	Comments []*models.Comment
	Form     CommentForm
}

// LinksPage shows the friend links and their comments.
type LinksPage struct {
	Layout
	Links    []*models.Link
	Comments []*models.Comment
	Form     CommentForm
}

// CommentResultPage reports a comment submission.
type CommentResultPage struct {
	Layout
	Succeed bool
	Target  string
	Form    CommentForm
}

// ErrorPage is rendered for 4xx and 5xx responses.
type ErrorPage struct {
	Layout
	Status  int
	Message string
}

// Renderer holds one parsed template set per page.
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	base, err := template.New("base.html").Funcs(funcs).ParseFS(files, "templates/base.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse base templates: %w", err)
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, page := range []string{PageList, PageDetail, PageLinks, PageCommentResult, PageError} {
		t, err := base.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(files, "templates/"+page+".html"); err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		r.pages[page] = t
	}
	return r, nil
}

// Render executes page into w. The output is buffered so a template error
// never leaves a half-written response.
func (r *Renderer) Render(w io.Writer, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base.html", data); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
