package server

import (
	"net/url"
	"strconv"
	"time"

	"lukeblog/internal/models"
	"lukeblog/internal/repository"
	"lukeblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultAPIPageSize = 10
	apiTimeLayout      = "06-01-02 15:04:05"
)

// APIPost is one post in an API listing.
type APIPost struct {
	URL         string   `json:"url"`
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Tag         []string `json:"tag"`
	Owner       string   `json:"owner"`
	CreatedTime string   `json:"created_time"`
}

// APIPostDetail is a single post with its rendered body.
type APIPostDetail struct {
	ID          uint     `json:"id"`
	Title       string   `json:"title"`
	Category    string   `json:"category"`
	Tag         []string `json:"tag"`
	Owner       string   `json:"owner"`
	ContentHTML string   `json:"content_html"`
	CreatedTime string   `json:"created_time"`
}

// APICategory is a category in API listings.
type APICategory struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	CreatedTime string `json:"created_time"`
}

// APIPage is a paginated API response. Next and Previous are absolute
// links or null.
type APIPage[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// APICategoryDetail nests the category's posts.
type APICategoryDetail struct {
	APICategory
	Posts APIPage[APIPost] `json:"posts"`
}

func (s *Server) apiPageSize() int {
	if s.config.APIPageSize > 0 {
		return s.config.APIPageSize
	}
	return defaultAPIPageSize
}

// pageLink returns the absolute URL of the current listing at page n.
// The first page carries no page parameter.
func (s *Server) pageLink(c *fiber.Ctx, n int) *string {
	q := url.Values{}
	c.Context().QueryArgs().VisitAll(func(k, v []byte) {
		q.Add(string(k), string(v))
	})
	q.Del("page")
	if n > 1 {
		q.Set("page", strconv.Itoa(n))
	}
	link := s.config.AbsoluteURL(c.Path())
	if encoded := q.Encode(); encoded != "" {
		link += "?" + encoded
	}
	return &link
}

func newAPIPage[T any](s *Server, c *fiber.Ctx, p service.Pagination, results []T) APIPage[T] {
	page := APIPage[T]{Count: p.Total, Results: results}
	if p.HasNext() {
		page.Next = s.pageLink(c, p.NextPage())
	}
	if p.HasPrevious() {
		page.Previous = s.pageLink(c, p.PreviousPage())
	}
	return page
}

func apiTime(t time.Time) string {
	return t.Local().Format(apiTimeLayout)
}

func (s *Server) toAPIPost(p *models.Post) APIPost {
	return APIPost{
		URL:         s.config.AbsoluteURL("/api/post/" + strconv.FormatUint(uint64(p.ID), 10) + "/"),
		ID:          p.ID,
		Title:       p.Title,
		Category:    p.CategoryName(),
		Tag:         p.TagNames(),
		Owner:       p.OwnerName(),
		CreatedTime: apiTime(p.CreatedAt),
	}
}

func toAPICategory(c *models.Category) APICategory {
	return APICategory{ID: c.ID, Name: c.Name, CreatedTime: apiTime(c.CreatedAt)}
}

// listPosts returns one API page of published posts.
func (s *Server) listPosts(c *fiber.Ctx, filter repository.PostFilter) (APIPage[APIPost], error) {
	list, err := s.postService.List(c.UserContext(), filter, parsePage(c), s.apiPageSize())
	if err != nil {
		return APIPage[APIPost]{}, err
	}
	results := make([]APIPost, 0, len(list.Posts))
	for _, p := range list.Posts {
		results = append(results, s.toAPIPost(p))
	}
	return newAPIPage(s, c, list.Pagination, results), nil
}

// APIRoot handles GET /api/
// @Summary API root
// @Tags api
// @Produce json
// @Success 200 {object} object{post=string,category=string}
// @Router / [get]
func (s *Server) APIRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"post":     s.config.AbsoluteURL("/api/post/"),
		"category": s.config.AbsoluteURL("/api/category/"),
	})
}

// APIPostList handles GET /api/post/
// @Summary List posts
// @Description Published posts, newest first
// @Tags api
// @Produce json
// @Param page query int false "Page number"
// @Param category query int false "Category id"
// @Success 200 {object} APIPage[APIPost]
// @Failure 404 {object} models.ErrorResponse
// @Router /post/ [get]
func (s *Server) APIPostList(c *fiber.Ctx) error {
	var filter repository.PostFilter
	if raw := c.Query("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid category"))
		}
		filter.CategoryID = uint(id)
	}
	page, err := s.listPosts(c, filter)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(page)
}

// APIPostDetail handles GET /api/post/:id/
// @Summary Get post
// @Tags api
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} APIPostDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /post/{id}/ [get]
func (s *Server) APIPostDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return apiError(c, err)
	}
	post, err := s.postRepo.GetPublished(c.UserContext(), id)
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(APIPostDetail{
		ID:          post.ID,
		Title:       post.Title,
		Category:    post.CategoryName(),
		Tag:         post.TagNames(),
		Owner:       post.OwnerName(),
		ContentHTML: post.ContentHTML,
		CreatedTime: apiTime(post.CreatedAt),
	})
}

// APICategoryList handles GET /api/category/
// @Summary List categories
// @Tags api
// @Produce json
// @Param page query int false "Page number"
// @Success 200 {object} APIPage[APICategory]
// @Failure 404 {object} models.ErrorResponse
// @Router /category/ [get]
func (s *Server) APICategoryList(c *fiber.Ctx) error {
	p := service.NewPagination(parsePage(c), s.apiPageSize())
	categories, total, err := s.categoryRepo.ListNormalPage(c.UserContext(), p.Size, p.Offset())
	if err != nil {
		return apiError(c, models.NewInternalError(err))
	}
	p.Total = total
	if err := p.Check(); err != nil {
		return apiError(c, err)
	}
	results := make([]APICategory, 0, len(categories))
	for _, cat := range categories {
		results = append(results, toAPICategory(cat))
	}
	return c.JSON(newAPIPage(s, c, p, results))
}

// APICategoryDetail handles GET /api/category/:id/
// @Summary Get category
// @Description A category with the paginated list of its published posts
// @Tags api
// @Produce json
// @Param id path int true "Category ID"
// @Param page query int false "Page of nested posts"
// @Success 200 {object} APICategoryDetail
// @Failure 404 {object} models.ErrorResponse
// @Router /category/{id}/ [get]
func (s *Server) APICategoryDetail(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return apiError(c, err)
	}
	category, err := s.categoryRepo.GetByID(c.UserContext(), id)
	if err != nil {
		return apiError(c, err)
	}
	if category.Status != models.StatusNormal {
		return apiError(c, models.NewNotFoundError("Category", id))
	}
	posts, err := s.listPosts(c, repository.PostFilter{CategoryID: id})
	if err != nil {
		return apiError(c, err)
	}
	return c.JSON(APICategoryDetail{
		APICategory: toAPICategory(category),
		Posts:       posts,
	})
}
