package server

import (
	"strconv"
	"strings"

	"lukeblog/internal/middleware"
	"lukeblog/internal/models"
	"lukeblog/internal/repository"
	"lukeblog/internal/service"
	"lukeblog/internal/view"

	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 3

func (s *Server) pageSize() int {
	if s.config.PageSize > 0 {
		return s.config.PageSize
	}
	return defaultPageSize
}

// renderList loads one page of posts matching filter and renders it.
func (s *Server) renderList(c *fiber.Ctx, page view.ListPage, filter repository.PostFilter) error {
	layout, err := s.layout(c)
	if err != nil {
		return s.pageError(c, err)
	}
	list, err := s.postService.List(c.UserContext(), filter, parsePage(c), s.pageSize())
	if err != nil {
		return s.pageError(c, err)
	}
	page.Layout = layout
	page.Posts = list.Posts
	page.Pagination = list.Pagination
	return s.render(c, fiber.StatusOK, view.PageList, page)
}

// Index handles GET /
func (s *Server) Index(c *fiber.Ctx) error {
	return s.renderList(c, view.ListPage{Path: "/"}, repository.PostFilter{})
}

// CategoryPosts handles GET /category/:id/
func (s *Server) CategoryPosts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.pageError(c, err)
	}
	category, err := s.postService.Category(c.UserContext(), id)
	if err != nil {
		return s.pageError(c, err)
	}
	return s.renderList(c,
		view.ListPage{Category: category, Path: c.Path()},
		repository.PostFilter{CategoryID: id})
}

// TagPosts handles GET /tag/:id/
func (s *Server) TagPosts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.pageError(c, err)
	}
	tag, err := s.postService.Tag(c.UserContext(), id)
	if err != nil {
		return s.pageError(c, err)
	}
	return s.renderList(c,
		view.ListPage{Tag: tag, Path: c.Path()},
		repository.PostFilter{TagID: id})
}

// Search handles GET /search/?keyword=
func (s *Server) Search(c *fiber.Ctx) error {
	keyword := strings.TrimSpace(c.Query("keyword"))
	return s.renderList(c,
		view.ListPage{Keyword: keyword, Path: "/search/"},
		repository.PostFilter{Keyword: keyword})
}

// AuthorPosts handles GET /author/:id
func (s *Server) AuthorPosts(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return s.pageError(c, err)
	}
	author, err := s.postService.Author(c.UserContext(), id)
	if err != nil {
		return s.pageError(c, err)
	}
	return s.renderList(c,
		view.ListPage{Author: author, Path: c.Path()},
		repository.PostFilter{OwnerID: id})
}

// PostDetail handles GET /post/:id.html and counts the visit.
func (s *Server) PostDetail(c *fiber.Ctx) error {
	file := c.Params("file")
	raw, ok := strings.CutSuffix(file, ".html")
	if !ok {
		return s.pageError(c, models.NewNotFoundError("Post", file))
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return s.pageError(c, models.NewNotFoundError("Post", file))
	}

	ctx := c.UserContext()
	target := service.PostTarget(uint(id))
	post, comments, err := s.postService.Detail(ctx, uint(id), target)
	if err != nil {
		return s.pageError(c, err)
	}
	layout, err := s.layout(c)
	if err != nil {
		return s.pageError(c, err)
	}

	s.visitService.Record(ctx, post.ID, middleware.VisitorID(c), target)

	return s.render(c, fiber.StatusOK, view.PageDetail, view.DetailPage{
		Layout:   layout,
		Post:     post,
		Comments: comments,
		Form:     view.CommentForm{Target: target},
	})
}

// Links handles GET /links/
func (s *Server) Links(c *fiber.Ctx) error {
	ctx := c.UserContext()
	layout, err := s.layout(c)
	if err != nil {
		return s.pageError(c, err)
	}
	links, err := s.postService.Links(ctx)
	if err != nil {
		return s.pageError(c, err)
	}
	comments, err := s.commentRepo.ListByTarget(ctx, service.LinksTarget)
	if err != nil {
		return s.pageError(c, models.NewInternalError(err))
	}
	return s.render(c, fiber.StatusOK, view.PageLinks, view.LinksPage{
		Layout:   layout,
		Links:    links,
		Comments: comments,
		Form:     view.CommentForm{Target: service.LinksTarget},
	})
}
