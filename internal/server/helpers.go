package server

import (
	"log/slog"
	"strconv"
	"strings"

	"lukeblog/internal/admin"
	"lukeblog/internal/middleware"
	"lukeblog/internal/models"
	"lukeblog/internal/view"

	"github.com/gofiber/fiber/v2"
)

// wantsJSON reports whether an error on this request should be answered
// with JSON instead of the HTML error page.
func wantsJSON(c *fiber.Ctx) bool {
	path := c.Path()
	if strings.HasPrefix(path, "/api/") || path == "/api" || strings.HasPrefix(path, "/ckeditor/") {
		return true
	}
	for _, site := range admin.Sites {
		if path == "/"+site || strings.HasPrefix(path, "/"+site+"/") {
			return true
		}
	}
	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}

// parsePage reads ?page, defaulting to the first page.
func parsePage(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// parseID extracts a route parameter by name as a positive uint. Malformed
// ids are reported as missing pages.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(param), 10, 64)
	if err != nil || id == 0 {
		return 0, models.NewNotFoundError(param, c.Params(param))
	}
	return uint(id), nil
}

// layout loads the navigation and sidebars shared by every page.
func (s *Server) layout(c *fiber.Ctx) (view.Layout, error) {
	ctx := c.UserContext()
	navs, err := s.postService.Navs(ctx)
	if err != nil {
		return view.Layout{}, err
	}
	sideBars, err := s.postService.SideBars(ctx)
	if err != nil {
		return view.Layout{}, err
	}
	return view.Layout{
		SiteTitle: s.config.SiteTitle,
		Navs:      navs,
		SideBars:  sideBars,
	}, nil
}

// render writes page as HTML with the given status.
func (s *Server) render(c *fiber.Ctx, status int, page string, data any) error {
	c.Status(status)
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return s.views.Render(c, page, data)
}

// renderErrorPage renders the error page. The layout is best effort: a
// broken sidebar must not hide the original error.
func (s *Server) renderErrorPage(c *fiber.Ctx, status int, message string) error {
	layout, err := s.layout(c)
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "error page layout unavailable",
			slog.String("error", err.Error()))
		layout = view.Layout{SiteTitle: s.config.SiteTitle}
	}
	if err := s.render(c, status, view.PageError, view.ErrorPage{
		Layout:  layout,
		Status:  status,
		Message: message,
	}); err != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}

// pageError answers a page request that failed with err.
func (s *Server) pageError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "page failed",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	if wantsJSON(c) {
		return models.RespondWithError(c, status, err)
	}
	message := "Page not found"
	switch status {
	case fiber.StatusNotFound:
	case fiber.StatusBadRequest:
		message = "Bad request"
	default:
		message = "Something went wrong"
	}
	return s.renderErrorPage(c, status, message)
}

// apiError answers an API request that failed with err.
func apiError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "api request failed",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, err)
}
