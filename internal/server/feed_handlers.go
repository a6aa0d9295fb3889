package server

import (
	"github.com/gofiber/fiber/v2"
)

// RSS handles GET /rss/
func (s *Server) RSS(c *fiber.Ctx) error {
	body, err := s.feeds.RSS(c.UserContext())
	if err != nil {
		return s.pageError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/rss+xml; charset=utf-8")
	return c.Send(body)
}

// Sitemap handles GET /sitemap.xml
func (s *Server) Sitemap(c *fiber.Ctx) error {
	body, err := s.feeds.Sitemap(c.UserContext())
	if err != nil {
		return s.pageError(c, err)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	return c.Send(body)
}
