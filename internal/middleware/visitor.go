package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	// VisitorCookie holds the anonymous visitor id used by the visit counter.
	VisitorCookie = "uid"
	// VisitorLocal is the Fiber locals key carrying the visitor id.
	VisitorLocal = "uid"

	visitorCookieTTL = 365 * 24 * time.Hour
)

// Visitor makes sure every request carries a stable anonymous visitor id.
// Browsers without the cookie get a fresh uuid that is set on the response.
func Visitor() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uid := c.Cookies(VisitorCookie)
		if _, err := uuid.Parse(uid); err != nil {
			uid = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     VisitorCookie,
				Value:    uid,
				Path:     "/",
				Expires:  time.Now().Add(visitorCookieTTL),
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(VisitorLocal, uid)
		return c.Next()
	}
}

// VisitorID returns the id set by Visitor, or "" outside that middleware.
func VisitorID(c *fiber.Ctx) string {
	uid, _ := c.Locals(VisitorLocal).(string)
	return uid
}
