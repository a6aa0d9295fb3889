package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags returns the evaluated feature flags for the current user.
// @Summary Feature flags
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{flags=[]featureflags.State}
// @Router /features [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	return c.JSON(fiber.Map{
		"flags": s.featureFlags.States(userID),
	})
}
