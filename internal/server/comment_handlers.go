package server

import (
	"errors"

	"lukeblog/internal/models"
	"lukeblog/internal/service"
	"lukeblog/internal/view"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /comment/. JSON clients get the outcome as
// JSON; form posts get the result page.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	asJSON := c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON

	var in service.CommentInput
	if err := c.BodyParser(&in); err != nil {
		if asJSON {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
		return s.pageError(c, models.NewValidationError("Invalid request body"))
	}

	comment, err := s.commentService.Create(c.UserContext(), in)
	var fieldErrs models.FieldErrors
	if err != nil && !errors.As(err, &fieldErrs) {
		if asJSON {
			return apiError(c, err)
		}
		return s.pageError(c, err)
	}

	if asJSON {
		if fieldErrs != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"succeed": false,
				"errors":  fieldErrs,
			})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"succeed": true,
			"target":  comment.Target,
			"comment": comment,
		})
	}

	layout, err := s.layout(c)
	if err != nil {
		return s.pageError(c, err)
	}
	status := fiber.StatusOK
	if fieldErrs != nil {
		status = fiber.StatusBadRequest
	}
	return s.render(c, status, view.PageCommentResult, view.CommentResultPage{
		Layout:  layout,
		Succeed: fieldErrs == nil,
		Target:  in.Target,
		Form: view.CommentForm{
			Target: in.Target,
			Values: in,
			Errors: fieldErrs,
		},
	})
}
