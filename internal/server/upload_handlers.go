package server

import (
	"io"
	"log/slog"

	"lukeblog/internal/middleware"
	"lukeblog/internal/models"
	"lukeblog/internal/service"

	"github.com/gofiber/fiber/v2"
)

// editorUploadError is the error body the rich-text editor expects.
type editorUploadError struct {
	Uploaded int `json:"uploaded"`
	Error    struct {
		Message string `json:"message"`
	} `json:"error"`
}

func respondUploadError(c *fiber.Ctx, status int, message string) error {
	var body editorUploadError
	body.Error.Message = message
	return c.Status(status).JSON(body)
}

// UploadImage handles POST /ckeditor/upload/ for the rich-text editor.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(uint)
	file, err := c.FormFile("upload")
	if err != nil {
		file, err = c.FormFile("image")
	}
	if err != nil {
		return respondUploadError(c, fiber.StatusBadRequest, "No file uploaded")
	}

	src, err := file.Open()
	if err != nil {
		return respondUploadError(c, fiber.StatusBadRequest, "Unable to read uploaded file")
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return respondUploadError(c, fiber.StatusBadRequest, "Unable to read uploaded file")
	}

	uploaded, err := s.imageService.Upload(c.UserContext(), service.UploadImageInput{
		UserID:      userID,
		Filename:    file.Filename,
		ContentType: file.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	if err != nil {
		status := models.StatusFor(err)
		message := err.Error()
		if status >= fiber.StatusInternalServerError {
			middleware.Logger.ErrorContext(c.UserContext(), "image upload failed",
				slog.String("error", err.Error()))
			message = "Upload failed"
		}
		return respondUploadError(c, status, message)
	}

	return c.JSON(fiber.Map{
		"uploaded": 1,
		"fileName": uploaded.FileName,
		"url":      uploaded.URL,
		"webp_url": uploaded.WebPURL,
		"width":    uploaded.Width,
		"height":   uploaded.Height,
	})
}
