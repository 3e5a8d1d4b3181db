package handlers

import (
	"errors"

	"restaurantai/internal/models"
	"restaurantai/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FeedbackSource yields the survey rows a request should work on: the
// uploaded multipart "file" when present, otherwise the configured CSV.
type FeedbackSource struct {
	CSVPath string
}

func (s FeedbackSource) Rows(c *fiber.Ctx) ([]models.FeedbackRow, error) {
	file, err := c.FormFile("file")
	if err == nil {
		src, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer src.Close()
		return service.LoadFeedbackCSV(src)
	}
	if s.CSVPath == "" {
		return nil, errors.New("no feedback file uploaded and no FEEDBACK_CSV_PATH configured")
	}
	return service.LoadFeedbackFile(s.CSVPath)
}
