package handlers

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/ternarybob/arbor"

	"alfredoptarigan/resume-ingestor/internal/models"
	"alfredoptarigan/resume-ingestor/internal/services"
)

type ParseHandler struct {
	extractor services.ProfileExtractor
	validate  *validator.Validate
	logger    arbor.ILogger
}

func NewParseHandler(extractor services.ProfileExtractor, logger arbor.ILogger) *ParseHandler {
	return &ParseHandler{
		extractor: extractor,
		validate:  validator.New(),
		logger:    logger,
	}
}

// HandleParseResume extracts a profile from already-extracted resume text.
func (h *ParseHandler) HandleParseResume(c *fiber.Ctx) error {
	var req models.ParseResumeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.validate.Struct(req); err != nil || isBlank(req.RawPDF) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "rawpdf is required",
		})
	}

	profile, err := h.extractor.ExtractProfile(c.UserContext(), req.RawPDF)
	if err != nil {
		h.logger.Error().Err(err).Msg("Resume parsing failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to parse resume",
		})
	}

	return c.Status(fiber.StatusOK).JSON(profile)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
