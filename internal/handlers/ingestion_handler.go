package handlers

import (
	"errors"
	"regexp"

	"github.com/gofiber/fiber/v2"

	"alfredoptarigan/resume-ingestor/internal/repositories"
)

var contentHashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

type IngestionHandler struct {
	ingestRepo repositories.IngestionRepository
}

func NewIngestionHandler(ingestRepo repositories.IngestionRepository) *IngestionHandler {
	return &IngestionHandler{ingestRepo: ingestRepo}
}

// HandleGetIngestion returns the latest audit record for a content hash.
func (h *IngestionHandler) HandleGetIngestion(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if !contentHashPattern.MatchString(hash) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid content hash",
		})
	}

	record, err := h.ingestRepo.FindLatestByHash(hash)
	if err != nil {
		if errors.Is(err, repositories.ErrIngestionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Ingestion not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch ingestion",
		})
	}

	return c.JSON(record)
}

func (h *IngestionHandler) HandleListRecent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}

	records, err := h.ingestRepo.FindRecent(limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list ingestions",
		})
	}

	return c.JSON(records)
}
