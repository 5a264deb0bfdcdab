package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/ternarybob/arbor"

	"alfredoptarigan/resume-ingestor/internal/services"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
)

type CandidateHandler struct {
	catalog services.CandidateCatalog
	// index is nil when the search index is disabled.
	index  services.CandidateIndex
	logger arbor.ILogger
}

func NewCandidateHandler(
	catalog services.CandidateCatalog,
	index services.CandidateIndex,
	logger arbor.ILogger,
) *CandidateHandler {
	return &CandidateHandler{
		catalog: catalog,
		index:   index,
		logger:  logger,
	}
}

// HandleListAll returns every stored candidate.
func (h *CandidateHandler) HandleListAll(c *fiber.Ctx) error {
	records, err := h.catalog.ListAll(c.UserContext())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list candidates")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list candidates",
		})
	}

	return c.JSON(records)
}

// HandleGetCandidate returns one candidate by parsed file name.
func (h *CandidateHandler) HandleGetCandidate(c *fiber.Ctx) error {
	record, err := h.catalog.Get(c.UserContext(), c.Params("fileName"))
	if err != nil {
		switch {
		case services.IsValidationError(err):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid candidate file name",
			})
		case errors.Is(err, services.ErrObjectNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Candidate not found",
			})
		}

		h.logger.Error().Err(err).Msg("Failed to fetch candidate")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch candidate",
		})
	}

	return c.JSON(record)
}

// HandleSearch ranks candidates by similarity to the query text.
func (h *CandidateHandler) HandleSearch(c *fiber.Ctx) error {
	if h.index == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"error": "Candidate search is not enabled",
		})
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Query parameter q is required",
		})
	}

	limit := c.QueryInt("limit", defaultSearchLimit)
	if limit < 1 || limit > maxSearchLimit {
		limit = defaultSearchLimit
	}

	hits, err := h.index.SearchCandidates(c.UserContext(), query, limit)
	if err != nil {
		h.logger.Error().Str("query", query).Err(err).Msg("Candidate search failed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to search candidates",
		})
	}

	return c.JSON(hits)
}
