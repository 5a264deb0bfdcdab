package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ternarybob/arbor"

	"alfredoptarigan/resume-ingestor/internal/models"
)

// ProfileExtractor turns resume text into a validated profile.
type ProfileExtractor interface {
	ExtractProfile(ctx context.Context, text string) (*models.Profile, error)
}

type schemaValidatedExtractor struct {
	backend         GenerativeBackend
	schema          *ProfileSchema
	retry           RetryPolicy
	maxOutputTokens int
	logger          arbor.ILogger
}

func NewProfileExtractor(
	backend GenerativeBackend,
	schema *ProfileSchema,
	retry RetryPolicy,
	maxOutputTokens int,
	logger arbor.ILogger,
) ProfileExtractor {
	return &schemaValidatedExtractor{
		backend:         backend,
		schema:          schema,
		retry:           retry,
		maxOutputTokens: maxOutputTokens,
		logger:          logger,
	}
}

// ExtractProfile implements ProfileExtractor. Only transient backend
// failures are retried; a response that fails the schema is returned as a
// ValidationError straight away.
func (e *schemaValidatedExtractor) ExtractProfile(ctx context.Context, text string) (*models.Profile, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Message: "resume text is empty", Fields: []string{"rawpdf"}}
	}

	req := GenerationRequest{
		SystemPrompt:    profileExtractionSystemPrompt,
		Prompt:          BuildProfileExtractionPrompt(e.schema, text),
		Temperature:     0,
		MaxOutputTokens: e.maxOutputTokens,
		JSONResponse:    true,
	}

	e.logger.Debug().
		Str("provider", e.backend.Provider()).
		Int("text_length", len(text)).
		Msg("llm.extract.start")

	var response string
	attempts, err := e.retry.Do(ctx, e.logger, "extract_profile", func(ctx context.Context) error {
		var genErr error
		response, genErr = e.backend.Generate(ctx, req)
		return genErr
	})
	if err != nil {
		e.logger.Error().
			Str("provider", e.backend.Provider()).
			Int("attempts", attempts).
			Err(err).
			Msg("llm.extract.failed")

		var upstream *UpstreamServiceError
		if errors.As(err, &upstream) {
			upstream.Attempts = attempts
			return nil, upstream
		}
		return nil, &UpstreamServiceError{Provider: e.backend.Provider(), Attempts: attempts, Cause: err}
	}

	profile, err := e.schema.Decode([]byte(CleanJSONBlock(response)))
	if err != nil {
		e.logger.Warn().
			Str("provider", e.backend.Provider()).
			Err(err).
			Msg("llm.extract.invalid")
		return nil, err
	}

	e.logger.Info().
		Str("provider", e.backend.Provider()).
		Int("attempts", attempts).
		Int("skills", len(profile.Skills)).
		Msg("llm.extract.ok")

	return profile, nil
}
