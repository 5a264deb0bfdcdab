package services

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type claudeService struct {
	client    anthropic.Client
	modelName string
}

// NewClaudeService builds an Anthropic backend. SDK-level retries are
// disabled so RetryPolicy alone decides what is retried.
func NewClaudeService(apiKey, model string) GenerativeBackend {
	return &claudeService{
		client: anthropic.NewClient(
			option.WithAPIKey(apiKey),
			option.WithMaxRetries(0),
		),
		modelName: model,
	}
}

func (c *claudeService) Provider() string {
	return "claude"
}

// Generate implements GenerativeBackend.
func (c *claudeService) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.modelName),
		MaxTokens: int64(req.MaxOutputTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Temperature: anthropic.Float(float64(req.Temperature)),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", c.classify(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", &UpstreamServiceError{Provider: c.Provider(), Cause: errors.New("no text content in response")}
	}

	return text.String(), nil
}

func (c *claudeService) classify(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &UpstreamServiceError{
			Provider:   c.Provider(),
			StatusCode: apiErr.StatusCode,
			Transient:  IsTransientStatus(apiErr.StatusCode),
			Cause:      err,
		}
	}

	return &UpstreamServiceError{
		Provider:  c.Provider(),
		Transient: IsTransient(err),
		Cause:     err,
	}
}
