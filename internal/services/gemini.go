package services

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/genai"
)

// maxEmbeddingBytes keeps input under the embedding model's ~10k token limit.
const maxEmbeddingBytes = 40000

type GeminiConfig struct {
	APIKey string
	// Project and Location select the Vertex AI backend when APIKey is empty.
	Project    string
	Location   string
	Model      string
	EmbedModel string
}

// GeminiService serves both generation and embeddings from one genai client.
type GeminiService interface {
	GenerativeBackend
	Embedder
}

type geminiService struct {
	client     *genai.Client
	modelName  string
	embedModel string
	provider   string
}

func NewGeminiService(ctx context.Context, cfg GeminiConfig) (GeminiService, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	provider := "gemini"
	if cfg.APIKey == "" {
		clientConfig = &genai.ClientConfig{
			Project:  cfg.Project,
			Location: cfg.Location,
			Backend:  genai.BackendVertexAI,
		}
		provider = "vertex"
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiService{
		client:     client,
		modelName:  cfg.Model,
		embedModel: cfg.EmbedModel,
		provider:   provider,
	}, nil
}

func (g *geminiService) Provider() string {
	return g.provider
}

// Generate implements GenerativeBackend.
func (g *geminiService) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	temperature := req.Temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: int32(req.MaxOutputTokens),
	}
	if req.SystemPrompt != "" {
		config.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.JSONResponse {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.modelName, genai.Text(req.Prompt), config)
	if err != nil {
		return "", g.classify(err)
	}

	if resp == nil {
		return "", &UpstreamServiceError{Provider: g.provider, Cause: errors.New("nil response")}
	}

	text := resp.Text()
	if text == "" {
		return "", &UpstreamServiceError{Provider: g.provider, Cause: errors.New("no text content in response")}
	}

	return text, nil
}

// GenerateEmbedding implements Embedder.
func (g *geminiService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	text = truncateUTF8(text, maxEmbeddingBytes)

	result, err := g.client.Models.EmbedContent(ctx, g.embedModel, genai.Text(text), nil)
	if err != nil {
		return nil, g.classify(err)
	}

	if result == nil || len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}

	return result.Embeddings[0].Values, nil
}

func (g *geminiService) classify(err error) error {
	code := 0

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr):
		code = apiErrPtr.Code
	}

	transient := IsTransient(err)
	if code != 0 {
		transient = IsTransientStatus(code)
	}

	return &UpstreamServiceError{
		Provider:   g.provider,
		StatusCode: code,
		Transient:  transient,
		Cause:      err,
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
