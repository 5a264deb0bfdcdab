package services

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qdrant/go-client/qdrant"
	"github.com/ternarybob/arbor"

	"alfredoptarigan/resume-ingestor/internal/models"
)

// CandidateIndex is a similarity index over extracted profiles.
type CandidateIndex interface {
	InitCollection(ctx context.Context) error
	IndexProfile(ctx context.Context, job IndexJob) error
	SearchCandidates(ctx context.Context, query string, limit int) ([]models.CandidateSearchHit, error)
}

type qdrantService struct {
	client         *qdrant.Client
	embedder       Embedder
	collectionName string
	vectorSize     uint64
	logger         arbor.ILogger
}

func NewQdrantService(urlStr, apiKey, collectionName string, embedder Embedder, logger arbor.ILogger) (CandidateIndex, error) {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid Qdrant URL: %w", err)
	}

	host := parsed.Hostname()
	useTLS := parsed.Scheme == "https"

	// gRPC port
	port := 6334
	if p := parsed.Port(); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			port = v
		}
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &qdrantService{
		client:         client,
		embedder:       embedder,
		collectionName: collectionName,
		vectorSize:     768, // text-embedding-004
		logger:         logger,
	}, nil
}

// InitCollection implements CandidateIndex.
func (q *qdrantService) InitCollection(ctx context.Context) error {
	exists, err := q.client.CollectionExists(ctx, q.collectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if exists {
		q.logger.Debug().Str("collection", q.collectionName).Msg("Qdrant collection already exists")
		return nil
	}

	err = q.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: q.collectionName,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     q.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	q.logger.Info().Str("collection", q.collectionName).Msg("Qdrant collection created")
	return nil
}

// IndexProfile implements CandidateIndex. Re-indexing the same document
// overwrites its point.
func (q *qdrantService) IndexProfile(ctx context.Context, job IndexJob) error {
	pointID, err := pointIDFromHash(job.ContentHash)
	if err != nil {
		return err
	}

	embedding, err := q.embedder.GenerateEmbedding(ctx, ProfileEmbeddingText(job.Profile))
	if err != nil {
		return fmt.Errorf("failed to embed profile: %w", err)
	}

	point := &qdrant.PointStruct{
		Id:      qdrant.NewIDNum(pointID),
		Vectors: qdrant.NewVectors(embedding...),
		Payload: qdrant.NewValueMap(map[string]any{
			"content_hash": job.ContentHash,
			"parsed_key":   job.ParsedKey,
			"name":         job.Profile.Name,
			"email":        job.Profile.Email,
		}),
	}

	_, err = q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.collectionName,
		Points:         []*qdrant.PointStruct{point},
	})
	if err != nil {
		return fmt.Errorf("failed to upsert point: %w", err)
	}

	return nil
}

// SearchCandidates implements CandidateIndex.
func (q *qdrantService) SearchCandidates(ctx context.Context, query string, limit int) ([]models.CandidateSearchHit, error) {
	embedding, err := q.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	points, err := q.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: q.collectionName,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}

	hits := make([]models.CandidateSearchHit, 0, len(points))
	for _, point := range points {
		parsedKey := payloadString(point.Payload, "parsed_key")
		hits = append(hits, models.CandidateSearchHit{
			Name:        DisplayNameFromKey(parsedKey),
			Email:       payloadString(point.Payload, "email"),
			FileName:    parsedKey,
			ContentHash: payloadString(point.Payload, "content_hash"),
			Score:       point.Score,
		})
	}

	return hits, nil
}

func payloadString(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		if s, ok := v.GetKind().(*qdrant.Value_StringValue); ok {
			return s.StringValue
		}
	}
	return ""
}

// pointIDFromHash derives a stable numeric point id from the content hash.
func pointIDFromHash(hash string) (uint64, error) {
	if len(hash) < 16 {
		return 0, fmt.Errorf("content hash too short: %q", hash)
	}
	b, err := hex.DecodeString(hash[:16])
	if err != nil {
		return 0, fmt.Errorf("invalid content hash: %w", err)
	}
	return binary.BigEndian.Uint64(b), nil
}

// ProfileEmbeddingText flattens the searchable parts of a profile.
func ProfileEmbeddingText(p *models.Profile) string {
	var parts []string
	add := func(label string, v *string) {
		if v != nil && strings.TrimSpace(*v) != "" {
			parts = append(parts, label+": "+*v)
		}
	}

	parts = append(parts, "Name: "+p.Name)
	add("Title", p.CurrentJobTitle)
	add("Company", p.CurrentCompany)
	add("Summary", p.Summary)
	if len(p.Skills) > 0 {
		parts = append(parts, "Skills: "+strings.Join(p.Skills, ", "))
	}
	for _, exp := range p.Experience {
		add("Experience", exp.Title)
	}
	for _, proj := range p.Projects {
		add("Project", proj.Name)
		if len(proj.TechStack) > 0 {
			parts = append(parts, "Tech: "+strings.Join(proj.TechStack, ", "))
		}
	}

	return strings.Join(parts, "\n")
}
