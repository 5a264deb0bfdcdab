package services

import (
	"context"
	"strings"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"alfredoptarigan/resume-ingestor/internal/models"
)

// CandidateCatalog reads the stored parsed artifacts back as candidates.
type CandidateCatalog interface {
	ListAll(ctx context.Context) ([]models.CandidateRecord, error)
	Get(ctx context.Context, fileName string) (*models.CandidateRecord, error)
}

type candidateCatalog struct {
	store       ObjectStore
	concurrency int
	logger      arbor.ILogger
}

func NewCandidateCatalog(store ObjectStore, concurrency int, logger arbor.ILogger) CandidateCatalog {
	if concurrency < 1 {
		concurrency = 1
	}
	return &candidateCatalog{
		store:       store,
		concurrency: concurrency,
		logger:      logger,
	}
}

// ListAll implements CandidateCatalog. A listing failure fails the call; a
// failed fetch only marks its own record.
func (c *candidateCatalog) ListAll(ctx context.Context) ([]models.CandidateRecord, error) {
	keys, err := c.store.List(ctx, ParsedPrefix)
	if err != nil {
		return nil, &StorageError{Op: "list", Key: ParsedPrefix, Cause: err}
	}

	files := make([]string, 0, len(keys))
	for _, key := range keys {
		// folder placeholders
		if strings.HasSuffix(key, "/") {
			continue
		}
		files = append(files, key)
	}

	records := make([]models.CandidateRecord, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i, key := range files {
		g.Go(func() error {
			records[i] = models.CandidateRecord{
				Name:     DisplayNameFromKey(key),
				FileName: key,
			}

			data, err := c.store.Get(gctx, key)
			if err != nil {
				c.logger.Warn().Str("key", key).Err(err).Msg("Failed to fetch candidate artifact")
				records[i].Error = "failed to fetch content"
				return nil
			}

			records[i].Content = string(data)
			return nil
		})
	}

	// fetch errors are recorded per item, so Wait only reports cancellation
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("candidates", len(records)).Msg("Catalog listed")
	return records, nil
}

// Get implements CandidateCatalog. fileName is the base name under the
// parsed prefix, e.g. "jane_q_doe-1a2b3c4d.txt".
func (c *candidateCatalog) Get(ctx context.Context, fileName string) (*models.CandidateRecord, error) {
	if fileName == "" || strings.Contains(fileName, "/") {
		return nil, &ValidationError{Message: "invalid candidate file name", Fields: []string{"fileName"}}
	}

	key := ParsedPrefix + fileName
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, &StorageError{Op: "get", Key: key, Cause: err}
	}

	return &models.CandidateRecord{
		Name:     DisplayNameFromKey(key),
		FileName: key,
		Content:  string(data),
	}, nil
}
