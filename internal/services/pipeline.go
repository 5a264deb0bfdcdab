package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"alfredoptarigan/resume-ingestor/internal/models"
	"alfredoptarigan/resume-ingestor/internal/repositories"
)

const (
	parsedContentType = "text/plain; charset=utf-8"
	// runTimeout bounds a shared run once it no longer follows any caller.
	runTimeout = 5 * time.Minute
)

// Document is one uploaded file.
type Document struct {
	Bytes     []byte
	MediaType string
	Filename  string
}

type IngestionResult struct {
	ContentHash string
	RawKey      string
	ParsedKey   string
	Bucket      string
	// Uploaded is false when the document was already stored.
	Uploaded bool
	Profile  *models.Profile
}

// IngestionPipeline turns an uploaded resume into stored artifacts.
type IngestionPipeline interface {
	Submit(ctx context.Context, doc Document) (*IngestionResult, error)
}

type ingestionPipeline struct {
	store            ObjectStore
	textExtractor    TextExtractor
	profileExtractor ProfileExtractor
	ingestRepo       repositories.IngestionRepository
	indexQueue       IndexQueue
	inflight         singleflight.Group
	logger           arbor.ILogger
}

// NewIngestionPipeline wires the pipeline. ingestRepo and indexQueue may be
// nil when the audit trail or the search index are disabled.
func NewIngestionPipeline(
	store ObjectStore,
	textExtractor TextExtractor,
	profileExtractor ProfileExtractor,
	ingestRepo repositories.IngestionRepository,
	indexQueue IndexQueue,
	logger arbor.ILogger,
) IngestionPipeline {
	return &ingestionPipeline{
		store:            store,
		textExtractor:    textExtractor,
		profileExtractor: profileExtractor,
		ingestRepo:       ingestRepo,
		indexQueue:       indexQueue,
		logger:           logger,
	}
}

// Submit implements IngestionPipeline. Concurrent submissions of identical
// bytes share one run; only the caller that started it reports Uploaded.
// The run is detached from every caller's cancellation, and each caller
// stops waiting when its own context ends.
func (p *ingestionPipeline) Submit(ctx context.Context, doc Document) (*IngestionResult, error) {
	if doc.MediaType != pdfMediaType {
		return nil, &ValidationError{Message: "only PDF documents are accepted", Fields: []string{"file"}}
	}

	hash := ContentHash(doc.Bytes)

	started := false
	ch := p.inflight.DoChan(hash, func() (any, error) {
		started = true
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), runTimeout)
		defer cancel()
		return p.run(runCtx, doc, hash)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := *res.Val.(*IngestionResult)
		if !started {
			result.Uploaded = false
		}
		return &result, nil
	}
}

func (p *ingestionPipeline) run(ctx context.Context, doc Document, hash string) (*IngestionResult, error) {
	rawKey := RawKey(hash)
	tracker := p.newTracker(hash, doc.Filename)
	tracker.advance(models.IngestionStatusHashed, func(r *models.IngestionRecord) {
		r.RawKey = rawKey
	})

	log := p.logger.WithCorrelationId(hash[:hashPrefixLen])

	exists, err := p.store.Exists(ctx, rawKey)
	if err != nil {
		return nil, tracker.fail(StageDedupCheck, &StorageError{Op: "exists", Key: rawKey, Cause: err})
	}

	if exists {
		parsedKey := p.lookupParsedKey(ctx, rawKey)
		tracker.advance(models.IngestionStatusShortCircuited, func(r *models.IngestionRecord) {
			r.ParsedKey = parsedKey
		})
		log.Info().Str("raw_key", rawKey).Msg("Document already ingested, skipping extraction")

		return &IngestionResult{
			ContentHash: hash,
			RawKey:      rawKey,
			ParsedKey:   parsedKey,
			Bucket:      p.store.Bucket(),
			Uploaded:    false,
		}, nil
	}

	content, err := p.textExtractor.ExtractTextWithMetaData(ctx, doc.Bytes)
	if err != nil {
		return nil, tracker.fail(StageExtractText, err)
	}
	tracker.advance(models.IngestionStatusTextExtracted, func(r *models.IngestionRecord) {
		r.PageCount = content.PageCount
	})
	log.Debug().
		Int("page_count", content.PageCount).
		Int("text_length", len(content.Text)).
		Msg("Text extracted")

	profile, err := p.profileExtractor.ExtractProfile(ctx, content.Text)
	if err != nil {
		return nil, tracker.fail(StageExtractProfile, err)
	}
	tracker.advance(models.IngestionStatusProfileExtracted, func(r *models.IngestionRecord) {
		r.CandidateName = profile.Name
	})

	parsedKey := ParsedKey(profile.Name, hash)
	if err := p.persist(ctx, doc, hash, rawKey, parsedKey, profile); err != nil {
		var stageErr *PipelineError
		if errors.As(err, &stageErr) {
			return nil, tracker.fail(stageErr.Stage, stageErr.Err)
		}
		return nil, tracker.fail(StagePersistParsed, err)
	}
	tracker.advance(models.IngestionStatusPersisted, func(r *models.IngestionRecord) {
		r.ParsedKey = parsedKey
	})

	if p.indexQueue != nil {
		p.indexQueue.EnqueueJob(IndexJob{ContentHash: hash, ParsedKey: parsedKey, Profile: profile})
	}

	tracker.advance(models.IngestionStatusDone, func(r *models.IngestionRecord) {
		now := time.Now()
		r.Uploaded = true
		r.CompletedAt = &now
	})
	log.Info().
		Str("raw_key", rawKey).
		Str("parsed_key", parsedKey).
		Msg("Resume ingested")

	return &IngestionResult{
		ContentHash: hash,
		RawKey:      rawKey,
		ParsedKey:   parsedKey,
		Bucket:      p.store.Bucket(),
		Uploaded:    true,
		Profile:     profile,
	}, nil
}

// persist writes the parsed artifact first and the raw document last. The
// raw object doubles as the dedup marker, so it must only exist once its
// companion is stored.
func (p *ingestionPipeline) persist(ctx context.Context, doc Document, hash, rawKey, parsedKey string, profile *models.Profile) error {
	body, err := yaml.Marshal(profile)
	if err != nil {
		return &PipelineError{Stage: StagePersistParsed, Err: fmt.Errorf("failed to encode profile: %w", err)}
	}

	parsedMeta := map[string]string{
		MetaCacheControl: "no-cache",
		MetaContentHash:  hash,
	}
	if err := p.store.Put(ctx, parsedKey, body, parsedContentType, parsedMeta); err != nil {
		return &PipelineError{Stage: StagePersistParsed, Err: &StorageError{Op: "put", Key: parsedKey, Cause: err}}
	}

	rawMeta := map[string]string{
		MetaCacheControl: "no-cache",
		MetaContentHash:  hash,
		MetaParsedKey:    parsedKey,
	}
	if err := p.store.Put(ctx, rawKey, doc.Bytes, pdfMediaType, rawMeta); err != nil {
		return &PipelineError{Stage: StagePersistRaw, Err: &StorageError{Op: "put", Key: rawKey, Cause: err}}
	}

	return nil
}

// lookupParsedKey reads the companion key recorded on the raw object.
// Objects stored before the key was recorded yield "".
func (p *ingestionPipeline) lookupParsedKey(ctx context.Context, rawKey string) string {
	meta, err := p.store.Metadata(ctx, rawKey)
	if err != nil {
		p.logger.Warn().Str("raw_key", rawKey).Err(err).Msg("Failed to read raw object metadata")
		return ""
	}
	return meta[MetaParsedKey]
}

// ingestionTracker mirrors the run's state into the audit trail. Audit
// failures are logged and never fail the run.
type ingestionTracker struct {
	repo   repositories.IngestionRepository
	record *models.IngestionRecord
	logger arbor.ILogger
}

func (p *ingestionPipeline) newTracker(hash, filename string) *ingestionTracker {
	t := &ingestionTracker{
		repo: p.ingestRepo,
		record: &models.IngestionRecord{
			ContentHash:      hash,
			OriginalFilename: filename,
			Status:           models.IngestionStatusReceived,
		},
		logger: p.logger,
	}

	if t.repo != nil {
		if err := t.repo.Create(t.record); err != nil {
			t.logger.Warn().Str("hash", hash).Err(err).Msg("Failed to create ingestion record")
			t.repo = nil
		}
	}

	return t
}

func (t *ingestionTracker) advance(next models.IngestionStatus, mutate func(r *models.IngestionRecord)) {
	if !t.record.Status.CanTransition(next) {
		t.logger.Warn().
			Str("from", string(t.record.Status)).
			Str("to", string(next)).
			Msg("Illegal ingestion transition ignored")
		return
	}

	t.record.Status = next
	if mutate != nil {
		mutate(t.record)
	}
	t.save()
}

// fail moves the run to the failed state and returns the stage-tagged error.
func (t *ingestionTracker) fail(stage Stage, err error) error {
	stageErr := &PipelineError{Stage: stage, Err: err}

	t.logger.Error().
		Str("hash", t.record.ContentHash).
		Str("stage", string(stage)).
		Err(err).
		Msg("Ingestion failed")

	if t.record.Status.CanTransition(models.IngestionStatusFailed) {
		t.record.Status = models.IngestionStatusFailed
		t.record.FailedStage = string(stage)
		t.record.ErrorMessage = err.Error()
		t.save()
	}

	return stageErr
}

func (t *ingestionTracker) save() {
	if t.repo == nil {
		return
	}
	if err := t.repo.Update(t.record); err != nil {
		t.logger.Warn().Str("hash", t.record.ContentHash).Err(err).Msg("Failed to update ingestion record")
	}
}
