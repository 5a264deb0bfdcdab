package services

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"alfredoptarigan/resume-ingestor/internal/models"
)

// IndexJob asks for one stored profile to be added to the search index.
type IndexJob struct {
	ContentHash string
	ParsedKey   string
	Profile     *models.Profile
}

// IndexQueue accepts index jobs without blocking the caller.
type IndexQueue interface {
	EnqueueJob(job IndexJob) bool
}

type Worker interface {
	IndexQueue
	Start(ctx context.Context)
	Stop()
}

type worker struct {
	index       CandidateIndex
	jobQueue    chan IndexJob
	concurrency int
	jobTimeout  time.Duration
	wg          sync.WaitGroup
	stopChan    chan struct{}
	stopOnce    sync.Once
	logger      arbor.ILogger
}

func NewWorker(index CandidateIndex, concurrency, queueSize int, logger arbor.ILogger) Worker {
	return &worker{
		index:       index,
		jobQueue:    make(chan IndexJob, queueSize),
		concurrency: concurrency,
		jobTimeout:  time.Minute,
		stopChan:    make(chan struct{}),
		logger:      logger,
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.logger.Info().Int("concurrency", w.concurrency).Msg("Index worker started")
}

// Stop implements Worker. Queued jobs that were not picked up are dropped.
func (w *worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopChan)
	})
	w.wg.Wait()
	w.logger.Info().Msg("Index worker stopped")
}

// EnqueueJob implements IndexQueue. It reports false when the job was
// dropped because the worker is stopped or the queue is full.
func (w *worker) EnqueueJob(job IndexJob) bool {
	select {
	case <-w.stopChan:
		w.logger.Warn().Str("hash", job.ContentHash).Msg("Index worker stopped, job dropped")
		return false
	default:
	}

	select {
	case w.jobQueue <- job:
		w.logger.Debug().Str("hash", job.ContentHash).Msg("Index job enqueued")
		return true
	default:
		w.logger.Warn().Str("hash", job.ContentHash).Msg("Index queue full, job dropped")
		return false
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		case job := <-w.jobQueue:
			w.process(ctx, workerID, job)
		}
	}
}

func (w *worker) process(ctx context.Context, workerID int, job IndexJob) {
	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	start := time.Now()
	if err := w.index.IndexProfile(jobCtx, job); err != nil {
		w.logger.Error().
			Int("worker", workerID).
			Str("hash", job.ContentHash).
			Err(err).
			Msg("Failed to index profile")
		return
	}

	w.logger.Info().
		Int("worker", workerID).
		Str("parsed_key", job.ParsedKey).
		Dur("elapsed", time.Since(start)).
		Msg("Profile indexed")
}
