package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"alfredoptarigan/resume-ingestor/internal/models"
)

type fakeCandidateIndex struct {
	mu      sync.Mutex
	indexed []IndexJob
	err     error
	done    chan struct{}
}

func (f *fakeCandidateIndex) InitCollection(context.Context) error { return nil }

func (f *fakeCandidateIndex) IndexProfile(_ context.Context, job IndexJob) error {
	f.mu.Lock()
	f.indexed = append(f.indexed, job)
	f.mu.Unlock()
	if f.done != nil {
		f.done <- struct{}{}
	}
	return f.err
}

func (f *fakeCandidateIndex) SearchCandidates(context.Context, string, int) ([]models.CandidateSearchHit, error) {
	return nil, nil
}

func TestWorker_ProcessesJobs(t *testing.T) {
	index := &fakeCandidateIndex{done: make(chan struct{}, 3), err: errors.New("first fails")}
	w := NewWorker(index, 2, 10, arbor.NewLogger())
	w.Start(context.Background())

	profile := &models.Profile{Name: "Jane", Email: "jane@example.com"}
	for _, hash := range []string{"a", "b", "c"} {
		require.True(t, w.EnqueueJob(IndexJob{ContentHash: hash, Profile: profile}))
	}

	for i := 0; i < 3; i++ {
		select {
		case <-index.done:
		case <-time.After(2 * time.Second):
			t.Fatal("index job was not processed")
		}
	}

	w.Stop()

	index.mu.Lock()
	defer index.mu.Unlock()
	assert.Len(t, index.indexed, 3)
}

func TestWorker_DropsWhenStoppedOrFull(t *testing.T) {
	w := NewWorker(&fakeCandidateIndex{}, 1, 1, arbor.NewLogger())

	// not started, so the single slot fills up
	assert.True(t, w.EnqueueJob(IndexJob{ContentHash: "a"}))
	assert.False(t, w.EnqueueJob(IndexJob{ContentHash: "b"}))

	w.Stop()
	assert.False(t, w.EnqueueJob(IndexJob{ContentHash: "c"}))
}

func TestProfileEmbeddingText(t *testing.T) {
	title := "Staff Engineer"
	project := "ingest"
	text := ProfileEmbeddingText(&models.Profile{
		Name:            "Jane",
		CurrentJobTitle: &title,
		Skills:          []string{"Go", "SQL"},
		Projects:        []models.Project{{Name: &project, TechStack: []string{"GCS"}}},
	})

	assert.Contains(t, text, "Name: Jane")
	assert.Contains(t, text, "Title: Staff Engineer")
	assert.Contains(t, text, "Skills: Go, SQL")
	assert.Contains(t, text, "Project: ingest")
	assert.Contains(t, text, "Tech: GCS")
	assert.NotContains(t, text, "Company")
}

func TestPointIDFromHash(t *testing.T) {
	hash := ContentHash([]byte("x"))

	a, err := pointIDFromHash(hash)
	require.NoError(t, err)
	b, err := pointIDFromHash(hash)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = pointIDFromHash("short")
	assert.Error(t, err)
	_, err = pointIDFromHash("zzzzzzzzzzzzzzzzzzzz")
	assert.Error(t, err)
}
