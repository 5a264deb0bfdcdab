package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type failingListStore struct {
	ObjectStore
}

func (failingListStore) List(context.Context, string) ([]string, error) {
	return nil, errors.New("permission denied")
}

func seedCatalog(t *testing.T, store ObjectStore, keys ...string) {
	t.Helper()
	ctx := context.Background()
	for _, key := range keys {
		require.NoError(t, store.Put(ctx, key, []byte("content of "+key), "text/plain", nil))
	}
}

func TestCatalog_ListAll(t *testing.T) {
	store := newFlakyStore()
	seedCatalog(t, store,
		"parsed/",
		"parsed/jane_q_doe-1a2b3c4d.txt",
		"parsed/john_smith-deadbeef.txt",
		"abcdef.pdf",
	)

	catalog := NewCandidateCatalog(store, 4, arbor.NewLogger())
	records, err := catalog.ListAll(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, "jane_q_doe", records[0].Name)
	assert.Equal(t, "parsed/jane_q_doe-1a2b3c4d.txt", records[0].FileName)
	assert.Equal(t, "content of parsed/jane_q_doe-1a2b3c4d.txt", records[0].Content)
	assert.Empty(t, records[0].Error)
	assert.Equal(t, "john_smith", records[1].Name)
}

func TestCatalog_ListAll_Empty(t *testing.T) {
	catalog := NewCandidateCatalog(NewMemoryObjectStore("b"), 4, arbor.NewLogger())

	records, err := catalog.ListAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCatalog_ListAll_PerItemFailure(t *testing.T) {
	store := newFlakyStore()
	seedCatalog(t, store,
		"parsed/a-00000001.txt",
		"parsed/b-00000002.txt",
		"parsed/c-00000003.txt",
	)
	store.getErr["parsed/b-00000002.txt"] = errors.New("timeout")

	catalog := NewCandidateCatalog(store, 2, arbor.NewLogger())
	records, err := catalog.ListAll(context.Background())
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.NotEmpty(t, records[0].Content)
	assert.Empty(t, records[1].Content)
	assert.Equal(t, "failed to fetch content", records[1].Error)
	assert.Equal(t, "b", records[1].Name)
	assert.NotEmpty(t, records[2].Content)
}

func TestCatalog_ListAll_ListFailure(t *testing.T) {
	catalog := NewCandidateCatalog(failingListStore{NewMemoryObjectStore("b")}, 2, arbor.NewLogger())

	_, err := catalog.ListAll(context.Background())
	var storageErr *StorageError
	assert.ErrorAs(t, err, &storageErr)
}

func TestCatalog_ListAll_ManyItems(t *testing.T) {
	store := NewMemoryObjectStore("b")
	for i := 0; i < 50; i++ {
		seedCatalog(t, store, fmt.Sprintf("parsed/candidate_%02d-%08x.txt", i, i))
	}

	records, err := NewCandidateCatalog(store, 3, arbor.NewLogger()).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 50)
	for i, r := range records {
		assert.Equal(t, fmt.Sprintf("candidate_%02d", i), r.Name)
		assert.NotEmpty(t, r.Content)
	}
}

func TestCatalog_Get(t *testing.T) {
	store := NewMemoryObjectStore("b")
	seedCatalog(t, store, "parsed/jane_q_doe-1a2b3c4d.txt")
	catalog := NewCandidateCatalog(store, 1, arbor.NewLogger())

	record, err := catalog.Get(context.Background(), "jane_q_doe-1a2b3c4d.txt")
	require.NoError(t, err)
	assert.Equal(t, "jane_q_doe", record.Name)

	_, err = catalog.Get(context.Background(), "missing-00000000.txt")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = catalog.Get(context.Background(), "../secret")
	assert.True(t, IsValidationError(err))
}
