package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryObjectStore("test-bucket")

	exists, err := store.Exists(ctx, "missing.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Get(ctx, "missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	_, err = store.Metadata(ctx, "missing.pdf")
	assert.ErrorIs(t, err, ErrObjectNotFound)

	require.NoError(t, store.Put(ctx, "parsed/", nil, "", nil))
	require.NoError(t, store.Put(ctx, "parsed/a-00000000.txt", []byte("one"), "text/plain", map[string]string{"k": "v"}))
	require.NoError(t, store.Put(ctx, "parsed/a-00000000.txt", []byte("two"), "text/plain", nil))
	require.NoError(t, store.Put(ctx, "abc.pdf", []byte("%PDF"), "application/pdf", nil))

	data, err := store.Get(ctx, "parsed/a-00000000.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	keys, err := store.List(ctx, ParsedPrefix)
	require.NoError(t, err)
	assert.Equal(t, []string{"parsed/", "parsed/a-00000000.txt"}, keys)

	assert.Equal(t, "test-bucket", store.Bucket())
}

func TestSplitCacheControl(t *testing.T) {
	cc, custom := splitCacheControl(map[string]string{
		MetaCacheControl: "no-cache",
		MetaParsedKey:    "parsed/x-00000000.txt",
	})

	assert.Equal(t, "no-cache", cc)
	assert.Equal(t, map[string]string{MetaParsedKey: "parsed/x-00000000.txt"}, custom)
}
