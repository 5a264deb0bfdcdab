package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// ObjectStore is a flat, key-addressed blob store.
type ObjectStore interface {
	// Exists reports whether key is present; absence is not an error.
	Exists(ctx context.Context, key string) (bool, error)
	// Put writes data under key, replacing any previous object.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error
	// Get returns the object bytes or an error wrapping ErrObjectNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// List returns every key starting with prefix, placeholders included.
	List(ctx context.Context, prefix string) ([]string, error)
	// Metadata returns the custom metadata stored with key.
	Metadata(ctx context.Context, key string) (map[string]string, error)
	Bucket() string
	Close() error
}

type gcsObjectStore struct {
	client *storage.Client
	bucket string
}

// NewGCSObjectStore connects with application default credentials.
func NewGCSObjectStore(ctx context.Context, bucket string) (ObjectStore, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	return &gcsObjectStore{
		client: client,
		bucket: bucket,
	}, nil
}

func (s *gcsObjectStore) object(key string) *storage.ObjectHandle {
	return s.client.Bucket(s.bucket).Object(key)
}

// Exists implements ObjectStore.
func (s *gcsObjectStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to stat gs://%s/%s: %w", s.bucket, key, err)
	}

	return true, nil
}

// Put implements ObjectStore.
func (s *gcsObjectStore) Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	// Keys are derived from content, so a replayed write is harmless.
	obj := s.object(key).Retryer(storage.WithPolicy(storage.RetryAlways))

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.ChunkSize = 0
	w.CacheControl, w.Metadata = splitCacheControl(metadata)

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		w.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", s.bucket, key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", s.bucket, key, err)
	}

	return nil
}

// Get implements ObjectStore.
func (s *gcsObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.object(key).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", s.bucket, key, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", s.bucket, key, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", s.bucket, key, err)
	}

	return data, nil
}

// List implements ObjectStore.
func (s *gcsObjectStore) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})

	var keys []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", s.bucket, prefix, err)
		}
		keys = append(keys, attrs.Name)
	}

	return keys, nil
}

// Metadata implements ObjectStore.
func (s *gcsObjectStore) Metadata(ctx context.Context, key string) (map[string]string, error) {
	attrs, err := s.object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("gs://%s/%s: %w", s.bucket, key, ErrObjectNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat gs://%s/%s: %w", s.bucket, key, err)
	}

	return attrs.Metadata, nil
}

func (s *gcsObjectStore) Bucket() string {
	return s.bucket
}

func (s *gcsObjectStore) Close() error {
	return s.client.Close()
}

// splitCacheControl separates the cache directive from custom metadata.
func splitCacheControl(metadata map[string]string) (string, map[string]string) {
	cacheControl := ""
	custom := make(map[string]string, len(metadata))
	for k, v := range metadata {
		if k == MetaCacheControl {
			cacheControl = v
			continue
		}
		custom[k] = v
	}
	return cacheControl, custom
}
