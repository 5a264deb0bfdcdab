package services

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
)

type memoryObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
}

// memoryObjectStore keeps objects in process memory. Used for local
// development (STORAGE_BACKEND=memory) and tests.
type memoryObjectStore struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject
}

func NewMemoryObjectStore(bucket string) ObjectStore {
	return &memoryObjectStore{
		bucket:  bucket,
		objects: make(map[string]memoryObject),
	}
}

func (m *memoryObjectStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memoryObjectStore) Put(_ context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{
		data:        append([]byte(nil), data...),
		contentType: contentType,
		metadata:    maps.Clone(metadata),
	}
	return nil
}

func (m *memoryObjectStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("mem://%s/%s: %w", m.bucket, key, ErrObjectNotFound)
	}
	return append([]byte(nil), obj.data...), nil
}

func (m *memoryObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memoryObjectStore) Metadata(_ context.Context, key string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("mem://%s/%s: %w", m.bucket, key, ErrObjectNotFound)
	}
	return maps.Clone(obj.metadata), nil
}

func (m *memoryObjectStore) Bucket() string {
	return m.bucket
}

func (m *memoryObjectStore) Close() error {
	return nil
}
