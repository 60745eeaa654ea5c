package storage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"photo-journal-backend/internal/metrics"

	"github.com/google/uuid"
)

// MemoryStore keeps objects in memory and serves them over HTTP.
// Used when running without S3 and in tests.
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
}

// NewMemoryStore creates a memory store whose URLs start with baseURL
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		objects: make(map[string][]byte),
	}
}

// GenerateName returns a unique object name
func (m *MemoryStore) GenerateName() string {
	return uuid.New().String()
}

// Put stores a copy of data under dir+name
func (m *MemoryStore) Put(ctx context.Context, data []byte, name, dir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	key := dir + name
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	m.objects[key] = buf
	m.mu.Unlock()

	metrics.ObjectStoreOp("put", nil)
	return m.baseURL + "/" + key, nil
}

// Delete removes the object behind url
func (m *MemoryStore) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, ok := KeyFromURL(m.baseURL, url)
	if !ok {
		return fmt.Errorf("url %q does not belong to this store", url)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.objects[key]; !exists {
		return fmt.Errorf("object %s not found", key)
	}
	delete(m.objects, key)
	metrics.ObjectStoreOp("delete", nil)
	return nil
}

// Get returns the stored bytes for url
func (m *MemoryStore) Get(url string) ([]byte, bool) {
	key, ok := KeyFromURL(m.baseURL, url)
	if !ok {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, exists := m.objects[key]
	return data, exists
}

// Len returns the number of stored objects
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// ServeHTTP serves objects by key; mount it under the path of baseURL
func (m *MemoryStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	m.mu.RLock()
	data, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Write(data) //nolint:errcheck // client went away
}
