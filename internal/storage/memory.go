package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// MemoryStore is an in-process ObjectStore for local runs and tests
type MemoryStore struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string]map[string][]byte
	types   map[string]string
}

// NewMemoryStore creates an empty store whose public URLs start with baseURL
func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "memory://"
	}
	return &MemoryStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string]map[string][]byte),
		types:   make(map[string]string),
	}
}

// Put stores data under bucket/name
func (m *MemoryStore) Put(bucket, name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects[bucket] == nil {
		m.objects[bucket] = make(map[string][]byte)
	}
	m.objects[bucket][name] = append([]byte(nil), data...)
}

// Get returns the object data and whether it exists
func (m *MemoryStore) Get(bucket, name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[bucket][name]
	return data, ok
}

// ContentType returns the content type recorded at upload
func (m *MemoryStore) ContentType(bucket, name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.types[bucket+"/"+name]
}

// Names returns every object name in bucket, sorted
func (m *MemoryStore) Names(bucket string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.objects[bucket]))
	for name := range m.objects[bucket] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns the objects directly under prefix, sorted by name
func (m *MemoryStore) List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.objects[bucket]; !ok {
		return nil, storageError("list", bucket, prefix, fmt.Errorf("bucket does not exist"))
	}

	var out []ObjectInfo
	for name, data := range m.objects[bucket] {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || strings.Contains(strings.TrimSuffix(rest, "/"), "/") {
			continue
		}
		out = append(out, ObjectInfo{Name: name, Size: int64(len(data))})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Download writes the object to w
func (m *MemoryStore) Download(ctx context.Context, bucket, name string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, ok := m.Get(bucket, name)
	if !ok {
		return storageError("download", bucket, name, fmt.Errorf("object does not exist"))
	}
	_, err := io.Copy(w, bytes.NewReader(data))
	return err
}

// Upload stores the content of r
func (m *MemoryStore) Upload(ctx context.Context, bucket, name string, r io.Reader, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storageError("upload", bucket, name, err)
	}
	m.Put(bucket, name, data)

	m.mu.Lock()
	m.types[bucket+"/"+name] = contentType
	m.mu.Unlock()
	return nil
}

// PublicURL returns <base>/<bucket>/<name>
func (m *MemoryStore) PublicURL(bucket, name string) string {
	return publicURL(m.baseURL, bucket, name)
}
