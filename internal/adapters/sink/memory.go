package sink

import (
	"context"
	"sync"
	"time"
)

// Object is a stored artifact held by the memory sink.
type Object struct {
	Body        []byte
	ContentType string
}

// Memory keeps artifacts in process memory.
type Memory struct {
	bucket string

	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemory creates an empty in-memory sink.
func NewMemory(bucket string) *Memory {
	return &Memory{bucket: bucket, objects: make(map[string]Object)}
}

// Put stores a copy of body under key.
func (m *Memory) Put(ctx context.Context, key string, body []byte, contentType string) (uri string, err error) {
	start := time.Now()
	defer func() { observe(m.Backend(), start, err) }()
	if err = ctx.Err(); err != nil {
		return "", err
	}
	if key == "" {
		err = ErrEmptyKey
		return "", err
	}
	m.mu.Lock()
	m.objects[key] = Object{Body: append([]byte(nil), body...), ContentType: contentType}
	m.mu.Unlock()
	return URI("mem", m.bucket, key), nil
}

// Backend names the sink.
func (m *Memory) Backend() string { return "memory" }

// Get returns the object stored under key.
func (m *Memory) Get(key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o, ok
}

// Keys lists stored keys.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys
}
