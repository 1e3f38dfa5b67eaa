// Package cache backs the category read cache. Keys follow the
// id-<id> / name-<name> / all-page-<n>-<size>-<sort> scheme; writers
// evict specific keys and clear the page prefix after a store commit.
package cache

import (
	"container/list"
	"context"
	"strings"
	"sync"
)

// Cache is a byte-value cache with key and prefix eviction.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, keys ...string)
	DeletePrefix(ctx context.Context, prefix string)
}

// Memory is a process-local cache bounded to maxEntries; the oldest
// entry is evicted when the bound is hit.
type Memory struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
}

type memoryEntry struct {
	key   string
	value []byte
}

// NewMemory builds a bounded in-memory cache. maxEntries <= 0 means 1024.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &Memory{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	m.order.MoveToBack(el)
	return el.Value.(*memoryEntry).value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.entries[key]; ok {
		el.Value.(*memoryEntry).value = value
		m.order.MoveToBack(el)
		return
	}
	for len(m.entries) >= m.maxEntries {
		oldest := m.order.Front()
		if oldest == nil {
			break
		}
		m.order.Remove(oldest)
		delete(m.entries, oldest.Value.(*memoryEntry).key)
	}
	m.entries[key] = m.order.PushBack(&memoryEntry{key: key, value: value})
}

func (m *Memory) Delete(_ context.Context, keys ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		if el, ok := m.entries[key]; ok {
			m.order.Remove(el)
			delete(m.entries, key)
		}
	}
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, el := range m.entries {
		if strings.HasPrefix(key, prefix) {
			m.order.Remove(el)
			delete(m.entries, key)
		}
	}
}
