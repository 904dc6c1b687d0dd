// Package cache is a small get-or-populate cache with Redis and in-memory
// backends. Values are stored JSON-encoded so both backends hand back
// identical copies.
//
// Every key carries a generation that Invalidate advances. A fill only
// stores its value when the generation it started under is still current,
// so a read that overlapped a write never repopulates the cache with the
// pre-write value.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	gens    map[string]uint64
	group   singleflight.Group
	now     func() time.Time
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		gens:    make(map[string]uint64),
		now:     time.Now,
	}
}

func (m *Memory) GetOrPopulate(ctx context.Context, key string, ttl time.Duration, dest any, produce func(context.Context) (any, error)) error {
	data, gen, ok := m.lookup(key)
	if ok {
		return json.Unmarshal(data, dest)
	}

	// callers arriving after an invalidation never join an older fill
	flight := key + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := m.group.Do(flight, func() (any, error) {
		if data, _, ok := m.lookup(key); ok {
			return data, nil
		}
		value, err := produce(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cache: encode %s: %w", key, err)
		}
		m.mu.Lock()
		if m.gens[key] == gen {
			m.entries[key] = memoryEntry{data: data, expires: m.now().Add(ttl)}
		}
		m.mu.Unlock()
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(v.([]byte), dest)
}

func (m *Memory) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.gens[key]++
	m.mu.Unlock()
	return nil
}

// lookup returns the live entry for key, if any, and the key's current
// generation.
func (m *Memory) lookup(key string) ([]byte, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gen := m.gens[key]
	e, ok := m.entries[key]
	if !ok {
		return nil, gen, false
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, gen, false
	}
	return e.data, gen, true
}
