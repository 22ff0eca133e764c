// Package memory holds the process-local stores behind the admin login flow:
// challenges, rate-limit windows and sessions.
//
// Each store keeps its records in a sharded map so unrelated identities never
// contend on the same lock, while every mutation of one key is serialized.
package memory

import (
	"hash/fnv"
	"sync"

	"go.uber.org/atomic"
)

const shardCount = 64

type shard[V any] struct {
	mu    sync.Mutex
	items map[string]V
}

type shardedMap[V any] struct {
	shards [shardCount]*shard[V]
	size   *atomic.Int64
}

func newShardedMap[V any]() *shardedMap[V] {
	m := &shardedMap[V]{size: atomic.NewInt64(0)}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return m
}

func (m *shardedMap[V]) shardFor(key string) *shard[V] {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return m.shards[h.Sum32()%shardCount]
}

func (m *shardedMap[V]) get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[key]
	return v, ok
}

// compute replaces the value of key with the result of fn while holding the
// key's shard lock. Returning keep=false removes the key.
func (m *shardedMap[V]) compute(key string, fn func(cur V, ok bool) (next V, keep bool)) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[key]
	next, keep := fn(cur, ok)

	switch {
	case keep:
		s.items[key] = next
		if !ok {
			m.size.Inc()
		}
	case ok:
		delete(s.items, key)
		m.size.Dec()
	}
}

// deleteIf removes key when pred holds for its current value.
func (m *shardedMap[V]) deleteIf(key string, pred func(V) bool) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.items[key]
	if !ok || !pred(v) {
		return false
	}

	delete(s.items, key)
	m.size.Dec()
	return true
}

// collect snapshots the keys whose values satisfy pred, one shard at a time.
func (m *shardedMap[V]) collect(pred func(V) bool) []string {
	var keys []string
	for _, s := range m.shards {
		s.mu.Lock()
		for k, v := range s.items {
			if pred(v) {
				keys = append(keys, k)
			}
		}
		s.mu.Unlock()
	}
	return keys
}

// sweep removes every key matching pred. Each removal re-checks pred under
// its own lock acquisition, so a key replaced since the snapshot survives.
func (m *shardedMap[V]) sweep(pred func(V) bool) int {
	removed := 0
	for _, key := range m.collect(pred) {
		if m.deleteIf(key, pred) {
			removed++
		}
	}
	return removed
}

func (m *shardedMap[V]) len() int {
	return int(m.size.Load())
}
