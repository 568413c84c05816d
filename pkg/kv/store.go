// Package kv provides a generic thread-safe map with ordered prefix listing.
package kv

import (
	"cmp"
	"slices"
	"strings"
	"sync"
)

// Store is a thread-safe map. Values are stored as given; callers that hand
// out mutable values copy them on the way in and out.
type Store[K ~string, V any] struct {
	mu   sync.RWMutex
	data map[K]V
}

// New creates an empty store.
func New[K ~string, V any]() *Store[K, V] {
	return &Store[K, V]{data: make(map[K]V)}
}

// Get retrieves a value by key.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.data[key]
	return val, ok
}

// Set stores a value by key.
func (s *Store[K, V]) Set(key K, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

// Delete removes a key. Deleting a missing key is a no-op.
func (s *Store[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// Len returns the number of entries.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// KeysWithPrefix returns the keys starting with prefix in ascending order.
func (s *Store[K, V]) KeysWithPrefix(prefix string) []K {
	s.mu.RLock()
	keys := make([]K, 0, len(s.data))
	for k := range s.data {
		if strings.HasPrefix(string(k), prefix) {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(keys, func(a, b K) int { return cmp.Compare(a, b) })
	return keys
}
