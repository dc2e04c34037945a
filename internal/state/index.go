// Package state holds the process-local, time-bounded indexes that carry
// workflow state between interactions. Entries remember when they were put
// and are removed only by an explicit sweep; reads never evict, so a
// logically expired entry stays visible until the next sweep tick.
package state

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	createdAt time.Time
}

// Index is a concurrency-safe map whose entries carry a creation time.
// Every method is atomic with respect to the others.
type Index[K comparable, V any] struct {
	name  string
	clock Clock

	mu    sync.RWMutex
	items map[K]entry[V]
}

// NewIndex creates an empty index. name labels metrics and logs.
func NewIndex[K comparable, V any](name string, clock Clock) *Index[K, V] {
	return &Index[K, V]{name: name, clock: clock, items: make(map[K]entry[V])}
}

// Name returns the label given at construction.
func (ix *Index[K, V]) Name() string { return ix.name }

// Put stores v under k, stamping it with the current time. An existing
// entry is replaced along with its timestamp.
func (ix *Index[K, V]) Put(k K, v V) {
	now := ix.clock.Now()
	ix.mu.Lock()
	ix.items[k] = entry[V]{value: v, createdAt: now}
	ix.mu.Unlock()
}

// PutIfAbsent stores v only when k is not present and reports whether it did.
func (ix *Index[K, V]) PutIfAbsent(k K, v V) bool {
	now := ix.clock.Now()
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.items[k]; ok {
		return false
	}
	ix.items[k] = entry[V]{value: v, createdAt: now}
	return true
}

// Get returns the value under k.
func (ix *Index[K, V]) Get(k K) (V, bool) {
	ix.mu.RLock()
	e, ok := ix.items[k]
	ix.mu.RUnlock()
	return e.value, ok
}

// Has reports whether k is present.
func (ix *Index[K, V]) Has(k K) bool {
	_, ok := ix.Get(k)
	return ok
}

// Delete removes k.
func (ix *Index[K, V]) Delete(k K) {
	ix.mu.Lock()
	delete(ix.items, k)
	ix.mu.Unlock()
}

// Take removes k and returns what was stored. At most one concurrent caller
// observes ok == true for a given entry.
func (ix *Index[K, V]) Take(k K) (V, bool) {
	ix.mu.Lock()
	e, ok := ix.items[k]
	if ok {
		delete(ix.items, k)
	}
	ix.mu.Unlock()
	return e.value, ok
}

// Update replaces the value under k with fn(current, present). A new entry
// is stamped with the current time; an existing entry keeps its original
// creation time.
func (ix *Index[K, V]) Update(k K, fn func(cur V, ok bool) V) V {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	e, ok := ix.items[k]
	if !ok {
		e.createdAt = ix.clock.Now()
	}
	e.value = fn(e.value, ok)
	ix.items[k] = e
	return e.value
}

// Len returns the number of entries, expired or not.
func (ix *Index[K, V]) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.items)
}

// Sweep removes entries with now - createdAt > ttl and returns how many.
func (ix *Index[K, V]) Sweep(now time.Time, ttl time.Duration) int {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	n := 0
	for k, e := range ix.items {
		if now.Sub(e.createdAt) > ttl {
			delete(ix.items, k)
			n++
		}
	}
	return n
}
