package common

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

type ttlEntry[V any] struct {
	value   V
	created time.Time
}

// TTLMap forgets its entries a fixed time after they were put, measured on
// the provided clock. Expired entries are invisible to every lookup and
// are dropped either on lookup or by Sweep
type TTLMap[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]ttlEntry[V]
	ttl     time.Duration
	clock   Clock
}

func NewTTLMap[K comparable, V any](ttl time.Duration, clock Clock) *TTLMap[K, V] {
	return &TTLMap[K, V]{entries: make(map[K]ttlEntry[V]), ttl: ttl, clock: clock}
}

func (m *TTLMap[K, V]) TTL() time.Duration {
	return m.ttl
}

// Put a value, replacing any earlier one. Returns the time it was put
func (m *TTLMap[K, V]) Put(key K, value V) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	m.entries[key] = ttlEntry[V]{value: value, created: now}
	return now
}

func (m *TTLMap[K, V]) Get(key K) (V, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.live(key)
	return entry.value, ok
}

// Update a live value in place, keeping the time it was put. Nothing is
// stored when fn fails. ok is false if there was no live value
func (m *TTLMap[K, V]) Update(key K, fn func(value *V) error) (value V, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.live(key)
	if !ok {
		return value, false, nil
	}
	if err := fn(&entry.value); err != nil {
		return entry.value, true, err
	}
	m.entries[key] = entry
	return entry.value, true, nil
}

// Take a live value out if check accepts it. A refused value stays put
func (m *TTLMap[K, V]) Take(key K, check func(value V) error) (value V, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.live(key)
	if !ok {
		return value, false, nil
	}
	if check != nil {
		if err := check(entry.value); err != nil {
			return entry.value, true, err
		}
	}
	delete(m.entries, key)
	return entry.value, true, nil
}

func (m *TTLMap[K, V]) Delete(key K) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
}

// Number of stored entries, expired ones not swept yet included
func (m *TTLMap[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Drop every expired entry, returning how many were dropped
func (m *TTLMap[K, V]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	dropped := 0
	for key, entry := range m.entries {
		if m.expired(entry) {
			delete(m.entries, key)
			dropped++
		}
	}
	return dropped
}

// Sweep every interval until the context is done
func (m *TTLMap[K, V]) Run(ctx context.Context, interval time.Duration, what string) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if dropped := m.Sweep(); dropped > 0 {
				log.Debug().Msg(fmt.Sprintf("Dropped %d expired %s", dropped, what))
			}
		}
	}
}

// Must be called with the lock held
func (m *TTLMap[K, V]) live(key K) (ttlEntry[V], bool) {
	entry, ok := m.entries[key]
	if !ok {
		return ttlEntry[V]{}, false
	}
	if m.expired(entry) {
		delete(m.entries, key)
		return ttlEntry[V]{}, false
	}
	return entry, true
}

func (m *TTLMap[K, V]) expired(entry ttlEntry[V]) bool {
	return m.clock.Now().Sub(entry.created) >= m.ttl
}
