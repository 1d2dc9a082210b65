// Package memory is an in-process db.Store for the memory driver and tests.
package memory

import (
	"context"
	"maps"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/kailas-cloud/codegrade/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// sweepInterval bounds how long expired values can outlive their TTL when
// nobody reads them: the first write after each interval drops them all.
const sweepInterval = time.Minute

type entry struct {
	value    []byte
	expireAt time.Time
}

// Store keeps hashes and values in maps guarded by one mutex. Expired values
// are removed when read and by a sweep piggybacked on writes.
type Store struct {
	mu        sync.RWMutex
	hashes    map[string]map[string]string
	values    map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		hashes: make(map[string]map[string]string),
		values: make(map[string]entry),
		now:    time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(context.Context, time.Duration) error { return nil }

// HSet merges fields into the hash at key.
func (s *Store) HSet(_ context.Context, key string, fields map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hashes[key]
	if !ok {
		h = make(map[string]string, len(fields))
		s.hashes[key] = h
	}
	maps.Copy(h, fields)
	return nil
}

// HGetAll returns a copy of the hash at key.
func (s *Store) HGetAll(_ context.Context, key string) (map[string]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.hashes[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return maps.Clone(h), nil
}

// HGetAllMulti returns copies of several hashes; missing ones are empty.
func (s *Store) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		if h, ok := s.hashes[k]; ok {
			out[i] = maps.Clone(h)
		} else {
			out[i] = map[string]string{}
		}
	}
	return out, nil
}

// Del removes key from both keyspaces.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.hashes, key)
	delete(s.values, key)
	return nil
}

// Exists reports whether key holds a hash or a live value.
func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.hashes[key]; ok {
		return true, nil
	}
	_, ok := s.live(key)
	return ok, nil
}

// Scan returns the sorted keys matching a glob pattern.
func (s *Store) Scan(_ context.Context, pattern string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	for k := range s.values {
		if _, live := s.live(k); !live {
			continue
		}
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Get returns the value at key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(key)
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Set stores value without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores value; a positive ttl makes it expire.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expireAt = s.now().Add(ttl)
	}
	s.values[key] = e

	if now := s.now(); now.Sub(s.lastSweep) >= sweepInterval {
		s.sweep(now)
		s.lastSweep = now
	}
	return nil
}

// Len returns the number of stored values, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}

// live must be called with mu held for writing: an expired entry is
// deleted and reported absent.
func (s *Store) live(key string) (entry, bool) {
	e, ok := s.values[key]
	if !ok {
		return entry{}, false
	}
	if e.expired(s.now()) {
		delete(s.values, key)
		return entry{}, false
	}
	return e, true
}

func (s *Store) sweep(now time.Time) {
	for k, e := range s.values {
		if e.expired(now) {
			delete(s.values, k)
		}
	}
}

func (e entry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}
