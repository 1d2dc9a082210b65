package redis

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/codegrade/internal/db"
)

// scanPageSize is the COUNT hint for SCAN.
const scanPageSize = 100

// HSet writes fields in key order so identical maps produce identical commands.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := s.client.B().Hset().Key(key).FieldValue()
	for _, name := range names {
		pairs = pairs.FieldValue(name, fields[name])
	}
	return s.exec(ctx, db.OpHSet, pairs.Build())
}

// HGetAll returns db.ErrKeyNotFound for a missing hash.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(key).Build()).AsStrMap()
	switch {
	case err != nil:
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	case len(fields) == 0:
		return nil, db.ErrKeyNotFound
	}
	return fields, nil
}

// HGetAllMulti pipelines HGETALL for keys. A missing hash yields an empty
// map in its slot.
func (s *Store) HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	cmds := make(rueidis.Commands, 0, len(keys))
	for _, key := range keys {
		cmds = append(cmds, s.client.B().Hgetall().Key(key).Build())
	}

	hashes := make([]map[string]string, len(keys))
	for i, res := range s.client.DoMulti(ctx, cmds...) {
		m, err := res.AsStrMap()
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: fmt.Errorf("%s: %w", keys[i], err)}
		}
		hashes[i] = m
	}
	return hashes, nil
}

// Del removes key. Deleting a missing key is not an error.
func (s *Store) Del(ctx context.Context, key string) error {
	return s.exec(ctx, db.OpDel, s.client.B().Del().Key(key).Build())
}

// Exists reports whether key is present.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Do(ctx, s.client.B().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return n == 1, nil
}

// Scan walks the keyspace with SCAN MATCH until the cursor wraps.
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	var (
		found  []string
		cursor uint64
	)
	for {
		page, err := s.client.Do(ctx,
			s.client.B().Scan().Cursor(cursor).Match(pattern).Count(scanPageSize).Build(),
		).AsScanEntry()
		if err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		found = append(found, page.Elements...)
		if cursor = page.Cursor; cursor == 0 {
			return found, nil
		}
	}
}
