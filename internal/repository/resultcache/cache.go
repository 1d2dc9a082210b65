// Package resultcache memoizes grading results in a key-value store.
package resultcache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/codegrade/internal/db"
	"github.com/kailas-cloud/codegrade/internal/grader"
)

// resultKeySpace is versioned with the ScoreResult encoding so entries
// written by an older layout are never decoded.
const resultKeySpace = "result:v2:"

// store is the consumer interface for the result cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key identifies one grading: the question and the exact texts compared.
type Key struct {
	QuestionID string
	Reference  string
	Submission string
}

// Cache is a get-or-compute cache. Concurrent misses on the same key share a
// single computation; only successful results are stored.
type Cache struct {
	store      store
	prefix     string
	ttl        time.Duration
	group      singleflight.Group
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a result cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	s store,
	keyPrefix string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *Cache {
	return &Cache{
		store:      s,
		prefix:     keyPrefix + resultKeySpace,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// GetOrCompute returns the cached result for k or runs compute and caches it.
// Store failures degrade to computing without the cache.
func (c *Cache) GetOrCompute(
	ctx context.Context, k Key, compute func() (grader.ScoreResult, error),
) (grader.ScoreResult, error) {
	key := c.cacheKey(k)

	v, err, _ := c.group.Do(key, func() (any, error) {
		if res, ok := c.getFromCache(ctx, key); ok {
			c.incCache("hit")
			return res, nil
		}
		c.incCache("miss")

		res, err := compute()
		if err != nil {
			return grader.ScoreResult{}, err
		}
		c.putToCache(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return grader.ScoreResult{}, fmt.Errorf("compute result: %w", err)
	}
	return v.(grader.ScoreResult), nil
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes length-prefixed fields so no two keys collide by
// concatenation.
func (c *Cache) cacheKey(k Key) string {
	h := sha256.New()
	for _, part := range []string{k.QuestionID, k.Reference, k.Submission} {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(part)))
		h.Write(n[:])
		h.Write([]byte(part))
	}
	return c.prefix + hex.EncodeToString(h.Sum(nil))
}

func (c *Cache) getFromCache(ctx context.Context, key string) (grader.ScoreResult, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached result", zap.String("key", key), zap.Error(err))
		}
		return grader.ScoreResult{}, false
	}

	var res grader.ScoreResult
	if err := json.Unmarshal(data, &res); err != nil {
		c.logger.Warn("Failed to parse cached result", zap.String("key", key), zap.Error(err))
		return grader.ScoreResult{}, false
	}
	return res, true
}

func (c *Cache) putToCache(ctx context.Context, key string, res grader.ScoreResult) {
	data, err := json.Marshal(res)
	if err != nil {
		c.logger.Warn("Failed to encode result", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache result", zap.String("key", key), zap.Error(err))
	}
}
