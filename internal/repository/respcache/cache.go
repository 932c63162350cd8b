// Package respcache caches assembled search responses in a key-value store.
package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/chronik/internal/db"
	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
	"github.com/kailas-cloud/chronik/internal/domain/search/request"
	"github.com/kailas-cloud/chronik/internal/domain/search/result"
)

const keyPrefix = "chronik:search:"

// DefaultTTL is used when New gets a non-positive ttl.
const DefaultTTL = 30 * time.Second

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores search responses for a short time.
type Cache struct {
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a response cache.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"/"error"), passed explicitly.
func New(s store, ttl time.Duration, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: s, ttl: ttl, cacheTotal: cacheTotal, logger: logger}
}

// Get returns a cached response. Any store failure is a miss.
func (c *Cache) Get(ctx context.Context, userID string, req *request.Request) (result.Response, bool) {
	key := cacheKey(userID, req.Sanitized(), req.Types(), req.Limit())

	data, err := c.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			c.inc("miss")
		} else {
			c.inc("error")
			c.logger.Warn("Failed to get cached search response", zap.String("key", key), zap.Error(err))
		}
		return result.Response{}, false
	}

	var resp result.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		c.inc("error")
		c.logger.Warn("Failed to decode cached search response", zap.String("key", key), zap.Error(err))
		return result.Response{}, false
	}
	if resp.Groups == nil {
		resp.Groups = []result.Group{}
	}

	c.inc("hit")
	return resp, true
}

// Put stores resp. Failures are logged, never returned.
func (c *Cache) Put(ctx context.Context, userID string, req *request.Request, resp result.Response) {
	key := cacheKey(userID, req.Sanitized(), req.Types(), req.Limit())

	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Warn("Failed to encode search response", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache search response", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) inc(res string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(res).Inc()
	}
}

// cacheKey hashes the key so user ids and query text never appear in the store.
func cacheKey(userID, text string, ts []entity.Type, limit int) string {
	types := make([]string, len(ts))
	for i, t := range ts {
		types[i] = string(t)
	}
	slices.Sort(types)

	h := sha256.New()
	for _, part := range []string{userID, text, strings.Join(types, ","), strconv.Itoa(limit)} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return keyPrefix + hex.EncodeToString(h.Sum(nil))
}
