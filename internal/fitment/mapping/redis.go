package mapping

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/common/metrics"
	"fitment-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix = "fitment:mapping:"

	// DefaultCacheTTL bounds how long a mapping read from the backing store is served from Redis.
	DefaultCacheTTL = time.Hour
)

// CachedStore is a read-through Redis cache in front of another Store.
// Redis failures are logged and fall through to the backing store.
type CachedStore struct {
	next   Store
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(next Store, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &CachedStore{
		next:   next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "mapping-cache"}),
	}
}

// CacheKey is the Redis key for one vendor tag. Both parts are query-escaped so a
// ':' inside either one cannot collide with the separator.
func CacheKey(vendorKey, vendorTag string) string {
	return keyPrefix + url.QueryEscape(vendorKey) + ":" + url.QueryEscape(vendorTag)
}

func (s *CachedStore) GetExistingMapping(ctx context.Context, vendorKey, vendorTag string) (*models.LearnedMapping, error) {
	key := CacheKey(vendorKey, vendorTag)

	raw, err := s.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var m models.LearnedMapping
		if jsonErr := json.Unmarshal(raw, &m); jsonErr != nil {
			metrics.MappingLookups.WithLabelValues("redis", "error").Inc()
			s.logger.Warn("Discarding unreadable cached mapping", map[string]interface{}{
				"key":   key,
				"error": jsonErr,
			})
			break
		}
		metrics.MappingLookups.WithLabelValues("redis", "hit").Inc()
		return &m, nil
	case errors.Is(err, redis.Nil):
		metrics.MappingLookups.WithLabelValues("redis", "miss").Inc()
	default:
		metrics.MappingLookups.WithLabelValues("redis", "error").Inc()
		s.logger.Warn("Mapping cache read failed", map[string]interface{}{
			"key":   key,
			"error": err,
		})
	}

	m, err := s.next.GetExistingMapping(ctx, vendorKey, vendorTag)
	if err != nil {
		metrics.MappingLookups.WithLabelValues("store", "error").Inc()
		return nil, err
	}
	if m == nil {
		metrics.MappingLookups.WithLabelValues("store", "miss").Inc()
		return nil, nil
	}
	metrics.MappingLookups.WithLabelValues("store", "hit").Inc()
	s.put(ctx, *m)
	return m, nil
}

// SaveMapping writes to the backing store first, then refreshes the cached copy.
func (s *CachedStore) SaveMapping(ctx context.Context, m models.LearnedMapping) error {
	if err := s.next.SaveMapping(ctx, m); err != nil {
		return err
	}
	// The backing store may have kept an existing id; drop the entry so the next read repopulates it.
	if err := s.redis.Del(ctx, CacheKey(m.VendorKey, m.VendorTag)).Err(); err != nil {
		s.logger.Warn("Mapping cache invalidation failed", map[string]interface{}{
			"vendorKey": m.VendorKey,
			"vendorTag": m.VendorTag,
			"error":     err,
		})
	}
	return nil
}

func (s *CachedStore) put(ctx context.Context, m models.LearnedMapping) {
	payload, err := json.Marshal(m)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, CacheKey(m.VendorKey, m.VendorTag), payload, s.ttl).Err(); err != nil {
		s.logger.Warn("Mapping cache write failed", map[string]interface{}{
			"vendorKey": m.VendorKey,
			"vendorTag": m.VendorTag,
			"error":     err,
		})
	}
}
