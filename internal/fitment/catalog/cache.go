package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"fitment-workers/internal/common/logger"
	"fitment-workers/internal/common/metrics"
	"fitment-workers/internal/models"

	"golang.org/x/sync/singleflight"
)

const refreshKey = "catalog"

// CacheConfig controls snapshot lifetime.
type CacheConfig struct {
	TTL          time.Duration
	FetchTimeout time.Duration
	// StaleRetryInterval is how long a stale snapshot is served after a failed refresh
	// before the store is tried again.
	StaleRetryInterval time.Duration
}

// DefaultCacheConfig returns the 30 minute TTL used in production.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		TTL:                30 * time.Minute,
		FetchTimeout:       10 * time.Second,
		StaleRetryInterval: 30 * time.Second,
	}
}

// Cache is a TTL snapshot of the catalog. Concurrent loads on an expired
// snapshot share one fetch. The returned slice is shared and must not be modified.
type Cache struct {
	store  Store
	config CacheConfig
	logger logger.Logger
	now    func() time.Time
	group  singleflight.Group

	mu          sync.RWMutex
	snapshot    []models.CanonicalVehicle
	loadedAt    time.Time
	retryAfter  time.Time
	invalidated bool
	generation  uint64
	// snapshotGen is the generation the current snapshot was fetched under.
	snapshotGen uint64
}

// NewCache creates a cache over store. Zero config fields take the defaults.
func NewCache(store Store, config CacheConfig, log logger.Logger) *Cache {
	defaults := DefaultCacheConfig()
	if config.TTL <= 0 {
		config.TTL = defaults.TTL
	}
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = defaults.FetchTimeout
	}
	if config.StaleRetryInterval <= 0 {
		config.StaleRetryInterval = defaults.StaleRetryInterval
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Cache{
		store:  store,
		config: config,
		logger: log.WithFields(map[string]interface{}{"component": "catalog-cache"}),
		now:    time.Now,
	}
}

// Load returns the current snapshot, refreshing it from the store when it has expired
// or was invalidated.
func (c *Cache) Load(ctx context.Context) ([]models.CanonicalVehicle, error) {
	c.mu.RLock()
	snapshot, fresh := c.snapshot, c.freshLocked()
	c.mu.RUnlock()
	if fresh {
		metrics.CatalogLoads.WithLabelValues("hit").Inc()
		return snapshot, nil
	}

	v, err, _ := c.group.Do(refreshKey, func() (interface{}, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.CanonicalVehicle), nil
}

// Invalidate forces the next Load to bypass the TTL.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.invalidated = true
	c.retryAfter = time.Time{}
	c.generation++
	c.mu.Unlock()
	c.group.Forget(refreshKey)
	c.logger.Info("catalog snapshot invalidated", nil)
}

// LoadedAt returns when the current snapshot was fetched, zero before the first load.
func (c *Cache) LoadedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadedAt
}

// Size returns the number of vehicles in the current snapshot.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.snapshot)
}

func (c *Cache) freshLocked() bool {
	if c.snapshot == nil || c.invalidated {
		return false
	}
	now := c.now()
	if now.Sub(c.loadedAt) < c.config.TTL {
		return true
	}
	return now.Before(c.retryAfter)
}

func (c *Cache) refresh(ctx context.Context) ([]models.CanonicalVehicle, error) {
	c.mu.RLock()
	if c.freshLocked() {
		snapshot := c.snapshot
		c.mu.RUnlock()
		return snapshot, nil
	}
	generation := c.generation
	previous := c.snapshot
	c.mu.RUnlock()

	fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.FetchTimeout)
	defer cancel()

	start := c.now()
	vehicles, err := c.store.ListVehicles(fetchCtx)
	if err == nil && len(vehicles) == 0 {
		err = ErrCatalogEmpty
	}
	if err != nil {
		if previous != nil {
			c.mu.Lock()
			c.retryAfter = c.now().Add(c.config.StaleRetryInterval)
			if c.generation == generation {
				c.invalidated = false
			}
			c.mu.Unlock()
			metrics.CatalogLoads.WithLabelValues("stale").Inc()
			c.logger.Warn("catalog refresh failed, serving previous snapshot", map[string]interface{}{
				"error":    err,
				"vehicles": len(previous),
			})
			return previous, nil
		}
		metrics.CatalogLoads.WithLabelValues("failed").Inc()
		c.logger.Error("catalog load failed", map[string]interface{}{"error": err})
		if errors.Is(err, ErrCatalogEmpty) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	sorted := sortVehicles(vehicles)

	c.mu.Lock()
	if generation >= c.snapshotGen {
		c.snapshot = sorted
		c.snapshotGen = generation
		c.loadedAt = c.now()
		c.retryAfter = time.Time{}
	}
	if c.generation == generation {
		c.invalidated = false
	}
	c.mu.Unlock()

	metrics.CatalogLoads.WithLabelValues("refreshed").Inc()
	metrics.CatalogSize.Set(float64(len(sorted)))
	c.logger.Info("catalog snapshot refreshed", map[string]interface{}{
		"vehicles":   len(sorted),
		"durationMs": c.now().Sub(start).Milliseconds(),
	})
	return sorted, nil
}

// sortVehicles copies and stable-sorts by (name, id) so ties break the same way on every reload.
func sortVehicles(in []models.CanonicalVehicle) []models.CanonicalVehicle {
	out := make([]models.CanonicalVehicle, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}
