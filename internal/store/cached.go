package store

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sunoh/radiovault/internal/cache"
	"github.com/sunoh/radiovault/internal/models"
)

// Cache TTLs for station reads. Lookups tolerate slightly stale data; sync
// runs invalidate on write anyway.
const (
	ttlStations = 1 * time.Minute
	ttlStation  = 5 * time.Minute
)

// CachedStore wraps a Store with a Redis caching layer.
// Read-heavy operations are served from cache when possible;
// write operations invalidate the relevant cache keys.
type CachedStore struct {
	inner Store
	cache *cache.Redis
}

// NewCachedStore creates a CachedStore that wraps inner with Redis caching.
func NewCachedStore(inner Store, c *cache.Redis) *CachedStore {
	return &CachedStore{inner: inner, cache: c}
}

// UpsertStation passes through to the inner store and invalidates station caches.
func (c *CachedStore) UpsertStation(ctx context.Context, st *models.Station) (bool, error) {
	created, err := c.inner.UpsertStation(ctx, st)
	if err != nil {
		return created, err
	}
	c.invalidate(ctx, "station:"+st.Slug)
	c.invalidatePattern(ctx, "stations:*")
	return created, nil
}

// GetStationBySlug serves a single station from cache when possible.
func (c *CachedStore) GetStationBySlug(ctx context.Context, slug string) (*models.Station, error) {
	key := "station:" + slug
	if v, err := cache.Get[models.Station](ctx, c.cache, key); err == nil {
		return &v, nil
	}
	st, err := c.inner.GetStationBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if err := cache.Set(ctx, c.cache, key, st, ttlStation); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return st, nil
}

// stationListResult is a helper type to cache the ListStations tuple.
type stationListResult struct {
	Stations []models.Station `json:"stations"`
	Total    int              `json:"total"`
}

// ListStations serves filtered station lists from cache when possible.
func (c *CachedStore) ListStations(ctx context.Context, filter StationFilter) ([]models.Station, int, error) {
	key := "stations:" + filterHash(filter)
	if v, err := cache.Get[stationListResult](ctx, c.cache, key); err == nil {
		return v.Stations, v.Total, nil
	}
	stations, total, err := c.inner.ListStations(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if err := cache.Set(ctx, c.cache, key, stationListResult{Stations: stations, Total: total}, ttlStations); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
	return stations, total, nil
}

// SetStationVerified passes through and invalidates station caches.
func (c *CachedStore) SetStationVerified(ctx context.Context, stationID int64, verified bool) error {
	if err := c.inner.SetStationVerified(ctx, stationID, verified); err != nil {
		return err
	}
	c.invalidatePattern(ctx, "stations:*", "station:*")
	return nil
}

// --- helpers ---

// invalidate deletes exact cache keys, logging any errors.
func (c *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := cache.Del(ctx, c.cache, keys...); err != nil && err != redis.Nil {
		log.Printf("cache: del %v: %v", keys, err)
	}
}

// invalidatePattern deletes all keys matching the given glob patterns.
func (c *CachedStore) invalidatePattern(ctx context.Context, patterns ...string) {
	for _, p := range patterns {
		if err := cache.DelPattern(ctx, c.cache, p); err != nil {
			log.Printf("cache: del pattern %s: %v", p, err)
		}
	}
}

// filterHash produces a short deterministic hash for a StationFilter so it
// can be used as part of a cache key.
func filterHash(f StationFilter) string {
	raw := fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d",
		f.Country, f.Genre, f.Language, f.Status, f.Search, f.Limit, f.Offset)
	h := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%x", h[:8])
}
