package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rapidride/prediction-service/pkg/logger"
	"github.com/rapidride/prediction-service/pkg/models"
	redisclient "github.com/rapidride/prediction-service/pkg/redis"
)

// Manager handles cache-aside operations with JSON serialization. The cache
// is never a source of truth: a missing or unreachable backing store
// degrades every operation to a miss, and callers must never treat cache
// failure as request failure.
type Manager struct {
	redis redisclient.ClientInterface
}

// NewManager creates a new cache manager. A nil client yields a manager
// that always misses.
func NewManager(redis redisclient.ClientInterface) *Manager {
	return &Manager{redis: redis}
}

// Get retrieves a cached value and unmarshals it into result. Returns false
// on miss, expiry, backend failure, or corrupt payload.
func (m *Manager) Get(ctx context.Context, key string, result interface{}) bool {
	if m.redis == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := m.redis.GetString(ctx, key)
	if err != nil {
		return false
	}

	if err := json.Unmarshal([]byte(data), result); err != nil {
		logger.Debug("discarding corrupt cache entry", zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

// Set marshals and caches a value with expiration. Failures are logged and
// absorbed.
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.redis == nil {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := m.redis.SetWithExpiration(ctx, key, string(data), ttl); err != nil {
		logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
		return err
	}

	return nil
}

// SetAsync writes to the cache in the background so the caller never waits
// on the backing store.
func (m *Manager) SetAsync(key string, value interface{}, ttl time.Duration) {
	if m.redis == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.Set(ctx, key, value, ttl)
	}()
}

// Delete removes keys from the cache
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	if m.redis == nil {
		return nil
	}
	return m.redis.Delete(ctx, keys...)
}

// CacheKeys derives deterministic, domain-scoped cache keys. Coordinates
// are rounded to four decimals (~11m) so near-duplicate requests collapse
// into one entry.
type CacheKeys struct{}

var Keys = CacheKeys{}

// Fare returns the cache key for a fare quote
func (k CacheKeys) Fare(origin, dest models.Coordinate, trafficLevel float64) string {
	return fmt.Sprintf("fare:%.4f:%.4f:%.4f:%.4f:%.1f",
		origin.Lat, origin.Lng, dest.Lat, dest.Lng, trafficLevel)
}

// ETA returns the cache key for an ETA estimate
func (k CacheKeys) ETA(origin, dest models.Coordinate, trafficLevel float64) string {
	return fmt.Sprintf("eta:%.4f:%.4f:%.4f:%.4f:%.1f",
		origin.Lat, origin.Lng, dest.Lat, dest.Lng, trafficLevel)
}

// Geo returns the cache key for a reverse-geocoding lookup
func (k CacheKeys) Geo(lat, lng float64) string {
	return fmt.Sprintf("geo:%.4f:%.4f", lat, lng)
}

// Job returns the storage key for an async prediction job record
func (k CacheKeys) Job(jobID string) string {
	return fmt.Sprintf("job:%s", jobID)
}

// CacheTTL fixes the expiry per domain, reflecting how fast each underlying
// truth changes. Not caller-configurable.
type CacheTTL struct{}

var TTL = CacheTTL{}

func (t CacheTTL) Fare() time.Duration { return 300 * time.Second }
func (t CacheTTL) ETA() time.Duration  { return 120 * time.Second }
func (t CacheTTL) Geo() time.Duration  { return 86400 * time.Second }
