package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"airhealth-cloud/internal/observability/metrics"
	readings "airhealth-cloud/internal/readings/domain"
)

const keyPrefix = "airhealth:aqi:latest:"

// LatestAQICache is a read-through cache in front of an AQIRepository for
// the latest-sample lookup on the submission hot path. Cache failures are
// logged and fall back to the backing repository; they never fail a read.
type LatestAQICache struct {
	client *redis.Client
	next   readings.AQIRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewLatestAQICache wraps a repository with a redis cache.
func NewLatestAQICache(client *redis.Client, next readings.AQIRepository, ttl time.Duration, logger *zap.Logger) (*LatestAQICache, error) {
	if client == nil {
		return nil, errors.New("aqi cache: nil redis client")
	}
	if next == nil {
		return nil, errors.New("aqi cache: nil backing repository")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LatestAQICache{client: client, next: next, ttl: ttl, logger: logger}, nil
}

// Append writes through to the backing repository and warms the cache.
func (c *LatestAQICache) Append(ctx context.Context, sample readings.AQISample) error {
	if err := c.next.Append(ctx, sample); err != nil {
		return err
	}
	c.store(ctx, sample)
	return nil
}

// Latest serves the most recent sample, from cache when possible.
func (c *LatestAQICache) Latest(ctx context.Context, city string) (*readings.AQISample, error) {
	if city != "" {
		data, err := c.client.Get(ctx, keyPrefix+city).Bytes()
		switch {
		case err == nil:
			var sample readings.AQISample
			if jsonErr := json.Unmarshal(data, &sample); jsonErr == nil {
				metrics.IncAQICacheLookup(metrics.CacheHit)
				return &sample, nil
			}
			metrics.IncAQICacheLookup(metrics.CacheError)
			c.logger.Warn("aqi cache: corrupt entry, falling back", zap.String("city", city))
		case errors.Is(err, redis.Nil):
			metrics.IncAQICacheLookup(metrics.CacheMiss)
		default:
			metrics.IncAQICacheLookup(metrics.CacheError)
			c.logger.Warn("aqi cache: read failed, falling back",
				zap.String("city", city),
				zap.Error(err),
			)
		}
	}

	sample, err := c.next.Latest(ctx, city)
	if err != nil {
		return nil, err
	}
	c.store(ctx, *sample)
	return sample, nil
}

// ListByCitySince delegates to the backing repository.
func (c *LatestAQICache) ListByCitySince(ctx context.Context, city string, since time.Time) ([]readings.AQISample, error) {
	return c.next.ListByCitySince(ctx, city, since)
}

// ListByCityRange delegates to the backing repository.
func (c *LatestAQICache) ListByCityRange(ctx context.Context, city string, start, end time.Time) ([]readings.AQISample, error) {
	return c.next.ListByCityRange(ctx, city, start, end)
}

func (c *LatestAQICache) store(ctx context.Context, sample readings.AQISample) {
	data, err := json.Marshal(sample)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+sample.City, data, c.ttl).Err(); err != nil {
		c.logger.Warn("aqi cache: write failed",
			zap.String("city", sample.City),
			zap.Error(err),
		)
	}
}
