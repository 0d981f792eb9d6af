package predictor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"car-price-estimator/metrics"
	"car-price-estimator/models"
	"car-price-estimator/utils"
)

const cacheKeyPrefix = "car-price:prediction:"

// CachedPredictor is a read-through Redis cache in front of another
// Predictor. Predictions are deterministic for a given feature row, so only
// successful estimates are stored. Redis failures are logged and bypassed.
type CachedPredictor struct {
	next   Predictor
	client *redis.Client
	ttl    time.Duration
	logger *utils.Logger
}

// NewCachedPredictor wraps next with a cache stored in client.
func NewCachedPredictor(next Predictor, client *redis.Client, ttl time.Duration, logger *utils.Logger) *CachedPredictor {
	return &CachedPredictor{next: next, client: client, ttl: ttl, logger: logger}
}

func (c *CachedPredictor) Name() string { return NameOf(c.next) + "+redis" }

// Predict implements Predictor.
func (c *CachedPredictor) Predict(ctx context.Context, row models.FeatureRow) (float64, error) {
	key, err := CacheKey(row)
	if err != nil {
		return c.next.Predict(ctx, row)
	}

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if price, perr := strconv.ParseFloat(val, 64); perr == nil {
			metrics.PredictionCacheLookups.WithLabelValues("hit").Inc()
			return price, nil
		}
		c.logger.Warn("[predict] Discarding malformed cache entry %s", key)
	case errors.Is(err, redis.Nil):
		metrics.PredictionCacheLookups.WithLabelValues("miss").Inc()
	default:
		metrics.PredictionCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("[predict] Cache lookup failed, calling predictor directly: %v", err)
	}

	price, err := c.next.Predict(ctx, row)
	if err != nil {
		return 0, err
	}

	if err := c.client.Set(ctx, key, strconv.FormatFloat(price, 'g', -1, 64), c.ttl).Err(); err != nil {
		c.logger.Warn("[predict] Cache store failed: %v", err)
	}
	return price, nil
}

// CacheKey derives a stable key from the row's ordered JSON encoding.
func CacheKey(row models.FeatureRow) (string, error) {
	b, err := json.Marshal(row)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return cacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}
