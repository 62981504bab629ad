package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"catalog-assistant/internal/common/metrics"
	"catalog-assistant/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKeyProduct = "catalog:product:"
	cacheKeySearch  = "catalog:search:"
)

// CachedGateway keeps product details and text-search hits in Redis. Cache
// failures are logged and fall through to the underlying gateway.
type CachedGateway struct {
	Gateway
	rdb    redis.Cmdable
	ttl    time.Duration
	logger Logger
}

func NewCachedGateway(base Gateway, rdb redis.Cmdable, ttl time.Duration, log Logger) *CachedGateway {
	return &CachedGateway{Gateway: base, rdb: rdb, ttl: ttl, logger: log}
}

func (c *CachedGateway) FetchDetails(ctx context.Context, id string) (*models.ProductRecord, error) {
	key := cacheKeyProduct + id

	var cached models.ProductRecord
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	p, err := c.Gateway.FetchDetails(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, p)
	return p, nil
}

func (c *CachedGateway) SearchByText(ctx context.Context, text string) ([]models.ProductSummary, error) {
	key := cacheKeySearch + strings.ToLower(strings.TrimSpace(text))

	var cached []models.ProductSummary
	if c.get(ctx, key, &cached) {
		return cached, nil
	}

	hits, err := c.Gateway.SearchByText(ctx, text)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, hits)
	return hits, nil
}

func (c *CachedGateway) get(ctx context.Context, key string, out interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.CatalogCacheLookups.WithLabelValues("miss").Inc()
		return false
	}
	if err != nil {
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("catalog cache read failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		metrics.CatalogCacheLookups.WithLabelValues("error").Inc()
		return false
	}
	metrics.CatalogCacheLookups.WithLabelValues("hit").Inc()
	return true
}

func (c *CachedGateway) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("catalog cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
