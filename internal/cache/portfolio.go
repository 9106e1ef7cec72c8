package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/config"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	portfolioKeyPrefix   = "portfolio:kpis"
	portfolioScanBatches = 100
)

// PortfolioCache caches the portfolio KPI rollup, which fans out over every
// forecast SKU and is by far the most expensive endpoint.
type PortfolioCache interface {
	GetKPIs(ctx context.Context) (*domain.PortfolioKPIs, bool, error)
	SetKPIs(ctx context.Context, kpis *domain.PortfolioKPIs) error
	InvalidateAll(ctx context.Context) error
}

type redisPortfolioCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopPortfolioCache struct{}

func NewPortfolioCache(cfg config.CacheConfig) (PortfolioCache, error) {
	if !cfg.Enabled {
		return &noopPortfolioCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisPortfolioCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopPortfolioCache() PortfolioCache {
	return &noopPortfolioCache{}
}

func (c *redisPortfolioCache) GetKPIs(ctx context.Context) (*domain.PortfolioKPIs, bool, error) {
	payload, err := c.client.Get(ctx, portfolioKeyPrefix).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var kpis domain.PortfolioKPIs
	if err := json.Unmarshal(payload, &kpis); err != nil {
		return nil, false, fmt.Errorf("decode portfolio kpi cache: %w", err)
	}

	return &kpis, true, nil
}

func (c *redisPortfolioCache) SetKPIs(ctx context.Context, kpis *domain.PortfolioKPIs) error {
	payload, err := json.Marshal(kpis)
	if err != nil {
		return fmt.Errorf("encode portfolio kpi cache: %w", err)
	}

	if err := c.client.Set(ctx, portfolioKeyPrefix, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisPortfolioCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, portfolioKeyPrefix, portfolioScanBatches)
}

func (n *noopPortfolioCache) GetKPIs(ctx context.Context) (*domain.PortfolioKPIs, bool, error) {
	return nil, false, nil
}

func (n *noopPortfolioCache) SetKPIs(ctx context.Context, kpis *domain.PortfolioKPIs) error {
	return nil
}

func (n *noopPortfolioCache) InvalidateAll(ctx context.Context) error {
	return nil
}
