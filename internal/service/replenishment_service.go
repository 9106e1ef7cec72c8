// internal/service/replenishment_service.go
package service

import (
	"context"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/cache"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/domain"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/engine"
	"github.com/rs/zerolog/log"
)

// ReplenishmentService fronts the simulation engine and layers the optional
// Redis cache over the portfolio KPI rollup.
type ReplenishmentService struct {
	engine *engine.Engine
	cache  cache.PortfolioCache
}

func NewReplenishmentService(eng *engine.Engine, cacheImpl cache.PortfolioCache) *ReplenishmentService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopPortfolioCache()
	}
	return &ReplenishmentService{engine: eng, cache: cacheImpl}
}

func (s *ReplenishmentService) ReplenishmentAll(ctx context.Context, limit int) ([]domain.ReplenishmentRecord, error) {
	return s.engine.ReplenishmentAll(ctx, limit)
}

func (s *ReplenishmentService) AlertsReorder(ctx context.Context, limit int) ([]domain.ReplenishmentRecord, error) {
	return s.engine.AlertsReorder(ctx, limit)
}

func (s *ReplenishmentService) PortfolioKPIs(ctx context.Context) (*domain.PortfolioKPIs, error) {
	if kpis, ok, err := s.cache.GetKPIs(ctx); err == nil && ok {
		return kpis, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("portfolio: cache get failed")
	}

	kpis, err := s.engine.PortfolioKPIs(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetKPIs(ctx, kpis); err != nil {
		log.Warn().Err(err).Msg("portfolio: cache set failed")
	}

	return kpis, nil
}

func (s *ReplenishmentService) FamilyCoverage(ctx context.Context) ([]domain.FamilyCoverage, error) {
	return s.engine.FamilyCoverage(ctx)
}

// InvalidateCaches drops the engine memos, reloads the product catalog and
// clears the cached KPI rollup. This is the staleness escape hatch: the
// compute caches otherwise live as long as the process.
func (s *ReplenishmentService) InvalidateCaches(ctx context.Context) error {
	s.engine.ResetCaches()

	if err := s.engine.ReloadCatalog(ctx); err != nil {
		return err
	}

	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("portfolio: cache invalidate failed")
	}

	return nil
}
