// internal/engine/engine.go
package engine

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/cache"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/domain"
)

// AggregateSource supplies the per-SKU aggregates the simulation reads.
// Implemented by the postgres repository; tests provide an in-memory fake.
type AggregateSource interface {
	ProductCatalog(ctx context.Context) ([]domain.Product, error)
	MovementDays(ctx context.Context, sku string) ([]domain.MovementPoint, error)
	WindowVolume(ctx context.Context, sku string, win domain.Window) (float64, error)
	WindowForecast(ctx context.Context, sku string, win domain.Window) ([]domain.ForecastPoint, error)
	ForecastSKUs(ctx context.Context) ([]string, error)
}

// Engine runs the deterministic replenishment simulation: it reconstructs a
// current stock level per SKU from rotation, category baseline and window
// volume, estimates daily demand from the forecast, and derives coverage,
// status, reorder quantity and break date. Stock is never observed directly
// in this dataset, only simulated.
//
// Rotation and simulated stock are memoized for the process lifetime; the
// product catalog is loaded once and refreshed only via ReloadCatalog.
type Engine struct {
	cfg     Config
	source  AggregateSource
	planner *Planner

	mu      sync.RWMutex
	catalog map[string]domain.Product

	rotation *cache.ComputeCache[float64]
	stock    *cache.ComputeCache[int]
}

func New(cfg Config, source AggregateSource) *Engine {
	return &Engine{
		cfg:      cfg,
		source:   source,
		planner:  NewPlanner(cfg),
		catalog:  make(map[string]domain.Product),
		rotation: cache.NewComputeCache[float64](),
		stock:    cache.NewComputeCache[int](),
	}
}

// Planner exposes the pure planning stage, mainly for the service layer and
// tests.
func (e *Engine) Planner() *Planner {
	return e.planner
}

// ReloadCatalog replaces the in-memory product lookup with a fresh snapshot.
func (e *Engine) ReloadCatalog(ctx context.Context) error {
	products, err := e.source.ProductCatalog(ctx)
	if err != nil {
		return fmt.Errorf("failed to load product catalog: %w", err)
	}

	catalog := make(map[string]domain.Product, len(products))
	for _, p := range products {
		catalog[p.SKU] = p
	}

	e.mu.Lock()
	e.catalog = catalog
	e.mu.Unlock()

	return nil
}

// ResetCaches drops the rotation and simulated-stock memos, forcing the
// next request to recompute from the current data snapshot.
func (e *Engine) ResetCaches() {
	e.rotation.Reset()
	e.stock.Reset()
}

func (e *Engine) product(sku string) (domain.Product, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.catalog[sku]
	return p, ok
}

// EstimateRotation returns the SKU's average daily OUT volume, averaged
// over days that had any outflow. Days without movement are excluded from
// the denominator, which biases the figure upward against a true calendar
// average; downstream constants are calibrated to exactly this estimate.
func (e *Engine) EstimateRotation(ctx context.Context, sku string) (float64, error) {
	return e.rotation.GetOrCompute(sku, func() (float64, error) {
		days, err := e.source.MovementDays(ctx, sku)
		if err != nil {
			return 0, err
		}

		if len(days) == 0 {
			return e.cfg.DefaultRotation, nil
		}

		var total float64
		for _, d := range days {
			total += d.Quantity
		}

		rotation := total / float64(len(days))
		if rotation < e.cfg.RotationFloor {
			rotation = e.cfg.RotationFloor
		}

		return rotation, nil
	})
}

// WindowDemand estimates the SKU's daily demand from the high forecast
// band inside the evaluation window, adjusted by family and stress
// multipliers. Not memoized: unlike stock it is cheap and callers expect
// it to track the forecast table.
func (e *Engine) WindowDemand(ctx context.Context, sku string) (float64, error) {
	points, err := e.source.WindowForecast(ctx, sku, e.cfg.Window)
	if err != nil {
		return 0, err
	}

	var demand float64
	if len(points) > 0 {
		var total float64
		for _, pt := range points {
			total += pt.DemandHigh
		}
		demand = total / float64(len(points))
	}

	if p, ok := e.product(sku); ok && p.Family != "" {
		demand *= e.cfg.familyMultiplier(p.Family)
	}

	if e.cfg.StressMode {
		demand *= e.cfg.StressMultiplier
	}

	if demand < 0 {
		demand = 0
	}

	return demand, nil
}

// SimulateStock reconstructs the SKU's current stock as rotation x category
// baseline x family adjustment x window-volume factor, floored at
// MinSimulatedStock and truncated to whole units. Memoized per SKU.
func (e *Engine) SimulateStock(ctx context.Context, sku string) (int, error) {
	return e.stock.GetOrCompute(sku, func() (int, error) {
		product, _ := e.product(sku)

		rotation, err := e.EstimateRotation(ctx, sku)
		if err != nil {
			return 0, err
		}

		stock := rotation * e.cfg.categoryBase(product.Category)

		if product.Family != "" {
			stock *= e.cfg.familyMultiplier(product.Family)
		}

		factor, err := e.windowVolumeFactor(ctx, sku)
		if err != nil {
			return 0, err
		}
		stock *= factor

		return int(math.Max(e.cfg.MinSimulatedStock, stock)), nil
	})
}

// windowVolumeFactor scales a SKU by its share of evaluation-window volume
// relative to the reference average, clamped to the configured band.
func (e *Engine) windowVolumeFactor(ctx context.Context, sku string) (float64, error) {
	volume, err := e.source.WindowVolume(ctx, sku, e.cfg.Window)
	if err != nil {
		return 0, err
	}

	if volume <= 0 {
		// no window movement counts as a single unit, not zero
		volume = 1
	}

	factor := volume / e.cfg.ReferenceVolume
	if factor < e.cfg.VolumeFactorMin {
		factor = e.cfg.VolumeFactorMin
	}
	if factor > e.cfg.VolumeFactorMax {
		factor = e.cfg.VolumeFactorMax
	}

	return factor, nil
}

// BuildRecord runs the full per-SKU pipeline: simulate stock, estimate
// demand, plan. Demand and coverage are rounded here, at the output
// boundary; internal arithmetic stays unrounded.
func (e *Engine) BuildRecord(ctx context.Context, sku string) (domain.ReplenishmentRecord, error) {
	stock, err := e.SimulateStock(ctx, sku)
	if err != nil {
		return domain.ReplenishmentRecord{}, err
	}

	demand, err := e.WindowDemand(ctx, sku)
	if err != nil {
		return domain.ReplenishmentRecord{}, err
	}

	plan := e.planner.Plan(stock, demand)

	record := domain.ReplenishmentRecord{
		SKU:            sku,
		SimulatedStock: stock,
		AvgDailyDemand: round2(demand),
		Status:         plan.Status,
		QtyToOrder:     plan.QtyToOrder,
		BreakDate:      plan.BreakDate,
	}
	if plan.CoverageDays != nil {
		coverage := round1(*plan.CoverageDays)
		record.CoverageDays = &coverage
	}

	return record, nil
}

// buildAll runs the pipeline for every SKU that has forecast rows. SKUs
// without forecasts are silently excluded. Results keep the enumeration
// order of the source.
func (e *Engine) buildAll(ctx context.Context) ([]domain.ReplenishmentRecord, error) {
	skus, err := e.source.ForecastSKUs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate forecast skus: %w", err)
	}

	records := make([]domain.ReplenishmentRecord, len(skus))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxParallel())
	for i, sku := range skus {
		g.Go(func() error {
			record, err := e.BuildRecord(gctx, sku)
			if err != nil {
				return fmt.Errorf("failed to build replenishment record for %s: %w", sku, err)
			}
			records[i] = record
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return records, nil
}

func (e *Engine) maxParallel() int {
	if e.cfg.MaxParallel > 0 {
		return e.cfg.MaxParallel
	}

	return 1
}

// ReplenishmentAll returns replenishment records for every forecast SKU,
// most urgent first, truncated to limit (non-positive means no truncation).
func (e *Engine) ReplenishmentAll(ctx context.Context, limit int) ([]domain.ReplenishmentRecord, error) {
	records, err := e.buildAll(ctx)
	if err != nil {
		return nil, err
	}

	e.sortByUrgency(records)

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records, nil
}

// AlertsReorder filters the ranked records down to the alerting statuses.
func (e *Engine) AlertsReorder(ctx context.Context, limit int) ([]domain.ReplenishmentRecord, error) {
	records, err := e.ReplenishmentAll(ctx, 0)
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.ReplenishmentRecord, 0, len(records))
	for _, r := range records {
		if r.Status.IsAlert() {
			alerts = append(alerts, r)
		}
	}

	if limit > 0 && len(alerts) > limit {
		alerts = alerts[:limit]
	}

	return alerts, nil
}

// PortfolioKPIs rolls the full record set into portfolio-level indicators.
// Records with undefined coverage count as zero in the coverage average; the
// shortfall compares total demand over the shortfall horizon against total
// simulated stock.
func (e *Engine) PortfolioKPIs(ctx context.Context) (*domain.PortfolioKPIs, error) {
	records, err := e.buildAll(ctx)
	if err != nil {
		return nil, err
	}

	kpis := &domain.PortfolioKPIs{}
	if len(records) == 0 {
		return kpis, nil
	}

	var (
		coverageSum float64
		demandTotal float64
		stockTotal  float64
	)
	for _, r := range records {
		switch r.Status {
		case domain.StatusBreak:
			kpis.Breaks++
		case domain.StatusRisk:
			kpis.Risks++
		}
		if r.CoverageDays != nil {
			coverageSum += *r.CoverageDays
		}
		kpis.TotalReorder += r.QtyToOrder
		demandTotal += r.AvgDailyDemand * e.cfg.ShortfallHorizonDays
		stockTotal += float64(r.SimulatedStock)
	}

	kpis.TotalAlerts = kpis.Breaks + kpis.Risks

	avgCoverage := coverageSum / float64(len(records))
	kpis.AvgCoverage = &avgCoverage

	if gap := int(demandTotal - stockTotal); gap > 0 {
		kpis.StockShortfall = gap
	}

	return kpis, nil
}

// FamilyCoverage averages the simulated coverage per product family, in
// first-seen enumeration order. SKUs with no catalog family group under
// "Sin familia"; undefined coverage counts as zero.
func (e *Engine) FamilyCoverage(ctx context.Context) ([]domain.FamilyCoverage, error) {
	records, err := e.buildAll(ctx)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		sum float64
		n   int
	}

	var order []string
	buckets := make(map[string]*bucket)

	for _, r := range records {
		family := "Sin familia"
		if p, ok := e.product(r.SKU); ok && p.Family != "" {
			family = p.Family
		}

		b, ok := buckets[family]
		if !ok {
			b = &bucket{}
			buckets[family] = b
			order = append(order, family)
		}

		if r.CoverageDays != nil {
			b.sum += *r.CoverageDays
		}
		b.n++
	}

	result := make([]domain.FamilyCoverage, 0, len(order))
	for _, family := range order {
		b := buckets[family]
		result = append(result, domain.FamilyCoverage{
			Family:   family,
			Coverage: b.sum / float64(b.n),
		})
	}

	return result, nil
}

// sortByUrgency orders by status priority, then ascending coverage; records
// with undefined coverage take the sentinel so they land last within their
// status group.
func (e *Engine) sortByUrgency(records []domain.ReplenishmentRecord) {
	coverageOf := func(r domain.ReplenishmentRecord) float64 {
		if r.CoverageDays == nil {
			return e.cfg.CoverageSortSentinel
		}
		return *r.CoverageDays
	}

	sort.SliceStable(records, func(i, j int) bool {
		pi, pj := records[i].Status.Priority(), records[j].Status.Priority()
		if pi != pj {
			return pi < pj
		}
		return coverageOf(records[i]) < coverageOf(records[j])
	})
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
