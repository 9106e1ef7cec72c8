// internal/engine/engine_test.go
package engine

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/domain"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// fakeSource is an in-memory AggregateSource with per-SKU call counters, so
// tests can assert memoization. Safe for the engine's concurrent fan-out.
type fakeSource struct {
	mu sync.Mutex

	products  []domain.Product
	movements map[string][]domain.MovementPoint
	volumes   map[string]float64
	forecasts map[string][]domain.ForecastPoint
	skus      []string

	movementCalls map[string]int
	volumeCalls   map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		movements:     make(map[string][]domain.MovementPoint),
		volumes:       make(map[string]float64),
		forecasts:     make(map[string][]domain.ForecastPoint),
		movementCalls: make(map[string]int),
		volumeCalls:   make(map[string]int),
	}
}

func (f *fakeSource) ProductCatalog(ctx context.Context) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products, nil
}

func (f *fakeSource) MovementDays(ctx context.Context, sku string) ([]domain.MovementPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.movementCalls[sku]++
	return f.movements[sku], nil
}

func (f *fakeSource) WindowVolume(ctx context.Context, sku string, win domain.Window) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumeCalls[sku]++
	return f.volumes[sku], nil
}

func (f *fakeSource) WindowForecast(ctx context.Context, sku string, win domain.Window) ([]domain.ForecastPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forecasts[sku], nil
}

func (f *fakeSource) ForecastSKUs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.skus, nil
}

func (f *fakeSource) movementCallCount(sku string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.movementCalls[sku]
}

func newTestEngine(t *testing.T, source *fakeSource) *Engine {
	t.Helper()

	e := New(DefaultConfig(), source)
	if err := e.ReloadCatalog(context.Background()); err != nil {
		t.Fatalf("ReloadCatalog failed: %v", err)
	}
	return e
}

func outDays(quantities ...float64) []domain.MovementPoint {
	points := make([]domain.MovementPoint, len(quantities))
	for i, q := range quantities {
		points[i] = domain.MovementPoint{Date: "2024-01-01", Quantity: q}
	}
	return points
}

func highForecast(values ...float64) []domain.ForecastPoint {
	points := make([]domain.ForecastPoint, len(values))
	for i, v := range values {
		points[i] = domain.ForecastPoint{Date: "2025-01-01", DemandHigh: v}
	}
	return points
}

func TestEstimateRotation(t *testing.T) {
	ctx := context.Background()

	t.Run("averages over days with outflow", func(t *testing.T) {
		source := newFakeSource()
		source.movements["ABC1"] = outDays(3, 4, 5)
		e := newTestEngine(t, source)

		rotation, err := e.EstimateRotation(ctx, "ABC1")
		if err != nil {
			t.Fatalf("EstimateRotation failed: %v", err)
		}
		if rotation != 4.0 {
			t.Errorf("expected rotation 4.0, got %v", rotation)
		}
	})

	t.Run("defaults when there is no history", func(t *testing.T) {
		source := newFakeSource()
		e := newTestEngine(t, source)

		rotation, err := e.EstimateRotation(ctx, "NOPE")
		if err != nil {
			t.Fatalf("EstimateRotation failed: %v", err)
		}
		if rotation != 1.0 {
			t.Errorf("expected default rotation 1.0, got %v", rotation)
		}
	})

	t.Run("floors tiny averages", func(t *testing.T) {
		source := newFakeSource()
		source.movements["SLOW"] = outDays(0.1, 0.3)
		e := newTestEngine(t, source)

		rotation, err := e.EstimateRotation(ctx, "SLOW")
		if err != nil {
			t.Fatalf("EstimateRotation failed: %v", err)
		}
		if rotation != 0.5 {
			t.Errorf("expected floored rotation 0.5, got %v", rotation)
		}
	})

	t.Run("memoizes per SKU", func(t *testing.T) {
		source := newFakeSource()
		source.movements["ABC1"] = outDays(3, 4, 5)
		e := newTestEngine(t, source)

		for i := 0; i < 3; i++ {
			if _, err := e.EstimateRotation(ctx, "ABC1"); err != nil {
				t.Fatalf("EstimateRotation failed: %v", err)
			}
		}
		if got := source.movementCallCount("ABC1"); got != 1 {
			t.Errorf("expected 1 source query, got %d", got)
		}
	})
}

func TestSimulateStock(t *testing.T) {
	ctx := context.Background()

	t.Run("premium category with reference volume", func(t *testing.T) {
		source := newFakeSource()
		source.products = []domain.Product{{SKU: "ABC1", Category: "Premium"}}
		source.movements["ABC1"] = outDays(3, 4, 5)
		source.volumes["ABC1"] = 300
		e := newTestEngine(t, source)

		stock, err := e.SimulateStock(ctx, "ABC1")
		if err != nil {
			t.Fatalf("SimulateStock failed: %v", err)
		}
		// rotation 4.0 x base 10 x factor 1.0
		if stock != 40 {
			t.Errorf("expected stock 40, got %d", stock)
		}
	})

	t.Run("family multiplier applies", func(t *testing.T) {
		source := newFakeSource()
		source.products = []domain.Product{{SKU: "TOOL", Category: "Premium", Family: "Herramientas"}}
		source.movements["TOOL"] = outDays(3, 4, 5)
		source.volumes["TOOL"] = 300
		e := newTestEngine(t, source)

		stock, err := e.SimulateStock(ctx, "TOOL")
		if err != nil {
			t.Fatalf("SimulateStock failed: %v", err)
		}
		// 4.0 x 10 x 1.3 x 1.0 = 52
		if stock != 52 {
			t.Errorf("expected stock 52, got %d", stock)
		}
	})

	t.Run("never below the minimum", func(t *testing.T) {
		source := newFakeSource()
		source.movements["SLOW"] = outDays(0.2)
		e := newTestEngine(t, source)

		stock, err := e.SimulateStock(ctx, "SLOW")
		if err != nil {
			t.Fatalf("SimulateStock failed: %v", err)
		}
		// rotation floored to 0.5, default base 20, volume factor clamped
		// to 0.5: 0.5 x 20 x 0.5 = 5, the minimum
		if stock != 5 {
			t.Errorf("expected minimum stock 5, got %d", stock)
		}
	})

	t.Run("volume factor clamps high", func(t *testing.T) {
		source := newFakeSource()
		source.products = []domain.Product{{SKU: "HOT", Category: "Premium"}}
		source.movements["HOT"] = outDays(3, 4, 5)
		source.volumes["HOT"] = 3000 // factor 10 clamps to 2.0
		e := newTestEngine(t, source)

		stock, err := e.SimulateStock(ctx, "HOT")
		if err != nil {
			t.Fatalf("SimulateStock failed: %v", err)
		}
		if stock != 80 {
			t.Errorf("expected stock 80, got %d", stock)
		}
	})
}

func TestWindowDemand(t *testing.T) {
	ctx := context.Background()

	t.Run("averages the high band with stress", func(t *testing.T) {
		source := newFakeSource()
		source.forecasts["ABC1"] = highForecast(1.0, 2.0, 3.0)
		e := newTestEngine(t, source)

		demand, err := e.WindowDemand(ctx, "ABC1")
		if err != nil {
			t.Fatalf("WindowDemand failed: %v", err)
		}
		// avg 2.0 x stress 1.5
		if demand != 3.0 {
			t.Errorf("expected demand 3.0, got %v", demand)
		}
	})

	t.Run("zero without forecast rows", func(t *testing.T) {
		source := newFakeSource()
		e := newTestEngine(t, source)

		demand, err := e.WindowDemand(ctx, "NOPE")
		if err != nil {
			t.Fatalf("WindowDemand failed: %v", err)
		}
		if demand != 0 {
			t.Errorf("expected demand 0, got %v", demand)
		}
	})

	t.Run("family multiplier applies", func(t *testing.T) {
		source := newFakeSource()
		source.products = []domain.Product{{SKU: "SAFE", Family: "Seguridad"}}
		source.forecasts["SAFE"] = highForecast(2.0)
		e := newTestEngine(t, source)

		demand, err := e.WindowDemand(ctx, "SAFE")
		if err != nil {
			t.Fatalf("WindowDemand failed: %v", err)
		}
		// 2.0 x 0.8 x 1.5
		if !almostEqual(demand, 2.4) {
			t.Errorf("expected demand 2.4, got %v", demand)
		}
	})
}

func TestBuildRecord(t *testing.T) {
	source := newFakeSource()
	source.products = []domain.Product{{SKU: "ABC1", Category: "Premium"}}
	source.movements["ABC1"] = outDays(3, 4, 5)
	source.volumes["ABC1"] = 300
	source.forecasts["ABC1"] = highForecast(1.0, 2.0, 3.0)
	e := newTestEngine(t, source)

	record, err := e.BuildRecord(context.Background(), "ABC1")
	if err != nil {
		t.Fatalf("BuildRecord failed: %v", err)
	}

	if record.SimulatedStock != 40 {
		t.Errorf("expected stock 40, got %d", record.SimulatedStock)
	}
	if record.AvgDailyDemand != 3.0 {
		t.Errorf("expected demand 3.0, got %v", record.AvgDailyDemand)
	}
	if record.CoverageDays == nil || *record.CoverageDays != 13.3 {
		t.Errorf("expected coverage 13.3, got %v", record.CoverageDays)
	}
	if record.Status != domain.StatusRisk {
		t.Errorf("expected status %s, got %s", domain.StatusRisk, record.Status)
	}
	// 30 x 3.0 - 40
	if record.QtyToOrder != 50 {
		t.Errorf("expected qty 50, got %d", record.QtyToOrder)
	}
	if record.BreakDate == nil || *record.BreakDate != "2025-01-14" {
		t.Errorf("expected break date 2025-01-14, got %v", record.BreakDate)
	}
}

// portfolioSource builds four SKUs spanning every status. All of them share
// simulated stock 10 (rotation 1, default base 20, clamped volume factor
// 0.5); status is driven by the forecast band alone.
func portfolioSource() *fakeSource {
	source := newFakeSource()
	source.skus = []string{"OK1", "NODATA", "RISK1", "BREAK1"}
	for _, sku := range source.skus {
		source.movements[sku] = outDays(1)
	}
	source.forecasts["BREAK1"] = highForecast(2.0) // demand 3.0, coverage 3.3
	source.forecasts["RISK1"] = highForecast(0.8)  // demand 1.2, coverage 8.3
	source.forecasts["OK1"] = highForecast(0.2)    // demand 0.3, coverage 33.3
	return source
}

func TestReplenishmentAllOrdersByUrgency(t *testing.T) {
	e := newTestEngine(t, portfolioSource())

	records, err := e.ReplenishmentAll(context.Background(), 0)
	if err != nil {
		t.Fatalf("ReplenishmentAll failed: %v", err)
	}

	want := []string{"BREAK1", "RISK1", "OK1", "NODATA"}
	if len(records) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(records))
	}
	for i, sku := range want {
		if records[i].SKU != sku {
			t.Errorf("position %d: expected %s, got %s", i, sku, records[i].SKU)
		}
	}
	if records[3].Status != domain.StatusNoData {
		t.Errorf("expected SIN_DATO last, got %s", records[3].Status)
	}
	if records[3].CoverageDays != nil {
		t.Errorf("expected nil coverage for SIN_DATO, got %v", *records[3].CoverageDays)
	}
}

func TestReplenishmentAllTruncates(t *testing.T) {
	e := newTestEngine(t, portfolioSource())

	records, err := e.ReplenishmentAll(context.Background(), 2)
	if err != nil {
		t.Fatalf("ReplenishmentAll failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].SKU != "BREAK1" || records[1].SKU != "RISK1" {
		t.Errorf("expected the two most urgent records, got %s, %s", records[0].SKU, records[1].SKU)
	}
}

func TestAlertsReorderFiltersToAlertStatuses(t *testing.T) {
	e := newTestEngine(t, portfolioSource())

	alerts, err := e.AlertsReorder(context.Background(), 10)
	if err != nil {
		t.Fatalf("AlertsReorder failed: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(alerts))
	}
	for _, a := range alerts {
		if !a.Status.IsAlert() {
			t.Errorf("unexpected status %s in alerts", a.Status)
		}
	}
}

func TestPortfolioKPIs(t *testing.T) {
	e := newTestEngine(t, portfolioSource())

	kpis, err := e.PortfolioKPIs(context.Background())
	if err != nil {
		t.Fatalf("PortfolioKPIs failed: %v", err)
	}

	if kpis.Breaks != 1 || kpis.Risks != 1 {
		t.Errorf("expected 1 break and 1 risk, got %d and %d", kpis.Breaks, kpis.Risks)
	}
	if kpis.TotalAlerts != kpis.Breaks+kpis.Risks {
		t.Errorf("total alerts %d inconsistent with %d + %d", kpis.TotalAlerts, kpis.Breaks, kpis.Risks)
	}
	// qty: BREAK1 int(90-10)=80, RISK1 int(36-10)=26, OK1 and NODATA 0
	if kpis.TotalReorder != 106 {
		t.Errorf("expected total reorder 106, got %d", kpis.TotalReorder)
	}
	// coverages 3.3 + 8.3 + 33.3, nil counts as zero, over 4 records
	if kpis.AvgCoverage == nil || !almostEqual(*kpis.AvgCoverage, 44.9/4) {
		t.Errorf("expected avg coverage %v, got %v", 44.9/4, kpis.AvgCoverage)
	}
	// demand (3.0+1.2+0.3) x 45 = 202.5 against stock 40
	if kpis.StockShortfall != 162 {
		t.Errorf("expected stock shortfall 162, got %d", kpis.StockShortfall)
	}
}

func TestPortfolioKPIsEmpty(t *testing.T) {
	e := newTestEngine(t, newFakeSource())

	kpis, err := e.PortfolioKPIs(context.Background())
	if err != nil {
		t.Fatalf("PortfolioKPIs failed: %v", err)
	}
	if kpis.TotalAlerts != 0 || kpis.TotalReorder != 0 || kpis.StockShortfall != 0 {
		t.Errorf("expected zeroed kpis, got %+v", kpis)
	}
	if kpis.AvgCoverage != nil {
		t.Errorf("expected nil avg coverage for empty portfolio, got %v", *kpis.AvgCoverage)
	}
}

func TestFamilyCoverage(t *testing.T) {
	source := portfolioSource()
	source.products = []domain.Product{
		{SKU: "OK1", Family: "Electricidad"},
		{SKU: "RISK1", Family: "Electricidad"},
		{SKU: "BREAK1", Family: "Fijaciones"},
		// NODATA has no catalog entry
	}
	e := newTestEngine(t, source)

	coverage, err := e.FamilyCoverage(context.Background())
	if err != nil {
		t.Fatalf("FamilyCoverage failed: %v", err)
	}

	if len(coverage) != 3 {
		t.Fatalf("expected 3 families, got %d", len(coverage))
	}
	byFamily := make(map[string]float64, len(coverage))
	for _, fc := range coverage {
		byFamily[fc.Family] = fc.Coverage
	}
	if got := byFamily["Electricidad"]; !almostEqual(got, (33.3+8.3)/2) {
		t.Errorf("expected Electricidad coverage %v, got %v", (33.3+8.3)/2, got)
	}
	if got := byFamily["Fijaciones"]; got != 3.3 {
		t.Errorf("expected Fijaciones coverage 3.3, got %v", got)
	}
	if got, ok := byFamily["Sin familia"]; !ok || got != 0 {
		t.Errorf("expected Sin familia coverage 0, got %v (present: %v)", got, ok)
	}
}

func TestResetCachesForcesRecompute(t *testing.T) {
	ctx := context.Background()
	source := newFakeSource()
	source.movements["ABC1"] = outDays(3, 4, 5)
	e := newTestEngine(t, source)

	if _, err := e.EstimateRotation(ctx, "ABC1"); err != nil {
		t.Fatalf("EstimateRotation failed: %v", err)
	}
	e.ResetCaches()
	if _, err := e.EstimateRotation(ctx, "ABC1"); err != nil {
		t.Fatalf("EstimateRotation failed: %v", err)
	}

	if got := source.movementCallCount("ABC1"); got != 2 {
		t.Errorf("expected 2 source queries after reset, got %d", got)
	}
}

func TestReplenishmentAllIsIdempotent(t *testing.T) {
	source := portfolioSource()
	e := newTestEngine(t, source)
	ctx := context.Background()

	first, err := e.ReplenishmentAll(ctx, 0)
	if err != nil {
		t.Fatalf("ReplenishmentAll failed: %v", err)
	}
	second, err := e.ReplenishmentAll(ctx, 0)
	if err != nil {
		t.Fatalf("ReplenishmentAll failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("expected identical record counts, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].SKU != second[i].SKU || first[i].SimulatedStock != second[i].SimulatedStock ||
			first[i].QtyToOrder != second[i].QtyToOrder || first[i].Status != second[i].Status {
			t.Errorf("record %d diverged between runs: %+v vs %+v", i, first[i], second[i])
		}
	}

	// rotation queries are memoized across runs
	for _, sku := range source.skus {
		if got := source.movementCallCount(sku); got != 1 {
			t.Errorf("expected 1 movement query for %s, got %d", sku, got)
		}
	}
}
