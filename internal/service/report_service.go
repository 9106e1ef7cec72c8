// internal/service/report_service.go
package service

import (
	"context"
	"fmt"
	"math"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/domain"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/repository"
)

const compareHistoryDays = 60

// ReportService serves the read-only reporting endpoints: catalog, series,
// comparisons and the global model-quality KPIs. No simulation happens here.
type ReportService struct {
	repo repository.InventoryRepository
	win  domain.Window
}

func NewReportService(repo repository.InventoryRepository, win domain.Window) *ReportService {
	return &ReportService{repo: repo, win: win}
}

func (s *ReportService) GetSKUs(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ProductCatalog(ctx)
}

func (s *ReportService) GetHistory(ctx context.Context, sku string) ([]domain.MovementPoint, error) {
	return s.repo.MovementDays(ctx, sku)
}

func (s *ReportService) GetForecast(ctx context.Context, sku string) ([]domain.ForecastPoint, error) {
	return s.repo.ForecastSeries(ctx, sku)
}

func (s *ReportService) GetWindowActuals(ctx context.Context, sku string) ([]domain.MovementPoint, error) {
	return s.repo.WindowMovementDays(ctx, sku, s.win)
}

// ForecastCompare assembles the main chart: the most recent history days in
// chronological order, the window forecast central band, and the window
// actuals.
func (s *ReportService) ForecastCompare(ctx context.Context, sku string) (*domain.ForecastCompare, error) {
	hist, err := s.repo.RecentMovementDays(ctx, sku, compareHistoryDays)
	if err != nil {
		return nil, err
	}
	// newest-first from the query; flip to chronological
	for i, j := 0, len(hist)-1; i < j; i, j = i+1, j-1 {
		hist[i], hist[j] = hist[j], hist[i]
	}

	forecast, err := s.repo.WindowForecast(ctx, sku, s.win)
	if err != nil {
		return nil, err
	}
	pred := make([]domain.MovementPoint, 0, len(forecast))
	for _, f := range forecast {
		pred = append(pred, domain.MovementPoint{Date: f.Date, Quantity: f.Demand})
	}

	real, err := s.repo.WindowMovementDays(ctx, sku, s.win)
	if err != nil {
		return nil, err
	}

	return &domain.ForecastCompare{
		SKU:  sku,
		Hist: hist,
		Pred: pred,
		Real: real,
	}, nil
}

// Interannual compares yearly OUT totals of the three years preceding the
// evaluation window against the window itself as a separate bar.
func (s *ReportService) Interannual(ctx context.Context, sku string) ([]domain.YearTotal, error) {
	windowYear := s.win.Start.Year()

	totals, err := s.repo.YearlyOutTotals(ctx, sku, windowYear-3, windowYear-1)
	if err != nil {
		return nil, err
	}

	windowTotal, err := s.repo.WindowVolume(ctx, sku, s.win)
	if err != nil {
		return nil, err
	}

	result := make([]domain.YearTotal, 0, len(totals)+1)
	result = append(result, totals...)
	result = append(result, domain.YearTotal{
		Label:    fmt.Sprintf("Q1 %d", windowYear),
		TotalOut: windowTotal,
	})

	return result, nil
}

// GlobalKPIs joins the averaged model-evaluation metrics with real vs
// predicted window totals.
func (s *ReportService) GlobalKPIs(ctx context.Context) (*domain.GlobalKPIs, error) {
	eval, err := s.repo.EvalSummary(ctx)
	if err != nil {
		return nil, err
	}

	realTotal, err := s.repo.TotalWindowActual(ctx, s.win)
	if err != nil {
		return nil, err
	}

	predTotal, err := s.repo.TotalWindowForecast(ctx, s.win)
	if err != nil {
		return nil, err
	}

	kpis := &domain.GlobalKPIs{
		TotalSKUs:      eval.TotalSKUs,
		MAPEValidation: roundTo(eval.MAPE, 2),
		RMSEValidation: roundTo(eval.RMSE, 4),
		RealTotal:      math.Round(realTotal),
		PredTotal:      roundTo(predTotal, 2),
	}

	if realTotal > 0 {
		ratio := roundTo(predTotal/realTotal*100, 2)
		kpis.RatioPredReal = &ratio
	}

	return kpis, nil
}

func (s *ReportService) TopSKUsByError(ctx context.Context, limit int) ([]domain.SKUError, error) {
	return s.repo.TopSKUsByError(ctx, limit)
}

func (s *ReportService) TopSKUsByRotation(ctx context.Context, limit int) ([]domain.SKUVolume, error) {
	return s.repo.TopSKUsByRotation(ctx, limit)
}

func roundTo(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}
