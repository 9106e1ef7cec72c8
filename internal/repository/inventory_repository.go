// internal/repository/inventory_repository.go
package repository

import (
	"context"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/domain"
)

// InventoryRepository is the read-side query contract over the forecasting
// schema. Every method is a single parameterized query; callers own any
// derivation on top of the returned rows.
type InventoryRepository interface {
	// ProductCatalog returns every product, ordered by SKU.
	ProductCatalog(ctx context.Context) ([]domain.Product, error)

	// MovementDays returns the full per-day OUT history of a SKU.
	MovementDays(ctx context.Context, sku string) ([]domain.MovementPoint, error)

	// RecentMovementDays returns the newest n days of OUT history, newest first.
	RecentMovementDays(ctx context.Context, sku string, n int) ([]domain.MovementPoint, error)

	// WindowMovementDays returns per-day OUT actuals inside the evaluation window.
	WindowMovementDays(ctx context.Context, sku string, win domain.Window) ([]domain.MovementPoint, error)

	// WindowVolume returns the total OUT quantity of a SKU inside the window.
	WindowVolume(ctx context.Context, sku string, win domain.Window) (float64, error)

	// WindowForecast returns forecast rows for a SKU restricted to the window.
	WindowForecast(ctx context.Context, sku string, win domain.Window) ([]domain.ForecastPoint, error)

	// ForecastSeries returns the full forecast series for a SKU.
	ForecastSeries(ctx context.Context, sku string) ([]domain.ForecastPoint, error)

	// ForecastSKUs returns the distinct set of SKUs that have forecast rows.
	ForecastSKUs(ctx context.Context) ([]string, error)

	// YearlyOutTotals returns total OUT volume per calendar year.
	YearlyOutTotals(ctx context.Context, sku string, fromYear, toYear int) ([]domain.YearTotal, error)

	// TotalWindowActual returns the portfolio-wide OUT total inside the window.
	TotalWindowActual(ctx context.Context, win domain.Window) (float64, error)

	// TotalWindowForecast returns the portfolio-wide central forecast total.
	TotalWindowForecast(ctx context.Context, win domain.Window) (float64, error)

	// EvalSummary averages the model evaluation metrics over all SKUs.
	EvalSummary(ctx context.Context) (domain.EvalSummary, error)

	// TopSKUsByError ranks SKUs by evaluation MAPE, worst first.
	TopSKUsByError(ctx context.Context, limit int) ([]domain.SKUError, error)

	// TopSKUsByRotation ranks SKUs by total historical OUT volume.
	TopSKUsByRotation(ctx context.Context, limit int) ([]domain.SKUVolume, error)
}
