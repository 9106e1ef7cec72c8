// internal/repository/postgres/inventory_repository.go
package postgres

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/domain"
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/repository"
)

type inventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

// selectContext and getContext run one query behind the shared query gate.
func (r *inventoryRepository) selectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	release, err := r.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return r.db.SelectContext(ctx, dest, query, args...)
}

func (r *inventoryRepository) getContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	release, err := r.db.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()

	return r.db.GetContext(ctx, dest, query, args...)
}

func (r *inventoryRepository) ProductCatalog(ctx context.Context) ([]domain.Product, error) {
	query := `
        SELECT sku,
               COALESCE(product_name, '') AS product_name,
               COALESCE(category, '') AS category,
               COALESCE(family, '') AS family,
               COALESCE(warehouse, '') AS warehouse,
               COALESCE(base_price, 0) AS base_price
        FROM products
        ORDER BY sku
    `

	var products []domain.Product
	if err := r.selectContext(ctx, &products, query); err != nil {
		return nil, fmt.Errorf("error getting product catalog: %w", err)
	}

	return products, nil
}

func (r *inventoryRepository) MovementDays(ctx context.Context, sku string) ([]domain.MovementPoint, error) {
	query := `
        SELECT to_char(ts::date, 'YYYY-MM-DD') AS date,
               SUM(quantity) AS y
        FROM inventory_movements
        WHERE sku = $1 AND movement_type = 'OUT'
        GROUP BY ts::date
        ORDER BY date
    `

	var points []domain.MovementPoint
	if err := r.selectContext(ctx, &points, query, sku); err != nil {
		return nil, fmt.Errorf("error getting movement days for %s: %w", sku, err)
	}

	return points, nil
}

func (r *inventoryRepository) RecentMovementDays(ctx context.Context, sku string, n int) ([]domain.MovementPoint, error) {
	query := `
        SELECT to_char(ts::date, 'YYYY-MM-DD') AS date,
               SUM(quantity) AS y
        FROM inventory_movements
        WHERE sku = $1 AND movement_type = 'OUT'
        GROUP BY ts::date
        ORDER BY date DESC
        LIMIT $2
    `

	var points []domain.MovementPoint
	if err := r.selectContext(ctx, &points, query, sku, n); err != nil {
		return nil, fmt.Errorf("error getting recent movement days for %s: %w", sku, err)
	}

	return points, nil
}

func (r *inventoryRepository) WindowMovementDays(ctx context.Context, sku string, win domain.Window) ([]domain.MovementPoint, error) {
	query := `
        SELECT to_char(ts::date, 'YYYY-MM-DD') AS date,
               SUM(quantity) AS y
        FROM inventory_movements_stage
        WHERE sku = $1 AND movement_type = 'OUT'
          AND ts BETWEEN $2 AND $3
        GROUP BY ts::date
        ORDER BY date
    `

	var points []domain.MovementPoint
	if err := r.selectContext(ctx, &points, query, sku, win.Start, win.End); err != nil {
		return nil, fmt.Errorf("error getting window movement days for %s: %w", sku, err)
	}

	return points, nil
}

func (r *inventoryRepository) WindowVolume(ctx context.Context, sku string, win domain.Window) (float64, error) {
	query := `
        SELECT COALESCE(SUM(quantity), 0)
        FROM inventory_movements_stage
        WHERE sku = $1 AND movement_type = 'OUT'
          AND ts BETWEEN $2 AND $3
    `

	var volume float64
	if err := r.getContext(ctx, &volume, query, sku, win.Start, win.End); err != nil {
		return 0, fmt.Errorf("error getting window volume for %s: %w", sku, err)
	}

	return volume, nil
}

func (r *inventoryRepository) WindowForecast(ctx context.Context, sku string, win domain.Window) ([]domain.ForecastPoint, error) {
	query := `
        SELECT sku,
               to_char(ds, 'YYYY-MM-DD') AS date,
               y_hat_min, y_hat, y_hat_max,
               COALESCE(model_type, '') AS model_type
        FROM forecast
        WHERE sku = $1 AND ds BETWEEN $2 AND $3
        ORDER BY ds
    `

	var points []domain.ForecastPoint
	if err := r.selectContext(ctx, &points, query, sku, win.Start, win.End); err != nil {
		return nil, fmt.Errorf("error getting window forecast for %s: %w", sku, err)
	}

	return points, nil
}

func (r *inventoryRepository) ForecastSeries(ctx context.Context, sku string) ([]domain.ForecastPoint, error) {
	query := `
        SELECT sku,
               to_char(ds, 'YYYY-MM-DD') AS date,
               y_hat_min, y_hat, y_hat_max,
               COALESCE(model_type, '') AS model_type
        FROM forecast
        WHERE sku = $1
        ORDER BY ds
    `

	var points []domain.ForecastPoint
	if err := r.selectContext(ctx, &points, query, sku); err != nil {
		return nil, fmt.Errorf("error getting forecast series for %s: %w", sku, err)
	}

	return points, nil
}

func (r *inventoryRepository) ForecastSKUs(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT sku FROM forecast ORDER BY sku`

	var skus []string
	if err := r.selectContext(ctx, &skus, query); err != nil {
		return nil, fmt.Errorf("error getting forecast skus: %w", err)
	}

	return skus, nil
}

func (r *inventoryRepository) YearlyOutTotals(ctx context.Context, sku string, fromYear, toYear int) ([]domain.YearTotal, error) {
	query := `
        SELECT EXTRACT(YEAR FROM ts)::int AS year,
               SUM(quantity) AS total_out
        FROM inventory_movements
        WHERE sku = $1 AND movement_type = 'OUT'
          AND EXTRACT(YEAR FROM ts)::int BETWEEN $2 AND $3
        GROUP BY year
        ORDER BY year
    `

	release, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := r.db.QueryxContext(ctx, query, sku, fromYear, toYear)
	if err != nil {
		return nil, fmt.Errorf("error querying yearly totals for %s: %w", sku, err)
	}
	defer rows.Close()

	var totals []domain.YearTotal
	for rows.Next() {
		var (
			year  int
			total float64
		)
		if err := rows.Scan(&year, &total); err != nil {
			return nil, fmt.Errorf("error scanning yearly total: %w", err)
		}
		totals = append(totals, domain.YearTotal{
			Label:    strconv.Itoa(year),
			TotalOut: total,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating yearly totals: %w", err)
	}

	return totals, nil
}

func (r *inventoryRepository) TotalWindowActual(ctx context.Context, win domain.Window) (float64, error) {
	query := `
        SELECT COALESCE(SUM(quantity), 0)
        FROM inventory_movements_stage
        WHERE movement_type = 'OUT'
          AND ts BETWEEN $1 AND $2
    `

	var total float64
	if err := r.getContext(ctx, &total, query, win.Start, win.End); err != nil {
		return 0, fmt.Errorf("error getting total window actual: %w", err)
	}

	return total, nil
}

func (r *inventoryRepository) TotalWindowForecast(ctx context.Context, win domain.Window) (float64, error) {
	query := `
        SELECT COALESCE(SUM(y_hat), 0)
        FROM forecast
        WHERE ds BETWEEN $1 AND $2
    `

	var total float64
	if err := r.getContext(ctx, &total, query, win.Start, win.End); err != nil {
		return 0, fmt.Errorf("error getting total window forecast: %w", err)
	}

	return total, nil
}

func (r *inventoryRepository) EvalSummary(ctx context.Context) (domain.EvalSummary, error) {
	query := `
        SELECT COALESCE(AVG(mape_q1), 0) AS mape,
               COALESCE(AVG(rmse_q1), 0) AS rmse,
               COUNT(DISTINCT sku) AS total_skus
        FROM model_eval
    `

	var summary domain.EvalSummary
	if err := r.getContext(ctx, &summary, query); err != nil {
		return domain.EvalSummary{}, fmt.Errorf("error getting eval summary: %w", err)
	}

	return summary, nil
}

func (r *inventoryRepository) TopSKUsByError(ctx context.Context, limit int) ([]domain.SKUError, error) {
	query := `
        SELECT sku,
               mape_q1 AS mape_45d,
               rmse_q1 AS rmse_45d
        FROM model_eval
        ORDER BY mape_q1 DESC
        LIMIT $1
    `

	var results []domain.SKUError
	if err := r.selectContext(ctx, &results, query, limit); err != nil {
		return nil, fmt.Errorf("error getting top skus by error: %w", err)
	}

	return results, nil
}

func (r *inventoryRepository) TopSKUsByRotation(ctx context.Context, limit int) ([]domain.SKUVolume, error) {
	query := `
        SELECT sku, SUM(quantity) AS total_out
        FROM inventory_movements
        WHERE movement_type = 'OUT'
        GROUP BY sku
        ORDER BY total_out DESC
        LIMIT $1
    `

	var results []domain.SKUVolume
	if err := r.selectContext(ctx, &results, query, limit); err != nil {
		return nil, fmt.Errorf("error getting top skus by rotation: %w", err)
	}

	return results, nil
}
