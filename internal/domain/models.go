// internal/domain/models.go
package domain

import "time"

// Product is one catalog entry. Category and family drive the stock
// simulation; family may be empty.
type Product struct {
	SKU         string  `json:"sku" db:"sku"`
	ProductName string  `json:"product_name" db:"product_name"`
	Category    string  `json:"category" db:"category"`
	Family      string  `json:"family" db:"family"`
	Warehouse   string  `json:"warehouse" db:"warehouse"`
	BasePrice   float64 `json:"base_price" db:"base_price"`
}

// MovementPoint is one day of aggregated OUT quantity for a SKU.
type MovementPoint struct {
	Date     string  `json:"date" db:"date"`
	Quantity float64 `json:"y" db:"y"`
}

// ForecastPoint is one forecast row: min/central/max daily demand estimate.
type ForecastPoint struct {
	SKU        string  `json:"sku,omitempty" db:"sku"`
	Date       string  `json:"date" db:"date"`
	DemandLow  float64 `json:"y_hat_min" db:"y_hat_min"`
	Demand     float64 `json:"y_hat" db:"y_hat"`
	DemandHigh float64 `json:"y_hat_max" db:"y_hat_max"`
	ModelType  string  `json:"model_type,omitempty" db:"model_type"`
}

// ReplenishmentRecord is the per-SKU output of the simulation pipeline.
// Derived on every request, never persisted.
type ReplenishmentRecord struct {
	SKU            string   `json:"sku"`
	SimulatedStock int      `json:"simulated_stock"`
	AvgDailyDemand float64  `json:"avg_daily_demand"`
	CoverageDays   *float64 `json:"coverage_days"`
	Status         Status   `json:"status"`
	QtyToOrder     int      `json:"qty_to_order"`
	BreakDate      *string  `json:"break_date"`
}

// PortfolioKPIs is the portfolio-wide rollup of the replenishment records.
// Field names match the original dashboard contract.
type PortfolioKPIs struct {
	TotalAlerts    int      `json:"total_alertas"`
	Breaks         int      `json:"quiebre"`
	Risks          int      `json:"riesgo"`
	AvgCoverage    *float64 `json:"avg_coverage"`
	TotalReorder   int      `json:"total_reposicion"`
	StockShortfall int      `json:"brecha_stock"`
}

// GlobalKPIs summarizes model-evaluation metrics against window actuals.
type GlobalKPIs struct {
	TotalSKUs      int      `json:"total_skus"`
	MAPEValidation float64  `json:"mape_val_hybrid_q1"`
	RMSEValidation float64  `json:"rmse_val_hybrid_q1"`
	RealTotal      float64  `json:"real_total_q1"`
	PredTotal      float64  `json:"pred_total_q1"`
	RatioPredReal  *float64 `json:"ratio_pred_vs_real_pct"`
}

// EvalSummary carries the averaged evaluation metrics straight from model_eval.
type EvalSummary struct {
	MAPE      float64 `db:"mape"`
	RMSE      float64 `db:"rmse"`
	TotalSKUs int     `db:"total_skus"`
}

// SKUError ranks a SKU by forecast error in the evaluation window.
type SKUError struct {
	SKU  string  `json:"sku" db:"sku"`
	MAPE float64 `json:"mape_45d" db:"mape_45d"`
	RMSE float64 `json:"rmse_45d" db:"rmse_45d"`
}

// SKUVolume ranks a SKU by total historical OUT volume.
type SKUVolume struct {
	SKU      string  `json:"sku" db:"sku"`
	TotalOut float64 `json:"total_out" db:"total_out"`
}

// YearTotal is one bar of the interannual comparison.
type YearTotal struct {
	Label    string  `json:"label"`
	TotalOut float64 `json:"total_out"`
}

// ForecastCompare bundles history, prediction and window actuals for the
// main comparison chart.
type ForecastCompare struct {
	SKU  string          `json:"sku_used"`
	Hist []MovementPoint `json:"hist"`
	Pred []MovementPoint `json:"pred"`
	Real []MovementPoint `json:"real"`
}

// FamilyCoverage is the average simulated coverage for one product family.
type FamilyCoverage struct {
	Family   string  `json:"family"`
	Coverage float64 `json:"coverage"`
}

// Window is a closed date range, used both for forecast validation and for
// recent-demand estimation.
type Window struct {
	Start time.Time
	End   time.Time
}

// Days returns the window length in days, both endpoints included.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}
