// internal/engine/planner.go
package engine

import (
	"github.com/Loren2024/inventory-forecasting-ml-system/internal/domain"
)

// BeyondHorizon is reported instead of a break date when the projected
// stock-out lands past the forecast horizon. The wire value predates this
// implementation and is kept verbatim.
const BeyondHorizon = "> horizonte del modelo"

// Planner turns a simulated stock level and an estimated daily demand into
// coverage days, a status, a reorder quantity and a projected break date.
// Pure arithmetic: every division is guarded, nothing here can fail.
type Planner struct {
	cfg Config
}

func NewPlanner(cfg Config) *Planner {
	return &Planner{cfg: cfg}
}

// PlanResult is the planner output for one SKU.
type PlanResult struct {
	CoverageDays *float64
	Status       domain.Status
	QtyToOrder   int
	BreakDate    *string
}

// Plan computes the replenishment plan. Coverage is undefined (nil) exactly
// when demand is not positive; status is total over coverage including nil.
func (p *Planner) Plan(stock int, demand float64) PlanResult {
	var res PlanResult

	if demand > 0 {
		coverage := float64(stock) / demand
		res.CoverageDays = &coverage

		qty := int(p.cfg.TargetCoverageDays*demand - float64(stock))
		if qty > 0 {
			res.QtyToOrder = qty
		}
	}

	res.Status = p.Classify(res.CoverageDays)
	res.BreakDate = p.projectBreakDate(res.CoverageDays)

	return res
}

// Classify maps coverage days onto the four operational states.
func (p *Planner) Classify(coverage *float64) domain.Status {
	switch {
	case coverage == nil:
		return domain.StatusNoData
	case *coverage < p.cfg.BreakThresholdDays:
		return domain.StatusBreak
	case *coverage < p.cfg.RiskThresholdDays:
		return domain.StatusRisk
	default:
		return domain.StatusOK
	}
}

// projectBreakDate anchors the stock-out projection at the window start and
// reports the sentinel once it crosses the horizon.
func (p *Planner) projectBreakDate(coverage *float64) *string {
	if coverage == nil {
		return nil
	}

	projected := p.cfg.Window.Start.AddDate(0, 0, int(*coverage))
	if projected.After(p.cfg.Window.End) {
		s := BeyondHorizon
		return &s
	}

	s := projected.Format("2006-01-02")
	return &s
}
