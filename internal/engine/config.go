// internal/engine/config.go
package engine

import (
	"time"

	"github.com/Loren2024/inventory-forecasting-ml-system/internal/domain"
)

// Config collects every lookup table and policy constant of the
// replenishment simulation, so thresholds and multipliers are explicit and
// overridable instead of buried in the arithmetic.
type Config struct {
	// CategoryBase maps a product category to its baseline stock units.
	// Unknown categories fall back to DefaultBase; products missing from the
	// catalog are treated as DefaultCategory.
	CategoryBase    map[string]float64
	DefaultCategory string
	DefaultBase     float64

	// FamilyMultiplier adjusts stock and demand per product family.
	// Families not listed multiply by 1.0.
	FamilyMultiplier map[string]float64

	// DefaultRotation is used for SKUs with no OUT history at all;
	// RotationFloor bounds the estimate away from zero.
	DefaultRotation float64
	RotationFloor   float64

	// MinSimulatedStock floors the simulated stock level.
	MinSimulatedStock float64

	// ReferenceVolume is the typical window OUT volume a SKU is compared
	// against; the resulting factor is clamped to [VolumeFactorMin, VolumeFactorMax].
	ReferenceVolume float64
	VolumeFactorMin float64
	VolumeFactorMax float64

	// StressMultiplier is applied to estimated demand when StressMode is on,
	// modelling a portfolio-wide demand surge.
	StressMode       bool
	StressMultiplier float64

	// Coverage below BreakThresholdDays classifies as QUIEBRE, below
	// RiskThresholdDays as RIESGO, anything above as OK.
	BreakThresholdDays float64
	RiskThresholdDays  float64

	// TargetCoverageDays is the coverage the reorder suggestion aims for.
	TargetCoverageDays float64

	// ShortfallHorizonDays is the horizon used for the portfolio stock gap.
	ShortfallHorizonDays float64

	// Window is the evaluation window; its start anchors break-date
	// projection and its end is the forecast horizon.
	Window domain.Window

	// CoverageSortSentinel stands in for undefined coverage when ordering,
	// pushing SIN_DATO records behind comparable ones.
	CoverageSortSentinel float64

	// MaxParallel bounds the per-SKU fan-out of the portfolio aggregation.
	MaxParallel int
}

// DefaultConfig returns the canonical simulation parameters.
func DefaultConfig() Config {
	return Config{
		CategoryBase: map[string]float64{
			"Premium":    10, // low inventory, 10x daily rotation
			"Industrial": 20, // high rotation
			"Estándar":   15, // medium rotation
		},
		DefaultCategory: "Industrial",
		DefaultBase:     15,
		FamilyMultiplier: map[string]float64{
			"Herramientas": 1.3,
			"Pinturas":     1.1,
			"Seguridad":    0.8,
		},
		DefaultRotation:      1.0,
		RotationFloor:        0.5,
		MinSimulatedStock:    5,
		ReferenceVolume:      300.0,
		VolumeFactorMin:      0.5,
		VolumeFactorMax:      2.0,
		StressMode:           true,
		StressMultiplier:     1.5,
		BreakThresholdDays:   5,
		RiskThresholdDays:    15,
		TargetCoverageDays:   30,
		ShortfallHorizonDays: 45,
		Window: domain.Window{
			Start: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC),
		},
		CoverageSortSentinel: 9999,
		MaxParallel:          8,
	}
}

func (c Config) categoryBase(category string) float64 {
	if category == "" {
		category = c.DefaultCategory
	}
	if base, ok := c.CategoryBase[category]; ok {
		return base
	}

	return c.DefaultBase
}

func (c Config) familyMultiplier(family string) float64 {
	if m, ok := c.FamilyMultiplier[family]; ok {
		return m
	}

	return 1.0
}
