package fare

import (
	"math"

	"github.com/rapidride/prediction-service/pkg/config"
)

// Calculator prices a trip from its road distance and traffic conditions.
// Pricing parameters come from configuration and never change at runtime.
type Calculator struct {
	baseFare  float64
	perKmRate float64
	currency  string
}

// NewCalculator creates a calculator from pricing configuration.
func NewCalculator(cfg config.PricingConfig) *Calculator {
	return &Calculator{
		baseFare:  cfg.BaseFare,
		perKmRate: cfg.PerKmRate,
		currency:  cfg.Currency,
	}
}

// Calculate returns the fare for a trip. The traffic multiplier scales the
// whole fare, base included, so congested short trips still price above the
// flag-fall.
func (c *Calculator) Calculate(distanceKm, trafficLevel float64) float64 {
	fare := (c.baseFare + c.perKmRate*distanceKm) * trafficLevel
	return math.Round(fare*100) / 100
}

// Currency returns the configured currency code.
func (c *Calculator) Currency() string {
	return c.currency
}
