package fare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rapidride/prediction-service/pkg/config"
)

func defaultCalculator() *Calculator {
	return NewCalculator(config.PricingConfig{
		BaseFare:  20.0,
		PerKmRate: 8.0,
		Currency:  "INR",
	})
}

func TestCalculate_KnownTrip(t *testing.T) {
	calc := defaultCalculator()

	// 7.134 km at neutral traffic
	assert.Equal(t, 77.07, calc.Calculate(7.134, 1.0))
}

func TestCalculate_ZeroDistanceIsBaseFare(t *testing.T) {
	calc := defaultCalculator()

	assert.Equal(t, 20.0, calc.Calculate(0, 1.0))
}

func TestCalculate_TrafficScalesWholeFare(t *testing.T) {
	calc := defaultCalculator()

	assert.Equal(t, 40.0, calc.Calculate(0, 2.0))
	assert.Equal(t, 56.0, calc.Calculate(1.0, 2.0))
}

func TestCalculate_MonotonicInDistance(t *testing.T) {
	calc := defaultCalculator()

	prev := calc.Calculate(0.5, 1.0)
	for _, d := range []float64{1, 2.5, 5, 10, 25, 100} {
		fare := calc.Calculate(d, 1.0)
		assert.Greater(t, fare, prev, "fare should increase with distance %v", d)
		prev = fare
	}
}

func TestCalculate_MonotonicInTraffic(t *testing.T) {
	calc := defaultCalculator()

	prev := calc.Calculate(5, 0.5)
	for _, traffic := range []float64{0.8, 1.0, 1.5, 2.0, 3.0} {
		fare := calc.Calculate(5, traffic)
		assert.Greater(t, fare, prev, "fare should increase with traffic %v", traffic)
		prev = fare
	}
}

func TestCalculate_RoundsToTwoDecimals(t *testing.T) {
	calc := defaultCalculator()

	fare := calc.Calculate(3.333, 1.1)
	assert.InDelta(t, fare, float64(int(fare*100+0.5))/100, 1e-9)
}

func TestCurrency(t *testing.T) {
	assert.Equal(t, "INR", defaultCalculator().Currency())
}
