package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockbook/internal/core/types"
)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

func money(s string) types.Money {
	return types.MustMoney(s)
}

func TestWeightedAverage_Blends(t *testing.T) {
	// 50 units @ 100, receive 50 more @ 200 -> average 150.
	res := WeightedAverage(qty(50), money("100"), qty(50), money("200"))

	assert.True(t, res.AverageUnitCost.Equal(money("150")),
		"expected 150, got %s", res.AverageUnitCost)
	assert.True(t, res.LastUnitCost.Equal(money("200")))
}

func TestWeightedAverage_UnevenQuantities(t *testing.T) {
	// 10 @ 12.50 + 30 @ 10.00 = (125 + 300) / 40 = 10.625
	res := WeightedAverage(qty(10), money("12.50"), qty(30), money("10.00"))

	assert.True(t, res.AverageUnitCost.Equal(money("10.625")),
		"expected 10.625, got %s", res.AverageUnitCost)
}

func TestWeightedAverage_ResetsOnEmptyPosition(t *testing.T) {
	// Stale average from history must not blend into an empty position.
	res := WeightedAverage(qty(0), money("999"), qty(20), money("75"))

	assert.True(t, res.AverageUnitCost.Equal(money("75")))
	assert.True(t, res.LastUnitCost.Equal(money("75")))
}

func TestWeightedAverage_ResetsOnNegativePosition(t *testing.T) {
	res := WeightedAverage(qty(-5), money("40"), qty(10), money("60"))

	assert.True(t, res.AverageUnitCost.Equal(money("60")))
}

func TestWeightedAverage_FractionalQuantities(t *testing.T) {
	// 2.5 @ 4.00 + 2.5 @ 8.00 -> 6.00
	res := WeightedAverage(qty(2.5), money("4.00"), qty(2.5), money("8.00"))

	assert.True(t, res.AverageUnitCost.Equal(money("6")),
		"expected 6, got %s", res.AverageUnitCost)
}
