package ledger

import (
	"stockbook/internal/core/types"
)

// CostingResult is the valuation outcome of an inbound movement.
type CostingResult struct {
	AverageUnitCost types.Money
	LastUnitCost    types.Money
}

// WeightedAverage recalculates the moving average cost after receiving
// incoming units at incomingCost:
//
//	newAvg = (onHand*avg + incoming*cost) / (onHand + incoming)
//
// When the position is empty (or negative after a repair), the average is
// reset to the incoming cost rather than blended with stale history.
func WeightedAverage(onHand types.Quantity, avgCost types.Money, incoming types.Quantity, incomingCost types.Money) CostingResult {
	total := onHand + incoming
	if !total.IsPositive() || !onHand.IsPositive() {
		return CostingResult{AverageUnitCost: incomingCost, LastUnitCost: incomingCost}
	}

	currentValue := onHand.Decimal().Mul(avgCost)
	incomingValue := incoming.Decimal().Mul(incomingCost)
	newAvg := currentValue.Add(incomingValue).Div(total.Decimal())

	return CostingResult{AverageUnitCost: newAvg, LastUnitCost: incomingCost}
}
