// Package reports provides the read side of the ledger: journal queries,
// period summaries and the item cache rebuild.
package reports

import (
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/ledger"
)

// TransactionFilter narrows journal list queries. All fields are optional;
// zero values mean "no constraint".
type TransactionFilter struct {
	ItemID      *id.ID                    `json:"itemId,omitempty"`
	WarehouseID *id.ID                    `json:"warehouseId,omitempty"`
	SKU         string                    `json:"sku,omitempty"`
	Type        *ledger.TransactionType   `json:"type,omitempty"`
	Status      *ledger.TransactionStatus `json:"status,omitempty"`
	Reference   string                    `json:"reference,omitempty"`
	FromDate    *time.Time                `json:"fromDate,omitempty"`
	ToDate      *time.Time                `json:"toDate,omitempty"`

	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// SummaryGroupBy selects the aggregation dimension of a summary.
type SummaryGroupBy string

const (
	GroupBySKU       SummaryGroupBy = "sku"
	GroupByType      SummaryGroupBy = "type"
	GroupByWarehouse SummaryGroupBy = "warehouse"
)

// Valid reports whether g is a known grouping dimension.
func (g SummaryGroupBy) Valid() bool {
	switch g {
	case GroupBySKU, GroupByType, GroupByWarehouse:
		return true
	}
	return false
}

// SummaryFilter scopes a movement summary. The period is mandatory;
// GroupBy defaults to sku when empty.
type SummaryFilter struct {
	FromDate    time.Time      `json:"fromDate"`
	ToDate      time.Time      `json:"toDate"`
	WarehouseID *id.ID         `json:"warehouseId,omitempty"`
	SKU         string         `json:"sku,omitempty"`
	GroupBy     SummaryGroupBy `json:"groupBy,omitempty"`
}

// SummaryRow aggregates one group's confirmed movements over the period.
// GroupKey is the value of the chosen dimension (a SKU, a movement type or
// a warehouse id). Quantities are bucketed by movement type; values are
// quantity * the entry's cost snapshot, so they reflect prices as of each
// movement.
type SummaryRow struct {
	GroupKey string `db:"group_key" json:"groupKey"`

	InboundQty    types.Quantity `db:"inbound_qty" json:"inboundQty"`
	OutboundQty   types.Quantity `db:"outbound_qty" json:"outboundQty"`
	AdjustmentQty types.Quantity `db:"adjustment_qty" json:"adjustmentQty"`
	NetChangeQty  types.Quantity `db:"net_change_qty" json:"netChangeQty"`

	InboundValue  types.Money `db:"inbound_value" json:"inboundValue"`
	OutboundValue types.Money `db:"outbound_value" json:"outboundValue"`

	MovementCount int64 `db:"movement_count" json:"movementCount"`
}

// Summary is the full report for a period. TotalCount is the grand total
// of movements across all groups.
type Summary struct {
	FromDate   time.Time      `json:"fromDate"`
	ToDate     time.Time      `json:"toDate"`
	GroupBy    SummaryGroupBy `json:"groupBy"`
	Rows       []SummaryRow   `json:"rows"`
	TotalCount int64          `json:"totalCount"`
}
