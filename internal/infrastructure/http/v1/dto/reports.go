package dto

import (
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/domain/reports"
)

// TransactionListRequest filters the journal list endpoint.
type TransactionListRequest struct {
	ItemID      string     `form:"itemId"`
	WarehouseID string     `form:"warehouseId"`
	SKU         string     `form:"sku"`
	Type        string     `form:"type"`
	Status      string     `form:"status"`
	Reference   string     `form:"reference"`
	FromDate    *time.Time `form:"fromDate" time_format:"2006-01-02"`
	ToDate      *time.Time `form:"toDate" time_format:"2006-01-02"`
	Limit       int        `form:"limit"`
	Offset      int        `form:"offset"`
}

// ToFilter converts the request to a domain filter.
func (r *TransactionListRequest) ToFilter() (reports.TransactionFilter, error) {
	filter := reports.TransactionFilter{
		SKU:       r.SKU,
		Reference: r.Reference,
		FromDate:  r.FromDate,
		ToDate:    r.ToDate,
		Limit:     r.Limit,
		Offset:    r.Offset,
	}

	if r.ItemID != "" {
		itemID, err := id.Parse(r.ItemID)
		if err != nil {
			return filter, apperror.NewValidation("invalid itemId").WithDetail("value", r.ItemID)
		}
		filter.ItemID = &itemID
	}
	if r.WarehouseID != "" {
		warehouseID, err := id.Parse(r.WarehouseID)
		if err != nil {
			return filter, apperror.NewValidation("invalid warehouseId").WithDetail("value", r.WarehouseID)
		}
		filter.WarehouseID = &warehouseID
	}
	if r.Type != "" {
		txType := ledger.TransactionType(r.Type)
		filter.Type = &txType
	}
	if r.Status != "" {
		status := ledger.TransactionStatus(r.Status)
		filter.Status = &status
	}

	return filter, nil
}

// SummaryRequest scopes a movement summary.
type SummaryRequest struct {
	FromDate    time.Time `form:"fromDate" time_format:"2006-01-02" binding:"required"`
	ToDate      time.Time `form:"toDate" time_format:"2006-01-02" binding:"required"`
	WarehouseID string    `form:"warehouseId"`
	SKU         string    `form:"sku"`
	GroupBy     string    `form:"groupBy"`
}

// ToFilter converts the request to a domain filter.
func (r *SummaryRequest) ToFilter() (reports.SummaryFilter, error) {
	filter := reports.SummaryFilter{
		FromDate: r.FromDate,
		ToDate:   r.ToDate,
		SKU:      r.SKU,
		GroupBy:  reports.SummaryGroupBy(r.GroupBy),
	}

	if r.WarehouseID != "" {
		warehouseID, err := id.Parse(r.WarehouseID)
		if err != nil {
			return filter, apperror.NewValidation("invalid warehouseId").WithDetail("value", r.WarehouseID)
		}
		filter.WarehouseID = &warehouseID
	}

	return filter, nil
}

// SummaryRowResponse is one aggregated row in the summary report.
type SummaryRowResponse struct {
	GroupKey      string  `json:"groupKey"`
	InboundQty    float64 `json:"inboundQty"`
	OutboundQty   float64 `json:"outboundQty"`
	AdjustmentQty float64 `json:"adjustmentQty"`
	NetChangeQty  float64 `json:"netChangeQty"`
	InboundValue  string  `json:"inboundValue"`
	OutboundValue string  `json:"outboundValue"`
	MovementCount int64   `json:"movementCount"`
}

// SummaryResponse is the full movement summary.
type SummaryResponse struct {
	FromDate   time.Time            `json:"fromDate"`
	ToDate     time.Time            `json:"toDate"`
	GroupBy    string               `json:"groupBy"`
	Rows       []SummaryRowResponse `json:"rows"`
	TotalCount int64                `json:"totalCount"`
}

// FromSummary converts a domain summary to response DTO.
func FromSummary(summary *reports.Summary) *SummaryResponse {
	resp := &SummaryResponse{
		FromDate:   summary.FromDate,
		ToDate:     summary.ToDate,
		GroupBy:    string(summary.GroupBy),
		Rows:       make([]SummaryRowResponse, len(summary.Rows)),
		TotalCount: summary.TotalCount,
	}

	for i, row := range summary.Rows {
		resp.Rows[i] = SummaryRowResponse{
			GroupKey:      row.GroupKey,
			InboundQty:    row.InboundQty.Float64(),
			OutboundQty:   row.OutboundQty.Float64(),
			AdjustmentQty: row.AdjustmentQty.Float64(),
			NetChangeQty:  row.NetChangeQty.Float64(),
			InboundValue:  row.InboundValue.String(),
			OutboundValue: row.OutboundValue.String(),
			MovementCount: row.MovementCount,
		}
	}

	return resp
}
