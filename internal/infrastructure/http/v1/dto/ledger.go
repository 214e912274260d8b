package dto

import (
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/ledger"
)

// --- Item DTOs ---

// CreateItemRequest registers a new stock item.
type CreateItemRequest struct {
	SKU         string  `json:"sku" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	WarehouseID string  `json:"warehouseId" binding:"required"`
	LocationID  *string `json:"locationId,omitempty"`
	Batch       string  `json:"batch,omitempty"`
	Currency    string  `json:"currency,omitempty"`
}

// ToEntity converts request to domain entity.
func (r *CreateItemRequest) ToEntity() (*ledger.InventoryItem, error) {
	warehouseID, err := id.Parse(r.WarehouseID)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouseId").WithDetail("value", r.WarehouseID)
	}

	currency := r.Currency
	if currency == "" {
		currency = "USD"
	}

	item := ledger.NewInventoryItem(r.SKU, r.Name, warehouseID, currency)
	item.Batch = r.Batch

	if r.LocationID != nil {
		locationID, err := id.Parse(*r.LocationID)
		if err != nil {
			return nil, apperror.NewValidation("invalid locationId").WithDetail("value", *r.LocationID)
		}
		item.LocationID = &locationID
	}

	return item, nil
}

// ItemResponse represents a stock item in API responses.
type ItemResponse struct {
	ID          string  `json:"id"`
	SKU         string  `json:"sku"`
	Name        string  `json:"name"`
	WarehouseID string  `json:"warehouseId"`
	LocationID  *string `json:"locationId,omitempty"`
	Batch       string  `json:"batch,omitempty"`

	Available types.Quantity `json:"available"`
	Reserved  types.Quantity `json:"reserved"`
	Committed types.Quantity `json:"committed"`
	Damaged   types.Quantity `json:"damaged"`
	Total     types.Quantity `json:"total"`

	AverageUnitCost string `json:"averageUnitCost"`
	LastUnitCost    string `json:"lastUnitCost"`
	Currency        string `json:"currency"`

	LastTxNumber string     `json:"lastTxNumber,omitempty"`
	LastTxAt     *time.Time `json:"lastTxAt,omitempty"`

	Status    string    `json:"status"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromItem converts domain entity to response DTO.
func FromItem(item *ledger.InventoryItem) *ItemResponse {
	resp := &ItemResponse{
		ID:              item.ID.String(),
		SKU:             item.SKU,
		Name:            item.Name,
		WarehouseID:     item.WarehouseID.String(),
		Batch:           item.Batch,
		Available:       item.Available,
		Reserved:        item.Reserved,
		Committed:       item.Committed,
		Damaged:         item.Damaged,
		Total:           item.Total,
		AverageUnitCost: item.AverageUnitCost.String(),
		LastUnitCost:    item.LastUnitCost.String(),
		Currency:        item.Currency,
		LastTxNumber:    item.LastTxNumber,
		LastTxAt:        item.LastTxAt,
		Status:          string(item.Status),
		Version:         item.Version,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}

	if item.LocationID != nil {
		locationID := item.LocationID.String()
		resp.LocationID = &locationID
	}

	return resp
}

// --- Movement DTOs ---

// InboundRequest records a stock receipt.
type InboundRequest struct {
	ItemID          string         `json:"itemId" binding:"required"`
	Quantity        types.Quantity `json:"quantity" binding:"required"`
	UnitCost        *string        `json:"unitCost,omitempty"`
	Reason          string         `json:"reason" binding:"required"`
	Counterparty    string         `json:"counterparty" binding:"required"`
	Reference       string         `json:"reference,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	TransactionDate *time.Time     `json:"transactionDate,omitempty"`
}

// ToRequest converts the DTO to a domain movement request.
func (r *InboundRequest) ToRequest() (ledger.InboundRequest, error) {
	itemID, err := id.Parse(r.ItemID)
	if err != nil {
		return ledger.InboundRequest{}, apperror.NewValidation("invalid itemId").WithDetail("value", r.ItemID)
	}

	req := ledger.InboundRequest{
		ItemID:       itemID,
		Quantity:     r.Quantity,
		Reason:       r.Reason,
		Counterparty: r.Counterparty,
		Reference:    r.Reference,
		Notes:        r.Notes,
	}

	if r.UnitCost != nil {
		cost, err := types.NewMoneyFromString(*r.UnitCost)
		if err != nil {
			return ledger.InboundRequest{}, apperror.NewValidation("invalid unitCost").WithDetail("value", *r.UnitCost)
		}
		req.UnitCost = &cost
	}

	if r.TransactionDate != nil {
		req.TransactionDate = *r.TransactionDate
	}

	return req, nil
}

// OutboundRequest records a stock issue.
type OutboundRequest struct {
	ItemID          string         `json:"itemId" binding:"required"`
	Quantity        types.Quantity `json:"quantity" binding:"required"`
	Reason          string         `json:"reason" binding:"required"`
	Counterparty    string         `json:"counterparty" binding:"required"`
	Reference       string         `json:"reference,omitempty"`
	Notes           string         `json:"notes,omitempty"`
	TransactionDate *time.Time     `json:"transactionDate,omitempty"`
}

// ToRequest converts the DTO to a domain movement request.
func (r *OutboundRequest) ToRequest() (ledger.OutboundRequest, error) {
	itemID, err := id.Parse(r.ItemID)
	if err != nil {
		return ledger.OutboundRequest{}, apperror.NewValidation("invalid itemId").WithDetail("value", r.ItemID)
	}

	req := ledger.OutboundRequest{
		ItemID:       itemID,
		Quantity:     r.Quantity,
		Reason:       r.Reason,
		Counterparty: r.Counterparty,
		Reference:    r.Reference,
		Notes:        r.Notes,
	}

	if r.TransactionDate != nil {
		req.TransactionDate = *r.TransactionDate
	}

	return req, nil
}

// AdjustmentRequest corrects the available quantity to an absolute target.
type AdjustmentRequest struct {
	ItemID          string         `json:"itemId" binding:"required"`
	TargetQuantity  types.Quantity `json:"targetQuantity"`
	Reason          string         `json:"reason" binding:"required"`
	Notes           string         `json:"notes" binding:"required"`
	Reference       string         `json:"reference,omitempty"`
	TransactionDate *time.Time     `json:"transactionDate,omitempty"`
}

// ToRequest converts the DTO to a domain movement request.
func (r *AdjustmentRequest) ToRequest() (ledger.AdjustmentRequest, error) {
	itemID, err := id.Parse(r.ItemID)
	if err != nil {
		return ledger.AdjustmentRequest{}, apperror.NewValidation("invalid itemId").WithDetail("value", r.ItemID)
	}

	req := ledger.AdjustmentRequest{
		ItemID:         itemID,
		TargetQuantity: r.TargetQuantity,
		Reason:         r.Reason,
		Reference:      r.Reference,
		Notes:          r.Notes,
	}

	if r.TransactionDate != nil {
		req.TransactionDate = *r.TransactionDate
	}

	return req, nil
}

// CancelRequest cancels a confirmed transaction.
type CancelRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// TransactionResponse represents a journal entry in API responses.
type TransactionResponse struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	ItemID      string `json:"itemId"`
	SKU         string `json:"sku"`
	WarehouseID string `json:"warehouseId"`
	Batch       string `json:"batch,omitempty"`

	PreviousQty types.Quantity `json:"previousQty"`
	ChangeQty   types.Quantity `json:"changeQty"`
	CurrentQty  types.Quantity `json:"currentQty"`

	UnitCost string `json:"unitCost"`
	Currency string `json:"currency"`

	Reference    string  `json:"reference,omitempty"`
	Counterparty string  `json:"counterparty,omitempty"`
	Reason       string  `json:"reason,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	ReversalOf   *string `json:"reversalOf,omitempty"`

	TransactionDate time.Time  `json:"transactionDate"`
	CreatedBy       string     `json:"createdBy"`
	CreatedAt       time.Time  `json:"createdAt"`
	CancelledBy     string     `json:"cancelledBy,omitempty"`
	CancelledAt     *time.Time `json:"cancelledAt,omitempty"`
}

// FromTransaction converts domain entity to response DTO.
func FromTransaction(tx *ledger.InventoryTransaction) *TransactionResponse {
	resp := &TransactionResponse{
		ID:              tx.ID.String(),
		Number:          tx.Number,
		Type:            string(tx.Type),
		Status:          string(tx.Status),
		ItemID:          tx.ItemID.String(),
		SKU:             tx.SKU,
		WarehouseID:     tx.WarehouseID.String(),
		Batch:           tx.Batch,
		PreviousQty:     tx.PreviousQty,
		ChangeQty:       tx.ChangeQty,
		CurrentQty:      tx.CurrentQty(),
		UnitCost:        tx.UnitCost.String(),
		Currency:        tx.Currency,
		Reference:       tx.Reference,
		Counterparty:    tx.Counterparty,
		Reason:          tx.Reason,
		Notes:           tx.Notes,
		TransactionDate: tx.TransactionDate,
		CreatedBy:       tx.CreatedBy,
		CreatedAt:       tx.CreatedAt,
		CancelledBy:     tx.CancelledBy,
		CancelledAt:     tx.CancelledAt,
	}

	if tx.ReversalOf != nil {
		reversalOf := tx.ReversalOf.String()
		resp.ReversalOf = &reversalOf
	}

	return resp
}

// MovementResponse is returned from movement operations.
type MovementResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Item        *ItemResponse        `json:"item"`
}

// FromMovementResult converts a movement result to response DTO.
func FromMovementResult(res *ledger.MovementResult) *MovementResponse {
	return &MovementResponse{
		Transaction: FromTransaction(res.Transaction),
		Item:        FromItem(res.Item),
	}
}
