package ledger

import (
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// InboundRequest describes a stock receipt. Reason and counterparty are
// mandatory: every movement must say why it happened and who it came from.
type InboundRequest struct {
	ItemID   id.ID          `json:"itemId"`
	Quantity types.Quantity `json:"quantity"`

	// UnitCost is optional. When nil the receipt is unpriced and the
	// item's valuation is left untouched.
	UnitCost *types.Money `json:"unitCost,omitempty"`

	Reason          string    `json:"reason"`
	Counterparty    string    `json:"counterparty"`
	Reference       string    `json:"reference,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	TransactionDate time.Time `json:"transactionDate,omitempty"`
}

// OutboundRequest describes a stock issue. Outbound movements are always
// valued at the item's current average cost.
type OutboundRequest struct {
	ItemID   id.ID          `json:"itemId"`
	Quantity types.Quantity `json:"quantity"`

	Reason          string    `json:"reason"`
	Counterparty    string    `json:"counterparty"`
	Reference       string    `json:"reference,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	TransactionDate time.Time `json:"transactionDate,omitempty"`
}

// AdjustmentRequest sets the item's available quantity to an absolute
// target, recording the delta as the journal entry. Reason and notes are
// mandatory: a count correction with no explanation is not auditable.
type AdjustmentRequest struct {
	ItemID         id.ID          `json:"itemId"`
	TargetQuantity types.Quantity `json:"targetQuantity"`
	Reason         string         `json:"reason"`
	Notes          string         `json:"notes"`

	Reference       string    `json:"reference,omitempty"`
	TransactionDate time.Time `json:"transactionDate,omitempty"`
}

// Factory builds pending journal entries from movement requests. It holds
// no state and touches no storage: given the same item snapshot and request
// it always produces the same entry (modulo ID and timestamps).
type Factory struct{}

// NewFactory creates a transaction factory.
func NewFactory() *Factory {
	return &Factory{}
}

// BuildInbound validates an inbound request against the item snapshot and
// produces a pending INBOUND entry.
func (f *Factory) BuildInbound(item *InventoryItem, req InboundRequest, actor string) (*InventoryTransaction, error) {
	if err := f.checkItem(item); err != nil {
		return nil, err
	}
	if !req.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive")
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return nil, apperror.NewValidation("unitCost must not be negative")
	}
	if req.Reason == "" {
		return nil, apperror.NewValidation("reason is required")
	}
	if req.Counterparty == "" {
		return nil, apperror.NewValidation("counterparty is required for inbound movements")
	}

	unitCost := item.AverageUnitCost
	if req.UnitCost != nil {
		unitCost = *req.UnitCost
	}

	tx := f.newEntry(item, TypeInbound, req.Quantity, unitCost, req.TransactionDate, actor)
	tx.Reference = req.Reference
	tx.Counterparty = req.Counterparty
	tx.Reason = req.Reason
	tx.Notes = req.Notes
	return tx, nil
}

// BuildOutbound validates an outbound request against the item snapshot and
// produces a pending OUTBOUND entry. The sufficiency check is repeated by
// the mutation engine under lock; failing early here just gives callers a
// cheaper rejection.
func (f *Factory) BuildOutbound(item *InventoryItem, req OutboundRequest, actor string) (*InventoryTransaction, error) {
	if err := f.checkItem(item); err != nil {
		return nil, err
	}
	if !req.Quantity.IsPositive() {
		return nil, apperror.NewValidation("quantity must be positive")
	}
	if req.Reason == "" {
		return nil, apperror.NewValidation("reason is required")
	}
	if req.Counterparty == "" {
		return nil, apperror.NewValidation("counterparty is required for outbound movements")
	}
	if req.Quantity > item.Available {
		return nil, apperror.NewInsufficientStock(item.SKU, req.Quantity.Float64(), item.Available.Float64())
	}

	tx := f.newEntry(item, TypeOutbound, req.Quantity.Neg(), item.AverageUnitCost, req.TransactionDate, actor)
	tx.Reference = req.Reference
	tx.Counterparty = req.Counterparty
	tx.Reason = req.Reason
	tx.Notes = req.Notes
	return tx, nil
}

// BuildAdjustment turns an absolute-target adjustment into a signed delta
// entry. Adjustments that would not change anything are rejected so the
// journal stays meaningful.
func (f *Factory) BuildAdjustment(item *InventoryItem, req AdjustmentRequest, actor string) (*InventoryTransaction, error) {
	if err := f.checkItem(item); err != nil {
		return nil, err
	}
	if req.TargetQuantity.IsNegative() {
		return nil, apperror.NewValidation("targetQuantity must not be negative")
	}
	if req.Reason == "" {
		return nil, apperror.NewValidation("reason is required")
	}
	if req.Notes == "" {
		return nil, apperror.NewValidation("notes are required for adjustments")
	}

	change := req.TargetQuantity - item.Available
	if change.IsZero() {
		return nil, apperror.NewNoOpAdjustment(item.ID.String(), req.TargetQuantity.Float64())
	}

	tx := f.newEntry(item, TypeAdjustment, change, item.AverageUnitCost, req.TransactionDate, actor)
	tx.Reference = req.Reference
	tx.Reason = req.Reason
	tx.Notes = req.Notes
	return tx, nil
}

// BuildReversal produces the compensating entry for a confirmed original.
// The delta is inverted, the cost snapshot carried over verbatim.
func (f *Factory) BuildReversal(item *InventoryItem, original *InventoryTransaction, reason, actor string) (*InventoryTransaction, error) {
	if err := original.CanCancel(); err != nil {
		return nil, err
	}

	tx := f.newEntry(item, original.Type, original.ChangeQty.Neg(), original.UnitCost, time.Time{}, actor)
	originalID := original.ID
	tx.ReversalOf = &originalID
	tx.Reference = original.Number
	tx.Reason = reason
	return tx, nil
}

func (f *Factory) checkItem(item *InventoryItem) error {
	if item == nil {
		return apperror.NewValidation("item is required")
	}
	if !item.IsActive() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"Item is archived and does not accept movements").WithDetail("sku", item.SKU)
	}
	return nil
}

func (f *Factory) newEntry(item *InventoryItem, txType TransactionType, change types.Quantity, unitCost types.Money, txDate time.Time, actor string) *InventoryTransaction {
	now := time.Now()
	if txDate.IsZero() {
		txDate = now
	}
	return &InventoryTransaction{
		ID:              id.New(),
		Type:            txType,
		Status:          StatusPending,
		ItemID:          item.ID,
		SKU:             item.SKU,
		WarehouseID:     item.WarehouseID,
		Batch:           item.Batch,
		PreviousQty:     item.Available,
		ChangeQty:       change,
		UnitCost:        unitCost,
		Currency:        item.Currency,
		TransactionDate: txDate,
		CreatedBy:       actor,
		CreatedAt:       now,
	}
}
