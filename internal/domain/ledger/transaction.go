package ledger

import (
	"fmt"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// TransactionType classifies a stock movement.
type TransactionType string

const (
	TypeInbound    TransactionType = "INBOUND"
	TypeOutbound   TransactionType = "OUTBOUND"
	TypeAdjustment TransactionType = "ADJUSTMENT"

	// Transfer legs are representable in the journal but have no workflow
	// yet; a future transfer engine will write matched pairs of these.
	TypeTransferIn  TransactionType = "TRANSFER_IN"
	TypeTransferOut TransactionType = "TRANSFER_OUT"
)

// Valid reports whether t is one of the known movement types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeInbound, TypeOutbound, TypeAdjustment, TypeTransferIn, TypeTransferOut:
		return true
	}
	return false
}

// TransactionStatus is the journal entry lifecycle state.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusConfirmed TransactionStatus = "CONFIRMED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// InventoryTransaction is one immutable journal entry. Confirmed entries are
// never edited; cancellation appends a compensating entry and flips the
// status of the original.
type InventoryTransaction struct {
	ID     id.ID             `db:"id" json:"id"`
	Number string            `db:"number" json:"number"`
	Type   TransactionType   `db:"tx_type" json:"type"`
	Status TransactionStatus `db:"status" json:"status"`

	ItemID      id.ID  `db:"item_id" json:"itemId"`
	SKU         string `db:"sku" json:"sku"`
	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	Batch       string `db:"batch" json:"batch,omitempty"`

	// Quantity trail: PreviousQty is the item's available quantity before
	// the movement, ChangeQty the signed delta. The resulting quantity is
	// derived, never stored, so the pair can be audited for consistency.
	PreviousQty types.Quantity `db:"previous_qty" json:"previousQty"`
	ChangeQty   types.Quantity `db:"change_qty" json:"changeQty"`

	// Cost snapshot at movement time. UnitCost is the receipt price for
	// inbound, the item's average cost for outbound and adjustments.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
	Currency string      `db:"currency" json:"currency"`

	// Business context.
	Reference    string `db:"reference" json:"reference,omitempty"`
	Counterparty string `db:"counterparty" json:"counterparty,omitempty"`
	Reason       string `db:"reason" json:"reason,omitempty"`
	Notes        string `db:"notes" json:"notes,omitempty"`

	// ReversalOf links a compensating entry back to the entry it reverses.
	ReversalOf *id.ID `db:"reversal_of" json:"reversalOf,omitempty"`

	TransactionDate time.Time `db:"transaction_date" json:"transactionDate"`

	CreatedBy   string     `db:"created_by" json:"createdBy"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	CancelledBy string     `db:"cancelled_by" json:"cancelledBy,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`
}

// CurrentQty is the item's available quantity after applying this entry.
func (t *InventoryTransaction) CurrentQty() types.Quantity {
	return t.PreviousQty + t.ChangeQty
}

// LineValue is the monetary value of the movement (abs change * unit cost).
func (t *InventoryTransaction) LineValue() types.Money {
	return t.ChangeQty.Abs().Decimal().Mul(t.UnitCost)
}

// IsReversal reports whether this entry compensates another one.
func (t *InventoryTransaction) IsReversal() bool {
	return t.ReversalOf != nil
}

// CanCancel reports whether the entry is eligible for cancellation.
// Only confirmed, non-reversal entries can be cancelled; cancelling a
// reversal would reopen an already-settled trail.
func (t *InventoryTransaction) CanCancel() error {
	if t.Status != StatusConfirmed {
		return apperror.NewNotCancellable(t.Number, string(t.Status))
	}
	if t.IsReversal() {
		return apperror.NewBusinessRule(apperror.CodeNotCancellable,
			fmt.Sprintf("Transaction %s is a reversal and cannot be cancelled", t.Number))
	}
	return nil
}

// MarkConfirmed transitions the entry from PENDING to CONFIRMED.
func (t *InventoryTransaction) MarkConfirmed() error {
	if t.Status != StatusPending {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			fmt.Sprintf("Transaction %s cannot be confirmed from status %s", t.Number, t.Status))
	}
	t.Status = StatusConfirmed
	return nil
}

// MarkCancelled transitions the entry to CANCELLED and stamps the actor.
// The cancellation reason and a pointer to the compensating entry are
// appended to the notes, never overwriting what was there, so the trail
// stays readable without joins.
func (t *InventoryTransaction) MarkCancelled(by, reason, reversalNumber string, at time.Time) error {
	if err := t.CanCancel(); err != nil {
		return err
	}
	t.Status = StatusCancelled
	t.CancelledBy = by
	t.CancelledAt = &at

	note := fmt.Sprintf("Cancelled by %s: %s (reversed in %s)", by, reason, reversalNumber)
	if t.Notes == "" {
		t.Notes = note
	} else {
		t.Notes = t.Notes + "; " + note
	}
	return nil
}
