// Package ledger implements the inventory ledger: stock items, the
// append-only transaction journal and the movement engine that keeps
// them consistent.
package ledger

import (
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
)

// ItemStatus represents the lifecycle state of a stock item.
type ItemStatus string

const (
	ItemStatusActive   ItemStatus = "ACTIVE"
	ItemStatusArchived ItemStatus = "ARCHIVED"
)

// InventoryItem is the current stock position of one SKU (optionally split
// by batch) at one warehouse location. It is a cache over the transaction
// journal: every quantity and cost field is derivable by replaying the
// item's confirmed transactions in order.
type InventoryItem struct {
	ID   id.ID  `db:"id" json:"id"`
	SKU  string `db:"sku" json:"sku"`
	Name string `db:"name" json:"name"`

	WarehouseID id.ID  `db:"warehouse_id" json:"warehouseId"`
	LocationID  *id.ID `db:"location_id" json:"locationId,omitempty"`
	Batch       string `db:"batch" json:"batch,omitempty"`

	// Quantity buckets. Available is the only bucket movements touch;
	// the others are managed by reservation flows outside the journal.
	Available types.Quantity `db:"qty_available" json:"available"`
	Reserved  types.Quantity `db:"qty_reserved" json:"reserved"`
	Committed types.Quantity `db:"qty_committed" json:"committed"`
	Damaged   types.Quantity `db:"qty_damaged" json:"damaged"`
	Total     types.Quantity `db:"qty_total" json:"total"`

	// Valuation. AverageUnitCost is maintained by the weighted-average
	// method on inbound movements; LastUnitCost mirrors the most recent
	// priced receipt.
	AverageUnitCost types.Money `db:"avg_unit_cost" json:"averageUnitCost"`
	LastUnitCost    types.Money `db:"last_unit_cost" json:"lastUnitCost"`
	Currency        string      `db:"currency" json:"currency"`

	// Denormalized pointer to the last confirmed movement, kept so list
	// screens avoid a journal join.
	LastTxID     *id.ID     `db:"last_tx_id" json:"lastTxId,omitempty"`
	LastTxNumber string     `db:"last_tx_number" json:"lastTxNumber,omitempty"`
	LastTxAt     *time.Time `db:"last_tx_at" json:"lastTxAt,omitempty"`

	Status  ItemStatus `db:"status" json:"status"`
	Version int        `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewInventoryItem creates an active item with zeroed stock.
func NewInventoryItem(sku, name string, warehouseID id.ID, currency string) *InventoryItem {
	now := time.Now()
	return &InventoryItem{
		ID:              id.New(),
		SKU:             sku,
		Name:            name,
		WarehouseID:     warehouseID,
		Currency:        currency,
		AverageUnitCost: types.ZeroMoney(),
		LastUnitCost:    types.ZeroMoney(),
		Status:          ItemStatusActive,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Validate checks structural invariants that must hold before persisting.
func (i *InventoryItem) Validate() error {
	if i.SKU == "" {
		return apperror.NewValidation("sku is required")
	}
	if id.IsNil(i.WarehouseID) {
		return apperror.NewValidation("warehouseId is required")
	}
	if i.Currency == "" {
		return apperror.NewValidation("currency is required")
	}
	if i.Available.IsNegative() || i.Reserved.IsNegative() ||
		i.Committed.IsNegative() || i.Damaged.IsNegative() {
		return apperror.NewValidation("quantity buckets must not be negative").WithDetail("sku", i.SKU)
	}
	return nil
}

// RecomputeTotal refreshes the derived total bucket.
func (i *InventoryItem) RecomputeTotal() {
	i.Total = i.Available + i.Reserved + i.Committed + i.Damaged
}

// ApplyChange moves the available bucket by change (positive for inbound,
// negative for outbound) and refreshes the total. The caller is responsible
// for checking sufficiency first; going negative here is a programming error
// surfaced as a validation failure.
func (i *InventoryItem) ApplyChange(change types.Quantity) error {
	next := i.Available + change
	if next.IsNegative() {
		return apperror.NewInsufficientStock(i.SKU, change.Abs().Float64(), i.Available.Float64())
	}
	i.Available = next
	i.RecomputeTotal()
	i.UpdatedAt = time.Now()
	return nil
}

// OnHand is everything physically present regardless of reservation state.
// Valuation runs over the available bucket only; on-hand is a reporting
// figure.
func (i *InventoryItem) OnHand() types.Quantity {
	return i.Total
}

// IsActive reports whether the item accepts new movements.
func (i *InventoryItem) IsActive() bool {
	return i.Status == ItemStatusActive
}

// StampLastTx records the most recent confirmed movement on the item.
func (i *InventoryItem) StampLastTx(txID id.ID, number string, at time.Time) {
	i.LastTxID = &txID
	i.LastTxNumber = number
	i.LastTxAt = &at
}
