package ledger

import (
	"context"

	"stockbook/internal/core/id"
	"stockbook/internal/domain"
)

// ItemFilter narrows item list queries.
type ItemFilter struct {
	SKU         string
	WarehouseID *id.ID
	Status      *ItemStatus
	Search      string
	Limit       int
	Offset      int
}

// ItemRepository is the persistence contract for stock items.
type ItemRepository interface {
	Create(ctx context.Context, item *InventoryItem) error

	GetByID(ctx context.Context, itemID id.ID) (*InventoryItem, error)

	// GetForUpdate loads the item with a row lock. Must be called inside
	// a transaction; the lock is held until commit or rollback.
	GetForUpdate(ctx context.Context, itemID id.ID) (*InventoryItem, error)

	// Update persists the item with an optimistic version check. Returns
	// a CONCURRENT_MODIFICATION error when the stored version differs
	// from item.Version; on success the version is incremented.
	Update(ctx context.Context, item *InventoryItem) error

	List(ctx context.Context, filter ItemFilter) (*domain.ListResult[InventoryItem], error)
}

// TransactionRepository is the persistence contract for journal entries.
// Entries are append-only: there is no delete, and the only update is the
// status flip performed on cancellation.
type TransactionRepository interface {
	Create(ctx context.Context, tx *InventoryTransaction) error

	GetByID(ctx context.Context, txID id.ID) (*InventoryTransaction, error)

	GetByNumber(ctx context.Context, number string) (*InventoryTransaction, error)

	// UpdateStatus flips an entry to CANCELLED, stamping actor and time.
	UpdateStatus(ctx context.Context, tx *InventoryTransaction) error

	// ListAppliedByItem returns every entry that has been applied to the
	// item (CONFIRMED plus CANCELLED, whose effect lives on through its
	// confirmed reversal) in application order. Used for cache rebuild.
	ListAppliedByItem(ctx context.Context, itemID id.ID) ([]InventoryTransaction, error)
}
