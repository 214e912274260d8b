package reports

import (
	"context"

	"stockbook/internal/domain"
	"stockbook/internal/domain/ledger"
)

// Repository is the read-side persistence contract.
type Repository interface {
	// ListTransactions returns journal entries matching the filter,
	// ordered by transaction date then number, newest first.
	ListTransactions(ctx context.Context, filter TransactionFilter) (*domain.ListResult[ledger.InventoryTransaction], error)

	// Summarize aggregates confirmed movements over the filter period,
	// grouped by the filter's dimension and ordered by group key.
	Summarize(ctx context.Context, filter SummaryFilter) ([]SummaryRow, error)
}
