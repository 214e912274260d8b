package reports

import (
	"context"
	"time"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/core/tx"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/audit"
	"stockbook/internal/domain/ledger"
	"stockbook/pkg/logger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Service exposes journal queries, summaries and the cache rebuild repair.
type Service struct {
	repo      Repository
	items     ledger.ItemRepository
	txns      ledger.TransactionRepository
	recorder  audit.Recorder
	txManager tx.Manager
}

// NewService wires the reporting service.
func NewService(repo Repository, items ledger.ItemRepository, txns ledger.TransactionRepository, recorder audit.Recorder, txManager tx.Manager) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Service{
		repo:      repo,
		items:     items,
		txns:      txns,
		recorder:  recorder,
		txManager: txManager,
	}
}

// ListTransactions returns a paginated journal slice.
func (s *Service) ListTransactions(ctx context.Context, filter TransactionFilter) (*domain.ListResult[ledger.InventoryTransaction], error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		return nil, apperror.NewValidation("toDate must not precede fromDate")
	}
	if filter.Type != nil && !filter.Type.Valid() {
		return nil, apperror.NewValidation("unknown transaction type").WithDetail("type", *filter.Type)
	}
	return s.repo.ListTransactions(ctx, filter)
}

// Summarize aggregates confirmed movements over a period, grouped by the
// requested dimension (sku by default).
func (s *Service) Summarize(ctx context.Context, filter SummaryFilter) (*Summary, error) {
	if filter.FromDate.IsZero() || filter.ToDate.IsZero() {
		return nil, apperror.NewValidation("fromDate and toDate are required")
	}
	if filter.ToDate.Before(filter.FromDate) {
		return nil, apperror.NewValidation("toDate must not precede fromDate")
	}
	if filter.GroupBy == "" {
		filter.GroupBy = GroupBySKU
	}
	if !filter.GroupBy.Valid() {
		return nil, apperror.NewValidation("unknown groupBy dimension").WithDetail("groupBy", filter.GroupBy)
	}

	rows, err := s.repo.Summarize(ctx, filter)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
		GroupBy:  filter.GroupBy,
		Rows:     rows,
	}
	for i := range rows {
		summary.TotalCount += rows[i].MovementCount
	}
	return summary, nil
}

// RebuildItemCache replays the item's applied journal entries and rewrites
// the cached quantity and valuation fields from scratch. Used to repair an
// item whose cache drifted from the journal (the journal is the source of
// truth). Cancelled entries are replayed together with their confirmed
// reversals so the pair nets out exactly as it did live. Returns the
// repaired item.
func (s *Service) RebuildItemCache(ctx context.Context, itemID id.ID) (*ledger.InventoryItem, error) {
	var repaired *ledger.InventoryItem

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		entries, err := s.txns.ListAppliedByItem(ctx, itemID)
		if err != nil {
			return err
		}

		available := types.Quantity(0)
		avgCost := types.ZeroMoney()
		lastCost := types.ZeroMoney()

		for i := range entries {
			e := &entries[i]

			// Priced receipts rebuild the weighted average; issues and
			// adjustments only move quantity. Reversals carry their
			// original's cost snapshot and are replayed the same way.
			if e.Type == ledger.TypeInbound && e.ChangeQty.IsPositive() {
				costing := ledger.WeightedAverage(available, avgCost, e.ChangeQty, e.UnitCost)
				avgCost = costing.AverageUnitCost
				lastCost = costing.LastUnitCost
			}
			available += e.ChangeQty
		}

		item.Available = available
		item.AverageUnitCost = avgCost
		item.LastUnitCost = lastCost
		item.RecomputeTotal()
		if n := len(entries); n > 0 {
			last := entries[n-1]
			item.StampLastTx(last.ID, last.Number, last.TransactionDate)
		}

		if err := s.items.Update(ctx, item); err != nil {
			return err
		}
		repaired = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.recorder.Record(ctx, audit.Event{
		EntityType: "inventory_item",
		EntityID:   itemID,
		Action:     audit.ActionRepair,
		Changes: map[string]any{
			"available":     repaired.Available.String(),
			"avg_unit_cost": repaired.AverageUnitCost.String(),
		},
		OccurredAt: time.Now(),
	}); err != nil {
		logger.Warn(ctx, "audit record failed", "item_id", itemID, "error", err)
	}

	logger.Info(ctx, "item cache rebuilt", "item_id", itemID, "available", repaired.Available.String())
	return repaired, nil
}
