package ledger

import (
	"context"
	"time"

	"stockbook/internal/core/apperror"
	appctx "stockbook/internal/core/context"
	"stockbook/internal/core/id"
	"stockbook/internal/core/numerator"
	"stockbook/internal/core/tx"
	"stockbook/internal/domain"
	"stockbook/internal/domain/audit"
	"stockbook/pkg/logger"
)

// numberConfig is the journal numbering scheme: ITX-2026-00001, resetting
// yearly. Strict strategy keeps the sequence gapless for audit.
var numberConfig = numerator.Config{
	Prefix:      "ITX",
	IncludeYear: true,
	PadWidth:    5,
	ResetPeriod: "year",
}

// MovementResult is returned from every movement operation: the confirmed
// journal entry plus the item state after the mutation.
type MovementResult struct {
	Transaction *InventoryTransaction `json:"transaction"`
	Item        *InventoryItem        `json:"item"`
}

// Service is the movement engine. Every operation runs as one database
// transaction: lock the item row, build and confirm the journal entry,
// mutate the item, persist both. Either everything commits or nothing does.
type Service struct {
	items     ItemRepository
	txns      TransactionRepository
	factory   *Factory
	numbers   numerator.Generator
	guard     *Guard
	recorder  audit.Recorder
	txManager tx.Manager

	hooks *domain.HookRegistry[*MovementResult]
}

// NewService wires the movement engine. guard may be nil (no policies).
func NewService(
	items ItemRepository,
	txns TransactionRepository,
	numbers numerator.Generator,
	guard *Guard,
	recorder audit.Recorder,
	txManager tx.Manager,
) *Service {
	if recorder == nil {
		recorder = audit.NopRecorder{}
	}
	return &Service{
		items:     items,
		txns:      txns,
		factory:   NewFactory(),
		numbers:   numbers,
		guard:     guard,
		recorder:  recorder,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*MovementResult](),
	}
}

// Hooks exposes the lifecycle hook registry. AfterApply and AfterCancel
// hooks run inside the database transaction; a failing hook rolls the
// movement back.
func (s *Service) Hooks() *domain.HookRegistry[*MovementResult] {
	return s.hooks
}

// CreateItem registers a new stock item with zeroed position.
func (s *Service) CreateItem(ctx context.Context, item *InventoryItem) (*InventoryItem, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.Event{
		EntityType: "inventory_item",
		EntityID:   item.ID,
		Action:     audit.ActionCreate,
		Changes:    map[string]any{"sku": item.SKU, "warehouse_id": item.WarehouseID},
	})
	return item, nil
}

// GetItem loads an item by ID.
func (s *Service) GetItem(ctx context.Context, itemID id.ID) (*InventoryItem, error) {
	return s.items.GetByID(ctx, itemID)
}

// ListItems returns a paginated item list.
func (s *Service) ListItems(ctx context.Context, filter ItemFilter) (*domain.ListResult[InventoryItem], error) {
	return s.items.List(ctx, filter)
}

// RecordInbound receives stock. A priced receipt recalculates the item's
// weighted-average cost; an unpriced one leaves valuation untouched.
func (s *Service) RecordInbound(ctx context.Context, req InboundRequest) (*MovementResult, error) {
	return s.runMovement(ctx, req.ItemID, func(item *InventoryItem) (*InventoryTransaction, error) {
		entry, err := s.factory.BuildInbound(item, req, actorFrom(ctx))
		if err != nil {
			return nil, err
		}

		if req.UnitCost != nil {
			// The blend runs over the available bucket only; reserved,
			// committed and damaged stock keeps its historical valuation.
			costing := WeightedAverage(item.Available, item.AverageUnitCost, req.Quantity, *req.UnitCost)
			item.AverageUnitCost = costing.AverageUnitCost
			item.LastUnitCost = costing.LastUnitCost
		}
		return entry, nil
	})
}

// RecordOutbound issues stock at the current average cost. Fails with
// INSUFFICIENT_STOCK when the available bucket cannot cover the quantity.
func (s *Service) RecordOutbound(ctx context.Context, req OutboundRequest) (*MovementResult, error) {
	return s.runMovement(ctx, req.ItemID, func(item *InventoryItem) (*InventoryTransaction, error) {
		return s.factory.BuildOutbound(item, req, actorFrom(ctx))
	})
}

// RecordAdjustment corrects the available quantity to an absolute target.
// Valuation is never touched: an adjustment fixes counts, not prices.
func (s *Service) RecordAdjustment(ctx context.Context, req AdjustmentRequest) (*MovementResult, error) {
	return s.runMovement(ctx, req.ItemID, func(item *InventoryItem) (*InventoryTransaction, error) {
		return s.factory.BuildAdjustment(item, req, actorFrom(ctx))
	})
}

// runMovement is the shared mutation path. The build callback receives the
// locked item snapshot and may mutate its valuation fields; the quantity
// mutation and persistence are uniform across movement types.
func (s *Service) runMovement(ctx context.Context, itemID id.ID, build func(item *InventoryItem) (*InventoryTransaction, error)) (*MovementResult, error) {
	var result *MovementResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.items.GetForUpdate(ctx, itemID)
		if err != nil {
			return err
		}

		entry, err := build(item)
		if err != nil {
			return err
		}

		if err := s.guard.Check(ctx, entry); err != nil {
			return err
		}

		number, err := s.numbers.GetNextNumber(ctx, numberConfig, nil, entry.TransactionDate)
		if err != nil {
			return err
		}
		entry.Number = number

		if err := item.ApplyChange(entry.ChangeQty); err != nil {
			return err
		}
		item.StampLastTx(entry.ID, entry.Number, entry.TransactionDate)

		if err := entry.MarkConfirmed(); err != nil {
			return err
		}

		if err := s.items.Update(ctx, item); err != nil {
			return err
		}
		if err := s.txns.Create(ctx, entry); err != nil {
			return err
		}

		result = &MovementResult{Transaction: entry, Item: item}
		return s.hooks.Run(ctx, domain.AfterApply, result)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.Event{
		EntityType: "inventory_transaction",
		EntityID:   result.Transaction.ID,
		Action:     audit.ActionConfirm,
		Changes: map[string]any{
			"number":     result.Transaction.Number,
			"type":       result.Transaction.Type,
			"change_qty": result.Transaction.ChangeQty.String(),
		},
	})

	logger.Info(ctx, "movement confirmed",
		"number", result.Transaction.Number,
		"type", result.Transaction.Type,
		"sku", result.Transaction.SKU,
		"change", result.Transaction.ChangeQty.String(),
	)
	return result, nil
}

// CancelTransaction reverses a confirmed journal entry: the original flips
// to CANCELLED and a compensating entry with the inverted delta is appended.
// Quantities are restored; valuation is not recalculated, so the average
// cost keeps the history of the reversed receipt. Cancelling an inbound
// whose stock has already been issued fails with INSUFFICIENT_STOCK.
func (s *Service) CancelTransaction(ctx context.Context, txID id.ID, reason string) (*MovementResult, error) {
	if reason == "" {
		return nil, apperror.NewValidation("reason is required")
	}

	var result *MovementResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		original, err := s.txns.GetByID(ctx, txID)
		if err != nil {
			return err
		}
		if err := original.CanCancel(); err != nil {
			return err
		}

		item, err := s.items.GetForUpdate(ctx, original.ItemID)
		if err != nil {
			return err
		}

		actor := actorFrom(ctx)
		reversal, err := s.factory.BuildReversal(item, original, reason, actor)
		if err != nil {
			return err
		}

		number, err := s.numbers.GetNextNumber(ctx, numberConfig, nil, reversal.TransactionDate)
		if err != nil {
			return err
		}
		reversal.Number = number

		if err := item.ApplyChange(reversal.ChangeQty); err != nil {
			return err
		}
		item.StampLastTx(reversal.ID, reversal.Number, reversal.TransactionDate)

		if err := reversal.MarkConfirmed(); err != nil {
			return err
		}
		if err := original.MarkCancelled(actor, reason, reversal.Number, time.Now()); err != nil {
			return err
		}

		if err := s.items.Update(ctx, item); err != nil {
			return err
		}
		if err := s.txns.Create(ctx, reversal); err != nil {
			return err
		}
		if err := s.txns.UpdateStatus(ctx, original); err != nil {
			return err
		}

		result = &MovementResult{Transaction: reversal, Item: item}
		return s.hooks.Run(ctx, domain.AfterCancel, result)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.Event{
		EntityType: "inventory_transaction",
		EntityID:   txID,
		Action:     audit.ActionCancel,
		Changes: map[string]any{
			"reversal_number": result.Transaction.Number,
			"reason":          reason,
		},
	})

	logger.Info(ctx, "movement cancelled",
		"original", txID,
		"reversal", result.Transaction.Number,
	)
	return result, nil
}

// GetTransaction loads a journal entry by ID.
func (s *Service) GetTransaction(ctx context.Context, txID id.ID) (*InventoryTransaction, error) {
	return s.txns.GetByID(ctx, txID)
}

// GetTransactionByNumber loads a journal entry by its document number.
func (s *Service) GetTransactionByNumber(ctx context.Context, number string) (*InventoryTransaction, error) {
	return s.txns.GetByNumber(ctx, number)
}

// recordAudit emits an audit event. Audit failures are logged and swallowed;
// the movement already committed and must not be reported as failed.
func (s *Service) recordAudit(ctx context.Context, event audit.Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if event.Actor == "" {
		event.Actor = actorFrom(ctx)
	}
	if err := s.recorder.Record(ctx, event); err != nil {
		logger.Warn(ctx, "audit record failed", "entity_id", event.EntityID, "error", err)
	}
}

func actorFrom(ctx context.Context) string {
	if user := appctx.GetUser(ctx); user != nil {
		if user.Email != "" {
			return user.Email
		}
		return user.UserID
	}
	return "system"
}
