package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/infrastructure/storage/postgres"
)

const transactionsTable = "inventory_transactions"

// TransactionRepo implements ledger.TransactionRepository.
type TransactionRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	columns   []string
}

// NewTransactionRepo creates a new journal repository.
func NewTransactionRepo(txManager *postgres.TxManager) *TransactionRepo {
	return &TransactionRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:   postgres.ExtractDBColumns[ledger.InventoryTransaction](),
	}
}

var _ ledger.TransactionRepository = (*TransactionRepo)(nil)

// Create appends a journal entry.
func (r *TransactionRepo) Create(ctx context.Context, tx *ledger.InventoryTransaction) error {
	values := postgres.StructToMap(tx)

	sql, args, err := r.builder.Insert(transactionsTable).SetMap(values).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("inventory transaction", "number", tx.Number)
		}
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// GetByID loads a journal entry by ID.
func (r *TransactionRepo) GetByID(ctx context.Context, txID id.ID) (*ledger.InventoryTransaction, error) {
	return r.getBy(ctx, squirrel.Eq{"id": txID}, txID)
}

// GetByNumber loads a journal entry by its document number.
func (r *TransactionRepo) GetByNumber(ctx context.Context, number string) (*ledger.InventoryTransaction, error) {
	return r.getBy(ctx, squirrel.Eq{"number": number}, number)
}

func (r *TransactionRepo) getBy(ctx context.Context, cond squirrel.Eq, key any) (*ledger.InventoryTransaction, error) {
	sql, args, err := r.builder.Select(r.columns...).
		From(transactionsTable).
		Where(cond).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var tx ledger.InventoryTransaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &tx, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory transaction", key)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	return &tx, nil
}

// UpdateStatus flips an entry's status and cancellation stamps. All other
// columns are immutable once written.
func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx *ledger.InventoryTransaction) error {
	sql, args, err := r.builder.Update(transactionsTable).
		Set("status", tx.Status).
		Set("notes", tx.Notes).
		Set("cancelled_by", tx.CancelledBy).
		Set("cancelled_at", tx.CancelledAt).
		Where(squirrel.Eq{"id": tx.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("inventory transaction", tx.ID)
	}

	return nil
}

// ListAppliedByItem returns every entry whose effect hit the item, in the
// order it was applied. A CANCELLED entry stays in the result: its mutation
// happened and is only undone by the confirmed reversal that follows it, so
// dropping either side would skew a journal replay.
func (r *TransactionRepo) ListAppliedByItem(ctx context.Context, itemID id.ID) ([]ledger.InventoryTransaction, error) {
	sql, args, err := r.builder.Select(r.columns...).
		From(transactionsTable).
		Where(squirrel.Eq{
			"item_id": itemID,
			"status":  []ledger.TransactionStatus{ledger.StatusConfirmed, ledger.StatusCancelled},
		}).
		OrderBy("created_at", "number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var txns []ledger.InventoryTransaction
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &txns, sql, args...); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}

	return txns, nil
}
