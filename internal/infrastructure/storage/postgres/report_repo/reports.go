// Package report_repo provides the PostgreSQL implementation of the
// reporting repository.
package report_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/domain"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/domain/reports"
	"stockbook/internal/infrastructure/storage/postgres"
)

const transactionsTable = "inventory_transactions"

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	columns   []string
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:   postgres.ExtractDBColumns[ledger.InventoryTransaction](),
	}
}

var _ reports.Repository = (*ReportRepo)(nil)

// ListTransactions returns journal entries matching the filter, newest first.
func (r *ReportRepo) ListTransactions(ctx context.Context, filter reports.TransactionFilter) (*domain.ListResult[ledger.InventoryTransaction], error) {
	conditions := r.listConditions(filter)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").
		From(transactionsTable).
		Where(conditions).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	q := r.builder.Select(r.columns...).
		From(transactionsTable).
		Where(conditions).
		OrderBy("transaction_date DESC", "number DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var txns []ledger.InventoryTransaction
	if err := pgxscan.Select(ctx, querier, &txns, sql, args...); err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}

	return &domain.ListResult[ledger.InventoryTransaction]{
		Items:      txns,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *ReportRepo) listConditions(filter reports.TransactionFilter) squirrel.And {
	conditions := squirrel.And{}

	if filter.ItemID != nil {
		conditions = append(conditions, squirrel.Eq{"item_id": *filter.ItemID})
	}
	if filter.WarehouseID != nil {
		conditions = append(conditions, squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.SKU != "" {
		conditions = append(conditions, squirrel.Eq{"sku": filter.SKU})
	}
	if filter.Type != nil {
		conditions = append(conditions, squirrel.Eq{"tx_type": *filter.Type})
	}
	if filter.Status != nil {
		conditions = append(conditions, squirrel.Eq{"status": *filter.Status})
	}
	if filter.Reference != "" {
		pattern := "%" + filter.Reference + "%"
		conditions = append(conditions, squirrel.Or{
			squirrel.ILike{"reference": pattern},
			squirrel.ILike{"counterparty": pattern},
		})
	}
	if filter.FromDate != nil {
		conditions = append(conditions, squirrel.GtOrEq{"transaction_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		conditions = append(conditions, squirrel.LtOrEq{"transaction_date": *filter.ToDate})
	}

	return conditions
}

// groupExpr maps a summary dimension to its SQL grouping expression.
func groupExpr(groupBy reports.SummaryGroupBy) string {
	switch groupBy {
	case reports.GroupByType:
		return "t.tx_type"
	case reports.GroupByWarehouse:
		return "t.warehouse_id::text"
	default:
		return "t.sku"
	}
}

// Summarize aggregates confirmed movements over the filter period, grouped
// by the dimension the filter names.
//
// Quantities are stored as scaled BIGINT (1e4), so value sums convert to
// numeric before multiplying by the cost snapshot.
func (r *ReportRepo) Summarize(ctx context.Context, filter reports.SummaryFilter) ([]reports.SummaryRow, error) {
	key := groupExpr(filter.GroupBy)

	query := `
		SELECT
			` + key + ` AS group_key,
			COALESCE(SUM(CASE WHEN t.tx_type = 'INBOUND' THEN t.change_qty ELSE 0 END), 0) AS inbound_qty,
			COALESCE(SUM(CASE WHEN t.tx_type = 'OUTBOUND' THEN -t.change_qty ELSE 0 END), 0) AS outbound_qty,
			COALESCE(SUM(CASE WHEN t.tx_type = 'ADJUSTMENT' THEN t.change_qty ELSE 0 END), 0) AS adjustment_qty,
			COALESCE(SUM(t.change_qty), 0) AS net_change_qty,
			COALESCE(SUM(CASE WHEN t.tx_type = 'INBOUND' AND t.change_qty > 0
				THEN (t.change_qty::numeric / 10000.0) * t.unit_cost ELSE 0 END), 0) AS inbound_value,
			COALESCE(SUM(CASE WHEN t.tx_type = 'OUTBOUND' AND t.change_qty < 0
				THEN (-t.change_qty::numeric / 10000.0) * t.unit_cost ELSE 0 END), 0) AS outbound_value,
			COUNT(*) AS movement_count
		FROM inventory_transactions t
		WHERE t.status = 'CONFIRMED'
		  AND t.transaction_date >= $1
		  AND t.transaction_date < $2
	`
	args := []any{filter.FromDate, filter.ToDate}
	argIndex := 3

	if filter.WarehouseID != nil {
		query += fmt.Sprintf(" AND t.warehouse_id = $%d", argIndex)
		args = append(args, *filter.WarehouseID)
		argIndex++
	}
	if filter.SKU != "" {
		query += fmt.Sprintf(" AND t.sku = $%d", argIndex)
		args = append(args, filter.SKU)
	}

	query += `
		GROUP BY ` + key + `
		ORDER BY group_key
	`

	var rows []reports.SummaryRow
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("summarize movements: %w", err)
	}

	return rows, nil
}
