// Package ledger_repo provides PostgreSQL implementations for the ledger
// repositories.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"stockbook/internal/core/apperror"
	"stockbook/internal/core/id"
	"stockbook/internal/domain"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/infrastructure/storage/postgres"
)

const itemsTable = "inventory_items"

// ItemRepo implements ledger.ItemRepository.
type ItemRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	columns   []string
}

// NewItemRepo creates a new item repository.
func NewItemRepo(txManager *postgres.TxManager) *ItemRepo {
	return &ItemRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		columns:   postgres.ExtractDBColumns[ledger.InventoryItem](),
	}
}

var _ ledger.ItemRepository = (*ItemRepo)(nil)

// Create inserts a new item.
func (r *ItemRepo) Create(ctx context.Context, item *ledger.InventoryItem) error {
	values := postgres.StructToMap(item)

	sql, args, err := r.builder.Insert(itemsTable).SetMap(values).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("inventory item", "sku", item.SKU)
		}
		return fmt.Errorf("insert item: %w", err)
	}

	return nil
}

// GetByID loads an item by ID.
func (r *ItemRepo) GetByID(ctx context.Context, itemID id.ID) (*ledger.InventoryItem, error) {
	sql, args, err := r.builder.Select(r.columns...).
		From(itemsTable).
		Where(squirrel.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item ledger.InventoryItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory item", itemID)
		}
		return nil, fmt.Errorf("get item: %w", err)
	}

	return &item, nil
}

// GetForUpdate loads an item with a row lock. Requires transaction context.
func (r *ItemRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*ledger.InventoryItem, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("GetForUpdate requires transaction context")
	}

	sql, args, err := r.builder.Select(r.columns...).
		From(itemsTable).
		Where(squirrel.Eq{"id": itemID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item ledger.InventoryItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &item, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory item", itemID)
		}
		return nil, fmt.Errorf("get item for update: %w", err)
	}

	return &item, nil
}

// Update persists the item with an optimistic version check.
func (r *ItemRepo) Update(ctx context.Context, item *ledger.InventoryItem) error {
	currentVersion := item.Version
	item.Version++

	values := postgres.StructToMap(item)
	delete(values, "id")
	delete(values, "created_at")

	sql, args, err := r.builder.Update(itemsTable).
		SetMap(values).
		Where(squirrel.Eq{"id": item.ID, "version": currentVersion}).
		ToSql()
	if err != nil {
		item.Version = currentVersion
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		item.Version = currentVersion
		return fmt.Errorf("update item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		item.Version = currentVersion
		return apperror.NewConcurrentModification("inventory item", item.ID)
	}

	return nil
}

// List returns items matching the filter with a total count.
func (r *ItemRepo) List(ctx context.Context, filter ledger.ItemFilter) (*domain.ListResult[ledger.InventoryItem], error) {
	conditions := r.listConditions(filter)

	countSQL, countArgs, err := r.builder.Select("COUNT(*)").
		From(itemsTable).
		Where(conditions).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	var total int64
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}

	q := r.builder.Select(r.columns...).
		From(itemsTable).
		Where(conditions).
		OrderBy("sku", "batch")

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

	var items []ledger.InventoryItem
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}

	return &domain.ListResult[ledger.InventoryItem]{
		Items:      items,
		TotalCount: total,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}, nil
}

func (r *ItemRepo) listConditions(filter ledger.ItemFilter) squirrel.And {
	conditions := squirrel.And{}

	if filter.SKU != "" {
		conditions = append(conditions, squirrel.Eq{"sku": filter.SKU})
	}
	if filter.WarehouseID != nil {
		conditions = append(conditions, squirrel.Eq{"warehouse_id": *filter.WarehouseID})
	}
	if filter.Status != nil {
		conditions = append(conditions, squirrel.Eq{"status": *filter.Status})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		conditions = append(conditions, squirrel.Or{
			squirrel.ILike{"sku": pattern},
			squirrel.ILike{"name": pattern},
		})
	}

	return conditions
}
