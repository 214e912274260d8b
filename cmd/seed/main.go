// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain/ledger"
	"stockbook/internal/domain/reports"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/internal/infrastructure/storage/postgres/ledger_repo"
	"stockbook/internal/infrastructure/storage/postgres/report_repo"
	"stockbook/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	items, err := seedItems(ctx, pool, log)
	if err != nil {
		log.Fatalw("failed to seed items", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoJournal(ctx, txManager, log, items); err != nil {
			log.Fatalw("failed to seed demo journal", "error", err)
		}
		if err := rebuildCaches(ctx, txManager, log, items); err != nil {
			log.Fatalw("failed to rebuild item caches", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

type seedItem struct {
	id        id.ID
	sku       string
	name      string
	warehouse id.ID
	cost      string
}

// seedItems inserts demo stock items, skipping ones that already exist.
func seedItems(ctx context.Context, pool *postgres.Pool, log *logger.Logger) ([]seedItem, error) {
	warehouseID := id.New()
	if raw := os.Getenv("SEED_WAREHOUSE_ID"); raw != "" {
		parsed, err := id.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse SEED_WAREHOUSE_ID: %w", err)
		}
		warehouseID = parsed
	}

	items := []seedItem{
		{id.New(), "PAP-A4", "Office paper A4", warehouseID, "4.50"},
		{id.New(), "PEN-BLU", "Ballpoint pen, blue", warehouseID, "0.35"},
		{id.New(), "STP-001", "Desktop stapler", warehouseID, "7.20"},
		{id.New(), "CLP-028", "Paper clips 28mm (box of 100)", warehouseID, "1.10"},
		{id.New(), "FOL-REG", "Lever arch folder", warehouseID, "2.80"},
	}

	for i := range items {
		item := &items[i]
		commandTag, err := pool.Exec(ctx, `
			INSERT INTO inventory_items (id, sku, name, warehouse_id, currency, status, version)
			VALUES ($1, $2, $3, $4, 'USD', 'ACTIVE', 1)
			ON CONFLICT DO NOTHING
		`, item.id, item.sku, item.name, item.warehouse)
		if err != nil {
			return nil, fmt.Errorf("insert item %s: %w", item.sku, err)
		}

		if commandTag.RowsAffected() == 0 {
			err = pool.QueryRow(ctx, `
				SELECT id FROM inventory_items
				WHERE sku = $1 AND warehouse_id = $2 AND batch = ''
			`, item.sku, item.warehouse).Scan(&item.id)
			if err != nil {
				return nil, fmt.Errorf("fetch existing item %s: %w", item.sku, err)
			}
			log.Infow("item already exists", "sku", item.sku, "item_id", item.id)
			continue
		}

		log.Infow("item created", "sku", item.sku, "item_id", item.id)
	}

	return items, nil
}

// seedDemoJournal bulk-loads a confirmed movement history via the COPY
// protocol. Item caches are left stale on purpose and repaired afterwards
// with a journal replay.
func seedDemoJournal(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger, items []seedItem) error {
	log.Info("seeding demo journal...")

	columns := []string{
		"id", "number", "tx_type", "status", "item_id", "sku", "warehouse_id",
		"previous_qty", "change_qty", "unit_cost", "currency",
		"reference", "counterparty", "reason", "transaction_date", "created_by",
	}

	now := time.Now().UTC()
	year := now.Format("2006")
	seq := 0

	var rows [][]any
	for _, item := range items {
		cost, err := types.NewMoneyFromString(item.cost)
		if err != nil {
			return fmt.Errorf("parse cost for %s: %w", item.sku, err)
		}

		running := types.Quantity(0)
		// A receipt, an issue and a restock spread over the past quarter.
		movements := []struct {
			change  types.Quantity
			daysAgo int
			ref     string
		}{
			{types.NewQuantityFromFloat64(200), 90, "PO-1001"},
			{types.NewQuantityFromFloat64(-80), 60, "SO-2001"},
			{types.NewQuantityFromFloat64(120), 30, "PO-1002"},
		}

		for _, m := range movements {
			seq++
			txType := "INBOUND"
			counterparty := "Initial Supplier Ltd"
			reason := "purchase receipt"
			if m.change.IsNegative() {
				txType = "OUTBOUND"
				counterparty = "Acme Retail"
				reason = "sales issue"
			}

			rows = append(rows, []any{
				id.New(),
				fmt.Sprintf("ITX-%s-%05d", year, seq),
				txType,
				string(ledger.StatusConfirmed),
				item.id,
				item.sku,
				item.warehouse,
				running.Int64Scaled(),
				m.change.Int64Scaled(),
				cost,
				"USD",
				m.ref,
				counterparty,
				reason,
				now.AddDate(0, 0, -m.daysAgo),
				"seed",
			})
			running += m.change
		}
	}

	inserter := postgres.NewBatchInserter(txManager)

	err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		inserted, err := inserter.CopyFromSlice(ctx, "inventory_transactions", columns, rows)
		if err != nil {
			return fmt.Errorf("copy journal rows: %w", err)
		}

		// Advance the number sequence past the seeded entries.
		querier := txManager.GetQuerier(ctx)
		_, err = querier.Exec(ctx, `
			INSERT INTO sys_sequences (key, current_val)
			VALUES ($1, $2)
			ON CONFLICT (key) DO UPDATE SET current_val = GREATEST(sys_sequences.current_val, $2)
		`, "ITX_"+year, int64(seq))
		if err != nil {
			return fmt.Errorf("advance sequence: %w", err)
		}

		log.Infow("journal rows inserted", "count", inserted)
		return nil
	})
	return err
}

// rebuildCaches replays the seeded journal into the item quantity caches.
func rebuildCaches(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger, items []seedItem) error {
	itemRepo := ledger_repo.NewItemRepo(txManager)
	txnRepo := ledger_repo.NewTransactionRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)
	service := reports.NewService(reportRepo, itemRepo, txnRepo, nil, txManager)

	for _, item := range items {
		rebuilt, err := service.RebuildItemCache(ctx, item.id)
		if err != nil {
			return fmt.Errorf("rebuild %s: %w", item.sku, err)
		}
		log.Infow("item cache rebuilt",
			"sku", rebuilt.SKU,
			"available", rebuilt.Available,
			"avg_unit_cost", rebuilt.AverageUnitCost,
		)
	}

	return nil
}
