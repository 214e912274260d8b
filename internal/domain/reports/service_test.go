package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/id"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/ledger"
)

type fakeRepo struct {
	lastFilter        TransactionFilter
	lastSummaryFilter SummaryFilter
	summaryRows       []SummaryRow
}

func (f *fakeRepo) ListTransactions(ctx context.Context, filter TransactionFilter) (*domain.ListResult[ledger.InventoryTransaction], error) {
	f.lastFilter = filter
	return &domain.ListResult[ledger.InventoryTransaction]{Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (f *fakeRepo) Summarize(ctx context.Context, filter SummaryFilter) ([]SummaryRow, error) {
	f.lastSummaryFilter = filter
	return f.summaryRows, nil
}

type fakeItemRepo struct {
	item    *ledger.InventoryItem
	updated *ledger.InventoryItem
}

func (f *fakeItemRepo) Create(ctx context.Context, item *ledger.InventoryItem) error { return nil }

func (f *fakeItemRepo) GetByID(ctx context.Context, itemID id.ID) (*ledger.InventoryItem, error) {
	return f.item, nil
}

func (f *fakeItemRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*ledger.InventoryItem, error) {
	return f.item, nil
}

func (f *fakeItemRepo) Update(ctx context.Context, item *ledger.InventoryItem) error {
	f.updated = item
	return nil
}

func (f *fakeItemRepo) List(ctx context.Context, filter ledger.ItemFilter) (*domain.ListResult[ledger.InventoryItem], error) {
	return nil, nil
}

type fakeTxRepo struct {
	applied []ledger.InventoryTransaction
}

func (f *fakeTxRepo) Create(ctx context.Context, tx *ledger.InventoryTransaction) error { return nil }

func (f *fakeTxRepo) GetByID(ctx context.Context, txID id.ID) (*ledger.InventoryTransaction, error) {
	return nil, nil
}

func (f *fakeTxRepo) GetByNumber(ctx context.Context, number string) (*ledger.InventoryTransaction, error) {
	return nil, nil
}

func (f *fakeTxRepo) UpdateStatus(ctx context.Context, tx *ledger.InventoryTransaction) error {
	return nil
}

func (f *fakeTxRepo) ListAppliedByItem(ctx context.Context, itemID id.ID) ([]ledger.InventoryTransaction, error) {
	return f.applied, nil
}

type passthroughTxManager struct{}

func (passthroughTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func qty(v float64) types.Quantity { return types.NewQuantityFromFloat64(v) }

func money(s string) types.Money { return types.MustMoney(s) }

func TestListTransactions_PaginationDefaults(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, &fakeItemRepo{}, &fakeTxRepo{}, nil, passthroughTxManager{})
	ctx := context.Background()

	_, err := svc.ListTransactions(ctx, TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, repo.lastFilter.Limit)
	assert.Equal(t, 0, repo.lastFilter.Offset)

	_, err = svc.ListTransactions(ctx, TransactionFilter{Limit: 9999, Offset: -3})
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, repo.lastFilter.Limit)
	assert.Equal(t, 0, repo.lastFilter.Offset)
}

func TestListTransactions_Validation(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeItemRepo{}, &fakeTxRepo{}, nil, passthroughTxManager{})
	ctx := context.Background()

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, -1)
	_, err := svc.ListTransactions(ctx, TransactionFilter{FromDate: &from, ToDate: &to})
	assert.Error(t, err)

	bad := ledger.TransactionType("TELEPORT")
	_, err = svc.ListTransactions(ctx, TransactionFilter{Type: &bad})
	assert.Error(t, err)
}

func TestSummarize_RequiresPeriod(t *testing.T) {
	svc := NewService(&fakeRepo{}, &fakeItemRepo{}, &fakeTxRepo{}, nil, passthroughTxManager{})
	ctx := context.Background()

	_, err := svc.Summarize(ctx, SummaryFilter{})
	assert.Error(t, err)

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Summarize(ctx, SummaryFilter{FromDate: from, ToDate: from.AddDate(0, -1, 0)})
	assert.Error(t, err)

	sum, err := svc.Summarize(ctx, SummaryFilter{FromDate: from, ToDate: from.AddDate(0, 1, 0)})
	require.NoError(t, err)
	assert.Equal(t, from, sum.FromDate)
}

func TestSummarize_GroupingAndGrandTotal(t *testing.T) {
	repo := &fakeRepo{summaryRows: []SummaryRow{
		{GroupKey: "INBOUND", MovementCount: 3},
		{GroupKey: "OUTBOUND", MovementCount: 2},
	}}
	svc := NewService(repo, &fakeItemRepo{}, &fakeTxRepo{}, nil, passthroughTxManager{})
	ctx := context.Background()

	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	// Empty dimension falls back to sku.
	sum, err := svc.Summarize(ctx, SummaryFilter{FromDate: from, ToDate: to})
	require.NoError(t, err)
	assert.Equal(t, GroupBySKU, repo.lastSummaryFilter.GroupBy)
	assert.Equal(t, GroupBySKU, sum.GroupBy)
	assert.Equal(t, int64(5), sum.TotalCount)

	sum, err = svc.Summarize(ctx, SummaryFilter{FromDate: from, ToDate: to, GroupBy: GroupByType})
	require.NoError(t, err)
	assert.Equal(t, GroupByType, sum.GroupBy)

	_, err = svc.Summarize(ctx, SummaryFilter{FromDate: from, ToDate: to, GroupBy: SummaryGroupBy("color")})
	assert.Error(t, err)
}

func TestRebuildItemCache_ReplaysJournal(t *testing.T) {
	itemID := id.New()
	warehouseID := id.New()

	// Cache drifted: available and cost are wrong.
	item := ledger.NewInventoryItem("WIDGET-01", "Widget", warehouseID, "USD")
	item.ID = itemID
	item.Available = qty(999)
	item.AverageUnitCost = money("1")
	item.RecomputeTotal()

	entry := func(txType ledger.TransactionType, change types.Quantity, cost types.Money, number string) ledger.InventoryTransaction {
		return ledger.InventoryTransaction{
			ID:              id.New(),
			Number:          number,
			Type:            txType,
			Status:          ledger.StatusConfirmed,
			ItemID:          itemID,
			ChangeQty:       change,
			UnitCost:        cost,
			TransactionDate: time.Now(),
		}
	}

	txns := &fakeTxRepo{applied: []ledger.InventoryTransaction{
		entry(ledger.TypeInbound, qty(10), money("100"), "ITX-2026-00001"),
		entry(ledger.TypeInbound, qty(10), money("200"), "ITX-2026-00002"),
		entry(ledger.TypeOutbound, qty(-5), money("150"), "ITX-2026-00003"),
	}}
	items := &fakeItemRepo{item: item}

	svc := NewService(&fakeRepo{}, items, txns, nil, passthroughTxManager{})

	repaired, err := svc.RebuildItemCache(context.Background(), itemID)
	require.NoError(t, err)

	assert.Equal(t, qty(15), repaired.Available)
	assert.True(t, repaired.AverageUnitCost.Equal(money("150")),
		"expected avg 150, got %s", repaired.AverageUnitCost)
	assert.True(t, repaired.LastUnitCost.Equal(money("200")))
	assert.Equal(t, qty(15), repaired.Total)
	assert.Equal(t, "ITX-2026-00003", repaired.LastTxNumber)
	require.NotNil(t, items.updated)
}

func TestRebuildItemCache_AfterCancellation(t *testing.T) {
	itemID := id.New()

	item := ledger.NewInventoryItem("WIDGET-01", "Widget", id.New(), "USD")
	item.ID = itemID
	item.Available = qty(123)
	item.RecomputeTotal()

	// A receipt of 50 that was cancelled: the original entry flipped to
	// CANCELLED and its confirmed reversal carries the inverted delta.
	// True available is 0; the replay must net the pair out, not count
	// the reversal alone.
	originalID := id.New()
	original := ledger.InventoryTransaction{
		ID:              originalID,
		Number:          "ITX-2026-00001",
		Type:            ledger.TypeInbound,
		Status:          ledger.StatusCancelled,
		ItemID:          itemID,
		ChangeQty:       qty(50),
		UnitCost:        money("100"),
		TransactionDate: time.Now().Add(-time.Hour),
	}
	reversal := ledger.InventoryTransaction{
		ID:              id.New(),
		Number:          "ITX-2026-00002",
		Type:            ledger.TypeInbound,
		Status:          ledger.StatusConfirmed,
		ItemID:          itemID,
		ChangeQty:       qty(-50),
		UnitCost:        money("100"),
		ReversalOf:      &originalID,
		TransactionDate: time.Now(),
	}

	txns := &fakeTxRepo{applied: []ledger.InventoryTransaction{original, reversal}}
	svc := NewService(&fakeRepo{}, &fakeItemRepo{item: item}, txns, nil, passthroughTxManager{})

	repaired, err := svc.RebuildItemCache(context.Background(), itemID)
	require.NoError(t, err)

	assert.Equal(t, qty(0), repaired.Available)
	assert.Equal(t, qty(0), repaired.Total)
	// Cancellation never rolls the blend back, and neither does a replay.
	assert.True(t, repaired.AverageUnitCost.Equal(money("100")))
}

func TestRebuildItemCache_EmptyJournalZeroes(t *testing.T) {
	item := ledger.NewInventoryItem("WIDGET-01", "Widget", id.New(), "USD")
	item.Available = qty(42)
	item.RecomputeTotal()

	svc := NewService(&fakeRepo{}, &fakeItemRepo{item: item}, &fakeTxRepo{}, nil, passthroughTxManager{})

	repaired, err := svc.RebuildItemCache(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(0), repaired.Available)
	assert.True(t, repaired.AverageUnitCost.IsZero())
}
