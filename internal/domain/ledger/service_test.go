package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
	appctx "stockbook/internal/core/context"
	"stockbook/internal/core/id"
	"stockbook/internal/core/numerator"
	"stockbook/internal/core/types"
	"stockbook/internal/domain"
	"stockbook/internal/domain/audit"
)

// --- in-memory fakes ---

// memStore holds items and journal entries behind one mutex. The tx manager
// snapshots it on begin and restores it when the callback fails, which gives
// the tests real rollback semantics.
type memStore struct {
	mu    sync.Mutex
	items map[id.ID]*InventoryItem
	txns  map[id.ID]*InventoryTransaction
}

func newMemStore() *memStore {
	return &memStore{
		items: make(map[id.ID]*InventoryItem),
		txns:  make(map[id.ID]*InventoryTransaction),
	}
}

func (s *memStore) snapshot() (map[id.ID]*InventoryItem, map[id.ID]*InventoryTransaction) {
	items := make(map[id.ID]*InventoryItem, len(s.items))
	for k, v := range s.items {
		cp := *v
		items[k] = &cp
	}
	txns := make(map[id.ID]*InventoryTransaction, len(s.txns))
	for k, v := range s.txns {
		cp := *v
		txns[k] = &cp
	}
	return items, txns
}

type memTxManager struct {
	store *memStore
}

// RunInTransaction serializes callbacks on the store mutex (standing in for
// the row lock) and rolls the store back when fn fails.
func (m *memTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	items, txns := m.store.snapshot()
	if err := fn(ctx); err != nil {
		m.store.items = items
		m.store.txns = txns
		return err
	}
	return nil
}

type memItemRepo struct {
	store *memStore
}

func (r *memItemRepo) Create(ctx context.Context, item *InventoryItem) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *item
	r.store.items[item.ID] = &cp
	return nil
}

func (r *memItemRepo) get(itemID id.ID) (*InventoryItem, error) {
	stored, ok := r.store.items[itemID]
	if !ok {
		return nil, apperror.NewNotFound("inventory item", itemID)
	}
	cp := *stored
	return &cp, nil
}

func (r *memItemRepo) GetByID(ctx context.Context, itemID id.ID) (*InventoryItem, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.get(itemID)
}

// GetForUpdate relies on the tx manager already holding the store lock.
func (r *memItemRepo) GetForUpdate(ctx context.Context, itemID id.ID) (*InventoryItem, error) {
	return r.get(itemID)
}

func (r *memItemRepo) Update(ctx context.Context, item *InventoryItem) error {
	stored, ok := r.store.items[item.ID]
	if !ok {
		return apperror.NewNotFound("inventory item", item.ID)
	}
	if stored.Version != item.Version {
		return apperror.NewConcurrentModification("inventory item", item.ID)
	}
	item.Version++
	cp := *item
	r.store.items[item.ID] = &cp
	return nil
}

func (r *memItemRepo) List(ctx context.Context, filter ItemFilter) (*domain.ListResult[InventoryItem], error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]InventoryItem, 0, len(r.store.items))
	for _, v := range r.store.items {
		out = append(out, *v)
	}
	return &domain.ListResult[InventoryItem]{Items: out, TotalCount: int64(len(out))}, nil
}

type memTxRepo struct {
	store *memStore
}

func (r *memTxRepo) Create(ctx context.Context, tx *InventoryTransaction) error {
	cp := *tx
	r.store.txns[tx.ID] = &cp
	return nil
}

func (r *memTxRepo) GetByID(ctx context.Context, txID id.ID) (*InventoryTransaction, error) {
	stored, ok := r.store.txns[txID]
	if !ok {
		return nil, apperror.NewNotFound("inventory transaction", txID)
	}
	cp := *stored
	return &cp, nil
}

func (r *memTxRepo) GetByNumber(ctx context.Context, number string) (*InventoryTransaction, error) {
	for _, v := range r.store.txns {
		if v.Number == number {
			cp := *v
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("inventory transaction", number)
}

func (r *memTxRepo) UpdateStatus(ctx context.Context, tx *InventoryTransaction) error {
	if _, ok := r.store.txns[tx.ID]; !ok {
		return apperror.NewNotFound("inventory transaction", tx.ID)
	}
	cp := *tx
	r.store.txns[tx.ID] = &cp
	return nil
}

func (r *memTxRepo) ListAppliedByItem(ctx context.Context, itemID id.ID) ([]InventoryTransaction, error) {
	var out []InventoryTransaction
	for _, v := range r.store.txns {
		if v.ItemID == itemID && v.Status != StatusPending {
			out = append(out, *v)
		}
	}
	return out, nil
}

func inboundReq(itemID id.ID, quantity types.Quantity, cost *types.Money) InboundRequest {
	return InboundRequest{
		ItemID:       itemID,
		Quantity:     quantity,
		UnitCost:     cost,
		Reason:       "purchase receipt",
		Counterparty: "Acme Supply",
	}
}

func outboundReq(itemID id.ID, quantity types.Quantity) OutboundRequest {
	return OutboundRequest{
		ItemID:       itemID,
		Quantity:     quantity,
		Reason:       "sales issue",
		Counterparty: "Acme Retail",
	}
}

func sequentialNumbers() numerator.Generator {
	var mu sync.Mutex
	var n int64
	return &numerator.MockGenerator{
		GetNextNumberFunc: func(ctx context.Context, cfg numerator.Config, opts *numerator.Options, period time.Time) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("%s-%s-%05d", cfg.Prefix, period.Format("2006"), n), nil
		},
	}
}

func newTestService(t *testing.T, guard *Guard) (*Service, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := NewService(
		&memItemRepo{store: store},
		&memTxRepo{store: store},
		sequentialNumbers(),
		guard,
		audit.NopRecorder{},
		&memTxManager{store: store},
	)
	return svc, store
}

func seedItem(t *testing.T, svc *Service) *InventoryItem {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), NewInventoryItem("WIDGET-01", "Widget", id.New(), "USD"))
	require.NoError(t, err)
	return item
}

// --- tests ---

func TestMovementLifecycle(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	// Receive 50 @ 100.
	cost1 := money("100")
	res, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(50), &cost1))
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, res.Transaction.Status)
	assert.Equal(t, qty(50), res.Item.Available)
	assert.True(t, res.Item.AverageUnitCost.Equal(money("100")))

	// Receive 50 @ 200: weighted average moves to 150.
	cost2 := money("200")
	res, err = svc.RecordInbound(ctx, inboundReq(item.ID, qty(50), &cost2))
	require.NoError(t, err)
	assert.Equal(t, qty(100), res.Item.Available)
	assert.True(t, res.Item.AverageUnitCost.Equal(money("150")),
		"expected avg 150, got %s", res.Item.AverageUnitCost)
	assert.True(t, res.Item.LastUnitCost.Equal(money("200")))

	// Issue 30: snapshot at 150, average unchanged.
	res, err = svc.RecordOutbound(ctx, outboundReq(item.ID, qty(30)))
	require.NoError(t, err)
	assert.Equal(t, qty(70), res.Item.Available)
	assert.True(t, res.Transaction.UnitCost.Equal(money("150")))
	assert.True(t, res.Item.AverageUnitCost.Equal(money("150")))

	// Adjust to 65: delta of -5 in the journal, valuation untouched.
	res, err = svc.RecordAdjustment(ctx, AdjustmentRequest{ItemID: item.ID, TargetQuantity: qty(65), Reason: "cycle count", Notes: "variance found during count"})
	require.NoError(t, err)
	assert.Equal(t, qty(-5), res.Transaction.ChangeQty)
	assert.Equal(t, qty(65), res.Item.Available)
	assert.True(t, res.Item.AverageUnitCost.Equal(money("150")))
}

func TestMovementNumbersAreSequential(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	year := time.Now().Format("2006")
	for i := 1; i <= 3; i++ {
		res, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(1), nil))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("ITX-%s-%05d", year, i), res.Transaction.Number)
	}
}

func TestUnpricedInboundKeepsValuation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	cost := money("80")
	_, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(10), &cost))
	require.NoError(t, err)

	res, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(10), nil))
	require.NoError(t, err)
	assert.True(t, res.Item.AverageUnitCost.Equal(money("80")))
	assert.Equal(t, qty(20), res.Item.Available)
}

func TestOutboundInsufficientStockRollsBack(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	_, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(5), nil))
	require.NoError(t, err)

	_, err = svc.RecordOutbound(ctx, outboundReq(item.ID, qty(6)))
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Nothing persisted: one journal entry, quantity intact.
	assert.Len(t, store.txns, 1)
	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(5), got.Available)
}

func TestCancelRestoresQuantityKeepsCost(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	cost := money("100")
	_, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(100), &cost))
	require.NoError(t, err)

	out, err := svc.RecordOutbound(ctx, outboundReq(item.ID, qty(30)))
	require.NoError(t, err)

	res, err := svc.CancelTransaction(ctx, out.Transaction.ID, "picked wrong item")
	require.NoError(t, err)

	// Quantity restored, valuation untouched.
	assert.Equal(t, qty(100), res.Item.Available)
	assert.True(t, res.Item.AverageUnitCost.Equal(money("100")))

	// Compensating entry inverts the delta and links back.
	assert.Equal(t, qty(30), res.Transaction.ChangeQty)
	require.NotNil(t, res.Transaction.ReversalOf)
	assert.Equal(t, out.Transaction.ID, *res.Transaction.ReversalOf)
	assert.True(t, res.Transaction.UnitCost.Equal(out.Transaction.UnitCost))

	// Original flipped to CANCELLED with reason and actor in the notes.
	original, err := svc.GetTransaction(ctx, out.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, original.Status)
	assert.Contains(t, original.Notes, res.Transaction.Number)
	assert.Contains(t, original.Notes, "picked wrong item")
	assert.Contains(t, original.Notes, original.CancelledBy)
	assert.NotNil(t, original.CancelledAt)
}

func TestCancelWithoutReasonFails(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	_, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(10), nil))
	require.NoError(t, err)
	out, err := svc.RecordOutbound(ctx, outboundReq(item.ID, qty(5)))
	require.NoError(t, err)

	_, err = svc.CancelTransaction(ctx, out.Transaction.ID, "")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestWeightedAverageBlendsOverAvailableOnly(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	cost1 := money("100")
	_, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(10), &cost1))
	require.NoError(t, err)

	// Damaged stock sits outside the available bucket and must not dilute
	// the blend.
	store.mu.Lock()
	store.items[item.ID].Damaged = qty(40)
	store.items[item.ID].RecomputeTotal()
	store.mu.Unlock()

	cost2 := money("200")
	res, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(10), &cost2))
	require.NoError(t, err)
	assert.True(t, res.Item.AverageUnitCost.Equal(money("150")),
		"expected avg 150, got %s", res.Item.AverageUnitCost)
}

func TestCancelCancelledFails(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	_, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(10), nil))
	require.NoError(t, err)
	out, err := svc.RecordOutbound(ctx, outboundReq(item.ID, qty(5)))
	require.NoError(t, err)

	_, err = svc.CancelTransaction(ctx, out.Transaction.ID, "first")
	require.NoError(t, err)

	_, err = svc.CancelTransaction(ctx, out.Transaction.ID, "second")
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeNotCancellable, appErr.Code)
}

func TestCancelReversalFails(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	_, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(10), nil))
	require.NoError(t, err)
	out, err := svc.RecordOutbound(ctx, outboundReq(item.ID, qty(5)))
	require.NoError(t, err)

	rev, err := svc.CancelTransaction(ctx, out.Transaction.ID, "undo")
	require.NoError(t, err)

	_, err = svc.CancelTransaction(ctx, rev.Transaction.ID, "undo the undo")
	require.Error(t, err)
}

func TestCancelInboundAfterIssueFails(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	in, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(10), nil))
	require.NoError(t, err)
	_, err = svc.RecordOutbound(ctx, outboundReq(item.ID, qty(8)))
	require.NoError(t, err)

	// Reversing the receipt would drive available to -8.
	_, err = svc.CancelTransaction(ctx, in.Transaction.ID, "wrong receipt")
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// The failed cancellation must leave the original untouched.
	original, err := svc.GetTransaction(ctx, in.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, original.Status)
}

func TestConcurrentOutbound_ExactlyOneSucceeds(t *testing.T) {
	svc, _ := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	_, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(10), nil))
	require.NoError(t, err)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordOutbound(ctx, outboundReq(item.ID, qty(10)))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var failures int
	for err := range errs {
		if err != nil {
			assert.True(t, apperror.IsInsufficientStock(err))
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the competing issues must fail")

	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(0), got.Available)
}

func TestGuardRejectionRollsBack(t *testing.T) {
	guard, err := NewGuard([]Rule{
		{Name: "cap", Expression: `quantity <= 100.0`, Message: "too large"},
	})
	require.NoError(t, err)

	svc, store := newTestService(t, guard)
	ctx := context.Background()
	item := seedItem(t, svc)

	_, err = svc.RecordInbound(ctx, inboundReq(item.ID, qty(101), nil))
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeMovementRejected, appErr.Code)
	assert.Empty(t, store.txns)
}

func TestFailingHookRollsBack(t *testing.T) {
	svc, store := newTestService(t, nil)
	ctx := context.Background()
	item := seedItem(t, svc)

	svc.Hooks().On(domain.AfterApply, func(ctx context.Context, res *MovementResult) error {
		return fmt.Errorf("downstream projection unavailable")
	})

	_, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(1), nil))
	require.Error(t, err)

	assert.Empty(t, store.txns)
	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, qty(0), got.Available)
}

func TestActorStampFromContext(t *testing.T) {
	svc, _ := newTestService(t, nil)
	item := seedItem(t, svc)

	ctx := appctx.WithUser(context.Background(), &appctx.UserContext{
		UserID: "u-1",
		Email:  "clerk@example.com",
	})

	res, err := svc.RecordInbound(ctx, inboundReq(item.ID, qty(1), nil))
	require.NoError(t, err)
	assert.Equal(t, "clerk@example.com", res.Transaction.CreatedBy)
}
