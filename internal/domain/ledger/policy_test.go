package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbook/internal/core/apperror"
)

func TestGuard_PassAndReject(t *testing.T) {
	guard, err := NewGuard([]Rule{
		{
			Name:       "max-outbound",
			Expression: `kind != "OUTBOUND" || quantity <= 500.0`,
			Message:    "Outbound movements are capped at 500 units",
		},
	})
	require.NoError(t, err)

	f := NewFactory()
	item := testItem()
	item.Available = qty(1000)
	item.RecomputeTotal()

	small, err := f.BuildOutbound(item, outboundReq(item.ID, qty(100)), "tester")
	require.NoError(t, err)
	assert.NoError(t, guard.Check(context.Background(), small))

	big, err := f.BuildOutbound(item, outboundReq(item.ID, qty(501)), "tester")
	require.NoError(t, err)

	err = guard.Check(context.Background(), big)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeMovementRejected, appErr.Code)
	assert.Equal(t, "Outbound movements are capped at 500 units", appErr.Message)
}

func TestGuard_SeesItemState(t *testing.T) {
	// Reject inbound receipts into positions already holding 900+ units.
	guard, err := NewGuard([]Rule{
		{
			Name:       "capacity",
			Expression: `kind != "INBOUND" || available + quantity <= 1000.0`,
		},
	})
	require.NoError(t, err)

	f := NewFactory()
	item := testItem()
	item.Available = qty(950)
	item.RecomputeTotal()

	entry, err := f.BuildInbound(item, inboundReq(item.ID, qty(100), nil), "tester")
	require.NoError(t, err)

	err = guard.Check(context.Background(), entry)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Contains(t, appErr.Message, "capacity")
}

func TestNewGuard_RejectsBadRules(t *testing.T) {
	_, err := NewGuard([]Rule{{Name: "broken", Expression: `quantity +`}})
	assert.Error(t, err)

	_, err = NewGuard([]Rule{{Name: "not-bool", Expression: `quantity * 2.0`}})
	assert.Error(t, err)
}

func TestGuard_NilIsNoop(t *testing.T) {
	var guard *Guard
	f := NewFactory()
	item := testItem()

	entry, err := f.BuildInbound(item, inboundReq(item.ID, qty(1), nil), "tester")
	require.NoError(t, err)
	assert.NoError(t, guard.Check(context.Background(), entry))
}
