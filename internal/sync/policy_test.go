package sync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"cargodesk/internal/core/types"
	"cargodesk/internal/domain"
)

func TestCompileAutoApprovePolicyRejectsNonBool(t *testing.T) {
	_, err := CompileAutoApprovePolicy(`field + original`)
	require.Error(t, err)

	_, err = CompileAutoApprovePolicy(`this is not cel`)
	require.Error(t, err)

	_, err = CompileAutoApprovePolicy(`field == "serviceType"`)
	require.NoError(t, err)
}

func TestSubmitRedlineAutoApproves(t *testing.T) {
	prog, err := CompileAutoApprovePolicy(
		`field == "sellingPrice" && double(requested) >= double(original)`)
	require.NoError(t, err)

	r := newTestRig(t, WithAutoApprovePolicy(prog))
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")

	// A price increase matches the policy and is applied immediately.
	rl, err := r.engine.SubmitRedline(ctx, &domain.Redline{
		SalesOrderID:   o.ID,
		Field:          domain.RedlineFieldSellingPrice,
		RequestedValue: "15000",
		Reason:         "fuel surcharge",
	})
	require.NoError(t, err)
	require.Equal(t, domain.RedlineApproved, rl.Status)
	require.Equal(t, "12500", rl.OriginalValue)

	got, err := r.engine.GetSalesOrder(ctx, o.ID)
	require.NoError(t, err)
	require.True(t, got.SellingPrice.Equal(types.MustMoney("15000")))
	require.True(t, got.Margin.Equal(types.MustMoney("5200")))
}

func TestSubmitRedlineStaysPendingWithoutPolicyMatch(t *testing.T) {
	prog, err := CompileAutoApprovePolicy(
		`field == "sellingPrice" && double(requested) >= double(original)`)
	require.NoError(t, err)

	r := newTestRig(t, WithAutoApprovePolicy(prog))
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")

	rl, err := r.engine.SubmitRedline(ctx, &domain.Redline{
		SalesOrderID:   o.ID,
		Field:          domain.RedlineFieldSellingPrice,
		RequestedValue: "9000",
	})
	require.NoError(t, err)
	require.Equal(t, domain.RedlinePending, rl.Status)

	// Manual review path.
	approved, err := r.engine.ApproveRedline(ctx, rl.ID, "reviewer@ops")
	require.NoError(t, err)
	require.Equal(t, domain.RedlineApproved, approved.Status)
	require.Equal(t, "reviewer@ops", approved.ReviewedBy)

	got, err := r.engine.GetSalesOrder(ctx, o.ID)
	require.NoError(t, err)
	require.True(t, got.SellingPrice.Equal(types.MustMoney("9000")))

	// A decided redline cannot be re-reviewed.
	_, err = r.engine.ApproveRedline(ctx, rl.ID, "someone-else")
	require.Error(t, err)
}

func TestRejectRedlineLeavesOrderUntouched(t *testing.T) {
	r := newTestRig(t)
	ctx := context.Background()
	c := r.customer(t, "Pacific Trading Co")
	o := r.order(t, c.ID, "")

	rl, err := r.engine.SubmitRedline(ctx, &domain.Redline{
		SalesOrderID:   o.ID,
		Field:          domain.RedlineFieldDestination,
		RequestedValue: "Hamburg",
	})
	require.NoError(t, err)

	rejected, err := r.engine.RejectRedline(ctx, rl.ID, "reviewer@ops", "route locked")
	require.NoError(t, err)
	require.Equal(t, domain.RedlineRejected, rejected.Status)
	require.Len(t, rejected.Changes, 2) // submitted + rejected

	got, err := r.engine.GetSalesOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Equal(t, "Rotterdam", got.Destination)
}
