package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "trimsdesk/internal/errors"
	"trimsdesk/internal/model"
)

func TestBuyerService_AddAndList(t *testing.T) {
	e := newEnv(t)
	svc := NewBuyerService(e.layer)
	ctx := context.Background()

	for _, n := range []string{"Zara", "  H&M ", "Next"} {
		_, err := svc.Add(ctx, root, n)
		require.NoError(t, err)
	}

	_, err := svc.Add(ctx, alice, "zara")
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "This buyer already exists.", verr.Message)

	_, err = svc.Add(ctx, alice, "")
	assert.ErrorAs(t, err, &verr)

	buyers, err := svc.List(ctx, alice)
	require.NoError(t, err)
	var names []string
	for _, b := range buyers {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"H&M", "Next", "Zara"}, names)
}

func TestBuyerService_Rename(t *testing.T) {
	e := newEnv(t)
	svc := NewBuyerService(e.layer)
	ctx := context.Background()

	zara, err := svc.Add(ctx, root, "Zara")
	require.NoError(t, err)
	_, err = svc.Add(ctx, root, "Next")
	require.NoError(t, err)

	_, err = svc.Rename(ctx, root, zara.ID, "NEXT")
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)

	renamed, err := svc.Rename(ctx, root, zara.ID, "ZARA")
	require.NoError(t, err)
	assert.Equal(t, "ZARA", renamed.Name)

	_, err = svc.Rename(ctx, root, "missing", "Other")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestBuyerService_DeleteRefusedWhileUsed(t *testing.T) {
	e := newEnv(t)
	buyers := NewBuyerService(e.layer)
	bookings := NewBookingService(e.layer)
	ctx := context.Background()

	hm, err := buyers.Add(ctx, root, "H&M")
	require.NoError(t, err)
	b, err := bookings.Create(ctx, root, model.Booking{Buyer: "H&M"})
	require.NoError(t, err)

	err = buyers.Delete(ctx, root, hm.ID)
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "1 booking(s)")

	require.NoError(t, bookings.Delete(ctx, root, b.ID))
	require.NoError(t, buyers.Delete(ctx, root, hm.ID))

	list, err := buyers.List(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBuyerService_Remap(t *testing.T) {
	e := newEnv(t)
	svc := NewBuyerService(e.layer)
	bookings := NewBookingService(e.layer)
	ctx := context.Background()

	_, err := svc.Add(ctx, root, "H&M")
	require.NoError(t, err)
	for _, old := range []string{"HM", "HM", "hnm", "Zara"} {
		_, err := e.store.Add(ctx, "bookings", map[string]any{"buyer": old, "createdBy": "alice"})
		require.NoError(t, err)
	}
	_, err = e.store.Add(ctx, "bookings", map[string]any{"buyer": "HM", "createdBy": "bob"})
	require.NoError(t, err)

	_, err = svc.Remap(ctx, alice, map[string]string{"HM": "Primark"})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)

	n, err := svc.Remap(ctx, alice, map[string]string{"HM": "h&m", "hnm": "H&M", "Zara": "Zara"})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all, err := bookings.List(ctx, root)
	require.NoError(t, err)
	counts := map[string]int{}
	for _, b := range all {
		counts[b.Buyer]++
	}
	assert.Equal(t, map[string]int{"H&M": 3, "Zara": 1, "HM": 1}, counts)
}
