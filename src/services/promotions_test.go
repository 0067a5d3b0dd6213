package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discountParams(code, discount string) DiscountCodeParams {
	return DiscountCodeParams{
		Code:      code,
		Discount:  discount,
		StartDate: epoch.Add(-time.Hour),
		EndDate:   epoch.Add(7 * 24 * time.Hour),
	}
}

func TestVoucherLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	promos := NewPromotionService(f.db)
	org := f.organizer(t)
	stranger := f.organizer(t)
	e := f.event(t, org.ID, 10, 1000)

	v, err := promos.CreateVoucher(ctx, org.ID, e.ID, discountParams("launch", "15%"))
	require.NoError(t, err)
	assert.Equal(t, "LAUNCH", v.Code)

	_, err = promos.CreateVoucher(ctx, org.ID, e.ID, discountParams("LAUNCH", "10%"))
	assert.ErrorIs(t, err, Kind(ErrAlreadyExists))

	_, err = promos.CreateVoucher(ctx, stranger.ID, e.ID, discountParams("MINE", "10%"))
	assert.ErrorIs(t, err, Kind(ErrUnauthorized))

	_, err = promos.CreateVoucher(ctx, org.ID, e.ID, discountParams("BROKEN", "ten"))
	assert.ErrorIs(t, err, Kind(ErrInvalidState))

	assert.ErrorIs(t, promos.DeleteVoucher(ctx, stranger.ID, e.ID, "launch"), Kind(ErrUnauthorized))
	require.NoError(t, promos.DeleteVoucher(ctx, org.ID, e.ID, "launch"))
	assert.ErrorIs(t, promos.DeleteVoucher(ctx, org.ID, e.ID, "launch"), &DomainError{Kind: ErrNotFound, Entity: "Voucher"})

	vouchers, err := promos.ListVouchers(ctx, e.ID)
	require.NoError(t, err)
	assert.Empty(t, vouchers)

	restored, err := promos.CreateVoucher(ctx, org.ID, e.ID, discountParams("Launch", "25%"))
	require.NoError(t, err)
	assert.Equal(t, v.ID, restored.ID)
	assert.Equal(t, "25%", restored.Discount)

	vouchers, err = promos.ListVouchers(ctx, e.ID)
	require.NoError(t, err)
	require.Len(t, vouchers, 1)
	assert.Equal(t, "25%", vouchers[0].Discount)
}

func TestDeletedVoucherCannotBeRedeemed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	promos := NewPromotionService(f.db)
	org := f.organizer(t)
	buyer := f.user(t, 0, true)
	e := f.event(t, org.ID, 10, 1000)

	_, err := promos.CreateVoucher(ctx, org.ID, e.ID, discountParams("GONE", "10%"))
	require.NoError(t, err)
	require.NoError(t, promos.DeleteVoucher(ctx, org.ID, e.ID, "GONE"))

	_, err = f.txs.Create(ctx, buyer.ID, CreateTransactionParams{EventID: e.ID, Quantity: 1, VoucherCode: "GONE"})
	assert.ErrorIs(t, err, Kind(ErrInvalidVoucher))
}

func TestCouponLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	promos := NewPromotionService(f.db)

	c, err := promos.CreateCoupon(ctx, discountParams("welcome", "5000"))
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", c.Code)

	_, err = promos.CreateCoupon(ctx, discountParams("WELCOME", "10%"))
	assert.ErrorIs(t, err, Kind(ErrAlreadyExists))

	bad := discountParams("LATE", "10%")
	bad.EndDate = bad.StartDate
	_, err = promos.CreateCoupon(ctx, bad)
	assert.ErrorIs(t, err, Kind(ErrInvalidState))

	require.NoError(t, promos.DeleteCoupon(ctx, "welcome"))
	assert.ErrorIs(t, promos.DeleteCoupon(ctx, "welcome"), &DomainError{Kind: ErrNotFound, Entity: "Coupon"})

	restored, err := promos.CreateCoupon(ctx, discountParams("WELCOME", "10%"))
	require.NoError(t, err)
	assert.Equal(t, c.ID, restored.ID)
	assert.Equal(t, "10%", restored.Discount)
}
