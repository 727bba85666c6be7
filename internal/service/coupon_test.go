package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verbalize-ai/voice-platform/internal/model"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
)

type couponFixture struct {
	svc         *CouponService
	coupons     *fakeCouponStore
	redemptions *fakeRedemptionStore
	accounts    *fakeAccountStore
}

func newCouponFixture() *couponFixture {
	accounts := newFakeAccountStore()
	coupons := newFakeCouponStore()
	redemptions := newFakeRedemptionStore()
	ledger := NewLedgerService(accounts, logger.NewNop())
	return &couponFixture{
		svc:         NewCouponService(coupons, redemptions, ledger, logger.NewNop()),
		coupons:     coupons,
		redemptions: redemptions,
		accounts:    accounts,
	}
}

func (f *couponFixture) seedAccount(id string) {
	f.accounts.seed(*model.NewAccount(id, time.Now()))
}

func TestRedeemGrantsBonusAndPro(t *testing.T) {
	f := newCouponFixture()
	f.seedAccount("acct-1")
	f.coupons.seed(model.Coupon{
		ID:             "cpn-1",
		Code:           "PRO2025",
		BonusCredits:   5000,
		MaxRedemptions: 100,
	})

	bonus, err := f.svc.Redeem(context.Background(), "acct-1", "PRO2025")
	require.NoError(t, err)
	assert.Equal(t, 5000, bonus)

	acct, _, err := f.accounts.Get(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultStartingCredits+5000, acct.CreditsRemaining)
	assert.Equal(t, model.PlanPro, acct.PlanStatus)
	assert.Equal(t, 1, f.coupons.count("PRO2025"))
}

func TestRedeemCanonicalizesCode(t *testing.T) {
	f := newCouponFixture()
	f.seedAccount("acct-1")
	f.coupons.seed(model.Coupon{ID: "cpn-1", Code: "PRO2025", BonusCredits: 500, MaxRedemptions: 10})

	bonus, err := f.svc.Redeem(context.Background(), "acct-1", "  pro2025 ")
	require.NoError(t, err)
	assert.Equal(t, 500, bonus)
}

func TestRedeemTwiceRejected(t *testing.T) {
	f := newCouponFixture()
	f.seedAccount("acct-1")
	f.coupons.seed(model.Coupon{ID: "cpn-1", Code: "PRO2025", BonusCredits: 500, MaxRedemptions: 10})

	_, err := f.svc.Redeem(context.Background(), "acct-1", "PRO2025")
	require.NoError(t, err)

	_, err = f.svc.Redeem(context.Background(), "acct-1", "PRO2025")
	require.ErrorIs(t, err, model.ErrAlreadyRedeemed)

	// Balance and counter reflect exactly one redemption.
	assert.Equal(t, model.DefaultStartingCredits+500, f.accounts.balance("acct-1"))
	assert.Equal(t, 1, f.coupons.count("PRO2025"))
}

func TestRedeemUnknownCode(t *testing.T) {
	f := newCouponFixture()
	f.seedAccount("acct-1")

	_, err := f.svc.Redeem(context.Background(), "acct-1", "NOPE")
	require.ErrorIs(t, err, model.ErrInvalidCoupon)
	assert.Equal(t, model.DefaultStartingCredits, f.accounts.balance("acct-1"))
}

func TestRedeemEmptyCode(t *testing.T) {
	f := newCouponFixture()
	f.seedAccount("acct-1")

	_, err := f.svc.Redeem(context.Background(), "acct-1", "   ")
	require.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestRedeemExpiredCoupon(t *testing.T) {
	f := newCouponFixture()
	f.seedAccount("acct-1")
	expiry := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.coupons.seed(model.Coupon{
		ID:             "cpn-1",
		Code:           "OLD",
		BonusCredits:   500,
		MaxRedemptions: 10,
		ExpiresAt:      &expiry,
	})
	f.svc.now = func() time.Time { return expiry.Add(time.Hour) }

	_, err := f.svc.Redeem(context.Background(), "acct-1", "OLD")
	require.ErrorIs(t, err, model.ErrCouponExpired)
	assert.Equal(t, model.DefaultStartingCredits, f.accounts.balance("acct-1"))
	assert.Zero(t, f.redemptions.size())
}

func TestRedeemBeforeExpiryAllowed(t *testing.T) {
	f := newCouponFixture()
	f.seedAccount("acct-1")
	expiry := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	f.coupons.seed(model.Coupon{
		ID:             "cpn-1",
		Code:           "FRESH",
		BonusCredits:   500,
		MaxRedemptions: 10,
		ExpiresAt:      &expiry,
	})
	f.svc.now = func() time.Time { return expiry.Add(-time.Hour) }

	_, err := f.svc.Redeem(context.Background(), "acct-1", "FRESH")
	require.NoError(t, err)
}

func TestRedeemExhaustedCoupon(t *testing.T) {
	f := newCouponFixture()
	f.seedAccount("acct-1")
	f.coupons.seed(model.Coupon{
		ID:               "cpn-1",
		Code:             "FULL",
		BonusCredits:     500,
		MaxRedemptions:   5,
		RedemptionsCount: 5,
	})

	_, err := f.svc.Redeem(context.Background(), "acct-1", "FULL")
	require.ErrorIs(t, err, model.ErrCouponExhausted)
	assert.Equal(t, model.DefaultStartingCredits, f.accounts.balance("acct-1"))
	assert.Zero(t, f.redemptions.size())
}

func TestRedeemConcurrentLastSlot(t *testing.T) {
	f := newCouponFixture()
	f.seedAccount("acct-1")
	f.seedAccount("acct-2")
	f.coupons.seed(model.Coupon{
		ID:               "cpn-1",
		Code:             "LAST",
		BonusCredits:     500,
		MaxRedemptions:   5,
		RedemptionsCount: 4,
	})

	results := make([]error, 2)
	var wg sync.WaitGroup
	for i, acct := range []string{"acct-1", "acct-2"} {
		wg.Add(1)
		go func(i int, acct string) {
			defer wg.Done()
			_, results[i] = f.svc.Redeem(context.Background(), acct, "LAST")
		}(i, acct)
	}
	wg.Wait()

	var successes, exhausted int
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		require.ErrorIs(t, err, model.ErrCouponExhausted)
		exhausted++
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, exhausted)

	// Counter lands exactly at capacity and the loser's record was backed
	// out, so only the winner is marked as redeemed.
	assert.Equal(t, 5, f.coupons.count("LAST"))
	assert.Equal(t, 1, f.redemptions.size())
}

func TestRedeemConcurrentSameAccount(t *testing.T) {
	f := newCouponFixture()
	f.seedAccount("acct-1")
	f.coupons.seed(model.Coupon{ID: "cpn-1", Code: "ONCE", BonusCredits: 500, MaxRedemptions: 100})

	const attempts = 8
	results := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.svc.Redeem(context.Background(), "acct-1", "ONCE")
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range results {
		if err == nil {
			successes++
		} else {
			require.ErrorIs(t, err, model.ErrAlreadyRedeemed)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, f.coupons.count("ONCE"))
	assert.Equal(t, model.DefaultStartingCredits+500, f.accounts.balance("acct-1"))
}
