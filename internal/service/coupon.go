package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verbalize-ai/voice-platform/internal/model"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
	"github.com/verbalize-ai/voice-platform/pkg/metrics"
)

// CouponStore is the revisioned coupon record store.
type CouponStore interface {
	// GetByCode returns the coupon for a canonical code and the revision
	// for a guarded counter update; model.ErrInvalidCoupon when absent.
	GetByCode(ctx context.Context, code string) (*model.Coupon, uint64, error)
	// Update writes the coupon only at the given revision;
	// model.ErrRevisionConflict when a concurrent redeemer won.
	Update(ctx context.Context, coupon *model.Coupon, revision uint64) error
}

// RedemptionStore holds the per-account redemption records whose
// create-once uniqueness is the final authority on "already redeemed".
type RedemptionStore interface {
	// Create inserts the record; model.ErrAlreadyExists on duplicate.
	Create(ctx context.Context, r *model.Redemption) error
	// Exists is a fast-path pre-check only; Create decides races.
	Exists(ctx context.Context, accountID, couponID string) (bool, error)
	// Delete backs out a record whose redemption lost the capacity race.
	Delete(ctx context.Context, accountID, couponID string) error
}

// CouponService applies a coupon's reward to an account exactly once.
type CouponService struct {
	coupons     CouponStore
	redemptions RedemptionStore
	ledger      *LedgerService
	logger      *logger.Logger
	now         func() time.Time
}

// NewCouponService creates a new coupon service.
func NewCouponService(coupons CouponStore, redemptions RedemptionStore, ledger *LedgerService, log *logger.Logger) *CouponService {
	return &CouponService{
		coupons:     coupons,
		redemptions: redemptions,
		ledger:      ledger,
		logger:      log,
		now:         time.Now,
	}
}

// Redeem validates the coupon and applies its reward: one redemption record
// per (account, coupon), a counter increment that never exceeds capacity,
// and a balance credit with a pro upgrade. Returns the bonus credits
// applied.
func (s *CouponService) Redeem(ctx context.Context, accountID, code string) (int, error) {
	canonical := model.CanonicalCode(code)
	if canonical == "" {
		return 0, fmt.Errorf("coupon code required: %w", model.ErrInvalidInput)
	}

	coupon, revision, err := s.coupons.GetByCode(ctx, canonical)
	if err != nil {
		metrics.CouponRedemptionsTotal.WithLabelValues("invalid").Inc()
		return 0, err
	}

	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(s.now()) {
		metrics.CouponRedemptionsTotal.WithLabelValues("expired").Inc()
		return 0, model.ErrCouponExpired
	}

	if coupon.RedemptionsCount >= coupon.MaxRedemptions {
		metrics.CouponRedemptionsTotal.WithLabelValues("exhausted").Inc()
		return 0, model.ErrCouponExhausted
	}

	// Fast path only; the record insert below is the real guard.
	redeemed, err := s.redemptions.Exists(ctx, accountID, coupon.ID)
	if err != nil {
		return 0, err
	}
	if redeemed {
		metrics.CouponRedemptionsTotal.WithLabelValues("already_redeemed").Inc()
		return 0, model.ErrAlreadyRedeemed
	}

	if err := s.redemptions.Create(ctx, &model.Redemption{
		AccountID: accountID,
		CouponID:  coupon.ID,
		CreatedAt: s.now(),
	}); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			metrics.CouponRedemptionsTotal.WithLabelValues("already_redeemed").Inc()
			return 0, model.ErrAlreadyRedeemed
		}
		return 0, err
	}

	if err := s.incrementRedemptions(ctx, coupon, revision); err != nil {
		if errors.Is(err, model.ErrCouponExhausted) {
			// Lost the capacity race after inserting the record; back the
			// record out so the account isn't marked as having redeemed a
			// coupon it never benefited from.
			if delErr := s.redemptions.Delete(ctx, accountID, coupon.ID); delErr != nil {
				s.logger.Error("failed to back out redemption record",
					zap.String("account_id", accountID),
					zap.String("coupon_id", coupon.ID),
					zap.Error(delErr),
				)
			}
			metrics.CouponRedemptionsTotal.WithLabelValues("exhausted").Inc()
		}
		return 0, err
	}

	if _, err := s.ledger.Credit(ctx, accountID, coupon.BonusCredits, true); err != nil {
		// The redemption is recorded but the credit did not land; surface
		// the failure so the caller can retry support-side.
		s.logger.Error("redemption recorded but credit failed",
			zap.String("account_id", accountID),
			zap.String("coupon_code", coupon.Code),
			zap.Error(err),
		)
		return 0, fmt.Errorf("failed to credit bonus: %w", err)
	}

	metrics.CouponRedemptionsTotal.WithLabelValues("success").Inc()
	metrics.CreditsGrantedTotal.WithLabelValues("coupon").Add(float64(coupon.BonusCredits))

	s.logger.Info("coupon redeemed",
		zap.String("account_id", accountID),
		zap.String("coupon_code", coupon.Code),
		zap.Int("bonus_credits", coupon.BonusCredits),
	)

	return coupon.BonusCredits, nil
}

// incrementRedemptions bumps the coupon counter with the capacity check
// inside the compare-and-swap loop, so concurrent redeemers can never push
// the counter past MaxRedemptions.
func (s *CouponService) incrementRedemptions(ctx context.Context, coupon *model.Coupon, revision uint64) error {
	for attempt := 0; attempt < casMaxRetries; attempt++ {
		if coupon.RedemptionsCount >= coupon.MaxRedemptions {
			return model.ErrCouponExhausted
		}

		updated := *coupon
		updated.RedemptionsCount++

		err := s.coupons.Update(ctx, &updated, revision)
		if err == nil {
			return nil
		}
		if !errors.Is(err, model.ErrRevisionConflict) {
			return err
		}

		coupon, revision, err = s.coupons.GetByCode(ctx, coupon.Code)
		if err != nil {
			return err
		}
	}

	return fmt.Errorf("coupon %s update contention: %w", coupon.Code, model.ErrRevisionConflict)
}
