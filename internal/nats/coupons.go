package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/verbalize-ai/voice-platform/internal/model"
)

// CouponStore persists coupons in the COUPONS KV bucket, keyed by the
// canonical upper-case code.
type CouponStore struct {
	kv jetstream.KeyValue
}

// NewCouponStore creates a coupon store over the given bucket.
func NewCouponStore(kv jetstream.KeyValue) *CouponStore {
	return &CouponStore{kv: kv}
}

// GetByCode returns the coupon for a canonical code and the revision to use
// for a guarded counter update. Missing codes are model.ErrInvalidCoupon.
func (s *CouponStore) GetByCode(ctx context.Context, code string) (*model.Coupon, uint64, error) {
	entry, err := s.kv.Get(ctx, code)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, model.ErrInvalidCoupon
		}
		return nil, 0, fmt.Errorf("failed to get coupon: %w", err)
	}

	var coupon model.Coupon
	if err := json.Unmarshal(entry.Value(), &coupon); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal coupon: %w", err)
	}

	return &coupon, entry.Revision(), nil
}

// Update writes the coupon only if the record is still at revision. The
// redemption counter is the only field the platform ever changes.
func (s *CouponStore) Update(ctx context.Context, coupon *model.Coupon, revision uint64) error {
	data, err := json.Marshal(coupon)
	if err != nil {
		return fmt.Errorf("failed to marshal coupon: %w", err)
	}

	if _, err := s.kv.Update(ctx, coupon.Code, data, revision); err != nil {
		return translateUpdateErr(err)
	}

	return nil
}
