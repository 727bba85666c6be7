package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/verbalize-ai/voice-platform/internal/model"
)

// RedemptionStore persists redemption records in the REDEMPTIONS KV bucket,
// keyed by "<accountID>.<couponID>". The bucket's create-once semantics are
// the uniqueness constraint that makes redemption idempotent per account.
type RedemptionStore struct {
	kv jetstream.KeyValue
}

// NewRedemptionStore creates a redemption store over the given bucket.
func NewRedemptionStore(kv jetstream.KeyValue) *RedemptionStore {
	return &RedemptionStore{kv: kv}
}

func redemptionKey(accountID, couponID string) string {
	return accountID + "." + couponID
}

// Create inserts the redemption record. Returns model.ErrAlreadyExists if
// this account has already redeemed this coupon, even under a race.
func (s *RedemptionStore) Create(ctx context.Context, r *model.Redemption) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal redemption: %w", err)
	}

	if _, err := s.kv.Create(ctx, redemptionKey(r.AccountID, r.CouponID), data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create redemption: %w", err)
	}

	return nil
}

// Exists reports whether the account has already redeemed the coupon.
func (s *RedemptionStore) Exists(ctx context.Context, accountID, couponID string) (bool, error) {
	_, err := s.kv.Get(ctx, redemptionKey(accountID, couponID))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get redemption: %w", err)
	}
	return true, nil
}

// Delete removes a redemption record. Only the transactor's exhausted-race
// compensation uses this; successful redemptions are never deleted.
func (s *RedemptionStore) Delete(ctx context.Context, accountID, couponID string) error {
	if err := s.kv.Delete(ctx, redemptionKey(accountID, couponID)); err != nil {
		return fmt.Errorf("failed to delete redemption: %w", err)
	}
	return nil
}
