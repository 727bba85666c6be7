package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/verbalize-ai/voice-platform/internal/model"
)

// AccountStore persists accounts in the ACCOUNTS KV bucket, one JSON record
// per account id. Revisions back the ledger's compare-and-swap updates.
type AccountStore struct {
	kv jetstream.KeyValue
}

// NewAccountStore creates an account store over the given bucket.
func NewAccountStore(kv jetstream.KeyValue) *AccountStore {
	return &AccountStore{kv: kv}
}

// Get returns the account and the revision to use for a guarded update.
func (s *AccountStore) Get(ctx context.Context, id string) (*model.Account, uint64, error) {
	entry, err := s.kv.Get(ctx, id)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, 0, model.ErrAccountNotFound
		}
		return nil, 0, fmt.Errorf("failed to get account: %w", err)
	}

	var acct model.Account
	if err := json.Unmarshal(entry.Value(), &acct); err != nil {
		return nil, 0, fmt.Errorf("failed to unmarshal account: %w", err)
	}

	return &acct, entry.Revision(), nil
}

// Create inserts a new account record. Returns model.ErrAlreadyExists if
// the account has already been materialized.
func (s *AccountStore) Create(ctx context.Context, acct *model.Account) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	if _, err := s.kv.Create(ctx, acct.ID, data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// Update writes the account only if the record is still at revision.
// Returns model.ErrRevisionConflict when a concurrent writer won.
func (s *AccountStore) Update(ctx context.Context, acct *model.Account, revision uint64) error {
	data, err := json.Marshal(acct)
	if err != nil {
		return fmt.Errorf("failed to marshal account: %w", err)
	}

	if _, err := s.kv.Update(ctx, acct.ID, data, revision); err != nil {
		return translateUpdateErr(err)
	}

	return nil
}
