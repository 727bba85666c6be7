// Package service provides business logic for the voice platform.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verbalize-ai/voice-platform/internal/model"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
)

// casMaxRetries bounds compare-and-swap retry loops on the shared mutable
// records (account balances, coupon counters).
const casMaxRetries = 10

// AccountStore is the revisioned account record store the ledger runs on.
type AccountStore interface {
	// Get returns the account and the revision for a guarded update.
	Get(ctx context.Context, id string) (*model.Account, uint64, error)
	// Create inserts a new account; model.ErrAlreadyExists if present.
	Create(ctx context.Context, acct *model.Account) error
	// Update writes the account only at the given revision;
	// model.ErrRevisionConflict when a concurrent writer won.
	Update(ctx context.Context, acct *model.Account, revision uint64) error
}

// LedgerService owns the invariant that an account balance is never
// negative. Every balance mutation goes through its compare-and-swap
// loops; nothing else writes accounts.
type LedgerService struct {
	store  AccountStore
	logger *logger.Logger
	now    func() time.Time
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(store AccountStore, log *logger.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		logger: log,
		now:    time.Now,
	}
}

// EnsureAccount materializes the account on first authenticated access with
// the default balance and free plan. Existing accounts are untouched.
func (s *LedgerService) EnsureAccount(ctx context.Context, accountID string) error {
	err := s.store.Create(ctx, model.NewAccount(accountID, s.now()))
	if err == nil {
		s.logger.Info("account materialized",
			zap.String("account_id", accountID),
			zap.Int("starting_credits", model.DefaultStartingCredits),
		)
		return nil
	}
	if errors.Is(err, model.ErrAlreadyExists) {
		return nil
	}
	return fmt.Errorf("failed to materialize account: %w", err)
}

// GetAccount returns the account record.
func (s *LedgerService) GetAccount(ctx context.Context, accountID string) (*model.Account, error) {
	acct, _, err := s.store.Get(ctx, accountID)
	return acct, err
}

// CheckFunds returns the current balance. The result is advisory: a
// concurrent turn may debit between this read and a later debit.
func (s *LedgerService) CheckFunds(ctx context.Context, accountID string) (int, error) {
	acct, _, err := s.store.Get(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return acct.CreditsRemaining, nil
}

// Debit atomically decreases the balance by amount, flooring at zero, and
// returns the resulting balance. Insufficient funds at debit time do not
// fail the caller; the stored balance simply floors.
func (s *LedgerService) Debit(ctx context.Context, accountID string, amount int) (int, error) {
	var newBalance int
	err := s.mutate(ctx, accountID, func(acct *model.Account) {
		acct.CreditsRemaining -= amount
		if acct.CreditsRemaining < 0 {
			acct.CreditsRemaining = 0
		}
		newBalance = acct.CreditsRemaining
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// Credit atomically increases the balance by amount, optionally upgrading
// the plan to pro in the same update, and returns the resulting balance.
func (s *LedgerService) Credit(ctx context.Context, accountID string, amount int, grantPro bool) (int, error) {
	var newBalance int
	err := s.mutate(ctx, accountID, func(acct *model.Account) {
		acct.CreditsRemaining += amount
		if grantPro {
			acct.PlanStatus = model.PlanPro
		}
		newBalance = acct.CreditsRemaining
	})
	if err != nil {
		return 0, err
	}
	return newBalance, nil
}

// mutate applies fn to the account in a revision-guarded read-modify-write
// loop, re-reading and retrying when a concurrent writer wins the race.
func (s *LedgerService) mutate(ctx context.Context, accountID string, fn func(*model.Account)) error {
	for attempt := 0; attempt < casMaxRetries; attempt++ {
		acct, revision, err := s.store.Get(ctx, accountID)
		if err != nil {
			return err
		}

		fn(acct)

		err = s.store.Update(ctx, acct, revision)
		if err == nil {
			return nil
		}
		if !errors.Is(err, model.ErrRevisionConflict) {
			return err
		}
	}

	return fmt.Errorf("account %s update contention: %w", accountID, model.ErrRevisionConflict)
}
