// Package model defines data structures for the voice platform.
package model

import (
	"time"
)

// PlanStatus represents an account's subscription tier.
type PlanStatus string

const (
	PlanFree PlanStatus = "free"
	PlanPro  PlanStatus = "pro"
)

// DefaultStartingCredits is the balance granted when an account is
// materialized on first authenticated access.
const DefaultStartingCredits = 300

// Account represents a user's credit balance and plan status.
// CreditsRemaining is never negative; only the ledger mutates it.
type Account struct {
	ID               string     `json:"id"`
	CreditsRemaining int        `json:"credits_remaining"`
	PlanStatus       PlanStatus `json:"plan_status"`
	CreatedAt        time.Time  `json:"created_at"`
}

// NewAccount returns a freshly materialized account with defaults.
func NewAccount(id string, now time.Time) *Account {
	return &Account{
		ID:               id,
		CreditsRemaining: DefaultStartingCredits,
		PlanStatus:       PlanFree,
		CreatedAt:        now,
	}
}

// AccountResponse is the API response for the account summary endpoint.
type AccountResponse struct {
	ID               string     `json:"id"`
	CreditsRemaining int        `json:"credits_remaining"`
	PlanStatus       PlanStatus `json:"plan_status"`
}
