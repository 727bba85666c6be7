package model

import (
	"errors"
)

// Domain errors shared by stores, services, and handlers. Services wrap
// these with context; handlers map them to HTTP statuses with errors.Is.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrInsufficientCredits  = errors.New("insufficient credits")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNoSpeechDetected     = errors.New("no speech detected")
	ErrSynthesisFailed      = errors.New("speech synthesis failed")
	ErrInvalidCoupon        = errors.New("invalid coupon code")
	ErrCouponExpired        = errors.New("coupon expired")
	ErrCouponExhausted      = errors.New("coupon fully redeemed")
	ErrAlreadyRedeemed      = errors.New("coupon already redeemed")
	ErrConversationNotFound = errors.New("conversation not found")
)

// Storage-level errors. ErrRevisionConflict signals a lost compare-and-swap
// race; callers re-read and retry. ErrAlreadyExists is the uniqueness
// constraint surfacing on create-once records.
var (
	ErrRevisionConflict = errors.New("revision conflict")
	ErrAlreadyExists    = errors.New("already exists")
)
