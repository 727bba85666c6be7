package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateConversationID validates a conversation ID.
func ValidateConversationID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid conversation ID format")
	}
	return nil
}

// ValidateCouponCode validates a user-supplied coupon code.
func ValidateCouponCode(code string) error {
	if len(code) == 0 {
		return errors.New("coupon code cannot be empty")
	}
	if len(code) > 64 {
		return errors.New("coupon code exceeds maximum length")
	}
	if !utf8.ValidString(code) {
		return errors.New("coupon code must be valid UTF-8")
	}
	return nil
}

// ValidateAudioSize validates the uploaded audio payload size.
func ValidateAudioSize(size, max int64) error {
	if size == 0 {
		return errors.New("audio cannot be empty")
	}
	if size > max {
		return errors.New("audio exceeds maximum size")
	}
	return nil
}
