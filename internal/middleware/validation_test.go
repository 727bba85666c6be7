package middleware

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateConversationID(t *testing.T) {
	assert.NoError(t, ValidateConversationID(uuid.Must(uuid.NewV7()).String()))
	assert.Error(t, ValidateConversationID("not-a-uuid"))
	assert.Error(t, ValidateConversationID(""))
}

func TestValidateCouponCode(t *testing.T) {
	assert.NoError(t, ValidateCouponCode("PRO2025"))
	assert.Error(t, ValidateCouponCode(""))
	assert.Error(t, ValidateCouponCode(strings.Repeat("A", 65)))
	assert.Error(t, ValidateCouponCode("BAD\xff"))
}

func TestValidateAudioSize(t *testing.T) {
	assert.NoError(t, ValidateAudioSize(1024, 10<<20))
	assert.Error(t, ValidateAudioSize(0, 10<<20))
	assert.Error(t, ValidateAudioSize(11<<20, 10<<20))
}
