package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalCode(t *testing.T) {
	assert.Equal(t, "PRO2025", CanonicalCode("pro2025"))
	assert.Equal(t, "PRO2025", CanonicalCode("  PRO2025  "))
	assert.Equal(t, "", CanonicalCode("   "))
}

func TestDayStampMidnightBoundary(t *testing.T) {
	beforeMidnight := time.Date(2025, 6, 1, 23, 59, 59, 0, time.Local)
	afterMidnight := time.Date(2025, 6, 2, 0, 0, 1, 0, time.Local)

	assert.Equal(t, "2025-06-01", DayStamp(beforeMidnight))
	assert.Equal(t, "2025-06-02", DayStamp(afterMidnight))
	assert.NotEqual(t, DayStamp(beforeMidnight), DayStamp(afterMidnight))
}

func TestNewAccountDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	acct := NewAccount("acct-1", now)

	assert.Equal(t, "acct-1", acct.ID)
	assert.Equal(t, DefaultStartingCredits, acct.CreditsRemaining)
	assert.Equal(t, PlanFree, acct.PlanStatus)
	assert.Equal(t, now, acct.CreatedAt)
}
