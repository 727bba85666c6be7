package model

import (
	"time"
)

// Conversation represents a daily conversation thread. One conversation
// aggregates all turns an account makes on the same calendar day; it is
// never mutated after creation.
type Conversation struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
}

// DayStamp returns the calendar-day bucket key for t, in server-local time.
// The midnight boundary on the server clock decides which conversation a
// turn belongs to.
func DayStamp(t time.Time) string {
	return t.Local().Format("2006-01-02")
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}
