package model

import (
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one side of a turn in a conversation. Messages are
// appended in user/assistant pairs per successful turn.
type Message struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	AccountID      string `json:"account_id"`

	Role Role   `json:"role"`
	Text string `json:"text"`

	CreatedAt time.Time `json:"created_at"`

	// Sequence is the JetStream stream sequence, populated on read.
	Sequence uint64 `json:"sequence,omitempty"`
}

// ListMessagesResponse is the response for listing conversation history.
type ListMessagesResponse struct {
	Messages     []Message `json:"messages"`
	HasMore      bool      `json:"has_more"`
	LastSequence uint64    `json:"last_sequence"`
}
