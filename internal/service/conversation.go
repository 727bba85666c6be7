package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/verbalize-ai/voice-platform/internal/model"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
	"github.com/verbalize-ai/voice-platform/pkg/metrics"
)

// ConversationStore is the daily conversation index.
type ConversationStore interface {
	// GetDay returns the account's conversation for the given calendar day.
	GetDay(ctx context.Context, accountID, day string) (*model.Conversation, error)
	// CreateDay inserts the conversation into the account's slot for the
	// day; model.ErrAlreadyExists if a concurrent turn got there first.
	CreateDay(ctx context.Context, day string, conv *model.Conversation) error
	// ListByAccount returns the account's conversations, newest first.
	ListByAccount(ctx context.Context, accountID string) ([]model.Conversation, error)
}

// MessageLog is the append-only transcript store.
type MessageLog interface {
	Append(ctx context.Context, msg *model.Message) (uint64, error)
	List(ctx context.Context, accountID, conversationID string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error)
}

// ConversationService resolves daily conversation buckets and owns
// transcript history.
type ConversationService struct {
	store    ConversationStore
	messages MessageLog
	logger   *logger.Logger
	now      func() time.Time
}

// NewConversationService creates a new conversation service.
func NewConversationService(store ConversationStore, messages MessageLog, log *logger.Logger) *ConversationService {
	return &ConversationService{
		store:    store,
		messages: messages,
		logger:   log,
		now:      time.Now,
	}
}

// Resolve returns the conversation a new turn belongs to. A supplied id is
// trusted and returned unchanged; otherwise the account's bucket for the
// current calendar day (server clock) is found or created.
func (s *ConversationService) Resolve(ctx context.Context, accountID, suppliedID string) (string, error) {
	if suppliedID != "" {
		return suppliedID, nil
	}

	day := model.DayStamp(s.now())

	conv, err := s.store.GetDay(ctx, accountID, day)
	if err == nil {
		return conv.ID, nil
	}
	if !errors.Is(err, model.ErrConversationNotFound) {
		return "", err
	}

	conv = &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		AccountID: accountID,
		CreatedAt: s.now(),
	}

	err = s.store.CreateDay(ctx, day, conv)
	if err == nil {
		return conv.ID, nil
	}
	if errors.Is(err, model.ErrAlreadyExists) {
		// Lost the creation race; the winner's conversation is the bucket.
		existing, err := s.store.GetDay(ctx, accountID, day)
		if err != nil {
			return "", err
		}
		return existing.ID, nil
	}

	return "", err
}

// AppendTurn appends the user/assistant message pair for one turn. The
// assistant message is only written if the user message landed, so a stored
// user message is never missing its reply from an earlier append.
func (s *ConversationService) AppendTurn(ctx context.Context, accountID, conversationID, transcript, reply string) error {
	now := s.now()

	userMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		AccountID:      accountID,
		Role:           model.RoleUser,
		Text:           transcript,
		CreatedAt:      now,
	}
	if _, err := s.messages.Append(ctx, userMsg); err != nil {
		return fmt.Errorf("failed to append user message: %w", err)
	}
	metrics.MessagesAppendedTotal.WithLabelValues(string(model.RoleUser)).Inc()

	assistantMsg := &model.Message{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		AccountID:      accountID,
		Role:           model.RoleAssistant,
		Text:           reply,
		CreatedAt:      now,
	}
	if _, err := s.messages.Append(ctx, assistantMsg); err != nil {
		return fmt.Errorf("failed to append assistant message: %w", err)
	}
	metrics.MessagesAppendedTotal.WithLabelValues(string(model.RoleAssistant)).Inc()

	return nil
}

// List returns the account's conversations, newest first.
func (s *ConversationService) List(ctx context.Context, accountID string) (*model.ListConversationsResponse, error) {
	convs, err := s.store.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return &model.ListConversationsResponse{
		Conversations: convs,
		Total:         len(convs),
	}, nil
}

// History returns a page of the conversation's transcript.
func (s *ConversationService) History(ctx context.Context, accountID, conversationID string, afterSequence uint64, limit int) (*model.ListMessagesResponse, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	messages, lastSeq, hasMore, err := s.messages.List(ctx, accountID, conversationID, afterSequence, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	return &model.ListMessagesResponse{
		Messages:     messages,
		HasMore:      hasMore,
		LastSequence: lastSeq,
	}, nil
}
