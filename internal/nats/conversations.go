package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/verbalize-ai/voice-platform/internal/model"
)

// ConversationStore persists the daily conversation index in the
// CONVERSATIONS KV bucket, keyed by "<accountID>.<YYYY-MM-DD>". The
// create-once key is both the daily-bucket lookup and the guard against two
// concurrent turns creating two conversations for the same day.
type ConversationStore struct {
	kv jetstream.KeyValue
}

// NewConversationStore creates a conversation store over the given bucket.
func NewConversationStore(kv jetstream.KeyValue) *ConversationStore {
	return &ConversationStore{kv: kv}
}

func dayKey(accountID, day string) string {
	return accountID + "." + day
}

// GetDay returns the account's conversation for the given calendar day.
func (s *ConversationStore) GetDay(ctx context.Context, accountID, day string) (*model.Conversation, error) {
	entry, err := s.kv.Get(ctx, dayKey(accountID, day))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, model.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	var conv model.Conversation
	if err := json.Unmarshal(entry.Value(), &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	return &conv, nil
}

// CreateDay inserts the conversation into the account's slot for the given
// day. Returns model.ErrAlreadyExists if a concurrent turn got there first.
func (s *ConversationStore) CreateDay(ctx context.Context, day string, conv *model.Conversation) error {
	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	if _, err := s.kv.Create(ctx, dayKey(conv.AccountID, day), data); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return model.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// ListByAccount returns the account's conversations, newest first.
func (s *ConversationStore) ListByAccount(ctx context.Context, accountID string) ([]model.Conversation, error) {
	lister, err := s.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer lister.Stop()

	prefix := accountID + "."

	var convs []model.Conversation
	for key := range lister.Keys() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}

		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to get conversation: %w", err)
		}

		var conv model.Conversation
		if err := json.Unmarshal(entry.Value(), &conv); err != nil {
			continue
		}
		convs = append(convs, conv)
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].CreatedAt.After(convs[j].CreatedAt)
	})

	return convs, nil
}
