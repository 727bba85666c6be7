package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verbalize-ai/voice-platform/internal/llm"
	"github.com/verbalize-ai/voice-platform/internal/model"
	"github.com/verbalize-ai/voice-platform/internal/voice"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
	"github.com/verbalize-ai/voice-platform/pkg/metrics"
)

// CostPerTurn is the flat per-turn cost in credits, regardless of
// transcript or reply length.
const CostPerTurn = 10

// fallbackReply is returned when the language model fails: the user has
// already spoken, so the turn completes with an apology instead of an error.
const fallbackReply = "I'm having trouble connecting to my brain right now. Please try again in a moment."

// voicePrompt frames the transcript for the language model. Replies are
// spoken aloud, so they have to stay short.
const voicePrompt = "You are a helpful, friendly AI voice assistant. Keep your responses concise (1-2 sentences max) and conversational, as they will be spoken aloud. User said: %q"

// TurnResult is the outcome of a successful voice turn.
type TurnResult struct {
	Audio            []byte
	Transcript       string
	Reply            string
	ConversationID   string
	CreditsRemaining int
}

// TurnService coordinates one voice turn: funds check, STT, reply
// generation, TTS, history persistence, then the debit.
type TurnService struct {
	ledger        *LedgerService
	conversations *ConversationService
	transcriber   voice.Transcriber
	synthesizer   voice.Synthesizer
	llmClient     llm.Client
	chatModel     string
	logger        *logger.Logger
}

// NewTurnService creates a new turn service. llmClient may be nil; replies
// then degrade to an echo of the transcript.
func NewTurnService(
	ledger *LedgerService,
	conversations *ConversationService,
	transcriber voice.Transcriber,
	synthesizer voice.Synthesizer,
	llmClient llm.Client,
	chatModel string,
	log *logger.Logger,
) *TurnService {
	return &TurnService{
		ledger:        ledger,
		conversations: conversations,
		transcriber:   transcriber,
		synthesizer:   synthesizer,
		llmClient:     llmClient,
		chatModel:     chatModel,
		logger:        log,
	}
}

// RunTurn executes one voice turn for the account. Stages run sequentially
// and fail fast; no credits are debited unless synthesized audio was
// produced.
func (s *TurnService) RunTurn(ctx context.Context, accountID string, audio []byte, suppliedConversationID string) (*TurnResult, error) {
	balance, err := s.ledger.CheckFunds(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if balance <= 0 {
		metrics.RecordTurn("insufficient_credits")
		return nil, model.ErrInsufficientCredits
	}

	if len(audio) == 0 {
		metrics.RecordTurn("invalid_input")
		return nil, fmt.Errorf("no audio supplied: %w", model.ErrInvalidInput)
	}

	start := time.Now()
	transcript, err := s.transcriber.Transcribe(ctx, audio)
	metrics.RecordStage("stt", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordTurn("stt_failed")
		return nil, fmt.Errorf("transcription stage: %w", err)
	}
	if transcript == "" {
		metrics.RecordTurn("no_speech")
		return nil, model.ErrNoSpeechDetected
	}

	reply := s.generateReply(ctx, transcript)

	start = time.Now()
	replyAudio, err := s.synthesizer.Synthesize(ctx, reply)
	metrics.RecordStage("tts", time.Since(start).Seconds())
	if err != nil {
		metrics.RecordTurn("synthesis_failed")
		return nil, fmt.Errorf("synthesis stage (%v): %w", err, model.ErrSynthesisFailed)
	}

	conversationID, err := s.conversations.Resolve(ctx, accountID, suppliedConversationID)
	if err != nil {
		// History is best-effort; the turn still completes without a
		// conversation to attach it to.
		s.logger.Warn("failed to resolve conversation",
			zap.String("account_id", accountID),
			zap.Error(err),
		)
		conversationID = ""
	}

	if conversationID != "" {
		if err := s.conversations.AppendTurn(ctx, accountID, conversationID, transcript, reply); err != nil {
			metrics.MessageAppendFailures.Inc()
			s.logger.Warn("failed to persist turn history",
				zap.String("account_id", accountID),
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
		}
	}

	newBalance, err := s.ledger.Debit(ctx, accountID, CostPerTurn)
	if err != nil {
		metrics.RecordTurn("debit_failed")
		return nil, fmt.Errorf("failed to debit turn cost: %w", err)
	}
	metrics.CreditsSpentTotal.Add(float64(CostPerTurn))
	metrics.RecordTurn("completed")

	return &TurnResult{
		Audio:            replyAudio,
		Transcript:       transcript,
		Reply:            reply,
		ConversationID:   conversationID,
		CreditsRemaining: newBalance,
	}, nil
}

// generateReply asks the language model for a spoken reply. Provider
// failures never fail the turn; the user already spoke, so a degraded
// apology keeps the round trip alive.
func (s *TurnService) generateReply(ctx context.Context, transcript string) string {
	if s.llmClient == nil {
		return fmt.Sprintf("I heard you say: %q.", transcript)
	}

	start := time.Now()
	resp, err := s.llmClient.Complete(ctx, &llm.CompletionRequest{
		Model: s.chatModel,
		Messages: []llm.ChatMessage{
			{Role: "user", Content: fmt.Sprintf(voicePrompt, transcript)},
		},
	})
	metrics.RecordStage("llm", time.Since(start).Seconds())
	if err != nil || resp.Content == "" {
		s.logger.Warn("reply generation failed, using fallback",
			zap.String("provider", s.llmClient.Name()),
			zap.Error(err),
		)
		return fallbackReply
	}

	return resp.Content
}
