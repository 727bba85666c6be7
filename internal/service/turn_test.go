package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verbalize-ai/voice-platform/internal/model"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
)

type turnFixture struct {
	svc         *TurnService
	accounts    *fakeAccountStore
	log         *fakeMessageLog
	transcriber *fakeTranscriber
	synthesizer *fakeSynthesizer
	llm         *fakeLLM
}

func newTurnFixture(balance int) *turnFixture {
	accounts := newFakeAccountStore()
	acct := model.NewAccount("acct-1", time.Now())
	acct.CreditsRemaining = balance
	accounts.seed(*acct)

	msgLog := newFakeMessageLog()
	ledger := NewLedgerService(accounts, logger.NewNop())
	convs := NewConversationService(newFakeConversationStore(), msgLog, logger.NewNop())

	transcriber := &fakeTranscriber{transcript: "what's the weather like"}
	synthesizer := &fakeSynthesizer{audio: []byte("mp3-bytes")}
	llmClient := &fakeLLM{reply: "Sunny and warm today."}

	svc := NewTurnService(ledger, convs, transcriber, synthesizer, llmClient, "fake-model", logger.NewNop())
	return &turnFixture{
		svc:         svc,
		accounts:    accounts,
		log:         msgLog,
		transcriber: transcriber,
		synthesizer: synthesizer,
		llm:         llmClient,
	}
}

func TestRunTurnHappyPath(t *testing.T) {
	f := newTurnFixture(model.DefaultStartingCredits)

	result, err := f.svc.RunTurn(context.Background(), "acct-1", []byte("webm"), "")
	require.NoError(t, err)

	assert.Equal(t, "what's the weather like", result.Transcript)
	assert.Equal(t, "Sunny and warm today.", result.Reply)
	assert.Equal(t, []byte("mp3-bytes"), result.Audio)
	assert.NotEmpty(t, result.ConversationID)
	assert.Equal(t, model.DefaultStartingCredits-CostPerTurn, result.CreditsRemaining)
	assert.Equal(t, model.DefaultStartingCredits-CostPerTurn, f.accounts.balance("acct-1"))
}

func TestRunTurnPersistsMessagePair(t *testing.T) {
	f := newTurnFixture(100)

	result, err := f.svc.RunTurn(context.Background(), "acct-1", []byte("webm"), "")
	require.NoError(t, err)

	msgs := f.log.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "what's the weather like", msgs[0].Text)
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Sunny and warm today.", msgs[1].Text)
	assert.Equal(t, result.ConversationID, msgs[0].ConversationID)
}

func TestRunTurnInsufficientCredits(t *testing.T) {
	f := newTurnFixture(0)

	_, err := f.svc.RunTurn(context.Background(), "acct-1", []byte("webm"), "")
	require.ErrorIs(t, err, model.ErrInsufficientCredits)

	// Funds are checked before any provider is touched.
	assert.Zero(t, f.transcriber.calls)
	assert.Zero(t, f.accounts.balance("acct-1"))
}

func TestRunTurnEmptyAudio(t *testing.T) {
	f := newTurnFixture(100)

	_, err := f.svc.RunTurn(context.Background(), "acct-1", nil, "")
	require.ErrorIs(t, err, model.ErrInvalidInput)
	assert.Equal(t, 100, f.accounts.balance("acct-1"))
}

func TestRunTurnNoSpeechDetected(t *testing.T) {
	f := newTurnFixture(100)
	f.transcriber.transcript = ""

	_, err := f.svc.RunTurn(context.Background(), "acct-1", []byte("webm"), "")
	require.ErrorIs(t, err, model.ErrNoSpeechDetected)
	assert.Equal(t, 100, f.accounts.balance("acct-1"))
	assert.Empty(t, f.log.all())
}

func TestRunTurnTranscriptionFailure(t *testing.T) {
	f := newTurnFixture(100)
	f.transcriber.err = assert.AnError

	_, err := f.svc.RunTurn(context.Background(), "acct-1", []byte("webm"), "")
	require.Error(t, err)
	assert.Equal(t, 100, f.accounts.balance("acct-1"))
}

func TestRunTurnSynthesisFailureNoDebit(t *testing.T) {
	f := newTurnFixture(100)
	f.synthesizer.err = assert.AnError

	_, err := f.svc.RunTurn(context.Background(), "acct-1", []byte("webm"), "")
	require.ErrorIs(t, err, model.ErrSynthesisFailed)
	assert.Equal(t, 100, f.accounts.balance("acct-1"))
	assert.Empty(t, f.log.all())
}

func TestRunTurnLLMFailureUsesFallback(t *testing.T) {
	f := newTurnFixture(100)
	f.llm.err = assert.AnError

	result, err := f.svc.RunTurn(context.Background(), "acct-1", []byte("webm"), "")
	require.NoError(t, err)

	assert.Equal(t, fallbackReply, result.Reply)
	// The degraded turn still costs and still lands in history.
	assert.Equal(t, 90, f.accounts.balance("acct-1"))
	msgs := f.log.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, fallbackReply, msgs[1].Text)
}

func TestRunTurnNilLLMEchoes(t *testing.T) {
	f := newTurnFixture(100)
	f.svc.llmClient = nil

	result, err := f.svc.RunTurn(context.Background(), "acct-1", []byte("webm"), "")
	require.NoError(t, err)
	assert.Equal(t, `I heard you say: "what's the weather like".`, result.Reply)
}

func TestRunTurnHistoryFailureStillCompletes(t *testing.T) {
	f := newTurnFixture(100)
	f.log.appendErr = assert.AnError

	result, err := f.svc.RunTurn(context.Background(), "acct-1", []byte("webm"), "")
	require.NoError(t, err)
	assert.Equal(t, 90, result.CreditsRemaining)
	assert.Equal(t, 90, f.accounts.balance("acct-1"))
}

func TestRunTurnLastAffordableTurn(t *testing.T) {
	f := newTurnFixture(5)

	result, err := f.svc.RunTurn(context.Background(), "acct-1", []byte("webm"), "")
	require.NoError(t, err)
	assert.Zero(t, result.CreditsRemaining)
	assert.Zero(t, f.accounts.balance("acct-1"))
}

func TestRunTurnSuppliedConversationID(t *testing.T) {
	f := newTurnFixture(100)

	result, err := f.svc.RunTurn(context.Background(), "acct-1", []byte("webm"), "conv-existing")
	require.NoError(t, err)
	assert.Equal(t, "conv-existing", result.ConversationID)

	msgs := f.log.all()
	require.Len(t, msgs, 2)
	assert.Equal(t, "conv-existing", msgs[0].ConversationID)
}
