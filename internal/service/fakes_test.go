package service

import (
	"context"
	"sync"

	"github.com/verbalize-ai/voice-platform/internal/llm"
	"github.com/verbalize-ai/voice-platform/internal/model"
)

// In-memory stores mirroring the revision-checked semantics of the KV
// backends, so the CAS loops are exercised for real under -race.

type fakeAccountStore struct {
	mu       sync.Mutex
	accounts map[string]model.Account
	revs     map[string]uint64
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		accounts: make(map[string]model.Account),
		revs:     make(map[string]uint64),
	}
}

func (s *fakeAccountStore) seed(acct model.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[acct.ID] = acct
	s.revs[acct.ID] = 1
}

func (s *fakeAccountStore) Get(ctx context.Context, id string) (*model.Account, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[id]
	if !ok {
		return nil, 0, model.ErrAccountNotFound
	}
	copied := acct
	return &copied, s.revs[id], nil
}

func (s *fakeAccountStore) Create(ctx context.Context, acct *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acct.ID]; ok {
		return model.ErrAlreadyExists
	}
	s.accounts[acct.ID] = *acct
	s.revs[acct.ID] = 1
	return nil
}

func (s *fakeAccountStore) Update(ctx context.Context, acct *model.Account, revision uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acct.ID]; !ok {
		return model.ErrAccountNotFound
	}
	if s.revs[acct.ID] != revision {
		return model.ErrRevisionConflict
	}
	s.accounts[acct.ID] = *acct
	s.revs[acct.ID]++
	return nil
}

func (s *fakeAccountStore) balance(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id].CreditsRemaining
}

type fakeCouponStore struct {
	mu      sync.Mutex
	coupons map[string]model.Coupon
	revs    map[string]uint64
}

func newFakeCouponStore() *fakeCouponStore {
	return &fakeCouponStore{
		coupons: make(map[string]model.Coupon),
		revs:    make(map[string]uint64),
	}
}

func (s *fakeCouponStore) seed(c model.Coupon) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[c.Code] = c
	s.revs[c.Code] = 1
}

func (s *fakeCouponStore) GetByCode(ctx context.Context, code string) (*model.Coupon, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.coupons[code]
	if !ok {
		return nil, 0, model.ErrInvalidCoupon
	}
	copied := c
	return &copied, s.revs[code], nil
}

func (s *fakeCouponStore) Update(ctx context.Context, coupon *model.Coupon, revision uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.coupons[coupon.Code]; !ok {
		return model.ErrInvalidCoupon
	}
	if s.revs[coupon.Code] != revision {
		return model.ErrRevisionConflict
	}
	s.coupons[coupon.Code] = *coupon
	s.revs[coupon.Code]++
	return nil
}

func (s *fakeCouponStore) count(code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupons[code].RedemptionsCount
}

type fakeRedemptionStore struct {
	mu      sync.Mutex
	records map[string]model.Redemption
}

func newFakeRedemptionStore() *fakeRedemptionStore {
	return &fakeRedemptionStore{records: make(map[string]model.Redemption)}
}

func (s *fakeRedemptionStore) key(accountID, couponID string) string {
	return accountID + "." + couponID
}

func (s *fakeRedemptionStore) Create(ctx context.Context, r *model.Redemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.key(r.AccountID, r.CouponID)
	if _, ok := s.records[k]; ok {
		return model.ErrAlreadyExists
	}
	s.records[k] = *r
	return nil
}

func (s *fakeRedemptionStore) Exists(ctx context.Context, accountID, couponID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[s.key(accountID, couponID)]
	return ok, nil
}

func (s *fakeRedemptionStore) Delete(ctx context.Context, accountID, couponID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, s.key(accountID, couponID))
	return nil
}

func (s *fakeRedemptionStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type fakeConversationStore struct {
	mu    sync.Mutex
	convs map[string]model.Conversation // keyed by "<accountID>.<day>"
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{convs: make(map[string]model.Conversation)}
}

func (s *fakeConversationStore) GetDay(ctx context.Context, accountID, day string) (*model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[accountID+"."+day]
	if !ok {
		return nil, model.ErrConversationNotFound
	}
	copied := c
	return &copied, nil
}

func (s *fakeConversationStore) CreateDay(ctx context.Context, day string, conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := conv.AccountID + "." + day
	if _, ok := s.convs[k]; ok {
		return model.ErrAlreadyExists
	}
	s.convs[k] = *conv
	return nil
}

func (s *fakeConversationStore) ListByAccount(ctx context.Context, accountID string) ([]model.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Conversation
	for _, c := range s.convs {
		if c.AccountID == accountID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeMessageLog struct {
	mu        sync.Mutex
	messages  []model.Message
	seq       uint64
	appendErr error
}

func newFakeMessageLog() *fakeMessageLog {
	return &fakeMessageLog{}
}

func (l *fakeMessageLog) Append(ctx context.Context, msg *model.Message) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return 0, l.appendErr
	}
	l.seq++
	stored := *msg
	stored.Sequence = l.seq
	l.messages = append(l.messages, stored)
	return l.seq, nil
}

func (l *fakeMessageLog) List(ctx context.Context, accountID, conversationID string, afterSequence uint64, limit int) ([]model.Message, uint64, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.Message
	var lastSeq uint64
	for _, m := range l.messages {
		if m.AccountID != accountID || m.ConversationID != conversationID {
			continue
		}
		if m.Sequence <= afterSequence {
			continue
		}
		if len(out) == limit {
			break
		}
		out = append(out, m)
		lastSeq = m.Sequence
	}
	return out, lastSeq, len(out) == limit, nil
}

func (l *fakeMessageLog) all() []model.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Voice pipeline fakes.

type fakeTranscriber struct {
	transcript string
	err        error
	calls      int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	f.calls++
	return f.transcript, f.err
}

type fakeSynthesizer struct {
	audio []byte
	err   error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f.audio, f.err
}

// implements llm.Client for testing
type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Complete(ctx context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: "fake-model"}, nil
}

func (f *fakeLLM) Name() string {
	return "fake"
}
