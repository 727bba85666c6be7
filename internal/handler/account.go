package handler

import (
	"net/http"

	"github.com/verbalize-ai/voice-platform/internal/middleware"
	"github.com/verbalize-ai/voice-platform/internal/model"
	"github.com/verbalize-ai/voice-platform/internal/service"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
	"github.com/verbalize-ai/voice-platform/pkg/metrics"
)

// paymentMockCredits is the flat bonus the simulated payment adds. No plan
// upgrade; only coupons grant pro.
const paymentMockCredits = 5000

// AccountHandler handles account summary and the mock payment endpoint.
type AccountHandler struct {
	ledger *service.LedgerService
	logger *logger.Logger
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(ledger *service.LedgerService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		ledger: ledger,
		logger: log,
	}
}

// Get handles GET /api/v1/account
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := middleware.GetAccountID(ctx)

	acct, err := h.ledger.GetAccount(ctx, accountID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, model.AccountResponse{
		ID:               acct.ID,
		CreditsRemaining: acct.CreditsRemaining,
		PlanStatus:       acct.PlanStatus,
	})
}

// MockPayment handles POST /api/v1/payment/mock
func (h *AccountHandler) MockPayment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := middleware.GetAccountID(ctx)

	if _, err := h.ledger.Credit(ctx, accountID, paymentMockCredits, false); err != nil {
		writeDomainError(w, h.logger, err)
		return
	}
	metrics.CreditsGrantedTotal.WithLabelValues("payment").Add(float64(paymentMockCredits))

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
