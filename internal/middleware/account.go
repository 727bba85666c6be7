package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/verbalize-ai/voice-platform/internal/service"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
)

// MaterializeAccount ensures the authenticated account has a ledger record,
// creating it with the default balance and free plan on first access. Runs
// after Auth; the ledger is only ever invoked for materialized accounts.
func MaterializeAccount(ledger *service.LedgerService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accountID := GetAccountID(r.Context())
			if accountID == "" {
				http.Error(w, `{"error":"authentication required"}`, http.StatusUnauthorized)
				return
			}

			if err := ledger.EnsureAccount(r.Context(), accountID); err != nil {
				log.Error("failed to materialize account",
					zap.String("account_id", accountID),
					zap.Error(err),
				)
				http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
