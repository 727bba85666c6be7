package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/verbalize-ai/voice-platform/internal/model"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeDomainError maps a service error onto the API's status codes.
// Anything unmatched is an internal error and gets logged here; matched
// domain errors are expected outcomes and are not.
func writeDomainError(w http.ResponseWriter, log *logger.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrInsufficientCredits):
		writeError(w, http.StatusPaymentRequired, "insufficient credits")
	case errors.Is(err, model.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNoSpeechDetected):
		writeError(w, http.StatusBadRequest, "no speech detected")
	case errors.Is(err, model.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, "account not found")
	case errors.Is(err, model.ErrInvalidCoupon):
		writeError(w, http.StatusNotFound, "invalid coupon code")
	case errors.Is(err, model.ErrCouponExpired):
		writeError(w, http.StatusBadRequest, "coupon expired")
	case errors.Is(err, model.ErrCouponExhausted):
		writeError(w, http.StatusBadRequest, "coupon fully redeemed")
	case errors.Is(err, model.ErrAlreadyRedeemed):
		writeError(w, http.StatusBadRequest, "coupon already redeemed")
	case errors.Is(err, model.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "conversation not found")
	case errors.Is(err, model.ErrSynthesisFailed):
		writeError(w, http.StatusInternalServerError, "speech synthesis failed")
	default:
		log.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
