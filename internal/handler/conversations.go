package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/verbalize-ai/voice-platform/internal/middleware"
	"github.com/verbalize-ai/voice-platform/internal/service"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
)

// ConversationHandler handles conversation listing and history.
type ConversationHandler struct {
	conversations *service.ConversationService
	logger        *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(conversations *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: conversations,
		logger:        log,
	}
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := middleware.GetAccountID(ctx)

	resp, err := h.conversations.List(ctx, accountID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Messages handles GET /api/v1/conversations/{id}/messages
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := middleware.GetAccountID(ctx)
	conversationID := chi.URLParam(r, "id")

	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var afterSeq uint64
	if v := r.URL.Query().Get("after_seq"); v != "" {
		if parsed, err := strconv.ParseUint(v, 10, 64); err == nil {
			afterSeq = parsed
		}
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	resp, err := h.conversations.History(ctx, accountID, conversationID, afterSeq, limit)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
