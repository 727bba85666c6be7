// Package handler provides HTTP handlers for the API.
package handler

import (
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/verbalize-ai/voice-platform/internal/middleware"
	"github.com/verbalize-ai/voice-platform/internal/service"
	"github.com/verbalize-ai/voice-platform/pkg/logger"
)

// TurnHandler handles the voice turn endpoint.
type TurnHandler struct {
	turns         *service.TurnService
	maxAudioBytes int64
	logger        *logger.Logger
}

// NewTurnHandler creates a new turn handler.
func NewTurnHandler(turns *service.TurnService, maxAudioBytes int64, log *logger.Logger) *TurnHandler {
	return &TurnHandler{
		turns:         turns,
		maxAudioBytes: maxAudioBytes,
		logger:        log,
	}
}

// Create handles POST /api/v1/voice/turns. Multipart body: "audio" file
// plus optional "conversation_id". Responds with the synthesized reply as
// audio/mpeg and the turn metadata in headers.
func (h *TurnHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	accountID := middleware.GetAccountID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxAudioBytes)
	if err := r.ParseMultipartForm(h.maxAudioBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no audio file provided")
		return
	}
	defer file.Close()

	if err := middleware.ValidateAudioSize(header.Size, h.maxAudioBytes); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	audio, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read audio")
		return
	}

	conversationID := r.FormValue("conversation_id")
	if conversationID != "" {
		if err := middleware.ValidateConversationID(conversationID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	result, err := h.turns.RunTurn(ctx, accountID, audio, conversationID)
	if err != nil {
		writeDomainError(w, h.logger, err)
		return
	}

	// Metadata rides headers; the body is the spoken reply.
	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("X-Transcript", url.QueryEscape(result.Transcript))
	w.Header().Set("X-AI-Response", url.QueryEscape(result.Reply))
	w.Header().Set("X-Conversation-Id", result.ConversationID)
	w.Header().Set("X-Credits-Remaining", strconv.Itoa(result.CreditsRemaining))
	w.WriteHeader(http.StatusOK)
	w.Write(result.Audio)
}
