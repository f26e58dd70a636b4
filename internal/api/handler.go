package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/stayline/concierge/internal/dialogue"
	"github.com/stayline/concierge/pkg/logging"
)

// ConversationEngine is the slice of the dialogue engine the HTTP layer needs.
type ConversationEngine interface {
	ProcessTurn(ctx context.Context, sessionID, message string) (*dialogue.Reply, error)
}

// ChatHandler wires guest chat traffic to the dialogue engine.
type ChatHandler struct {
	engine ConversationEngine
	logger *logging.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(engine ConversationEngine, logger *logging.Logger) *ChatHandler {
	if engine == nil {
		panic("api: conversation engine cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{engine: engine, logger: logger}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// Message handles POST /chat/message. A missing session id starts a new
// conversation; the generated id comes back in the reply so the client
// can thread the next turn.
func (h *ChatHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode chat request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		http.Error(w, "Message is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get("X-Session-ID")
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, err := h.engine.ProcessTurn(r.Context(), req.SessionID, req.Message)
	if err != nil {
		h.logger.Error("failed to process turn", "error", err, "session_id", req.SessionID)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, reply, h.logger)
}

func writeJSON(w http.ResponseWriter, status int, payload any, logger *logging.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to write JSON response", "error", err)
	}
}
