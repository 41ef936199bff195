package api

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/avaldivia/unidesk/internal/bot"
	"github.com/avaldivia/unidesk/internal/domain"
	"github.com/avaldivia/unidesk/internal/identity"
	"github.com/go-chi/chi/v5"
)

// maxRequestBodySize caps inbound webhook payloads (1MB).
const maxRequestBodySize = 1 << 20

// Activity types accepted on the webhook.
const (
	ActivityMessage            = "message"
	ActivityConversationUpdate = "conversationUpdate"
)

// InboundActivity is one webhook delivery from the chat transport.
type InboundActivity struct {
	Type           string `json:"type"`
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	Text           string `json:"text"`
}

// TurnResponse carries the ordered outbound messages for one turn.
type TurnResponse struct {
	Messages []domain.Message `json:"messages"`
}

// MessagesHandler exposes the bot over a webhook endpoint.
type MessagesHandler struct {
	bot    *bot.Service
	logger *slog.Logger
}

// NewMessagesHandler creates the webhook handler.
func NewMessagesHandler(b *bot.Service, logger *slog.Logger) *MessagesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessagesHandler{bot: b, logger: logger}
}

// RegisterRoutes registers the webhook route.
func (h *MessagesHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/messages", h.PostMessage)
}

// PostMessage processes exactly one logical turn. Malformed requests are
// rejected before any dialog state is touched.
func (h *MessagesHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	contentType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || contentType != "application/json" {
		Error(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	var activity InboundActivity
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		Error(w, http.StatusBadRequest, "malformed activity payload")
		return
	}

	sessionID := strings.TrimSpace(activity.ConversationID)
	if sessionID == "" {
		sessionID = identity.SessionIDFromContext(r.Context())
	}
	userID := strings.TrimSpace(activity.UserID)
	if userID == "" {
		userID = identity.UserIDFromContext(r.Context())
	}
	if sessionID == "" || userID == "" {
		Error(w, http.StatusBadRequest, "conversation_id and user_id are required")
		return
	}

	var messages []domain.Message
	switch activity.Type {
	case ActivityConversationUpdate:
		messages, err = h.bot.Greet(r.Context(), sessionID, userID)
	case ActivityMessage:
		messages, err = h.bot.HandleTurn(r.Context(), bot.Turn{
			SessionID: sessionID,
			UserID:    userID,
			TurnID:    activity.ID,
			Text:      activity.Text,
		})
	default:
		Error(w, http.StatusBadRequest, "unsupported activity type")
		return
	}

	if err != nil {
		// Only persistence failures reach here; the transport reports a
		// server error and relies on redelivery.
		h.logger.Error("turn failed", "error", err, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to process turn")
		return
	}

	if messages == nil {
		messages = []domain.Message{}
	}
	JSON(w, http.StatusOK, TurnResponse{Messages: messages})
}
