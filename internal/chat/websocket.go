package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/avaldivia/unidesk/internal/bot"
	"github.com/avaldivia/unidesk/internal/domain"
	"github.com/avaldivia/unidesk/internal/identity"
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// WebSocketHandler serves chat conversations over a WebSocket connection.
type WebSocketHandler struct {
	bot           *bot.Service
	cm            *ConnManager
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates a new WebSocket chat handler.
func NewWebSocketHandler(b *bot.Service, cm *ConnManager, allowedOrigin string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		bot:           b,
		cm:            cm,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// wsInbound is a client frame.
type wsInbound struct {
	Type string `json:"type"`
	ID   string `json:"id,omitempty"`
	Text string `json:"text,omitempty"`
}

// wsOutbound is a server frame carrying one bot message.
type wsOutbound struct {
	Type    string           `json:"type"`
	Text    string           `json:"text,omitempty"`
	Choices []string         `json:"choices,omitempty"`
	Style   domain.ListStyle `json:"style,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade. The connection is
// greeted immediately, then each inbound message runs one logical turn and
// the resulting messages stream back in order.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	slog.Info("Chat connection request", "user_id", userID, "session_id", sessionID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "conversation ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	h.cm.Register(userID, sessionID, ws)
	defer h.cm.Unregister(userID, sessionID, ws)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	greeting, err := h.bot.Greet(ctx, sessionID, userID)
	if err != nil {
		slog.Error("Failed to greet conversation", "error", err, "session_id", sessionID)
		h.writeError(ctx, ws, "failed to start conversation")
		return
	}
	if !h.writeMessages(ctx, ws, greeting) {
		return
	}

	for {
		frame, err := h.readFrame(ctx, ws)
		if err != nil {
			if websocket.CloseStatus(err) != -1 || errors.Is(err, context.Canceled) {
				slog.Debug("Chat connection closed", "user_id", userID, "session_id", sessionID)
			} else {
				slog.Warn("Chat read failed", "error", err, "user_id", userID)
			}
			return
		}

		if frame.Type != "message" {
			continue
		}

		// Stop serving once another connection owns the conversation or the
		// reaper closed this one.
		if h.cm.GetActive(userID, sessionID) != ws {
			return
		}

		reply, err := h.bot.HandleTurn(ctx, bot.Turn{
			SessionID: sessionID,
			UserID:    userID,
			TurnID:    frame.ID,
			Text:      frame.Text,
		})
		if err != nil {
			slog.Error("Turn failed", "error", err, "session_id", sessionID)
			h.writeError(ctx, ws, "failed to process message")
			continue
		}

		if !h.writeMessages(ctx, ws, reply) {
			return
		}
	}
}

func (h *WebSocketHandler) readFrame(ctx context.Context, ws *websocket.Conn) (*wsInbound, error) {
	_, data, err := ws.Read(ctx)
	if err != nil {
		return nil, err
	}
	var frame wsInbound
	if err := json.Unmarshal(data, &frame); err != nil {
		// Malformed frames never reach dialog state.
		return &wsInbound{}, nil
	}
	return &frame, nil
}

func (h *WebSocketHandler) writeMessages(ctx context.Context, ws *websocket.Conn, messages []domain.Message) bool {
	for _, m := range messages {
		out := wsOutbound{Type: "message", Text: m.Text, Choices: m.Choices, Style: m.Style}
		if err := h.writeJSON(ctx, ws, out); err != nil {
			slog.Debug("Chat write failed", "error", err)
			return false
		}
	}
	return true
}

func (h *WebSocketHandler) writeError(ctx context.Context, ws *websocket.Conn, message string) {
	if err := h.writeJSON(ctx, ws, wsOutbound{Type: "error", Error: message}); err != nil {
		slog.Debug("Failed to send error frame", "error", err)
	}
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(ctx, websocket.MessageText, data)
}

// checkOrigin rejects cross-origin upgrades outside development.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return h.allowedOrigin != "" && strings.HasPrefix(origin, h.allowedOrigin)
}
