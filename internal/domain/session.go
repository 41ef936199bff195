// Package domain contains core domain types for the case-intake assistant.
package domain

import (
	"time"
)

// PromptKind identifies what kind of user input a suspended dialog expects.
type PromptKind string

const (
	PromptText    PromptKind = "text"
	PromptConfirm PromptKind = "confirm"
	PromptChoice  PromptKind = "choice"
)

// PendingPrompt describes an outstanding input request. It is present on a
// DialogFrame only while the frame is suspended waiting for the user's reply.
type PendingPrompt struct {
	Kind        PromptKind `json:"kind"`
	Prompt      string     `json:"prompt"`
	RetryPrompt string     `json:"retry_prompt,omitempty"`
	Choices     []string   `json:"choices,omitempty"`
	Style       ListStyle  `json:"style,omitempty"`
}

// DialogFrame is one entry in the per-conversation dialog stack. It tracks a
// single active (possibly suspended) dialog instance.
type DialogFrame struct {
	DialogID  string         `json:"dialog_id"`
	StepIndex int            `json:"step_index"`
	Pending   *PendingPrompt `json:"pending_prompt,omitempty"`
}

// ConversationSession holds the durable per-conversation state: the dialog
// stack plus the bookkeeping needed for idempotent redelivery. It is loaded
// at the start of every turn and saved before the turn's reply is sent.
type ConversationSession struct {
	SessionID  string        `json:"session_id"`
	UserID     string        `json:"user_id"`
	Stack      []DialogFrame `json:"dialog_stack"`
	LastTurnID string        `json:"last_turn_id,omitempty"`
	LastReply  []Message     `json:"last_reply,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

// NewConversationSession creates an empty session for a conversation.
func NewConversationSession(sessionID, userID string) *ConversationSession {
	now := time.Now()
	return &ConversationSession{
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasActiveDialog reports whether any dialog is in progress.
func (s *ConversationSession) HasActiveDialog() bool {
	return len(s.Stack) > 0
}

// Top returns the topmost (innermost) frame, or nil when the stack is empty.
// Only the top frame may be awaiting input.
func (s *ConversationSession) Top() *DialogFrame {
	if len(s.Stack) == 0 {
		return nil
	}
	return &s.Stack[len(s.Stack)-1]
}

// Push adds a new frame on top of the stack.
func (s *ConversationSession) Push(f DialogFrame) {
	s.Stack = append(s.Stack, f)
}

// Pop removes and returns the topmost frame. Returns nil if the stack is empty.
func (s *ConversationSession) Pop() *DialogFrame {
	if len(s.Stack) == 0 {
		return nil
	}
	f := s.Stack[len(s.Stack)-1]
	s.Stack = s.Stack[:len(s.Stack)-1]
	return &f
}

// ClearStack drops every active dialog, aborting the whole flow.
func (s *ConversationSession) ClearStack() {
	s.Stack = nil
}
