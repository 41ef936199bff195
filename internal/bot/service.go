// Package bot implements the case-intake assistant: the intake waterfall,
// the policy sub-dialogs, and the per-session turn service that ties the
// dialog engine to persistence and the remote record store.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/avaldivia/unidesk/internal/catalog"
	"github.com/avaldivia/unidesk/internal/dialog"
	"github.com/avaldivia/unidesk/internal/domain"
	"github.com/avaldivia/unidesk/internal/records"
	"github.com/avaldivia/unidesk/internal/store"
)

// WelcomeMessage greets a user when a conversation starts.
const WelcomeMessage = "👋 ¡Hola! Bienvenido(a) al asistente virtual de la U. Estoy aquí para ayudarte con lo que necesites. 😊"

// Turn is one inbound message from a transport.
type Turn struct {
	SessionID string
	UserID    string
	TurnID    string
	Text      string
}

// Service processes conversation turns. It is safe for concurrent use:
// turns for the same session are serialized by a per-session mutex held for
// the whole turn, while different sessions proceed independently.
type Service struct {
	engine  *dialog.Engine
	catalog *catalog.Catalog
	repo    store.Repository
	records records.Store
	locks   sync.Map // sessionID -> *sync.Mutex
	logger  *slog.Logger
}

// NewService creates the turn service and registers all dialogs.
func NewService(cat *catalog.Catalog, repo store.Repository, recs records.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		engine:  dialog.NewEngine(),
		catalog: cat,
		repo:    repo,
		records: recs,
		logger:  logger,
	}
	s.registerDialogs()
	return s
}

// lockSession acquires the per-session mutex, returning the release func.
func (s *Service) lockSession(sessionID string) func() {
	lock, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// Greet starts a conversation: welcome message plus the intake dialog's
// first prompt. Transports call it when a user joins.
func (s *Service) Greet(ctx context.Context, sessionID, userID string) ([]domain.Message, error) {
	unlock := s.lockSession(sessionID)
	defer unlock()

	session, profile, err := s.loadState(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}

	c := dialog.NewContext(ctx, session, profile)
	c.Send(WelcomeMessage)

	if !session.HasActiveDialog() {
		if err := s.engine.Begin(c, dialogIntake); err != nil {
			return nil, fmt.Errorf("begin intake dialog: %w", err)
		}
	}

	return s.finishTurn(ctx, c, "")
}

// HandleTurn processes exactly one logical turn: dispatches the input to the
// dialog stack, persists the resulting state, and returns the ordered
// outbound messages. A turn whose ID matches the last processed one is
// answered from the stored reply without touching the stack, so redelivered
// messages cannot double-advance the conversation.
func (s *Service) HandleTurn(ctx context.Context, turn Turn) ([]domain.Message, error) {
	unlock := s.lockSession(turn.SessionID)
	defer unlock()

	session, profile, err := s.loadState(ctx, turn.SessionID, turn.UserID)
	if err != nil {
		return nil, err
	}

	if turn.TurnID != "" && session.LastTurnID == turn.TurnID {
		s.logger.Info("duplicate turn, replaying stored reply",
			"session_id", turn.SessionID, "turn_id", turn.TurnID)
		return session.LastReply, nil
	}

	c := dialog.NewContext(ctx, session, profile)

	if !session.HasActiveDialog() {
		err = s.engine.Begin(c, dialogIntake)
	} else {
		err = s.engine.Continue(c, turn.Text)
		if errors.Is(err, dialog.ErrNoActiveDialog) {
			// Expired or reset session: start over instead of failing.
			err = s.engine.Begin(c, dialogIntake)
		}
	}

	if err != nil {
		// A step failure must never escape as a crashed turn: apologize,
		// reset the flow, and persist the cleared state.
		s.logger.Error("turn processing failed", "error", err, "session_id", turn.SessionID)
		session.ClearStack()
		c.Send(s.apology(profile))
	}

	return s.finishTurn(ctx, c, turn.TurnID)
}

// finishTurn durably saves session and profile before the reply is handed
// back to the transport. Only a persistence failure surfaces to the caller.
// Turns without an ID (greetings, ID-less transports) keep the previous
// turn's dedupe pair intact, so a redelivery of that turn still replays.
func (s *Service) finishTurn(ctx context.Context, c *dialog.Context, turnID string) ([]domain.Message, error) {
	reply := c.Outbox()
	if turnID != "" {
		c.Session.LastTurnID = turnID
		c.Session.LastReply = reply
	}

	if err := s.repo.SaveSession(ctx, c.Session); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	if err := s.repo.SaveProfile(ctx, c.Session.UserID, c.Profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return reply, nil
}

func (s *Service) loadState(ctx context.Context, sessionID, userID string) (*domain.ConversationSession, *domain.UserProfile, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		session = domain.NewConversationSession(sessionID, userID)
	}
	if session.UserID == "" {
		session.UserID = userID
	}

	profile, err := s.repo.GetProfile(ctx, session.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}
	if profile == nil {
		profile = &domain.UserProfile{}
	}

	return session, profile, nil
}

func (s *Service) apology(profile *domain.UserProfile) string {
	if profile.Name != "" {
		return fmt.Sprintf("%s, lo siento, algo salió mal procesando tu mensaje. Por favor, intenta de nuevo.", profile.Name)
	}
	return "Lo siento, algo salió mal procesando tu mensaje. Por favor, intenta de nuevo."
}
