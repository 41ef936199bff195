package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/avaldivia/unidesk/internal/domain"
)

// MemoryStore keeps sessions and profiles in memory; thread-safe. Values are
// cloned through JSON on the way in and out so callers observe the same
// round-trip behavior as a durable store.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]string // sessionID -> serialized session
	profiles map[string]string // userID -> serialized profile
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]string),
		profiles: make(map[string]string),
	}
}

// GetSession retrieves a conversation session.
func (m *MemoryStore) GetSession(ctx context.Context, sessionID string) (*domain.ConversationSession, error) {
	m.mu.RLock()
	raw, ok := m.sessions[sessionID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var session domain.ConversationSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}

// SaveSession creates or updates a conversation session.
func (m *MemoryStore) SaveSession(ctx context.Context, session *domain.ConversationSession) error {
	if session == nil || session.SessionID == "" {
		return fmt.Errorf("session missing session id")
	}
	session.UpdatedAt = time.Now()
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	m.mu.Lock()
	m.sessions[session.SessionID] = string(raw)
	m.mu.Unlock()
	return nil
}

// DeleteSession removes a conversation session.
func (m *MemoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
	return nil
}

// GetProfile retrieves a user's profile.
func (m *MemoryStore) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.RLock()
	raw, ok := m.profiles[userID]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var profile domain.UserProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profile, nil
}

// SaveProfile creates or updates a user's profile.
func (m *MemoryStore) SaveProfile(ctx context.Context, userID string, profile *domain.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	m.mu.Lock()
	m.profiles[userID] = string(raw)
	m.mu.Unlock()
	return nil
}

// DeleteProfile removes a user's profile.
func (m *MemoryStore) DeleteProfile(ctx context.Context, userID string) error {
	m.mu.Lock()
	delete(m.profiles, userID)
	m.mu.Unlock()
	return nil
}

// CleanupExpiredSessions removes sessions idle longer than ttl and returns
// the (session, user) pairs that were deleted.
func (m *MemoryStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) ([]ReapedSession, error) {
	threshold := time.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()

	var reaped []ReapedSession
	for id, raw := range m.sessions {
		var session domain.ConversationSession
		if err := json.Unmarshal([]byte(raw), &session); err != nil {
			return reaped, fmt.Errorf("decode session: %w", err)
		}
		if session.UpdatedAt.Before(threshold) {
			delete(m.sessions, id)
			reaped = append(reaped, ReapedSession{SessionID: id, UserID: session.UserID})
		}
	}
	return reaped, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
