// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/avaldivia/unidesk/internal/domain"
)

// ReapedSession identifies one conversation removed by an expiry sweep, so
// the transport can close its live connection if one is still open.
type ReapedSession struct {
	SessionID string
	UserID    string
}

// Repository defines the interface for persisting conversation sessions and
// user profiles. Implementations must round-trip the dialog stack and the
// pending prompt with full fidelity so a conversation resumes exactly where
// it suspended.
type Repository interface {
	// GetSession retrieves a conversation session. Returns nil, nil when the
	// session does not exist.
	GetSession(ctx context.Context, sessionID string) (*domain.ConversationSession, error)

	// SaveSession creates or updates a conversation session.
	SaveSession(ctx context.Context, session *domain.ConversationSession) error

	// DeleteSession removes a conversation session.
	DeleteSession(ctx context.Context, sessionID string) error

	// GetProfile retrieves a user's accumulated profile. Returns nil, nil
	// when no profile has been stored.
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)

	// SaveProfile creates or updates a user's profile.
	SaveProfile(ctx context.Context, userID string, profile *domain.UserProfile) error

	// DeleteProfile removes a user's profile.
	DeleteProfile(ctx context.Context, userID string) error

	// CleanupExpiredSessions removes sessions idle longer than ttl and
	// returns which conversations were deleted.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) ([]ReapedSession, error)

	// Ping verifies storage connectivity.
	Ping(ctx context.Context) error

	// Close closes the underlying storage.
	Close() error
}
