package chat

import (
	"context"
	"log/slog"
	"time"

	"github.com/avaldivia/unidesk/internal/store"
)

const reaperInterval = 5 * time.Minute

// StartReaper runs a background goroutine that periodically deletes
// conversation sessions idle longer than ttl and closes their live
// connections. Abandoned conversations are otherwise retained indefinitely;
// the reaper only runs when a TTL is configured.
func StartReaper(ctx context.Context, repo store.Repository, cm *ConnManager, ttl time.Duration) {
	ticker := time.NewTicker(reaperInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session reaper started", "interval", reaperInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				reapOnce(ctx, repo, cm, ttl)
			case <-ctx.Done():
				slog.Info("Session reaper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

// reapOnce performs one expiry sweep: delete stale session rows, then close
// any socket still attached to a reaped conversation.
func reapOnce(ctx context.Context, repo store.Repository, cm *ConnManager, ttl time.Duration) {
	reaped, err := repo.CleanupExpiredSessions(ctx, ttl)
	if err != nil {
		slog.Error("Session reaper sweep failed", "error", err)
		return
	}
	if len(reaped) == 0 {
		return
	}

	closed := 0
	for _, r := range reaped {
		if cm.GetActive(r.UserID, r.SessionID) == nil {
			continue
		}
		if cm.CloseSession(r.UserID, r.SessionID, "conversation expired") {
			closed++
		}
	}
	slog.Info("Session reaper removed idle sessions", "count", len(reaped), "closed_connections", closed)
}
