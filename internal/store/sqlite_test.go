package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/avaldivia/unidesk/internal/domain"
)

func newTestStore(t *testing.T) Repository {
	t.Helper()
	repo, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func suspendedSession(sessionID, userID string) *domain.ConversationSession {
	session := domain.NewConversationSession(sessionID, userID)
	session.Push(domain.DialogFrame{DialogID: "intake", StepIndex: 2, Pending: &domain.PendingPrompt{
		Kind:    domain.PromptChoice,
		Prompt:  "¿Área?",
		Choices: []string{"Académico", "Financiero"},
		Style:   domain.StyleList,
	}})
	session.Push(domain.DialogFrame{DialogID: "remote_lookup"})
	return session
}

func TestSessionRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	got, err := repo.GetSession(ctx, "missing")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing session, got %+v", got)
	}

	session := suspendedSession("sess-1", "user-1")
	session.LastTurnID = "turn-9"
	session.LastReply = []domain.Message{{Text: "hola", Choices: []string{"A"}, Style: domain.StyleButtons}}
	if err := repo.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err = repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected stored session")
	}
	if got.UserID != "user-1" || got.LastTurnID != "turn-9" {
		t.Errorf("Unexpected session %+v", got)
	}
	if len(got.Stack) != 2 {
		t.Fatalf("Expected depth-2 stack, got %d", len(got.Stack))
	}
	frame := got.Stack[0]
	if frame.DialogID != "intake" || frame.StepIndex != 2 {
		t.Errorf("Unexpected bottom frame %+v", frame)
	}
	if frame.Pending == nil || frame.Pending.Kind != domain.PromptChoice || len(frame.Pending.Choices) != 2 {
		t.Errorf("Pending prompt lost in round trip: %+v", frame.Pending)
	}
	if len(got.LastReply) != 1 || got.LastReply[0].Text != "hola" {
		t.Errorf("Last reply lost in round trip: %+v", got.LastReply)
	}
}

func TestSaveSessionUpserts(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	session := domain.NewConversationSession("sess-1", "user-1")
	if err := repo.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	session.Push(domain.DialogFrame{DialogID: "intake"})
	session.LastTurnID = "turn-1"
	if err := repo.SaveSession(ctx, session); err != nil {
		t.Fatalf("Second SaveSession failed: %v", err)
	}

	got, err := repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(got.Stack) != 1 || got.LastTurnID != "turn-1" {
		t.Errorf("Expected updated session, got %+v", got)
	}
}

func TestDeleteSession(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.SaveSession(ctx, domain.NewConversationSession("sess-1", "user-1")); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if err := repo.DeleteSession(ctx, "sess-1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	got, err := repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected session deleted, got %+v", got)
	}

	// Deleting a missing session is not an error.
	if err := repo.DeleteSession(ctx, "sess-1"); err != nil {
		t.Errorf("Delete of missing session failed: %v", err)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	got, err := repo.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing profile, got %+v", got)
	}

	profile := &domain.UserProfile{Name: "Ana María", ID: "123456", CaseType: "Académico"}
	if err := repo.SaveProfile(ctx, "user-1", profile); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}

	got, err = repo.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if got == nil || got.Name != "Ana María" || got.ID != "123456" {
		t.Errorf("Unexpected profile %+v", got)
	}

	// Overwrite with a cleared profile.
	profile.Clear()
	if err := repo.SaveProfile(ctx, "user-1", profile); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	got, _ = repo.GetProfile(ctx, "user-1")
	if !got.IsEmpty() {
		t.Errorf("Expected cleared profile persisted, got %+v", got)
	}

	if err := repo.DeleteProfile(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteProfile failed: %v", err)
	}
	got, _ = repo.GetProfile(ctx, "user-1")
	if got != nil {
		t.Errorf("Expected profile deleted, got %+v", got)
	}
}

func TestCleanupExpiredSessions(t *testing.T) {
	repo := newTestStore(t)
	ctx := context.Background()

	if err := repo.SaveSession(ctx, domain.NewConversationSession("sess-1", "user-1")); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	// Everything was touched just now; a generous TTL reaps nothing.
	reaped, err := repo.CleanupExpiredSessions(ctx, time.Hour)
	if err != nil {
		t.Fatalf("CleanupExpiredSessions failed: %v", err)
	}
	if len(reaped) != 0 {
		t.Errorf("Expected nothing reaped, got %+v", reaped)
	}

	// A negative TTL moves the threshold into the future and reaps all.
	reaped, err = repo.CleanupExpiredSessions(ctx, -time.Hour)
	if err != nil {
		t.Fatalf("CleanupExpiredSessions failed: %v", err)
	}
	if len(reaped) != 1 {
		t.Fatalf("Expected one session reaped, got %+v", reaped)
	}
	if reaped[0].SessionID != "sess-1" || reaped[0].UserID != "user-1" {
		t.Errorf("Expected reaped pair to identify the conversation, got %+v", reaped[0])
	}

	got, err := repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected reaped session gone, got %+v", got)
	}
}

func TestMemoryCleanupExpiredSessions(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	if err := repo.SaveSession(ctx, domain.NewConversationSession("sess-1", "user-1")); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	reaped, err := repo.CleanupExpiredSessions(ctx, time.Hour)
	if err != nil {
		t.Fatalf("CleanupExpiredSessions failed: %v", err)
	}
	if len(reaped) != 0 {
		t.Errorf("Expected nothing reaped, got %+v", reaped)
	}

	reaped, err = repo.CleanupExpiredSessions(ctx, -time.Hour)
	if err != nil {
		t.Fatalf("CleanupExpiredSessions failed: %v", err)
	}
	if len(reaped) != 1 || reaped[0].SessionID != "sess-1" || reaped[0].UserID != "user-1" {
		t.Fatalf("Expected sess-1 reaped, got %+v", reaped)
	}
	if got, _ := repo.GetSession(ctx, "sess-1"); got != nil {
		t.Errorf("Expected reaped session gone, got %+v", got)
	}
}

func TestMemoryStoreMatchesContract(t *testing.T) {
	repo := NewMemory()
	ctx := context.Background()

	session := suspendedSession("sess-1", "user-1")
	if err := repo.SaveSession(ctx, session); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}

	got, err := repo.GetSession(ctx, "sess-1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if len(got.Stack) != 2 || got.Stack[0].Pending == nil {
		t.Errorf("Expected cloned stack survive round trip, got %+v", got.Stack)
	}

	// The returned session is a clone: mutating it must not leak back.
	got.ClearStack()
	again, _ := repo.GetSession(ctx, "sess-1")
	if len(again.Stack) != 2 {
		t.Error("Expected store unaffected by caller mutation")
	}

	if err := repo.SaveProfile(ctx, "user-1", &domain.UserProfile{Name: "Ana"}); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	profile, err := repo.GetProfile(ctx, "user-1")
	if err != nil || profile == nil || profile.Name != "Ana" {
		t.Errorf("Unexpected profile %+v err %v", profile, err)
	}
}
