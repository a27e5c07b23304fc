package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ashureev/recovery-coach/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "test.sqlite"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveConversationTurnAndHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i, msg := range []string{"first", "second", "third"} {
		err := s.SaveConversationTurn(ctx, &domain.ConversationTurn{
			SessionID:        "sess-1",
			UserMessage:      msg,
			AssistantMessage: "reply to " + msg,
			Timestamp:        base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("save turn %d: %v", i, err)
		}
	}
	if err := s.SaveConversationTurn(ctx, &domain.ConversationTurn{
		SessionID: "sess-2", UserMessage: "other", AssistantMessage: "other reply",
	}); err != nil {
		t.Fatalf("save other session: %v", err)
	}

	turns, err := s.ConversationHistory(ctx, "sess-1", 0)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].UserMessage != "third" || turns[2].UserMessage != "first" {
		t.Errorf("expected newest first, got %q ... %q", turns[0].UserMessage, turns[2].UserMessage)
	}
	if turns[0].ID == "" {
		t.Error("expected generated turn id")
	}

	limited, err := s.ConversationHistory(ctx, "sess-1", 2)
	if err != nil {
		t.Fatalf("limited history: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 turns with limit, got %d", len(limited))
	}
}

func TestSaveConversationTurnRequiresSession(t *testing.T) {
	s := newTestStore(t)
	err := s.SaveConversationTurn(context.Background(), &domain.ConversationTurn{UserMessage: "hi"})
	if err == nil {
		t.Fatal("expected error for missing session id")
	}
}

func TestUpsertContactKeepsLatestName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.UpsertContact(ctx, &domain.ContactRecord{Email: "a@example.com", Name: "Alice", SessionID: "s1"}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.UpsertContact(ctx, &domain.ContactRecord{Email: "a@example.com", Name: "Alicia", SessionID: "s2"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contacts WHERE email = ?`, "a@example.com").Scan(&count); err != nil {
		t.Fatalf("count contacts: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one contact, got %d", count)
	}

	got, err := s.GetContact(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("get contact: %v", err)
	}
	if got == nil || got.Name != "Alicia" || got.SessionID != "s2" {
		t.Errorf("expected latest submission to win, got %+v", got)
	}
}

func TestUpsertContactWithoutName(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.UpsertContact(ctx, &domain.ContactRecord{Email: "b@example.com"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := s.GetContact(ctx, "b@example.com")
	if err != nil {
		t.Fatalf("get contact: %v", err)
	}
	if got.HasName() {
		t.Errorf("expected no name, got %q", got.Name)
	}
}

func TestGetContactMissing(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetContact(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("get contact: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestDeleteConversationsBefore(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	old := time.Now().Add(-48 * time.Hour)
	recent := time.Now().Add(-time.Hour)
	for _, ts := range []time.Time{old, old.Add(time.Minute), recent} {
		if err := s.SaveConversationTurn(ctx, &domain.ConversationTurn{
			SessionID: "sess", UserMessage: "u", AssistantMessage: "a", Timestamp: ts,
		}); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	deleted, err := s.DeleteConversationsBefore(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	turns, _ := s.ConversationHistory(ctx, "sess", 0)
	if len(turns) != 1 {
		t.Errorf("expected 1 remaining turn, got %d", len(turns))
	}
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}
