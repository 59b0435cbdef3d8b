package session

import (
	"context"
	"strings"
	"testing"

	"github.com/sundial-ai/sundial/assistant"
)

func TestInMemoryServiceCreateAndGet(t *testing.T) {
	svc := NewInMemoryService()
	ctx := context.Background()

	sess, err := svc.Create(ctx, "sundial", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sess.ID == "" {
		t.Error("expected generated session ID")
	}
	if sess.State == nil {
		t.Fatal("expected initialized state")
	}

	got, err := svc.Get(ctx, sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sess {
		t.Error("expected the same session instance back")
	}
}

func TestInMemoryServiceCreateRequiresUser(t *testing.T) {
	svc := NewInMemoryService()
	_, err := svc.Create(context.Background(), "sundial", "")
	if err == nil || !strings.Contains(err.Error(), "user id") {
		t.Errorf("expected user id error, got %v", err)
	}
}

func TestInMemoryServiceGetUnknown(t *testing.T) {
	svc := NewInMemoryService()
	_, err := svc.Get(context.Background(), "nope")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestGetOrCreate(t *testing.T) {
	svc := NewInMemoryService()
	ctx := context.Background()

	sess, err := svc.GetOrCreate(ctx, "sundial", "alice", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	same, err := svc.GetOrCreate(ctx, "sundial", "alice", sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if same.ID != sess.ID {
		t.Error("expected the existing session to be returned")
	}

	fresh, err := svc.GetOrCreate(ctx, "sundial", "alice", "stale-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh.ID == sess.ID {
		t.Error("expected a new session for an unknown ID")
	}
}

func TestDelete(t *testing.T) {
	svc := NewInMemoryService()
	ctx := context.Background()

	sess, _ := svc.Create(ctx, "sundial", "alice")
	if err := svc.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Get(ctx, sess.ID); err == nil {
		t.Error("expected deleted session to be gone")
	}
	// deleting twice is fine
	if err := svc.Delete(ctx, sess.ID); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSessionIDsSorted(t *testing.T) {
	svc := NewInMemoryService()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := svc.Create(ctx, "sundial", "alice"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	ids := svc.SessionIDs()
	if len(ids) != 5 {
		t.Fatalf("expected 5 ids, got %d", len(ids))
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] > ids[i] {
			t.Fatalf("ids not sorted: %v", ids)
		}
	}
}

func TestToolContextRoundTrip(t *testing.T) {
	sess := &Session{ID: "s1", UserID: "alice", State: NewState()}
	ctx := WithToolContext(context.Background(), &ToolContext{UserID: "alice", Session: sess})

	tc, err := ToolContextFrom(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tc.UserID != "alice" || tc.State() != sess.State {
		t.Errorf("unexpected tool context: %+v", tc)
	}
}

func TestToolContextMissing(t *testing.T) {
	_, err := ToolContextFrom(context.Background())
	if err == nil || !strings.Contains(err.Error(), "tool context") {
		t.Errorf("expected tool context error, got %v", err)
	}
}

func TestInMemoryServiceMaxHistory(t *testing.T) {
	svc := NewInMemoryService()
	svc.SetMaxHistory(3)

	sess, err := svc.Create(context.Background(), "app", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		sess.State.AppendHistory(assistant.NewMessage("user", "msg"))
	}
	if got := sess.State.HistoryLen(); got != 3 {
		t.Errorf("expected history bounded at 3, got %d", got)
	}
}
