package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/sundial-ai/sundial/session"
)

// newToolCtx builds a request context carrying a fresh session for userID.
func newToolCtx(userID string) (context.Context, *session.Session) {
	sess := &session.Session{ID: "test-session", UserID: userID, State: session.NewState()}
	ctx := session.WithToolContext(context.Background(), &session.ToolContext{
		UserID:  userID,
		Session: sess,
	})
	return ctx, sess
}

func resultData(t *testing.T, result interface{}) map[string]interface{} {
	t.Helper()
	r, ok := result.(map[string]interface{})
	if !ok {
		t.Fatalf("expected map data, got %T", result)
	}
	return r
}

func TestCreateTaskTool(t *testing.T) {
	ctx, sess := newToolCtx("alice")
	tool := NewCreateTaskTool()

	result, err := tool.Execute(ctx, map[string]interface{}{
		"title":    "buy milk",
		"due_date": "2026-09-01",
		"priority": "high",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got error: %s", result.Error)
	}
	data := resultData(t, result.Data)
	if msg, _ := data["message"].(string); !strings.Contains(msg, "Task #1 created") {
		t.Errorf("unexpected message: %v", data["message"])
	}

	tasks := sess.State.TasksFor("alice")
	if len(tasks) != 1 || tasks[0].Title != "buy milk" || tasks[0].Priority != "high" {
		t.Errorf("unexpected stored tasks: %+v", tasks)
	}
}

func TestCreateTaskToolValidation(t *testing.T) {
	ctx, _ := newToolCtx("alice")
	tool := NewCreateTaskTool()

	result, err := tool.Execute(ctx, map[string]interface{}{"priority": "high"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || !strings.Contains(result.Error, "'title' is required") {
		t.Errorf("expected missing title error, got %+v", result)
	}

	result, _ = tool.Execute(ctx, map[string]interface{}{"title": "x", "priority": "urgent"})
	if result.Success || !strings.Contains(result.Error, "invalid priority") {
		t.Errorf("expected priority error, got %+v", result)
	}
}

func TestCreateTaskToolNoSession(t *testing.T) {
	tool := NewCreateTaskTool()
	result, err := tool.Execute(context.Background(), map[string]interface{}{"title": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success || !strings.Contains(result.Error, "tool context") {
		t.Errorf("expected tool context error, got %+v", result)
	}
}

func TestGetTasksTool(t *testing.T) {
	ctx, sess := newToolCtx("alice")
	sess.State.AppendTask("alice", "a", "", "")
	sess.State.AppendTask("bob", "b", "", "")

	result, err := NewGetTasksTool().Execute(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := resultData(t, result.Data)
	if data["count"] != 1 {
		t.Errorf("expected 1 task for alice, got %v", data["count"])
	}
}

func TestScheduleReminderTool(t *testing.T) {
	ctx, sess := newToolCtx("alice")
	tool := NewScheduleReminderTool()

	result, err := tool.Execute(ctx, map[string]interface{}{
		"title": "dentist",
		"date":  "2026-09-15",
		"time":  "14:30",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got: %s", result.Error)
	}
	data := resultData(t, result.Data)
	if msg, _ := data["message"].(string); !strings.Contains(msg, "Reminder #1 scheduled for 2026-09-15 at 14:30") {
		t.Errorf("unexpected message: %v", data["message"])
	}
	if len(sess.State.RemindersFor("alice")) != 1 {
		t.Error("expected reminder stored")
	}

	// all three fields are required
	for _, missing := range []string{"title", "date", "time"} {
		params := map[string]interface{}{"title": "x", "date": "2026-09-15", "time": "14:30"}
		delete(params, missing)
		result, _ := tool.Execute(ctx, params)
		if result.Success || !strings.Contains(result.Error, missing) {
			t.Errorf("expected error for missing %s, got %+v", missing, result)
		}
	}
}

func TestGetAllItemsTool(t *testing.T) {
	ctx, sess := newToolCtx("alice")
	sess.State.AppendTask("alice", "task", "", "")
	sess.State.AppendReminder("alice", "reminder", "2026-09-15", "09:00")

	result, err := NewGetAllItemsTool().Execute(ctx, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data := resultData(t, result.Data)
	if data["task_count"] != 1 || data["reminder_count"] != 1 {
		t.Errorf("unexpected counts: %+v", data)
	}
}
