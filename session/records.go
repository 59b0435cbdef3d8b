// Package session holds per-conversation state for the assistant: the
// typed record stores the tools operate on, the conversation history, and
// the services that persist them.
package session

import "time"

// Priority levels accepted for tasks.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Task is a todo item created for a user.
type Task struct {
	ID        int       `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	DueDate   string    `json:"due_date,omitempty"`
	Priority  string    `json:"priority"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// Reminder is a scheduled reminder with an explicit date and time.
type Reminder struct {
	ID        int       `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Date      string    `json:"date"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}

// Goal statuses. A goal starts pending and becomes active on approval.
const (
	GoalPending   = "pending_approval"
	GoalActive    = "active"
	GoalCompleted = "completed"
	GoalPaused    = "paused"
	GoalCancelled = "cancelled"
)

// Goal is a user goal with its committed routine.
type Goal struct {
	ID          int       `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Routine     string    `json:"routine"`
	Frequency   string    `json:"frequency"`
	Duration    string    `json:"duration"`
	StartDate   string    `json:"start_date"`
	Status      string    `json:"status"`
	Approved    bool      `json:"approved"`
	CreatedAt   time.Time `json:"created_at"`
	ApprovedAt  time.Time `json:"approved_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// PatternEntry records one therapeutic response and when it was given.
type PatternEntry struct {
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// TriggerPattern tracks which responses worked for an emotional trigger.
type TriggerPattern struct {
	Helpful   []PatternEntry `json:"helpful_responses"`
	Unhelpful []PatternEntry `json:"unhelpful_responses"`
}

// UserMemory is everything the assistant remembers about one user.
type UserMemory struct {
	PersonalDetails map[string]string          `json:"personal_details"`
	Preferences     map[string]string          `json:"preferences"`
	Interests       []string                   `json:"interests"`
	History         []string                   `json:"history"`
	Patterns        map[string]*TriggerPattern `json:"therapeutic_patterns"`
}

// NewUserMemory returns an empty memory structure with all maps allocated.
func NewUserMemory() *UserMemory {
	return &UserMemory{
		PersonalDetails: make(map[string]string),
		Preferences:     make(map[string]string),
		Interests:       []string{},
		History:         []string{},
		Patterns:        make(map[string]*TriggerPattern),
	}
}
