package session

import (
	"strings"
	"sync"
	"time"

	"github.com/sundial-ai/sundial/assistant"
)

// DefaultMaxHistory bounds conversation history per session.
const DefaultMaxHistory = 40

// State is the mutable per-session store the tools read and write. All
// methods are safe for concurrent use. Record IDs are assigned by
// incrementing per record type, matching the assistant's user-facing
// numbering ("goal #3").
type State struct {
	mu         sync.RWMutex
	tasks      []Task
	reminders  []Reminder
	goals      []Goal
	memories   map[string]*UserMemory
	history    []*assistant.Message
	values     map[string]string
	maxHistory int
}

// NewState creates an empty state with the default history limit.
func NewState() *State {
	return &State{
		memories:   make(map[string]*UserMemory),
		values:     make(map[string]string),
		maxHistory: DefaultMaxHistory,
	}
}

// SetMaxHistory adjusts the history limit and prunes immediately.
func (s *State) SetMaxHistory(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > 0 {
		s.maxHistory = n
	}
	s.pruneLocked()
}

// AppendTask stores a task and returns it with its assigned ID.
func (s *State) AppendTask(userID, title, dueDate, priority string) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	if priority == "" {
		priority = PriorityMedium
	}
	task := Task{
		ID:        len(s.tasks) + 1,
		UserID:    userID,
		Title:     title,
		DueDate:   dueDate,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
	s.tasks = append(s.tasks, task)
	return task
}

// TasksFor returns the tasks belonging to a user.
func (s *State) TasksFor(userID string) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0)
	for _, t := range s.tasks {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out
}

// AppendReminder stores a reminder and returns it with its assigned ID.
func (s *State) AppendReminder(userID, title, date, timeOfDay string) Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	reminder := Reminder{
		ID:        len(s.reminders) + 1,
		UserID:    userID,
		Title:     title,
		Date:      date,
		Time:      timeOfDay,
		CreatedAt: time.Now().UTC(),
	}
	s.reminders = append(s.reminders, reminder)
	return reminder
}

// RemindersFor returns the reminders belonging to a user.
func (s *State) RemindersFor(userID string) []Reminder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Reminder, 0)
	for _, r := range s.reminders {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// AppendGoal stores a goal in pending_approval status and returns it.
func (s *State) AppendGoal(userID string, g Goal) Goal {
	s.mu.Lock()
	defer s.mu.Unlock()

	g.ID = len(s.goals) + 1
	g.UserID = userID
	g.Status = GoalPending
	g.Approved = false
	g.CreatedAt = time.Now().UTC()
	s.goals = append(s.goals, g)
	return g
}

// GoalFor returns the user's goal with the given ID.
func (s *State) GoalFor(userID string, goalID int) (Goal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, g := range s.goals {
		if g.ID == goalID && g.UserID == userID {
			return g, true
		}
	}
	return Goal{}, false
}

// GoalsFor returns all goals belonging to a user.
func (s *State) GoalsFor(userID string) []Goal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Goal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out
}

// ApproveGoal marks the user's goal active. Returns the updated goal, or
// false if no such goal exists.
func (s *State) ApproveGoal(userID string, goalID int) (Goal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.goals {
		if s.goals[i].ID == goalID && s.goals[i].UserID == userID {
			s.goals[i].Approved = true
			s.goals[i].Status = GoalActive
			s.goals[i].ApprovedAt = time.Now().UTC()
			return s.goals[i], true
		}
	}
	return Goal{}, false
}

// UpdateGoalStatus sets the status of the user's goal. Returns the updated
// goal, or false if no such goal exists.
func (s *State) UpdateGoalStatus(userID string, goalID int, status string) (Goal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.goals {
		if s.goals[i].ID == goalID && s.goals[i].UserID == userID {
			s.goals[i].Status = status
			s.goals[i].UpdatedAt = time.Now().UTC()
			return s.goals[i], true
		}
	}
	return Goal{}, false
}

// Memory returns the user's memory structure, creating it if absent.
func (s *State) Memory(userID string) *UserMemory {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memoryLocked(userID)
}

// memoryLocked returns the user's memory; the caller holds mu.
func (s *State) memoryLocked(userID string) *UserMemory {
	mem, ok := s.memories[userID]
	if !ok {
		mem = NewUserMemory()
		s.memories[userID] = mem
	}
	return mem
}

// MemorySnapshot returns a deep copy of the user's memory, safe to read
// while other goroutines write.
func (s *State) MemorySnapshot(userID string) UserMemory {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.memoryLocked(userID)
	out := UserMemory{
		PersonalDetails: make(map[string]string, len(mem.PersonalDetails)),
		Preferences:     make(map[string]string, len(mem.Preferences)),
		Interests:       append([]string{}, mem.Interests...),
		History:         append([]string{}, mem.History...),
		Patterns:        make(map[string]*TriggerPattern, len(mem.Patterns)),
	}
	for k, v := range mem.PersonalDetails {
		out.PersonalDetails[k] = v
	}
	for k, v := range mem.Preferences {
		out.Preferences[k] = v
	}
	for trigger, pattern := range mem.Patterns {
		out.Patterns[trigger] = &TriggerPattern{
			Helpful:   append([]PatternEntry{}, pattern.Helpful...),
			Unhelpful: append([]PatternEntry{}, pattern.Unhelpful...),
		}
	}
	return out
}

// SaveMemory routes a key/value pair into the user's memory the way the
// assistant's memory tool expects: known keys land in their structured
// slot, anything else becomes a personal detail.
func (s *State) SaveMemory(userID, key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.memoryLocked(userID)
	switch key {
	case "name":
		mem.PersonalDetails["name"] = value
	case "interests":
		mem.Interests = append(mem.Interests, value)
	case "preferences":
		mem.Preferences["general"] = value
	case "history", "journal_entry":
		mem.History = append(mem.History, value)
	default:
		mem.PersonalDetails[key] = value
	}
}

// SavePattern records whether a therapeutic response helped for a trigger.
// Triggers are normalized to lowercase.
func (s *State) SavePattern(userID, trigger, response string, helpful bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	mem := s.memoryLocked(userID)
	key := strings.ToLower(strings.TrimSpace(trigger))
	pattern, ok := mem.Patterns[key]
	if !ok {
		pattern = &TriggerPattern{}
		mem.Patterns[key] = pattern
	}
	entry := PatternEntry{Response: response, Timestamp: time.Now().UTC()}
	if helpful {
		pattern.Helpful = append(pattern.Helpful, entry)
	} else {
		pattern.Unhelpful = append(pattern.Unhelpful, entry)
	}
}

// AppendHistory adds a message to the conversation history, pruning oldest
// non-system messages beyond the limit.
func (s *State) AppendHistory(msg *assistant.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history, msg)
	s.pruneLocked()
}

// History returns a copy of the conversation history.
func (s *State) History() []*assistant.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*assistant.Message, len(s.history))
	copy(out, s.history)
	return out
}

// HistoryLen returns the number of messages in history.
func (s *State) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// pruneLocked keeps history within maxHistory, preserving system messages.
func (s *State) pruneLocked() {
	if len(s.history) <= s.maxHistory {
		return
	}

	system := make([]*assistant.Message, 0)
	conversation := make([]*assistant.Message, 0, len(s.history))
	for _, msg := range s.history {
		if msg.Role == "system" {
			system = append(system, msg)
		} else {
			conversation = append(conversation, msg)
		}
	}

	keep := s.maxHistory - len(system)
	if keep < 0 {
		keep = 0
	}
	if len(conversation) > keep {
		conversation = conversation[len(conversation)-keep:]
	}
	s.history = append(system, conversation...)
}

// SetValue stores a free-form value, used by pipeline stages to pass
// structured output between agents.
func (s *State) SetValue(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Value returns a previously stored value.
func (s *State) Value(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}
