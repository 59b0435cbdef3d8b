package session

import (
	"encoding/json"
	"fmt"

	"github.com/sundial-ai/sundial/assistant"
)

// snapshot is the serialized form of a State, used by persistent backends.
type snapshot struct {
	Tasks      []Task                 `json:"tasks"`
	Reminders  []Reminder             `json:"reminders"`
	Goals      []Goal                 `json:"goals"`
	Memories   map[string]*UserMemory `json:"user_memories"`
	History    []*assistant.Message   `json:"history"`
	Values     map[string]string      `json:"values"`
	MaxHistory int                    `json:"max_history"`
}

// Snapshot serializes the state to JSON.
func (s *State) Snapshot() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := snapshot{
		Tasks:      s.tasks,
		Reminders:  s.reminders,
		Goals:      s.goals,
		Memories:   s.memories,
		History:    s.history,
		Values:     s.values,
		MaxHistory: s.maxHistory,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize session state: %w", err)
	}
	return data, nil
}

// RestoreState rebuilds a State from a Snapshot payload.
func RestoreState(data []byte) (*State, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to deserialize session state: %w", err)
	}

	state := NewState()
	state.tasks = snap.Tasks
	state.reminders = snap.Reminders
	state.goals = snap.Goals
	if snap.Memories != nil {
		state.memories = snap.Memories
	}
	state.history = snap.History
	if snap.Values != nil {
		state.values = snap.Values
	}
	if snap.MaxHistory > 0 {
		state.maxHistory = snap.MaxHistory
	}
	return state, nil
}
