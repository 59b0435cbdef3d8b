// Package assistant provides the core message, agent and tool types for the
// sundial personal assistant.
package assistant

import (
	"fmt"
	"time"
)

// Message is a single utterance exchanged between the user, an agent, or a
// tool.
type Message struct {
	Role      string                 `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata"`
	Timestamp time.Time              `json:"timestamp"`
}

// NewMessage creates a message with the given role and content. The message
// is not validated; call Validate before accepting external input.
func NewMessage(role, content string) *Message {
	return &Message{
		Role:      role,
		Content:   content,
		Metadata:  make(map[string]interface{}),
		Timestamp: time.Now().UTC(),
	}
}

// WithMetadata adds a metadata entry and returns the message for chaining.
func (m *Message) WithMetadata(key string, value interface{}) *Message {
	if m.Metadata == nil {
		m.Metadata = make(map[string]interface{})
	}
	m.Metadata[key] = value
	return m
}

// Clone returns a copy of the message with its own metadata map.
func (m *Message) Clone() *Message {
	c := &Message{
		Role:      m.Role,
		Content:   m.Content,
		Timestamp: m.Timestamp,
	}
	if m.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(m.Metadata))
		for k, v := range m.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// Size caps applied by Validate. Content is bounded at 1MB; metadata at
// 100 keys, 50-char key names, and 10KB per value.
const (
	maxContentSize       = 1024 * 1024
	maxMetadataKeys      = 100
	maxMetadataKeyLength = 50
	maxMetadataValueSize = 10 * 1024
)

var allowedRoles = map[string]bool{
	"user":      true,
	"assistant": true,
	"system":    true,
	"tool":      true,
	"agent":     true,
}

// Validate checks the message against role and size constraints.
func (m *Message) Validate() error {
	if m.Role == "" {
		return fmt.Errorf("message role cannot be empty")
	}
	if !allowedRoles[m.Role] {
		return fmt.Errorf("invalid message role: %s. Must be one of: user, assistant, system, tool, agent", m.Role)
	}
	if len(m.Content) > maxContentSize {
		return fmt.Errorf("message content exceeds maximum size of %d bytes (got %d bytes)", maxContentSize, len(m.Content))
	}
	if len(m.Metadata) > maxMetadataKeys {
		return fmt.Errorf("message metadata exceeds maximum of %d keys (got %d)", maxMetadataKeys, len(m.Metadata))
	}
	for key, value := range m.Metadata {
		if len(key) > maxMetadataKeyLength {
			return fmt.Errorf("metadata key '%s...' exceeds maximum length of %d characters (got %d)",
				key[:min(20, len(key))], maxMetadataKeyLength, len(key))
		}
		if size := len(fmt.Sprintf("%v", value)); size > maxMetadataValueSize {
			return fmt.Errorf("metadata value for key '%s' exceeds maximum size of %d bytes (got %d bytes)",
				key, maxMetadataValueSize, size)
		}
	}
	return nil
}

// ToolResult is the outcome of a single tool execution.
type ToolResult struct {
	Success  bool                   `json:"success"`
	Data     interface{}            `json:"data,omitempty"`
	Error    string                 `json:"error,omitempty"`
	Metadata map[string]interface{} `json:"metadata"`
}

// NewToolResult creates a successful tool result.
func NewToolResult(data interface{}) *ToolResult {
	return &ToolResult{
		Success:  true,
		Data:     data,
		Metadata: make(map[string]interface{}),
	}
}

// NewToolError creates a tool result representing an error.
func NewToolError(err string) *ToolResult {
	return &ToolResult{
		Success:  false,
		Error:    err,
		Metadata: make(map[string]interface{}),
	}
}
