package chat

import (
	"errors"
	"fmt"
	"strings"
)

// Role identifies the author of a message. The set is closed: the completion
// endpoint rejects anything else.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation history, in the shape the completion
// endpoint consumes.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ErrEmptyMessage is returned when an inbound turn trims to nothing.
var ErrEmptyMessage = errors.New("chat: empty message")

// InvalidRoleError is returned when a message with a disallowed role is
// appended to a history (only the seed may carry the system role).
type InvalidRoleError struct {
	Role Role
}

func (e *InvalidRoleError) Error() string {
	return fmt.Sprintf("chat: role %q cannot be appended to history", e.Role)
}

// InvalidHistoryError reports a history that violates the dispatch invariants.
// It signals an integration bug at the caller, not a user-facing condition.
type InvalidHistoryError struct {
	Reason string
}

func (e *InvalidHistoryError) Error() string {
	return "chat: invalid history: " + e.Reason
}

// ValidateHistory enforces the invariants a history must satisfy before it is
// sent for completion: the seed system message first, at least one user turn,
// and the last message authored by the user.
func ValidateHistory(history []Message) error {
	if len(history) < 2 {
		return &InvalidHistoryError{Reason: fmt.Sprintf("need at least 2 messages, got %d", len(history))}
	}
	if history[0].Role != RoleSystem {
		return &InvalidHistoryError{Reason: fmt.Sprintf("first message has role %q, want %q", history[0].Role, RoleSystem)}
	}
	if last := history[len(history)-1]; last.Role != RoleUser {
		return &InvalidHistoryError{Reason: fmt.Sprintf("last message has role %q, want %q", last.Role, RoleUser)}
	}
	for i, msg := range history[1:] {
		if msg.Role == RoleSystem {
			return &InvalidHistoryError{Reason: fmt.Sprintf("system message at position %d", i+1)}
		}
		if strings.TrimSpace(msg.Content) == "" {
			return &InvalidHistoryError{Reason: fmt.Sprintf("empty content at position %d", i+1)}
		}
	}
	return nil
}
