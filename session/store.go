// Package session holds per-session conversation history for the lifetime of
// the process. Nothing is persisted.
package session

import (
	"sync"

	"evidenze-chat/chat"
)

// Session is one conversation: an ordered message history whose first entry
// is always the system seed. Mutations are append-only and serialized.
type Session struct {
	id   string
	seed chat.Message

	// turnMu serializes whole turns: a second turn for the same session
	// blocks until the first one has either appended its reply or declined
	// to append on failure.
	turnMu sync.Mutex

	mu      sync.Mutex
	history []chat.Message
}

func newSession(id, systemPrompt string) *Session {
	seed := chat.SystemMessage(systemPrompt)
	return &Session{
		id:      id,
		seed:    seed,
		history: []chat.Message{seed},
	}
}

func (s *Session) ID() string {
	return s.id
}

// AcquireTurn blocks until this session is free to process a turn and
// returns the release function.
func (s *Session) AcquireTurn() func() {
	s.turnMu.Lock()
	return s.turnMu.Unlock
}

// Append adds a message. The system role is only ever the seed: appending it
// after initialization is rejected.
func (s *Session) Append(msg chat.Message) error {
	if msg.Role == chat.RoleSystem {
		return &chat.InvalidRoleError{Role: msg.Role}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msg)
	return nil
}

// Reset truncates the history back to the single seed message.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = []chat.Message{s.seed}
}

// Snapshot returns a point-in-time copy of the history. Partial appends are
// never visible.
func (s *Session) Snapshot() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the current history length.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// Store hands out sessions by external identifier.
type Store interface {
	GetOrCreate(id string) *Session
}

// MemoryStore keeps sessions in memory for the process lifetime, creating
// them lazily with the configured seed.
type MemoryStore struct {
	systemPrompt string

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewMemoryStore(systemPrompt string) *MemoryStore {
	return &MemoryStore{
		systemPrompt: systemPrompt,
		sessions:     make(map[string]*Session),
	}
}

func (m *MemoryStore) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[id]; ok {
		return sess
	}
	sess := newSession(id, m.systemPrompt)
	m.sessions[id] = sess
	return sess
}

// Remove drops a session, for transports that signal end of conversation.
func (m *MemoryStore) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StatelessStore is the single-turn deployment variant: every call returns a
// fresh seeded session, so no memory survives across requests.
type StatelessStore struct {
	systemPrompt string
}

func NewStatelessStore(systemPrompt string) *StatelessStore {
	return &StatelessStore{systemPrompt: systemPrompt}
}

func (s *StatelessStore) GetOrCreate(id string) *Session {
	return newSession(id, s.systemPrompt)
}
