// Package session holds the conversational state for one voice interaction.
package session

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Role tags one side of the conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single role-tagged utterance in the transcript.
// Turns are immutable once appended.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Mode selects which conversation the session drives.
type Mode string

const (
	// ModeDiscovery works toward a finalized build specification.
	ModeDiscovery Mode = "discovery"
	// ModeEditing produces incremental change instructions for an existing app.
	ModeEditing Mode = "editing"
)

// Phase is the dialogue phase of a session.
type Phase string

const (
	PhaseDiscovering Phase = "discovering"
	PhaseConfirming  Phase = "confirming"
	PhaseBuilt       Phase = "built"
	PhaseEditingIdle Phase = "editing_idle"
)

var (
	ErrModeMismatch = errors.New("operation does not match session mode")
	ErrOutOfOrder   = errors.New("assistant turn requires a preceding user turn")
)

// Session is the single-owner conversational context for one discovery or
// editing interaction. The transcript is append-only; the one orchestrator
// that owns the session is the only writer.
type Session struct {
	mu      sync.RWMutex
	id      uuid.UUID
	mode    Mode
	phase   Phase
	appID   string
	turns   []Turn
	pending any
}

// NewDiscovery creates a session aimed at producing a build specification.
func NewDiscovery() *Session {
	return &Session{
		id:    uuid.New(),
		mode:  ModeDiscovery,
		phase: PhaseDiscovering,
	}
}

// NewEditing creates a session for editing the given app.
func NewEditing(appID string) *Session {
	return &Session{
		id:    uuid.New(),
		mode:  ModeEditing,
		phase: PhaseEditingIdle,
		appID: appID,
	}
}

// ID returns the session identifier.
func (s *Session) ID() uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Mode returns the session mode.
func (s *Session) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// Phase returns the current dialogue phase.
func (s *Session) Phase() Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.phase
}

// SetPhase updates the dialogue phase.
func (s *Session) SetPhase(phase Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = phase
}

// AppID returns the target app reference. Empty in discovery mode.
func (s *Session) AppID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.appID
}

// AppendUser appends a user turn to the transcript.
func (s *Session) AppendUser(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, Turn{Role: RoleUser, Content: content})
}

// AppendAssistant appends the assistant turn answering the most recent user
// turn. The user turn must already be present so the transcript keeps strict
// user/assistant alternation.
func (s *Session) AppendAssistant(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.turns) == 0 || s.turns[len(s.turns)-1].Role != RoleUser {
		return ErrOutOfOrder
	}
	s.turns = append(s.turns, Turn{Role: RoleAssistant, Content: content})
	return nil
}

// RollbackUser removes a trailing user turn that never received an answer.
// The orchestrator uses it when inference fails and the turn's side effects
// are abandoned; the transcript then matches what the user actually heard.
func (s *Session) RollbackUser() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.turns); n > 0 && s.turns[n-1].Role == RoleUser {
		s.turns = s.turns[:n-1]
	}
}

// History returns a copy of the transcript in conversational order.
func (s *Session) History() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := make([]Turn, len(s.turns))
	copy(turns, s.turns)
	return turns
}

// Len returns the number of turns in the transcript.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.turns)
}

// SetPending stores the most recent structured response.
func (s *Session) SetPending(resp any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = resp
}

// Pending returns the most recent structured response, or nil.
func (s *Session) Pending() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending
}

// Reset clears the transcript and returns the session to its initial phase.
// The session keeps its identity and app reference.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil
	s.pending = nil
	if s.mode == ModeEditing {
		s.phase = PhaseEditingIdle
	} else {
		s.phase = PhaseDiscovering
	}
}
