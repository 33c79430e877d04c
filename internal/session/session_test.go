package session

import (
	"fmt"
	"testing"
)

func TestNewDiscovery_InitialState(t *testing.T) {
	s := NewDiscovery()

	if s.Mode() != ModeDiscovery {
		t.Errorf("expected mode %q, got %q", ModeDiscovery, s.Mode())
	}
	if s.Phase() != PhaseDiscovering {
		t.Errorf("expected phase %q, got %q", PhaseDiscovering, s.Phase())
	}
	if s.AppID() != "" {
		t.Errorf("expected empty appID, got %q", s.AppID())
	}
	if s.Len() != 0 {
		t.Errorf("expected empty transcript, got %d turns", s.Len())
	}
}

func TestNewEditing_InitialState(t *testing.T) {
	s := NewEditing("app-42")

	if s.Mode() != ModeEditing {
		t.Errorf("expected mode %q, got %q", ModeEditing, s.Mode())
	}
	if s.Phase() != PhaseEditingIdle {
		t.Errorf("expected phase %q, got %q", PhaseEditingIdle, s.Phase())
	}
	if s.AppID() != "app-42" {
		t.Errorf("expected appID app-42, got %q", s.AppID())
	}
}

func TestSession_UniqueIDs(t *testing.T) {
	a := NewDiscovery()
	b := NewDiscovery()
	if a.ID() == b.ID() {
		t.Error("expected distinct session IDs")
	}
}

func TestSession_TranscriptAlternation(t *testing.T) {
	s := NewDiscovery()

	const turns = 5
	for i := 0; i < turns; i++ {
		s.AppendUser(fmt.Sprintf("question %d", i))
		if err := s.AppendAssistant(fmt.Sprintf("answer %d", i)); err != nil {
			t.Fatalf("turn %d: unexpected error appending assistant: %v", i, err)
		}
	}

	history := s.History()
	if len(history) != 2*turns {
		t.Fatalf("expected %d entries, got %d", 2*turns, len(history))
	}
	for i, turn := range history {
		want := RoleUser
		if i%2 == 1 {
			want = RoleAssistant
		}
		if turn.Role != want {
			t.Errorf("entry %d: expected role %q, got %q", i, want, turn.Role)
		}
	}
	if history[0].Content != "question 0" {
		t.Errorf("expected submission order preserved, got %q first", history[0].Content)
	}
	if history[len(history)-1].Content != fmt.Sprintf("answer %d", turns-1) {
		t.Errorf("expected last entry to be final answer, got %q", history[len(history)-1].Content)
	}
}

func TestSession_AppendAssistant_RequiresUserTurn(t *testing.T) {
	s := NewDiscovery()

	if err := s.AppendAssistant("hello"); err != ErrOutOfOrder {
		t.Errorf("expected ErrOutOfOrder on empty transcript, got %v", err)
	}

	s.AppendUser("hi")
	if err := s.AppendAssistant("hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Two assistant turns in a row are rejected.
	if err := s.AppendAssistant("again"); err != ErrOutOfOrder {
		t.Errorf("expected ErrOutOfOrder after assistant turn, got %v", err)
	}
}

func TestSession_RollbackUser(t *testing.T) {
	s := NewDiscovery()
	s.AppendUser("hi")
	if err := s.AppendAssistant("hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.AppendUser("unanswered")
	s.RollbackUser()

	if s.Len() != 2 {
		t.Fatalf("expected 2 turns after rollback, got %d", s.Len())
	}

	// Rollback never removes an answered pair.
	s.RollbackUser()
	if s.Len() != 2 {
		t.Errorf("expected rollback to be a no-op on assistant tail, got %d turns", s.Len())
	}
}

func TestSession_HistoryIsCopy(t *testing.T) {
	s := NewDiscovery()
	s.AppendUser("original")

	history := s.History()
	history[0].Content = "mutated"

	if s.History()[0].Content != "original" {
		t.Error("History() must return a copy, transcript was mutated")
	}
}

func TestSession_Reset(t *testing.T) {
	s := NewDiscovery()
	id := s.ID()
	s.AppendUser("hi")
	s.SetPhase(PhaseBuilt)
	s.SetPending("resp")

	s.Reset()

	if s.Len() != 0 {
		t.Errorf("expected empty transcript after reset, got %d", s.Len())
	}
	if s.Phase() != PhaseDiscovering {
		t.Errorf("expected phase %q after reset, got %q", PhaseDiscovering, s.Phase())
	}
	if s.Pending() != nil {
		t.Error("expected pending response cleared after reset")
	}
	if s.ID() != id {
		t.Error("reset must keep the session identity")
	}
}

func TestSession_Reset_EditingKeepsAppID(t *testing.T) {
	s := NewEditing("app-7")
	s.AppendUser("change it")
	s.Reset()

	if s.Phase() != PhaseEditingIdle {
		t.Errorf("expected phase %q after reset, got %q", PhaseEditingIdle, s.Phase())
	}
	if s.AppID() != "app-7" {
		t.Errorf("expected appID kept after reset, got %q", s.AppID())
	}
}
