package dialogue

import (
	"testing"

	"github.com/normanking/voicebuilder/internal/chat"
	"github.com/normanking/voicebuilder/internal/session"
)

func discoveryResp(ready bool, question string) *chat.DiscoveryResponse {
	return &chat.DiscoveryResponse{
		Prompt:              "A coffee shop site with a warm feel",
		PreviewInstructions: []string{"warm colors", "hero image", "menu section"},
		NextQuestion:        question,
		Speech:              "Sounds great!",
		ReadyToBuild:        ready,
	}
}

func TestDecideDiscovery_NotReadyStaysInConversation(t *testing.T) {
	outcome, err := DecideDiscovery(session.PhaseDiscovering, discoveryResp(false, "What's the vibe?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.NextPhase != session.PhaseConfirming {
		t.Errorf("expected phase %q, got %q", session.PhaseConfirming, outcome.NextPhase)
	}
	if outcome.Command != nil {
		t.Errorf("expected no command, got %T", outcome.Command)
	}
	if outcome.Question != "What's the vibe?" {
		t.Errorf("expected question surfaced, got %q", outcome.Question)
	}
}

func TestDecideDiscovery_ReadyTransitionsToBuilt(t *testing.T) {
	outcome, err := DecideDiscovery(session.PhaseConfirming, discoveryResp(true, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.NextPhase != session.PhaseBuilt {
		t.Errorf("expected phase %q, got %q", session.PhaseBuilt, outcome.NextPhase)
	}

	cmd, ok := outcome.Command.(BuildCommand)
	if !ok {
		t.Fatalf("expected BuildCommand, got %T", outcome.Command)
	}
	if cmd.Prompt != "A coffee shop site with a warm feel" {
		t.Errorf("unexpected prompt: %q", cmd.Prompt)
	}
	if len(cmd.PreviewInstructions) != 3 {
		t.Errorf("expected 3 preview instructions, got %d", len(cmd.PreviewInstructions))
	}
}

func TestDecideDiscovery_ReadyClearsQuestion(t *testing.T) {
	// The client should already enforce this; the policy clears it anyway.
	outcome, err := DecideDiscovery(session.PhaseConfirming, discoveryResp(true, "Anything else?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Question != "" {
		t.Errorf("expected empty question on ready response, got %q", outcome.Question)
	}
}

func TestDecideDiscovery_RejectedAfterBuilt(t *testing.T) {
	_, err := DecideDiscovery(session.PhaseBuilt, discoveryResp(true, ""))
	if err != ErrSessionBuilt {
		t.Errorf("expected ErrSessionBuilt, got %v", err)
	}

	// Not-ready responses after Built are rejected too.
	_, err = DecideDiscovery(session.PhaseBuilt, discoveryResp(false, "more?"))
	if err != ErrSessionBuilt {
		t.Errorf("expected ErrSessionBuilt, got %v", err)
	}
}

func TestDecideDiscovery_EmptyPromptStillPolicyValid(t *testing.T) {
	// Shape is the client's contract; the policy does not second-guess
	// content.
	resp := discoveryResp(true, "")
	resp.Prompt = ""
	outcome, err := DecideDiscovery(session.PhaseDiscovering, resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := outcome.Command.(BuildCommand); !ok {
		t.Errorf("expected BuildCommand, got %T", outcome.Command)
	}
}

func TestDecideEditing_NullChangeEmitsNothing(t *testing.T) {
	resp := &chat.EditingResponse{
		WebsiteChange: nil,
		Speech:        "Nope, I can't see your screen!",
		NextQuestion:  "",
	}
	outcome, err := DecideEditing(session.PhaseEditingIdle, resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Command != nil {
		t.Errorf("expected no command for null change, got %T", outcome.Command)
	}
	if outcome.NextPhase != session.PhaseEditingIdle {
		t.Errorf("editing must not change phase, got %q", outcome.NextPhase)
	}
}

func TestDecideEditing_ChangeEmitsEditCommand(t *testing.T) {
	change := "Make the header purple"
	resp := &chat.EditingResponse{
		WebsiteChange: &change,
		Speech:        "Purple it is!",
		NextQuestion:  "Anything else?",
	}
	outcome, err := DecideEditing(session.PhaseEditingIdle, resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cmd, ok := outcome.Command.(EditCommand)
	if !ok {
		t.Fatalf("expected EditCommand, got %T", outcome.Command)
	}
	if cmd.ChangeDescription != change {
		t.Errorf("unexpected change description: %q", cmd.ChangeDescription)
	}
	if outcome.Question != "Anything else?" {
		t.Errorf("expected question surfaced, got %q", outcome.Question)
	}
}
