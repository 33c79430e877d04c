// Package dialogue holds the pure dialogue policy: it maps the current
// session phase and the latest structured response to the next phase, the
// question to surface, and at most one command for the artifact builder.
package dialogue

import (
	"errors"

	"github.com/normanking/voicebuilder/internal/chat"
	"github.com/normanking/voicebuilder/internal/session"
)

// ErrSessionBuilt rejects responses arriving after a session already reached
// the Built phase; no further commands may be emitted until the session is
// explicitly reset.
var ErrSessionBuilt = errors.New("session already built")

// Command is a discrete instruction for the artifact builder.
type Command interface {
	isCommand()
}

// BuildCommand finalizes a discovery session into a website build.
// Emitted at most once per session.
type BuildCommand struct {
	Prompt              string   `json:"prompt"`
	PreviewInstructions []string `json:"previewInstructions"`
}

// EditCommand applies one change to an already-built website.
type EditCommand struct {
	ChangeDescription string `json:"changeDescription"`
}

func (BuildCommand) isCommand() {}
func (EditCommand) isCommand()  {}

// Outcome is the policy's decision for one turn.
type Outcome struct {
	NextPhase session.Phase
	Command   Command // nil when the turn emits nothing
	Question  string  // follow-up question to surface, possibly empty
}

// DecideDiscovery advances a discovery session on a new structured response.
// While the model is not ready to build, the session stays in conversation
// and the next question is surfaced. The first ready response transitions to
// Built and emits the single BuildCommand; the policy clears any question the
// model attached to it even if the upstream client failed to.
func DecideDiscovery(phase session.Phase, resp *chat.DiscoveryResponse) (Outcome, error) {
	if phase == session.PhaseBuilt {
		return Outcome{}, ErrSessionBuilt
	}

	if !resp.ReadyToBuild {
		// Any response moves the session out of its initial phase; the
		// conversation is now confirming details until the model is ready.
		return Outcome{
			NextPhase: session.PhaseConfirming,
			Question:  resp.NextQuestion,
		}, nil
	}

	return Outcome{
		NextPhase: session.PhaseBuilt,
		Command: BuildCommand{
			Prompt:              resp.Prompt,
			PreviewInstructions: resp.PreviewInstructions,
		},
		Question: "",
	}, nil
}

// DecideEditing handles one editing-mode response. Editing has no phase
// transitions; every turn is independent and conditionally emits one
// EditCommand when the response carries an actionable change.
func DecideEditing(phase session.Phase, resp *chat.EditingResponse) (Outcome, error) {
	outcome := Outcome{
		NextPhase: phase,
		Question:  resp.NextQuestion,
	}
	if resp.WebsiteChange != nil {
		outcome.Command = EditCommand{ChangeDescription: *resp.WebsiteChange}
	}
	return outcome, nil
}
