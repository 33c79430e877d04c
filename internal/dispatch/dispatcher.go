// Package dispatch delivers builder commands to the downstream artifact
// builder collaborator.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/normanking/voicebuilder/internal/bus"
	"github.com/normanking/voicebuilder/internal/dialogue"
)

// ArtifactBuilder is the downstream collaborator that actually builds or
// mutates the generated website.
type ArtifactBuilder interface {
	Build(ctx context.Context, cmd dialogue.BuildCommand) error
	Edit(ctx context.Context, appID string, cmd dialogue.EditCommand) error
}

// DispatchError marks a delivery failure. It is non-fatal: the session keeps
// its post-transition phase since the conversational intent was validly
// captured.
type DispatchError struct {
	err error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("command delivery failed: %v", e.err)
}

func (e *DispatchError) Unwrap() error {
	return e.err
}

// Dispatcher delivers commands at most once per triggering turn, and build
// commands at most once per session lifetime regardless of how many
// confirmation-like responses follow.
type Dispatcher struct {
	builder  ArtifactBuilder
	eventBus *bus.EventBus
	logger   zerolog.Logger

	mu    sync.Mutex
	built map[uuid.UUID]struct{}
}

// NewDispatcher creates a command dispatcher.
func NewDispatcher(builder ArtifactBuilder, eventBus *bus.EventBus, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		builder:  builder,
		eventBus: eventBus,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
		built:    make(map[uuid.UUID]struct{}),
	}
}

// Dispatch delivers one command for the given session. appID is the edit
// target and is empty for build commands.
func (d *Dispatcher) Dispatch(ctx context.Context, sessionID uuid.UUID, appID string, cmd dialogue.Command) error {
	switch c := cmd.(type) {
	case dialogue.BuildCommand:
		return d.dispatchBuild(ctx, sessionID, c)
	case dialogue.EditCommand:
		return d.dispatchEdit(ctx, sessionID, appID, c)
	default:
		return fmt.Errorf("unknown command type %T", cmd)
	}
}

func (d *Dispatcher) dispatchBuild(ctx context.Context, sessionID uuid.UUID, cmd dialogue.BuildCommand) error {
	d.mu.Lock()
	if _, done := d.built[sessionID]; done {
		d.mu.Unlock()
		d.logger.Debug().Str("session", sessionID.String()).Msg("Build already dispatched, ignoring")
		return nil
	}
	// Marked before delivery: a failed delivery still counts as the one
	// attempt, so a retry storm cannot double-build.
	d.built[sessionID] = struct{}{}
	d.mu.Unlock()

	if err := d.builder.Build(ctx, cmd); err != nil {
		d.publish(bus.EventTypeDispatchFailed, sessionID, err.Error())
		return &DispatchError{err: err}
	}

	d.logger.Info().Str("session", sessionID.String()).Int("promptLen", len(cmd.Prompt)).Msg("Build command dispatched")
	d.publish(bus.EventTypeBuildDispatched, sessionID, "")
	return nil
}

func (d *Dispatcher) dispatchEdit(ctx context.Context, sessionID uuid.UUID, appID string, cmd dialogue.EditCommand) error {
	if err := d.builder.Edit(ctx, appID, cmd); err != nil {
		d.publish(bus.EventTypeDispatchFailed, sessionID, err.Error())
		return &DispatchError{err: err}
	}

	d.logger.Info().Str("session", sessionID.String()).Str("appId", appID).Msg("Edit command dispatched")
	d.publish(bus.EventTypeEditDispatched, sessionID, "")
	return nil
}

// Forget clears the built marker for a session, used on explicit reset.
func (d *Dispatcher) Forget(sessionID uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.built, sessionID)
}

func (d *Dispatcher) publish(eventType bus.EventType, sessionID uuid.UUID, errMsg string) {
	if d.eventBus == nil {
		return
	}
	data := map[string]any{"session": sessionID.String()}
	if errMsg != "" {
		data["error"] = errMsg
	}
	d.eventBus.Publish(bus.Event{Type: eventType, Data: data})
}
