// Package voice sequences one conversational turn at a time: capture,
// inference, command dispatch, and spoken playback.
package voice

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/normanking/voicebuilder/internal/bus"
	"github.com/normanking/voicebuilder/internal/chat"
	"github.com/normanking/voicebuilder/internal/dialogue"
	"github.com/normanking/voicebuilder/internal/session"
	"github.com/normanking/voicebuilder/internal/stt"
)

// State is the orchestrator's position in the turn cycle.
type State string

const (
	StateIdle       State = "idle"
	StateCapturing  State = "capturing"
	StateInferring  State = "inferring"
	StateResponding State = "responding"
)

var (
	ErrBusy         = errors.New("a turn is already in progress")
	ErrNoCapture    = errors.New("no capture provider configured")
	ErrNotCapturing = errors.New("capture is not active")
)

// Responder produces structured replies for a transcript plus one new
// utterance. chat.Client implements it.
type Responder interface {
	Discover(ctx context.Context, history []session.Turn, utterance string) (*chat.DiscoveryResponse, error)
	Edit(ctx context.Context, history []session.Turn, utterance string) (*chat.EditingResponse, error)
}

// CommandSink receives the commands a turn emits. dispatch.Dispatcher
// implements it.
type CommandSink interface {
	Dispatch(ctx context.Context, sessionID uuid.UUID, appID string, cmd dialogue.Command) error
	Forget(sessionID uuid.UUID)
}

// Orchestrator owns one Session and runs its turns strictly one at a time.
// Events arrive from the capture provider and the speaker; each is processed
// to completion before the next is accepted, so the Session is never mutated
// from two directions at once.
type Orchestrator struct {
	logger    zerolog.Logger
	sess      *session.Session
	responder Responder
	sink      CommandSink
	capture   stt.CaptureProvider
	speaker   Speaker
	eventBus  *bus.EventBus

	mu       sync.Mutex
	state    State
	turnCtx  context.Context
}

func NewOrchestrator(
	logger zerolog.Logger,
	sess *session.Session,
	responder Responder,
	sink CommandSink,
	capture stt.CaptureProvider,
	speaker Speaker,
	eventBus *bus.EventBus,
) *Orchestrator {
	return &Orchestrator{
		logger:    logger.With().Str("component", "orchestrator").Logger(),
		sess:      sess,
		responder: responder,
		sink:      sink,
		capture:   capture,
		speaker:   speaker,
		eventBus:  eventBus,
		state:     StateIdle,
		turnCtx:   context.Background(),
	}
}

// SetCapture wires the capture provider after construction. The provider
// needs the orchestrator as its Sink, so the two are built in sequence.
func (o *Orchestrator) SetCapture(p stt.CaptureProvider) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.capture = p
}

// State returns the current turn-cycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Session exposes the owned session for read access.
func (o *Orchestrator) Session() *session.Session {
	return o.sess
}

// StartCapture begins listening for one utterance. Rejected while any turn
// is already underway.
func (o *Orchestrator) StartCapture(ctx context.Context) error {
	if o.capture == nil {
		return ErrNoCapture
	}

	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return ErrBusy
	}
	o.state = StateCapturing
	o.turnCtx = ctx
	o.mu.Unlock()

	if err := o.capture.Start(ctx); err != nil {
		o.mu.Lock()
		o.state = StateIdle
		o.mu.Unlock()
		return err
	}

	o.publish(bus.EventTypeCaptureStarted, nil)
	return nil
}

// StopCapture discards an active capture and returns to idle. It has no
// effect once inference has begun; an in-flight model call always runs to
// completion.
func (o *Orchestrator) StopCapture() error {
	o.mu.Lock()
	if o.state != StateCapturing {
		o.mu.Unlock()
		return ErrNotCapturing
	}
	o.state = StateIdle
	o.mu.Unlock()

	o.capture.Stop()
	o.publish(bus.EventTypeCaptureStopped, nil)
	return nil
}

// Submit injects a trigger utterance directly, bypassing capture. Used for
// typed input and queued first prompts.
func (o *Orchestrator) Submit(ctx context.Context, utterance string) error {
	o.mu.Lock()
	if o.state != StateIdle {
		o.mu.Unlock()
		return ErrBusy
	}
	o.state = StateInferring
	o.mu.Unlock()

	o.runTurn(ctx, utterance)
	return nil
}

// OnUtterance receives a finalized utterance from the capture provider.
func (o *Orchestrator) OnUtterance(text string) {
	o.mu.Lock()
	if o.state != StateCapturing {
		o.mu.Unlock()
		o.logger.Debug().Str("text", text).Msg("Dropping utterance outside capture")
		return
	}
	o.state = StateInferring
	ctx := o.turnCtx
	o.mu.Unlock()

	o.capture.Stop()
	o.publish(bus.EventTypeUtterance, map[string]any{"text": text})
	o.runTurn(ctx, text)
}

// OnCaptureError surfaces a capture failure. The session phase is untouched
// and the orchestrator returns to idle ready for a retry.
func (o *Orchestrator) OnCaptureError(kind stt.ErrorKind, err error) {
	o.mu.Lock()
	wasCapturing := o.state == StateCapturing
	if wasCapturing {
		o.state = StateIdle
	}
	o.mu.Unlock()

	if wasCapturing && o.capture != nil {
		o.capture.Stop()
	}

	o.logger.Warn().Str("kind", string(kind)).Err(err).Msg("Capture error")
	o.publish(bus.EventTypeCaptureError, map[string]any{
		"kind":    string(kind),
		"message": kind.UserMessage(),
	})
}

// OnPlaybackComplete ends the responding state.
func (o *Orchestrator) OnPlaybackComplete() {
	o.mu.Lock()
	if o.state == StateResponding {
		o.state = StateIdle
	}
	o.mu.Unlock()
	o.publish(bus.EventTypeSpeakingStopped, nil)
}

// OnPlaybackError ends the responding state. Playback failure is non-fatal;
// the turn's transcript and commands already stand.
func (o *Orchestrator) OnPlaybackError(err error) {
	o.mu.Lock()
	if o.state == StateResponding {
		o.state = StateIdle
	}
	o.mu.Unlock()

	o.logger.Warn().Err(err).Msg("Playback failed")
	o.publish(bus.EventTypePlaybackError, map[string]any{"error": err.Error()})
}

// Reset clears the session back to its initial phase and forgets the build
// marker so a fresh conversation can build again.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	if o.state == StateCapturing {
		o.capture.Stop()
	}
	if o.speaker != nil {
		o.speaker.Stop()
	}
	o.state = StateIdle
	o.mu.Unlock()

	o.sess.Reset()
	o.sink.Forget(o.sess.ID())
	o.publish(bus.EventTypeSessionReset, nil)
}

// runTurn executes inference and its side effects for one utterance. The
// caller has already moved the state to Inferring.
func (o *Orchestrator) runTurn(ctx context.Context, utterance string) {
	o.publish(bus.EventTypeTurnStarted, map[string]any{"utterance": utterance})

	// The user turn lands before inference so the transcript is already
	// correct if anything inspects it mid-call. It is rolled back on typed
	// failure so a failed turn leaves no trace.
	history := o.sess.History()
	o.sess.AppendUser(utterance)

	var outcome dialogue.Outcome
	var speech string
	var err error

	switch o.sess.Mode() {
	case session.ModeEditing:
		var resp *chat.EditingResponse
		resp, err = o.responder.Edit(ctx, history, utterance)
		if err == nil {
			outcome, err = dialogue.DecideEditing(o.sess.Phase(), resp)
			speech = resp.Speech
			o.sess.SetPending(resp)
		}
	default:
		var resp *chat.DiscoveryResponse
		resp, err = o.responder.Discover(ctx, history, utterance)
		if err == nil {
			outcome, err = dialogue.DecideDiscovery(o.sess.Phase(), resp)
			speech = resp.Speech
			o.sess.SetPending(resp)
		}
	}
	if err != nil {
		o.failTurn(err)
		return
	}

	if outcome.NextPhase != o.sess.Phase() {
		o.sess.SetPhase(outcome.NextPhase)
		o.publish(bus.EventTypePhaseChanged, map[string]any{"phase": string(outcome.NextPhase)})
	}

	if outcome.Command != nil {
		if derr := o.sink.Dispatch(ctx, o.sess.ID(), o.sess.AppID(), outcome.Command); derr != nil {
			// Non-fatal: the conversational intent was validly captured,
			// the phase stands. The dispatcher has already published the
			// failure event.
			o.logger.Warn().Err(derr).Msg("Command dispatch failed")
		}
	}

	content := speech
	if content == "" {
		content = outcome.Question
	}
	if content == "" {
		content = "Response received"
	}
	if aerr := o.sess.AppendAssistant(content); aerr != nil {
		o.logger.Error().Err(aerr).Msg("Assistant turn out of order")
	}

	// The policy owns the surfaced question: it clears it on ready-to-build
	// turns even when the model sent one, so the event carries its value,
	// not the raw response field.
	o.publish(bus.EventTypeTurnCompleted, map[string]any{
		"speech":   speech,
		"question": outcome.Question,
		"phase":    string(o.sess.Phase()),
	})

	o.respond(ctx, speech)
}

// respond starts spoken playback of the reply, or goes straight back to
// idle when there is nothing to say.
func (o *Orchestrator) respond(ctx context.Context, speech string) {
	if o.speaker == nil || speech == "" {
		o.mu.Lock()
		o.state = StateIdle
		o.mu.Unlock()
		return
	}

	o.mu.Lock()
	o.state = StateResponding
	o.mu.Unlock()
	o.publish(bus.EventTypeSpeakingStarted, map[string]any{"text": speech})

	go func() {
		if err := o.speaker.Speak(ctx, speech); err != nil {
			o.OnPlaybackError(err)
			return
		}
		o.OnPlaybackComplete()
	}()
}

// failTurn unwinds a typed inference or policy failure: the pending user
// turn is removed, no assistant turn or command is produced, and the
// orchestrator returns to idle.
func (o *Orchestrator) failTurn(err error) {
	o.sess.RollbackUser()

	o.mu.Lock()
	o.state = StateIdle
	o.mu.Unlock()

	msg := err.Error()
	var apiErr *chat.APIError
	if errors.As(err, &apiErr) {
		msg = apiErr.UserMessage()
	}

	o.logger.Error().Err(err).Msg("Turn failed")
	o.publish(bus.EventTypeTurnFailed, map[string]any{
		"error":   err.Error(),
		"message": msg,
	})
}

func (o *Orchestrator) publish(eventType bus.EventType, data map[string]any) {
	if o.eventBus == nil {
		return
	}
	if data == nil {
		data = map[string]any{}
	}
	data["sessionId"] = o.sess.ID().String()
	o.eventBus.Publish(bus.Event{Type: eventType, Data: data})
}
