package voice

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/normanking/voicebuilder/internal/tts"
)

// Speaker turns reply text into audible speech. Speak blocks until playback
// finishes or fails.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Stop()
}

// AudioSink receives synthesized audio for playback. The desktop front end
// plugs its output device in here.
type AudioSink func(audio []byte, format string) error

// SynthSpeaker synthesizes speech through a tts.Provider and hands the audio
// to an AudioSink.
type SynthSpeaker struct {
	provider tts.Provider
	sink     AudioSink
	voice    string
	logger   zerolog.Logger
}

func NewSynthSpeaker(logger zerolog.Logger, provider tts.Provider, sink AudioSink, voice string) *SynthSpeaker {
	return &SynthSpeaker{
		provider: provider,
		sink:     sink,
		voice:    voice,
		logger:   logger.With().Str("component", "speaker").Logger(),
	}
}

func (s *SynthSpeaker) Speak(ctx context.Context, text string) error {
	if text == "" {
		return errors.New("empty speech text")
	}
	if !s.provider.Available() {
		return tts.ErrProviderUnavailable
	}

	resp, err := s.provider.Synthesize(ctx, &tts.SynthesizeRequest{
		Text:  text,
		Voice: s.voice,
	})
	if err != nil {
		return err
	}

	if s.sink == nil {
		s.logger.Debug().Int("audioBytes", len(resp.Audio)).Msg("No audio sink, discarding synthesis")
		return nil
	}
	return s.sink(resp.Audio, resp.Format)
}

func (s *SynthSpeaker) Stop() {}
