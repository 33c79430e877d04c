package stt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	deepgramWSEndpoint = "wss://api.deepgram.com/v1/listen"
	deepgramModel      = "nova-2"
	keepAliveInterval  = 8 * time.Second
)

// DeepgramConfig configures the streaming capture provider
type DeepgramConfig struct {
	APIKey         string `json:"api_key"`
	Endpoint       string `json:"endpoint"` // defaults to the hosted listen endpoint
	Model          string `json:"model"`
	Language       string `json:"language"`
	SampleRate     int    `json:"sample_rate"`
	Encoding       string `json:"encoding"`
	Channels       int    `json:"channels"`
	InterimResults bool   `json:"interim_results"`
	Punctuate      bool   `json:"punctuate"`
}

// DefaultDeepgramConfig returns sensible defaults
func DefaultDeepgramConfig() *DeepgramConfig {
	return &DeepgramConfig{
		Model:          deepgramModel,
		Language:       "en-US",
		SampleRate:     16000,
		Encoding:       "linear16",
		Channels:       1,
		InterimResults: true,
		Punctuate:      true,
	}
}

// DeepgramProvider streams microphone audio to Deepgram over a WebSocket and
// delivers finalized utterances to the Sink. Audio is fed in from the
// capture front end via SendAudio.
type DeepgramProvider struct {
	apiKey string
	logger zerolog.Logger
	config *DeepgramConfig
	sink   Sink
	filter *Filter

	mu      sync.Mutex
	conn    *websocket.Conn
	cancel  context.CancelFunc
	audioCh chan []byte
	active  bool

	// Finalized segments accumulate until Deepgram signals end of speech.
	segments []string
}

// NewDeepgramProvider creates a streaming capture provider. filter may be nil
// to deliver raw transcripts.
func NewDeepgramProvider(logger zerolog.Logger, config *DeepgramConfig, sink Sink, filter *Filter) *DeepgramProvider {
	defaults := DefaultDeepgramConfig()
	if config == nil {
		config = defaults
	}
	if config.Model == "" {
		config.Model = defaults.Model
	}
	if config.Language == "" {
		config.Language = defaults.Language
	}
	if config.SampleRate == 0 {
		config.SampleRate = defaults.SampleRate
	}
	if config.Encoding == "" {
		config.Encoding = defaults.Encoding
	}
	if config.Channels == 0 {
		config.Channels = defaults.Channels
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("DEEPGRAM_API_KEY")
	}

	return &DeepgramProvider{
		apiKey: apiKey,
		logger: logger.With().Str("provider", "deepgram").Logger(),
		config: config,
		sink:   sink,
		filter: filter,
	}
}

func (p *DeepgramProvider) Name() string {
	return "deepgram"
}

// Available reports whether an API key is configured.
func (p *DeepgramProvider) Available() bool {
	return p.apiKey != ""
}

type deepgramResult struct {
	Type        string `json:"type"`
	IsFinal     bool   `json:"is_final"`
	SpeechFinal bool   `json:"speech_final"`
	Channel     struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// Start connects to Deepgram and begins streaming.
func (p *DeepgramProvider) Start(ctx context.Context) error {
	if p.apiKey == "" {
		return ErrProviderUnavailable
	}

	p.mu.Lock()
	if p.active {
		p.mu.Unlock()
		return ErrAlreadyCapturing
	}

	endpoint := p.config.Endpoint
	if endpoint == "" {
		endpoint = deepgramWSEndpoint
	}
	url := fmt.Sprintf("%s?model=%s&language=%s&sample_rate=%d&encoding=%s&channels=%d&interim_results=%t&punctuate=%t",
		endpoint, p.config.Model, p.config.Language, p.config.SampleRate,
		p.config.Encoding, p.config.Channels, p.config.InterimResults, p.config.Punctuate)

	header := http.Header{}
	header.Set("Authorization", "Token "+p.apiKey)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("deepgram connect: %w", err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	p.conn = conn
	p.cancel = cancel
	p.audioCh = make(chan []byte, 100)
	p.segments = nil
	p.active = true
	p.mu.Unlock()

	go p.readLoop(streamCtx, conn)
	go p.writeLoop(streamCtx, conn, p.audioCh)

	p.logger.Info().Str("model", p.config.Model).Msg("Deepgram capture started")
	return nil
}

// Stop ends the active capture. Pending partial speech is discarded.
func (p *DeepgramProvider) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return
	}
	p.active = false
	p.cancel()
	p.conn.Close()
	p.conn = nil
	p.segments = nil
	p.logger.Info().Msg("Deepgram capture stopped")
}

// SendAudio queues one PCM chunk for streaming. Chunks are dropped when the
// outbound queue is full rather than blocking the audio callback.
func (p *DeepgramProvider) SendAudio(chunk []byte) {
	p.mu.Lock()
	ch := p.audioCh
	active := p.active
	p.mu.Unlock()

	if !active || ch == nil {
		return
	}
	select {
	case ch <- chunk:
	default:
		p.logger.Warn().Msg("Audio queue full, dropping chunk")
	}
}

func (p *DeepgramProvider) writeLoop(ctx context.Context, conn *websocket.Conn, audioCh <-chan []byte) {
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case chunk := <-audioCh:
			if err := conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				p.reportError(ctx, err)
				return
			}
		case <-keepAlive.C:
			if err := conn.WriteJSON(map[string]string{"type": "KeepAlive"}); err != nil {
				p.reportError(ctx, err)
				return
			}
		}
	}
}

func (p *DeepgramProvider) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			p.reportError(ctx, err)
			return
		}

		var result deepgramResult
		if err := json.Unmarshal(data, &result); err != nil {
			p.logger.Debug().Err(err).Msg("Undecodable Deepgram message")
			continue
		}
		if result.Type != "Results" || len(result.Channel.Alternatives) == 0 {
			continue
		}

		transcript := result.Channel.Alternatives[0].Transcript
		if result.IsFinal && transcript != "" {
			p.mu.Lock()
			p.segments = append(p.segments, transcript)
			p.mu.Unlock()
		}
		if result.SpeechFinal {
			p.flush()
		}
	}
}

// flush assembles the finalized segments into one utterance and delivers it.
func (p *DeepgramProvider) flush() {
	p.mu.Lock()
	text := strings.TrimSpace(strings.Join(p.segments, " "))
	p.segments = nil
	p.mu.Unlock()

	if text == "" {
		p.sink.OnCaptureError(ErrorNoSpeech, nil)
		return
	}
	if p.filter != nil {
		cleaned, ok := p.filter.Clean(text)
		if !ok {
			p.sink.OnCaptureError(ErrorNoSpeech, nil)
			return
		}
		text = cleaned
	}

	p.logger.Info().Str("text", text).Msg("Utterance captured")
	p.sink.OnUtterance(text)
}

// reportError surfaces stream failures unless the capture was stopped
// deliberately.
func (p *DeepgramProvider) reportError(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}

	p.mu.Lock()
	wasActive := p.active
	p.active = false
	if p.cancel != nil {
		p.cancel()
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.mu.Unlock()

	if wasActive {
		p.logger.Error().Err(err).Msg("Deepgram stream error")
		p.sink.OnCaptureError(ErrorNetwork, err)
	}
}
