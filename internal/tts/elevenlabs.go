package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
)

const (
	ElevenLabsAPIEndpoint  = "https://api.elevenlabs.io/v1"
	ElevenLabsDefaultVoice = "yj30vwTGJxSHezdAGsv9" // Jessa - bright, expressive female
)

// Named voices selectable from config without knowing ElevenLabs IDs.
var elevenLabsVoices = map[string]string{
	"jessa":   "yj30vwTGJxSHezdAGsv9", // bright, expressive
	"dorothy": "ThT5KcBeYPX3keUQqHPh", // British, bubbly, warm
	"bella":   "EXAVITQu4vr4xnSDxMaL", // American, soft
	"rachel":  "21m00Tcm4TlvDq8ikWAM", // natural, warm
	"drew":    "29vD33N1CtxCmqQRPOHJ", // professional, clear
	"clyde":   "2EiwWnXFnvU5JabPnv8n", // warm, friendly
	"domi":    "AZnzlk1XvdvUeBnXmlld", // strong, confident
	"dave":    "CYw3kZ02Hs0563khs1Fj", // conversational
	"fin":     "D38z5RcWu1voky8WS1ja", // pleasant, clear
	"sarah":   "EXAVITQu4vr4xnSDxMaL", // friendly, engaging
	"antoni":  "ErXwobaYiN019PkySvjV", // well-rounded
	"thomas":  "GBv7mTt0atIp3Br8iCZE", // calm, authoritative
	"charlie": "IKne3meq5aSn9XLyUdCD", // natural, friendly
	"emily":   "LcfcDJNUP1GQjkzn1xUU", // calm, pleasant
	"elli":    "MF3mGyEYCl7XYWbV9V6O", // emotional range
	"callum":  "N2lVS1w4EtoT3dr4eOWO", // hoarse, intense
	"patrick": "ODq5zmih8GrVes37Dizd", // pleasant, clear
	"harry":   "SOYHLrjzK2X1ezoPC6cr", // young, energetic
	"liam":    "TX3LPaxmHKxFdv7VOQHJ", // clear, friendly
}

type ElevenLabsConfig struct {
	APIKey       string  `json:"api_key"`
	DefaultVoice string  `json:"default_voice"`
	ModelID      string  `json:"model_id"`
	Stability    float64 `json:"stability"`
	Similarity   float64 `json:"similarity_boost"`
	Style        float64 `json:"style"`
	SpeakerBoost bool    `json:"use_speaker_boost"`
}

// DefaultElevenLabsConfig returns settings tuned for an upbeat, expressive
// delivery. Low stability keeps the voice varied, high style keeps it
// enthusiastic.
func DefaultElevenLabsConfig() *ElevenLabsConfig {
	return &ElevenLabsConfig{
		DefaultVoice: "jessa",
		ModelID:      "eleven_turbo_v2_5",
		Stability:    0.3,
		Similarity:   0.75,
		Style:        0.85,
		SpeakerBoost: true,
	}
}

type ElevenLabsProvider struct {
	apiKey string
	logger zerolog.Logger
	config *ElevenLabsConfig
	client *http.Client
}

func NewElevenLabsProvider(logger zerolog.Logger, config *ElevenLabsConfig) *ElevenLabsProvider {
	if config == nil {
		config = DefaultElevenLabsConfig()
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ELEVENLABS_API_KEY")
	}

	return &ElevenLabsProvider{
		apiKey: apiKey,
		logger: logger.With().Str("provider", "elevenlabs-tts").Logger(),
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *ElevenLabsProvider) Name() string {
	return "elevenlabs"
}

func (p *ElevenLabsProvider) Available() bool {
	return p.apiKey != ""
}

// ResolveVoice maps a voice name to its ElevenLabs ID. Raw IDs (20
// alphanumeric characters) pass through untouched; unknown names fall back
// to the configured default.
func (p *ElevenLabsProvider) ResolveVoice(voice string) string {
	if voice == "" {
		voice = p.config.DefaultVoice
	}
	if isVoiceID(voice) {
		return voice
	}
	if id, ok := elevenLabsVoices[normalizeVoiceName(voice)]; ok {
		return id
	}
	if id, ok := elevenLabsVoices[p.config.DefaultVoice]; ok {
		return id
	}
	return ElevenLabsDefaultVoice
}

func isVoiceID(s string) bool {
	if len(s) != 20 {
		return false
	}
	for _, c := range s {
		if !('a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9') {
			return false
		}
	}
	return true
}

func normalizeVoiceName(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

func (p *ElevenLabsProvider) Synthesize(ctx context.Context, req *SynthesizeRequest) (*SynthesizeResponse, error) {
	if !p.Available() {
		return nil, ErrProviderUnavailable
	}

	startTime := time.Now()

	voiceID := p.ResolveVoice(req.Voice)
	modelID := req.Model
	if modelID == "" {
		modelID = p.config.ModelID
	}

	payload := map[string]any{
		"text":     req.Text,
		"model_id": modelID,
		"voice_settings": map[string]any{
			"stability":         p.config.Stability,
			"similarity_boost":  p.config.Similarity,
			"style":             p.config.Style,
			"use_speaker_boost": p.config.SpeakerBoost,
		},
		"output_format": "mp3_44100_128",
		"language_code": "en",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/text-to-speech/%s", ElevenLabsAPIEndpoint, voiceID)
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("xi-api-key", p.apiKey)
	httpReq.Header.Set("Accept", "audio/mpeg")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &SynthesisError{
			Status:  classifyMessage(string(body)),
			Message: fmt.Sprintf("ElevenLabs API error %d: %s", resp.StatusCode, string(body)),
		}
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}

	processingTime := time.Since(startTime)

	p.logger.Info().
		Str("voice", voiceID).
		Str("model", modelID).
		Int("audioBytes", len(audioData)).
		Dur("processingTime", processingTime).
		Msg("ElevenLabs synthesis complete")

	return &SynthesizeResponse{
		Audio:          audioData,
		Format:         "mp3",
		ProcessingTime: processingTime,
		VoiceID:        voiceID,
		Provider:       p.Name(),
	}, nil
}
