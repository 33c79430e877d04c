package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/voicebuilder/internal/session"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Config configures the structured inference client.
type Config struct {
	APIKey                string
	BaseURL               string
	Model                 string
	ReasoningEffort       string
	MaxOutputTokens       int // discovery mode budget
	MaxOutputTokensEditor int // editing mode budget
	Timeout               time.Duration
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BaseURL:               defaultBaseURL,
		Model:                 "gpt-5-mini",
		ReasoningEffort:       "minimal",
		MaxOutputTokens:       600,
		MaxOutputTokensEditor: 400,
		Timeout:               60 * time.Second,
	}
}

// Client calls the hosted model's structured-output endpoint. It is
// stateless: each call is a pure function of transcript, utterance, and mode
// plus the outbound network request.
type Client struct {
	cfg    *Config
	apiKey string
	client *http.Client
	logger zerolog.Logger
}

// NewClient creates a structured inference client.
func NewClient(logger zerolog.Logger, cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	return &Client{
		cfg:    cfg,
		apiKey: apiKey,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "chat-client").Logger(),
	}
}

// Available reports whether an API key is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// Discover runs one discovery-mode inference: transcript plus the new
// utterance in, a validated DiscoveryResponse out. Malformed content is
// repaired or replaced with the neutral fallback; only upstream API failures
// return an error.
func (c *Client) Discover(ctx context.Context, history []session.Turn, utterance string) (*DiscoveryResponse, error) {
	raw, err := c.respond(ctx, discoverySystemPrompt, "TalResponse", discoverySchema, history, utterance, c.cfg.MaxOutputTokens)
	if err != nil {
		return nil, err
	}

	var resp DiscoveryResponse
	if err := c.decode(raw, discoveryRequired, &resp); err != nil {
		c.logger.Warn().Err(err).Msg("Discovery output failed validation, using fallback response")
		return FallbackDiscovery(), nil
	}
	return &resp, nil
}

// Edit runs one editing-mode inference. Same failure contract as Discover.
func (c *Client) Edit(ctx context.Context, history []session.Turn, utterance string) (*EditingResponse, error) {
	raw, err := c.respond(ctx, editorSystemPrompt, "TalEditorResponse", editingSchema, history, utterance, c.cfg.MaxOutputTokensEditor)
	if err != nil {
		return nil, err
	}

	var resp EditingResponse
	if err := c.decode(raw, editingRequired, &resp); err != nil {
		c.logger.Warn().Err(err).Msg("Editor output failed validation, using fallback response")
		return FallbackEditing(), nil
	}
	return &resp, nil
}

// decode parses raw model output into v, trying one repair pass when the
// text is not valid JSON, then applying strict field and bounds validation.
func (c *Client) decode(raw string, required []string, v interface{ Validate() error }) error {
	text := raw
	if !json.Valid([]byte(text)) {
		text = RepairJSON(text)
		c.logger.Debug().Int("rawLen", len(raw)).Msg("Model output was not valid JSON, attempted repair")
	}
	if err := decodeStrict([]byte(text), required, v); err != nil {
		return err
	}
	return v.Validate()
}

// Wire types for the hosted model's responses endpoint.

type responsesRequest struct {
	Model           string      `json:"model"`
	Stream          bool        `json:"stream"`
	MaxOutputTokens int         `json:"max_output_tokens"`
	Reasoning       *reasoning  `json:"reasoning,omitempty"`
	Input           []inputItem `json:"input"`
	Text            textFormat  `json:"text"`
}

type reasoning struct {
	Effort string `json:"effort"`
}

type inputItem struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type textFormat struct {
	Format schemaFormat `json:"format"`
}

type schemaFormat struct {
	Type   string          `json:"type"`
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
	Strict bool            `json:"strict"`
}

type responsesEnvelope struct {
	Error  *apiErrorBody `json:"error"`
	Output []outputItem  `json:"output"`
}

type apiErrorBody struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type outputItem struct {
	Type    string          `json:"type"`
	Content []outputContent `json:"content"`
}

type outputContent struct {
	Type string          `json:"type"`
	Text string          `json:"text"`
	JSON json.RawMessage `json:"json"`
}

// respond performs the network call and returns the model's raw structured
// output as text. API-level failures come back as typed *APIError values.
func (c *Client) respond(ctx context.Context, systemPrompt, schemaName string, schema json.RawMessage, history []session.Turn, utterance string, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", &APIError{Kind: ErrKindAuth, Message: "API key not configured"}
	}

	input := make([]inputItem, 0, len(history)+2)
	input = append(input, inputItem{
		Role:    "system",
		Content: []contentPart{{Type: "input_text", Text: systemPrompt}},
	})
	for _, turn := range history {
		partType := "input_text"
		if turn.Role == session.RoleAssistant {
			partType = "output_text"
		}
		input = append(input, inputItem{
			Role:    string(turn.Role),
			Content: []contentPart{{Type: partType, Text: turn.Content}},
		})
	}
	input = append(input, inputItem{
		Role:    "user",
		Content: []contentPart{{Type: "input_text", Text: utterance}},
	})

	reqBody := responsesRequest{
		Model:           c.cfg.Model,
		Stream:          false,
		MaxOutputTokens: maxTokens,
		Reasoning:       &reasoning{Effort: c.cfg.ReasoningEffort},
		Input:           input,
		Text: textFormat{
			Format: schemaFormat{
				Type:   "json_schema",
				Name:   schemaName,
				Schema: schema,
				Strict: true,
			},
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/responses", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		// Transport timeouts are indistinguishable from network failures to
		// the caller and are classified the same way.
		return "", NewTransportError("responses request", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", NewTransportError("read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, errorMessage(body))
	}

	var envelope responsesEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", classifyStatus(resp.StatusCode, fmt.Sprintf("undecodable response envelope: %v", err))
	}
	if envelope.Error != nil {
		return "", classifyStatus(resp.StatusCode, envelope.Error.Message)
	}

	raw, ok := extractOutput(envelope.Output)
	if !ok {
		return "", &APIError{Kind: ErrKindUpstream, Status: resp.StatusCode, Message: "no message output in response"}
	}

	c.logger.Debug().
		Dur("latency", time.Since(start)).
		Int("outputLen", len(raw)).
		Msg("Structured inference complete")

	return raw, nil
}

// extractOutput pulls the structured output from the response: a parsed
// output_json part when present, otherwise the output_text to be parsed
// (and possibly repaired) locally.
func extractOutput(output []outputItem) (string, bool) {
	for _, item := range output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_json" && len(part.JSON) > 0 {
				return string(part.JSON), true
			}
		}
		for _, part := range item.Content {
			if part.Type == "output_text" && part.Text != "" {
				return part.Text, true
			}
		}
	}
	return "", false
}

func errorMessage(body []byte) string {
	var envelope responsesEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error.Message
	}
	const maxBody = 200
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	return string(body)
}
