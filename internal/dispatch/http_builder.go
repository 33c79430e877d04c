package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/voicebuilder/internal/dialogue"
)

// HTTPBuilderConfig configures the HTTP artifact builder client
type HTTPBuilderConfig struct {
	ServerURL string        // e.g., "http://localhost:8080"
	Timeout   time.Duration // HTTP request timeout
}

// DefaultHTTPBuilderConfig returns sensible defaults
func DefaultHTTPBuilderConfig() *HTTPBuilderConfig {
	return &HTTPBuilderConfig{
		ServerURL: "http://localhost:8080",
		Timeout:   30 * time.Second,
	}
}

// HTTPBuilder delivers commands to the artifact builder service as discrete
// JSON messages.
type HTTPBuilder struct {
	cfg    *HTTPBuilderConfig
	client *http.Client
	logger zerolog.Logger
}

// NewHTTPBuilder creates an HTTP artifact builder client.
func NewHTTPBuilder(cfg *HTTPBuilderConfig, logger zerolog.Logger) *HTTPBuilder {
	if cfg == nil {
		cfg = DefaultHTTPBuilderConfig()
	}
	return &HTTPBuilder{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: logger.With().Str("component", "builder-client").Logger(),
	}
}

// Build sends a finalized build specification to the builder.
func (b *HTTPBuilder) Build(ctx context.Context, cmd dialogue.BuildCommand) error {
	return b.post(ctx, "/v1/builds", cmd)
}

// Edit sends one change instruction for an existing app.
func (b *HTTPBuilder) Edit(ctx context.Context, appID string, cmd dialogue.EditCommand) error {
	return b.post(ctx, "/v1/apps/"+appID+"/edits", cmd)
}

func (b *HTTPBuilder) post(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.ServerURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("builder unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("builder request failed: %d - %s", resp.StatusCode, string(body))
	}

	b.logger.Debug().Str("path", path).Msg("Command delivered")
	return nil
}
