package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/normanking/voicebuilder/internal/session"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient(zerolog.Nop(), &Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gpt-5-mini",
	})
	return client, server
}

func textEnvelope(text string) string {
	env := map[string]any{
		"output": []map[string]any{
			{
				"type": "message",
				"content": []map[string]any{
					{"type": "output_text", "text": text},
				},
			},
		},
	}
	data, _ := json.Marshal(env)
	return string(data)
}

func TestClient_Discover_HappyPath(t *testing.T) {
	var captured responsesRequest
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Write([]byte(textEnvelope(validDiscoveryJSON())))
	})

	history := []session.Turn{
		{Role: session.RoleUser, Content: "I want a site"},
		{Role: session.RoleAssistant, Content: "Tell me more!"},
	}
	resp, err := client.Discover(context.Background(), history, "a coffee shop")
	require.NoError(t, err)
	assert.Equal(t, "A coffee shop site", resp.Prompt)
	assert.False(t, resp.ReadyToBuild)

	// Request shape: schema-constrained generation is the only path.
	assert.Equal(t, "json_schema", captured.Text.Format.Type)
	assert.True(t, captured.Text.Format.Strict)
	assert.Equal(t, "TalResponse", captured.Text.Format.Name)

	// system + 2 history turns + new utterance
	require.Len(t, captured.Input, 4)
	assert.Equal(t, "system", captured.Input[0].Role)
	assert.Equal(t, "assistant", captured.Input[2].Role)
	assert.Equal(t, "output_text", captured.Input[2].Content[0].Type)
	assert.Equal(t, "a coffee shop", captured.Input[3].Content[0].Text)
}

func TestClient_Discover_TruncatedOutputRepaired(t *testing.T) {
	// Token-budget truncation cut the JSON inside the final string value.
	truncated := `{"prompt":"p","previewInstructions":["a","b","c"],"nextQuestion":"q","readyToBuild":false,"speech":"Hi`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textEnvelope(truncated)))
	})

	resp, err := client.Discover(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hi", resp.Speech)
	assert.Equal(t, "p", resp.Prompt)
}

func TestClient_Discover_IrreparableOutputFallsBack(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textEnvelope("I'd love to help with that!")))
	})

	resp, err := client.Discover(context.Background(), nil, "hello")
	require.NoError(t, err, "malformed content must never abort the conversation")
	assert.Equal(t, FallbackDiscovery(), resp)
}

func TestClient_Discover_BoundsViolationFallsBack(t *testing.T) {
	// Parses fine but has too few preview instructions.
	bad := `{"prompt":"p","previewInstructions":["a"],"nextQuestion":"q","speech":"s","readyToBuild":false}`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textEnvelope(bad)))
	})

	resp, err := client.Discover(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, FallbackDiscovery(), resp)
}

func TestClient_Discover_PrefersOutputJSON(t *testing.T) {
	env := map[string]any{
		"output": []map[string]any{
			{
				"type": "message",
				"content": []map[string]any{
					{"type": "output_json", "json": json.RawMessage(validDiscoveryJSON())},
					{"type": "output_text", "text": "not the answer"},
				},
			},
		},
	}
	data, _ := json.Marshal(env)
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	})

	resp, err := client.Discover(context.Background(), nil, "hello")
	require.NoError(t, err)
	assert.Equal(t, "A coffee shop site", resp.Prompt)
}

func TestClient_Edit_NullWebsiteChange(t *testing.T) {
	raw := `{"websiteChange":null,"speech":"Nope, I can't see your screen!","nextQuestion":""}`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(textEnvelope(raw)))
	})

	resp, err := client.Edit(context.Background(), nil, "can you see my screen")
	require.NoError(t, err)
	assert.Nil(t, resp.WebsiteChange)
	assert.Equal(t, "Nope, I can't see your screen!", resp.Speech)
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"auth", http.StatusUnauthorized, IsAuth},
		{"forbidden", http.StatusForbidden, IsAuth},
		{"quota", http.StatusTooManyRequests, IsQuota},
		{"upstream", http.StatusInternalServerError, func(err error) bool {
			return !IsAuth(err) && !IsQuota(err) && !IsTransport(err)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(`{"error":{"message":"nope"}}`))
			})

			_, err := client.Discover(context.Background(), nil, "hello")
			require.Error(t, err, "API failures must not become fallback responses")
			assert.True(t, tt.check(err), "wrong classification for status %d: %v", tt.status, err)
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	server.Close()

	_, err := client.Discover(context.Background(), nil, "hello")
	require.Error(t, err)
	assert.True(t, IsTransport(err), "expected transport error, got %v", err)
}

func TestClient_EnvelopeError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":{"type":"server_error","message":"overloaded"}}`))
	})

	_, err := client.Discover(context.Background(), nil, "hello")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, ErrKindUpstream, apiErr.Kind)
}

func TestClient_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	client := NewClient(zerolog.Nop(), &Config{})
	assert.False(t, client.Available())

	_, err := client.Discover(context.Background(), nil, "hello")
	assert.True(t, IsAuth(err), "expected auth error, got %v", err)
}
