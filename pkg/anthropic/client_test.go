package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func messageBody(texts ...string) map[string]any {
	content := make([]map[string]any, len(texts))
	for i, text := range texts {
		content[i] = map[string]any{"type": "text", "text": text}
	}
	return map[string]any{
		"id":          "msg_local",
		"type":        "message",
		"role":        "assistant",
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": "end_turn",
		"content":     content,
		"usage": map[string]any{
			"input_tokens":                40,
			"output_tokens":               12,
			"cache_creation_input_tokens": 0,
			"cache_read_input_tokens":     0,
		},
	}
}

func localClient(baseURL string) Client {
	return &client{api: sdk.NewClient(
		option.WithAPIKey("local"),
		option.WithBaseURL(baseURL),
	)}
}

func TestComplete_JoinsTextBlocks(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Contains(t, r.URL.Path, "/messages")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageBody("first half", "second half"))
	}))
	defer ts.Close()

	comp, err := localClient(ts.URL).Complete(context.Background(), CompletionRequest{
		Model:       "claude-haiku-4-5-20251001",
		MaxTokens:   512,
		Temperature: 0.2,
		Prompt:      "qualify these",
	})
	require.NoError(t, err)
	assert.Equal(t, "msg_local", comp.ID)
	assert.Equal(t, "first half\nsecond half", comp.Text)
	assert.Equal(t, "end_turn", comp.StopReason)
	assert.Equal(t, int64(40), comp.Usage.Input)
	assert.Equal(t, int64(12), comp.Usage.Output)

	// The single-turn prompt goes out as one user message.
	msgs, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
}

func TestComplete_SendsCacheControl(t *testing.T) {
	var captured map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(messageBody("ok"))
	}))
	defer ts.Close()

	_, err := localClient(ts.URL).Complete(context.Background(), CompletionRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 64,
		System: []SystemBlock{
			{Text: "static instructions", CacheTTL: "5m"},
			{Text: "per-request role"},
		},
		Prompt: "go",
	})
	require.NoError(t, err)

	system, ok := captured["system"].([]any)
	require.True(t, ok)
	require.Len(t, system, 2)

	first := system[0].(map[string]any)
	cc, ok := first["cache_control"].(map[string]any)
	require.True(t, ok, "first block should carry cache_control")
	assert.Equal(t, "5m", cc["ttl"])

	second := system[1].(map[string]any)
	_, hasCC := second["cache_control"]
	assert.False(t, hasCC, "second block must stay uncached")
}

func TestComplete_WrapsAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": "api_error", "message": "boom"},
		})
	}))
	defer ts.Close()

	_, err := localClient(ts.URL).Complete(context.Background(), CompletionRequest{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 64,
		Prompt:    "hi",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anthropic: complete")
}

func TestNew_ImplementsClient(t *testing.T) {
	var _ Client = New("key")
}

func TestUsageCost(t *testing.T) {
	tests := []struct {
		name  string
		usage Usage
		model string
		want  float64
	}{
		{
			name:  "haiku input and output",
			usage: Usage{Input: 1_000_000, Output: 1_000_000},
			model: "claude-haiku-4-5-20251001",
			want:  4.80,
		},
		{
			name:  "sonnet input and output",
			usage: Usage{Input: 1_000_000, Output: 1_000_000},
			model: "claude-sonnet-4-5-20250929",
			want:  18.00,
		},
		{
			name: "cache write and read rates",
			// 0.5M in (0.40) + 0.1M out (0.40) + 0.2M write at 1.25x (0.20)
			// + 0.3M read at 0.1x (0.024)
			usage: Usage{Input: 500_000, Output: 100_000, CacheWrite: 200_000, CacheRead: 300_000},
			model: "claude-haiku-4-5-20251001",
			want:  1.024,
		},
		{
			name:  "unknown model is free",
			usage: Usage{Input: 1_000_000},
			model: "someone-elses-model",
			want:  0,
		},
		{
			name:  "zero usage",
			usage: Usage{},
			model: "claude-haiku-4-5-20251001",
			want:  0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.usage.Cost(tt.model), 0.0001)
		})
	}
}

func TestUsageLog_DoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Usage{Input: 10, Output: 5}.Log("claude-haiku-4-5-20251001")
		Usage{}.Log("someone-elses-model")
	})
}
