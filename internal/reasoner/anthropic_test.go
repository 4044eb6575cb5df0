package reasoner

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectml/leadscout/internal/config"
	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/resilience"
	"github.com/prospectml/leadscout/pkg/anthropic"
)

// fakeCompleter records requests and serves canned completions.
type fakeCompleter struct {
	mu   sync.Mutex
	reqs []anthropic.CompletionRequest
	fn   func(call int, req anthropic.CompletionRequest) (*anthropic.Completion, error)
}

func (f *fakeCompleter) Complete(_ context.Context, req anthropic.CompletionRequest) (*anthropic.Completion, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	call := len(f.reqs)
	f.mu.Unlock()
	return f.fn(call, req)
}

func (f *fakeCompleter) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reqs)
}

func textCompletion(text string) *anthropic.Completion {
	return &anthropic.Completion{
		ID:         "msg_test",
		Model:      "claude-haiku-4-5-20251001",
		StopReason: "end_turn",
		Text:       text,
		Usage:      anthropic.Usage{Input: 100, Output: 50},
	}
}

func anthropicConfig() config.ReasonerConfig {
	return config.ReasonerConfig{
		Provider: "anthropic",
		Anthropic: config.AnthropicConfig{
			Key:       "test-key",
			Model:     "claude-haiku-4-5-20251001",
			MaxTokens: 2048,
		},
	}
}

func fastRetry(attempts int) resilience.RetryConfig {
	return resilience.RetryConfig{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestAnthropic_MissingKeyReportsConfiguration(t *testing.T) {
	cfg := anthropicConfig()
	cfg.Anthropic.Key = ""

	a := NewAnthropic(cfg, fastRetry(1))
	_, err := a.Qualify(context.Background(), "[1] snippet", "role")
	require.Error(t, err)

	var cerr *model.ConfigurationError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "reasoner.anthropic.key", cerr.Credential)
}

func TestAnthropic_QualifyParsesLeads(t *testing.T) {
	fake := &fakeCompleter{
		fn: func(_ int, _ anthropic.CompletionRequest) (*anthropic.Completion, error) {
			return textCompletion("[" + validRecord + "]"), nil
		},
	}
	a := NewAnthropic(anthropicConfig(), fastRetry(1)).WithClient(fake)

	leads, err := a.Qualify(context.Background(), "[1] Apex Plumbing", "Target companies needing a fractional CFO.")
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Apex Plumbing", leads[0].CompanyName)

	require.Equal(t, 1, fake.calls())
	req := fake.reqs[0]
	assert.Equal(t, "claude-haiku-4-5-20251001", req.Model)
	assert.Equal(t, int64(2048), req.MaxTokens)
	assert.InDelta(t, 0.2, req.Temperature, 0.001)
	assert.Equal(t, "[1] Apex Plumbing", req.Prompt)

	// Static instructions ride cached; the role instruction follows uncached.
	require.Len(t, req.System, 2)
	assert.Equal(t, qualificationInstructions, req.System[0].Text)
	assert.Equal(t, "5m", req.System[0].CacheTTL)
	assert.Equal(t, "Target companies needing a fractional CFO.", req.System[1].Text)
	assert.Empty(t, req.System[1].CacheTTL)
}

func TestAnthropic_RetriesTransientErrors(t *testing.T) {
	fake := &fakeCompleter{
		fn: func(call int, _ anthropic.CompletionRequest) (*anthropic.Completion, error) {
			if call < 3 {
				return nil, resilience.HTTPStatusError(503, "overloaded")
			}
			return textCompletion("[" + validRecord + "]"), nil
		},
	}
	a := NewAnthropic(anthropicConfig(), fastRetry(3)).WithClient(fake)

	leads, err := a.Qualify(context.Background(), "snippets", "role")
	require.NoError(t, err)
	assert.Len(t, leads, 1)
	assert.Equal(t, 3, fake.calls())
}

func TestAnthropic_ClientErrorFailsFast(t *testing.T) {
	fake := &fakeCompleter{
		fn: func(_ int, _ anthropic.CompletionRequest) (*anthropic.Completion, error) {
			return nil, resilience.HTTPStatusError(400, "invalid request")
		},
	}
	a := NewAnthropic(anthropicConfig(), fastRetry(3)).WithClient(fake)

	_, err := a.Qualify(context.Background(), "snippets", "role")
	require.Error(t, err)
	assert.Equal(t, 1, fake.calls())
	assert.Contains(t, err.Error(), "anthropic qualification")
}

func TestAnthropic_ExhaustedRetriesPropagate(t *testing.T) {
	fake := &fakeCompleter{
		fn: func(_ int, _ anthropic.CompletionRequest) (*anthropic.Completion, error) {
			return nil, resilience.HTTPStatusError(429, "rate limited")
		},
	}
	a := NewAnthropic(anthropicConfig(), fastRetry(3)).WithClient(fake)

	_, err := a.Qualify(context.Background(), "snippets", "role")
	require.Error(t, err)
	assert.Equal(t, 3, fake.calls())
	assert.True(t, resilience.IsTransient(err))
}

func TestAnthropic_UnparseableResponseYieldsZeroLeads(t *testing.T) {
	fake := &fakeCompleter{
		fn: func(_ int, _ anthropic.CompletionRequest) (*anthropic.Completion, error) {
			return textCompletion("No qualified companies were found in these results."), nil
		},
	}
	a := NewAnthropic(anthropicConfig(), fastRetry(1)).WithClient(fake)

	leads, err := a.Qualify(context.Background(), "snippets", "role")
	require.NoError(t, err)
	assert.Empty(t, leads)
}
