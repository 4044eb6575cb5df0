package reasoner

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/prospectml/leadscout/internal/config"
	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/resilience"
	"github.com/prospectml/leadscout/pkg/anthropic"
)

// Anthropic qualifies leads through the Messages API. The static
// qualification instructions ride in a cached system block; the per-request
// role instruction follows uncached.
type Anthropic struct {
	client  anthropic.Client
	cfg     config.ReasonerConfig
	retry   resilience.RetryConfig
	timeout time.Duration
}

// NewAnthropic creates the Anthropic provider. With no API key configured
// the provider still constructs; Qualify then reports the missing credential.
func NewAnthropic(cfg config.ReasonerConfig, retry resilience.RetryConfig) *Anthropic {
	a := &Anthropic{cfg: cfg, retry: retry, timeout: timeoutFrom(cfg)}
	if cfg.Anthropic.Key != "" {
		a.client = anthropic.New(cfg.Anthropic.Key)
	}
	return a
}

// WithClient swaps the underlying client. Used by tests.
func (a *Anthropic) WithClient(c anthropic.Client) *Anthropic {
	a.client = c
	return a
}

// Qualify sends the snippets with the role instruction and parses the JSON
// array response into leads.
func (a *Anthropic) Qualify(ctx context.Context, snippets, role string) ([]model.QualifiedLead, error) {
	if a.client == nil {
		return nil, model.NewConfigurationError("reasoner.anthropic.key")
	}

	req := anthropic.CompletionRequest{
		Model:       a.cfg.Anthropic.Model,
		MaxTokens:   int64(a.cfg.Anthropic.MaxTokens),
		Temperature: 0.2,
		System: []anthropic.SystemBlock{
			{Text: qualificationInstructions, CacheTTL: "5m"},
			{Text: role},
		},
		Prompt: snippets,
	}

	retryCfg := a.retry
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "qualify")

	comp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.Completion, error) {
		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()
		return a.client.Complete(callCtx, req)
	})
	if err != nil {
		return nil, eris.Wrap(err, "reasoner: anthropic qualification")
	}

	comp.Usage.Log(a.cfg.Anthropic.Model)

	leads := ParseLeads(comp.Text)
	zap.L().Info("reasoner: qualification complete",
		zap.String("provider", "anthropic"),
		zap.String("model", a.cfg.Anthropic.Model),
		zap.Int("leads", len(leads)),
	)
	return leads, nil
}
