// Package reasoner turns aggregated search snippets into structured
// qualified leads through a configured reasoning model. Providers share the
// qualification contract and the strict response parser; only the transport
// differs.
package reasoner

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/prospectml/leadscout/internal/config"
	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/resilience"
)

// qualificationInstructions is the provider-independent system text. The
// role instruction composed per request is appended to it.
const qualificationInstructions = `Evaluate the search results and identify companies that are genuine sales prospects.

Return ONLY a JSON array of lead records, no prose. Each record:
{
  "companyName": string,          // required
  "website": string,              // required, the company's own site
  "qualificationSummary": string, // required, why this company qualifies
  "industry": string,             // required
  "painPoint": string,            // optional, a specific operational pain
  "contactName": string,          // optional
  "location": string              // optional
}

Rules:
- Only include companies that appear in the provided results.
- Skip directories, aggregators, and job boards; they are sources, not leads.
- Leave optional fields out when the results do not support them.
- Return [] when no genuine prospect is present.`

// defaultTimeout bounds a single qualification call when the config does not
// set one.
const defaultTimeout = 20 * time.Second

// Reasoner qualifies aggregated search snippets into structured leads.
type Reasoner interface {
	Qualify(ctx context.Context, snippets, role string) ([]model.QualifiedLead, error)
}

// New builds the provider selected by cfg.Provider. A missing API key does
// not fail construction; the provider reports it per request so the server
// can start without credentials and surface the problem to callers.
func New(ctx context.Context, cfg config.ReasonerConfig, retry resilience.RetryConfig) (Reasoner, error) {
	switch cfg.Provider {
	case "gemini":
		return NewGemini(ctx, cfg, retry)
	case "anthropic":
		return NewAnthropic(cfg, retry), nil
	default:
		return nil, eris.Errorf("reasoner: unknown provider %q", cfg.Provider)
	}
}

func timeoutFrom(cfg config.ReasonerConfig) time.Duration {
	if cfg.TimeoutSecs <= 0 {
		return defaultTimeout
	}
	return time.Duration(cfg.TimeoutSecs) * time.Second
}
