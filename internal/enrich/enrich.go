// Package enrich augments qualified leads with liveness, contact, and
// scoring signals. Enrichment steps degrade independently: a failed probe or
// missing source attribution never drops a lead.
package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prospectml/leadscout/internal/config"
	"github.com/prospectml/leadscout/internal/model"
)

// LiveProber reports whether a website answers HTTP requests.
type LiveProber interface {
	IsLive(ctx context.Context, url string) bool
}

// Enricher runs the per-lead enrichment steps with bounded concurrency.
type Enricher struct {
	prober      LiveProber
	scoring     ScoringConfig
	concurrency int
}

// Option customizes an Enricher.
type Option func(*Enricher)

// WithProber replaces the default website prober.
func WithProber(p LiveProber) Option {
	return func(e *Enricher) { e.prober = p }
}

// New creates an Enricher from config. A scoring weight file is loaded when
// configured; zero-valued fields fall back to defaults.
func New(cfg config.EnrichConfig, opts ...Option) (*Enricher, error) {
	scoring := DefaultScoringConfig()
	if cfg.ScoringPath != "" {
		loaded, err := LoadScoringConfig(cfg.ScoringPath)
		if err != nil {
			return nil, err
		}
		scoring = *loaded
	}
	if err := scoring.Validate(); err != nil {
		return nil, err
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}

	e := &Enricher{
		prober:      NewProber(time.Duration(cfg.ProbeTimeoutSecs) * time.Second),
		scoring:     scoring,
		concurrency: concurrency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// EnrichAll enriches every lead concurrently and returns them in input
// order, so ranking ties preserve qualification order.
func (e *Enricher) EnrichAll(ctx context.Context, leads []model.QualifiedLead, req *model.DiscoveryRequest, tiers *TierIndex) []model.EnrichedLead {
	if tiers == nil {
		tiers = BuildTierIndex(nil)
	}
	results := make([]model.EnrichedLead, len(leads))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, lead := range leads {
		g.Go(func() error {
			results[i] = e.enrichOne(gctx, lead, req, tiers)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (e *Enricher) enrichOne(ctx context.Context, lead model.QualifiedLead, req *model.DiscoveryRequest, tiers *TierIndex) model.EnrichedLead {
	enriched := model.EnrichedLead{
		QualifiedLead: lead,
		Phone:         phoneUnavailable,
		SourceTier:    1,
	}

	enriched.IsWebsiteLive = e.prober.IsLive(ctx, lead.Website)
	enriched.Email = InferEmail(lead.Website)

	if hit, ok := tiers.Match(lead); ok {
		enriched.SourceTier = hit.Tier
		enriched.PremiumInsight = PremiumInsight(hit)
	}

	enriched.PersonaMatchScore = e.scoring.PersonaMatch(lead, req)
	enriched.QualityScore = e.scoring.Quality(lead, enriched.IsWebsiteLive, enriched.PersonaMatchScore)

	zap.L().Debug("enrich: lead enriched",
		zap.String("company", lead.CompanyName),
		zap.Bool("live", enriched.IsWebsiteLive),
		zap.Float64("persona_match", enriched.PersonaMatchScore),
		zap.String("quality", string(enriched.QualityScore)),
		zap.Int("source_tier", enriched.SourceTier),
	)
	return enriched
}
