package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/prospectml/leadscout/internal/config"
	"github.com/prospectml/leadscout/internal/enrich"
	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/search"
)

// State identifies the stage a discovery run is in. Runs advance through
// states in order and end in StateDone or StateFailed.
type State string

const (
	StateValidating     State = "validating"
	StateSearchingTier1 State = "searching_tier1"
	StateSearchingTier2 State = "searching_tier2"
	StateAggregating    State = "aggregating"
	StateQualifying     State = "qualifying"
	StateEnriching      State = "enriching"
	StateRanking        State = "ranking"
	StateTruncating     State = "truncating"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Searcher executes a query against one search source. n caps the number of
// hits returned; n <= 0 uses the adapter default.
type Searcher interface {
	Search(ctx context.Context, src search.Source, query string, n int) ([]model.SearchHit, error)
}

// Qualifier turns a formatted block of search snippets into structured leads.
type Qualifier interface {
	Qualify(ctx context.Context, snippets, role string) ([]model.QualifiedLead, error)
}

// Enricher augments qualified leads with liveness, contact, and scoring data.
type Enricher interface {
	EnrichAll(ctx context.Context, leads []model.QualifiedLead, req *model.DiscoveryRequest, tiers *enrich.TierIndex) []model.EnrichedLead
}

// Pipeline orchestrates a discovery run: search fan-out, aggregation,
// qualification, enrichment, ranking, and truncation.
type Pipeline struct {
	searcher  Searcher
	registry  *search.Registry
	qualifier Qualifier
	enricher  Enricher
	cfg       config.PipelineConfig
}

// New creates a Pipeline with all dependencies.
func New(searcher Searcher, registry *search.Registry, qualifier Qualifier, enricher Enricher, cfg config.PipelineConfig) *Pipeline {
	return &Pipeline{
		searcher:  searcher,
		registry:  registry,
		qualifier: qualifier,
		enricher:  enricher,
		cfg:       cfg,
	}
}

// Run executes the full discovery pipeline for a single request. The request
// is normalized in place. All per-run state is local to the call, so a single
// Pipeline serves concurrent runs.
func (p *Pipeline) Run(ctx context.Context, req *model.DiscoveryRequest, mode model.Mode) ([]model.EnrichedLead, error) {
	if d := p.timeoutFor(mode); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	log := zap.L().With(zap.String("industry", req.Industry), zap.String("mode", string(mode)))

	state := StateValidating
	transition := func(next State) {
		log.Debug("pipeline: transition",
			zap.String("from", string(state)),
			zap.String("to", string(next)),
		)
		state = next
	}

	// ===== Validate =====
	req.Normalize()
	if missing := req.MissingFields(); len(missing) > 0 {
		transition(StateFailed)
		return nil, model.NewValidationError(missing)
	}

	// ===== Tier 1: baseline search =====
	// The baseline source is guaranteed: if it fails, the run fails.
	transition(StateSearchingTier1)
	baselineHits, err := p.searcher.Search(ctx, p.registry.Baseline(), TierOneQuery(req), 0)
	if err != nil {
		transition(StateFailed)
		return nil, eris.Wrap(err, "pipeline: baseline search")
	}

	// ===== Tier 2: specialized searches =====
	var tierTwoHits []model.SearchHit
	if req.HasPremiumFacets() {
		transition(StateSearchingTier2)
		tierTwoHits = p.searchTierTwo(ctx, req, log)
	}

	// ===== Aggregate =====
	transition(StateAggregating)
	hits := Merge(baselineHits, tierTwoHits)
	if len(hits) == 0 {
		transition(StateDone)
		log.Info("pipeline: no search results")
		return []model.EnrichedLead{}, nil
	}

	// ===== Qualify =====
	transition(StateQualifying)
	qualified, err := p.qualifier.Qualify(ctx, FormatSnippets(hits), RoleInstruction(req))
	if err != nil {
		transition(StateFailed)
		return nil, eris.Wrap(err, "pipeline: qualification")
	}
	if len(qualified) == 0 {
		transition(StateDone)
		log.Info("pipeline: no leads qualified", zap.Int("hits", len(hits)))
		return []model.EnrichedLead{}, nil
	}

	// ===== Enrich =====
	transition(StateEnriching)
	enriched := p.enricher.EnrichAll(ctx, qualified, req, enrich.BuildTierIndex(hits))

	// ===== Rank and truncate =====
	transition(StateRanking)
	ranked := Rank(enriched)

	transition(StateTruncating)
	if limit := p.batchFor(mode); len(ranked) > limit {
		ranked = ranked[:limit]
	}

	transition(StateDone)
	log.Info("pipeline: discovery complete",
		zap.Int("hits", len(hits)),
		zap.Int("qualified", len(qualified)),
		zap.Int("returned", len(ranked)),
	)
	return ranked, nil
}

// searchTierTwo fans the specialized sources out concurrently. Sources fail
// independently: an error drops that source's hits and the run continues
// with whatever the others returned.
func (p *Pipeline) searchTierTwo(ctx context.Context, req *model.DiscoveryRequest, log *zap.Logger) []model.SearchHit {
	sources := p.registry.TierTwo()
	results := make([][]model.SearchHit, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			hits, searchErr := p.searcher.Search(gctx, src, TierTwoQuery(src.ID, req), 0)
			if searchErr != nil {
				log.Warn("pipeline: specialized search failed",
					zap.String("source", src.ID),
					zap.Error(searchErr),
				)
				return nil
			}
			results[i] = hits
			return nil
		})
	}
	// Goroutines never return errors. Hits are slotted by source index so the
	// merge order stays deterministic regardless of completion order.
	_ = g.Wait()

	var merged []model.SearchHit
	for _, hits := range results {
		merged = append(merged, hits...)
	}
	return merged
}

func (p *Pipeline) timeoutFor(mode model.Mode) time.Duration {
	secs := p.cfg.SyncTimeoutSecs
	if mode == model.ModeBackground {
		secs = p.cfg.BackgroundTimeoutSecs
	}
	return time.Duration(secs) * time.Second
}

func (p *Pipeline) batchFor(mode model.Mode) int {
	if mode == model.ModeBackground {
		return p.cfg.BackgroundBatchSize
	}
	return p.cfg.SyncBatchSize
}
