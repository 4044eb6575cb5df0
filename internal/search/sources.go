// Package search executes queries against the configured custom-search
// sources with retry, rate limiting, and partial-failure tolerance.
package search

import (
	"github.com/prospectml/leadscout/internal/config"
	"github.com/prospectml/leadscout/internal/model"
)

// Source identifiers, stable across config and logs.
const (
	SourceBaseline      = "baseline"
	SourcePain          = "pain"
	SourceCompetitor    = "competitor"
	SourceTechFinancial = "techfinancial"
)

// Source binds a source id to its tier, result label, and configured index.
// An empty IndexID means the source is not configured.
type Source struct {
	ID      string
	Tier    int
	Type    model.SourceType
	IndexID string
}

// Registry resolves the configured sources. The baseline source is mandatory
// for every request; the three Tier-2 sources are opportunistic.
type Registry struct {
	baseline Source
	tierTwo  []Source
}

// NewRegistry builds the source registry from search configuration.
func NewRegistry(cfg config.SearchConfig) *Registry {
	return &Registry{
		baseline: Source{
			ID:      SourceBaseline,
			Tier:    1,
			Type:    model.SourceDirectory,
			IndexID: cfg.BaselineIndex,
		},
		tierTwo: []Source{
			{ID: SourcePain, Tier: 2, Type: model.SourcePainReview, IndexID: cfg.PainIndex},
			{ID: SourceCompetitor, Tier: 2, Type: model.SourceCompetitor, IndexID: cfg.CompetitorIndex},
			{ID: SourceTechFinancial, Tier: 2, Type: model.SourceTechFinancial, IndexID: cfg.TechIndex},
		},
	}
}

// Baseline returns the mandatory Tier-1 source.
func (r *Registry) Baseline() Source {
	return r.baseline
}

// TierTwo returns the specialized sources, configured or not; the adapter
// degrades unconfigured ones to empty result sets.
func (r *Registry) TierTwo() []Source {
	out := make([]Source, len(r.tierTwo))
	copy(out, r.tierTwo)
	return out
}
