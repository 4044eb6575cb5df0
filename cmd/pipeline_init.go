package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/prospectml/leadscout/internal/enrich"
	"github.com/prospectml/leadscout/internal/jobs"
	"github.com/prospectml/leadscout/internal/pipeline"
	"github.com/prospectml/leadscout/internal/reasoner"
	"github.com/prospectml/leadscout/internal/resilience"
	"github.com/prospectml/leadscout/internal/search"
	"github.com/prospectml/leadscout/internal/store"
	"github.com/prospectml/leadscout/pkg/customsearch"
)

// pipelineEnv holds the initialized store, pipeline, and background runner
// needed by the serve command.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	Runner   *jobs.Runner
}

// Close drains in-flight background jobs, then releases the store.
func (pe *pipelineEnv) Close() {
	if pe.Runner != nil {
		pe.Runner.Close()
	}
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

// initPipeline validates server config, sets up the store, and builds the
// pipeline plus its background runner. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if err := cfg.Validate("serve"); err != nil {
		return nil, err
	}

	p, err := buildPipeline(ctx)
	if err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	return &pipelineEnv{
		Store:    st,
		Pipeline: p,
		Runner:   jobs.NewRunner(st, p),
	}, nil
}

// buildPipeline wires the search, qualification, and enrichment stages from
// config. It needs no store, so one-shot discovery runs stay database-free.
// Search and reasoner credentials are deliberately not checked here; their
// absence surfaces per request as a configuration error.
func buildPipeline(ctx context.Context) (*pipeline.Pipeline, error) {
	retry := resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.BaseDelayMs, cfg.Retry.MaxDelayMs)

	var searchOpts []customsearch.Option
	if cfg.Search.BaseURL != "" {
		searchOpts = append(searchOpts, customsearch.WithBaseURL(cfg.Search.BaseURL))
	}
	searchClient := customsearch.NewClient(cfg.Search.Key, searchOpts...)
	searcher := search.NewAdapter(searchClient, cfg.Search, retry)
	registry := search.NewRegistry(cfg.Search)

	qualifier, err := reasoner.New(ctx, cfg.Reasoner, retry)
	if err != nil {
		return nil, err
	}

	enricher, err := enrich.New(cfg.Enrich)
	if err != nil {
		return nil, err
	}

	return pipeline.New(searcher, registry, qualifier, enricher, cfg.Pipeline), nil
}
