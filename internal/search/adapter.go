package search

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/prospectml/leadscout/internal/config"
	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/resilience"
	"github.com/prospectml/leadscout/pkg/customsearch"
)

// Adapter issues one query against one source and normalizes the results.
// A missing credential for a Tier-2 source degrades to an empty result set;
// for the baseline source it is a configuration error, since the pipeline
// has no fallback baseline.
type Adapter struct {
	client     customsearch.Client
	limiter    *rate.Limiter
	retry      resilience.RetryConfig
	apiKey     string
	timeout    time.Duration
	maxResults int
}

// NewAdapter creates an Adapter over the given client.
func NewAdapter(client customsearch.Client, cfg config.SearchConfig, retry resilience.RetryConfig) *Adapter {
	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = 5
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	maxResults := cfg.MaxResults
	if maxResults < 1 || maxResults > customsearch.MaxResultsPerCall {
		maxResults = customsearch.MaxResultsPerCall
	}

	return &Adapter{
		client:     client,
		limiter:    rate.NewLimiter(rate.Limit(rateLimit), 1),
		retry:      retry,
		apiKey:     cfg.Key,
		timeout:    timeout,
		maxResults: maxResults,
	}
}

// Search runs query against src, returning normalized hits stamped with the
// source's tier and type. Tier-2 failures of any kind yield an empty slice
// and a nil error.
func (a *Adapter) Search(ctx context.Context, src Source, query string, n int) ([]model.SearchHit, error) {
	log := zap.L().With(zap.String("source", src.ID), zap.Int("tier", src.Tier))

	if a.apiKey == "" {
		if src.Tier == 1 {
			return nil, model.NewConfigurationError("search.key")
		}
		log.Warn("search credential missing, skipping source")
		return nil, nil
	}
	if src.IndexID == "" {
		if src.Tier == 1 {
			return nil, model.NewConfigurationError("search.baseline_index")
		}
		log.Debug("source index not configured, skipping source")
		return nil, nil
	}

	if n < 1 || n > a.maxResults {
		n = a.maxResults
	}

	retryCfg := a.retry
	retryCfg.OnRetry = resilience.RetryLogger("customsearch", src.ID)

	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*customsearch.SearchResponse, error) {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		callCtx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		resp, err := a.client.Search(callCtx, customsearch.SearchRequest{
			Query:   query,
			IndexID: src.IndexID,
			Num:     n,
		})
		if err != nil {
			return nil, classifyClientError(err)
		}
		return resp, nil
	})
	if err != nil {
		if src.Tier == 1 {
			return nil, eris.Wrap(err, "search: baseline source")
		}
		log.Warn("source failed, degrading to empty", zap.Error(err))
		return nil, nil
	}

	hits := make([]model.SearchHit, 0, len(resp.Items))
	for _, item := range resp.Items {
		hits = append(hits, model.SearchHit{
			Title:      item.Title,
			Snippet:    item.Snippet,
			Link:       item.Link,
			Tier:       src.Tier,
			SourceType: src.Type,
		})
	}

	log.Debug("source search complete", zap.Int("hits", len(hits)))
	return hits, nil
}

// classifyClientError maps provider API errors onto the retry taxonomy:
// 429 and 5xx become transient, other statuses fail fast.
func classifyClientError(err error) error {
	var apiErr *customsearch.APIError
	if errors.As(err, &apiErr) {
		return resilience.HTTPStatusError(apiErr.StatusCode, apiErr.Body)
	}
	return err
}
