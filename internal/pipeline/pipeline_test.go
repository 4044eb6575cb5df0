package pipeline

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectml/leadscout/internal/config"
	"github.com/prospectml/leadscout/internal/enrich"
	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/search"
)

type fakeSearcher struct {
	mu  sync.Mutex
	ids []string
	fn  func(src search.Source, query string) ([]model.SearchHit, error)
}

func (f *fakeSearcher) Search(_ context.Context, src search.Source, query string, _ int) ([]model.SearchHit, error) {
	f.mu.Lock()
	f.ids = append(f.ids, src.ID)
	f.mu.Unlock()
	if f.fn != nil {
		return f.fn(src, query)
	}
	return nil, nil
}

func (f *fakeSearcher) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ids...)
}

type fakeQualifier struct {
	calls    int
	snippets string
	role     string
	fn       func() ([]model.QualifiedLead, error)
}

func (f *fakeQualifier) Qualify(_ context.Context, snippets, role string) ([]model.QualifiedLead, error) {
	f.calls++
	f.snippets = snippets
	f.role = role
	if f.fn != nil {
		return f.fn()
	}
	return nil, nil
}

type fakeEnricher struct {
	calls int
	fn    func(leads []model.QualifiedLead) []model.EnrichedLead
}

func (f *fakeEnricher) EnrichAll(_ context.Context, leads []model.QualifiedLead, _ *model.DiscoveryRequest, _ *enrich.TierIndex) []model.EnrichedLead {
	f.calls++
	if f.fn != nil {
		return f.fn(leads)
	}
	out := make([]model.EnrichedLead, len(leads))
	for i, l := range leads {
		out[i] = model.EnrichedLead{QualifiedLead: l, QualityScore: model.QualityMedium}
	}
	return out
}

func testPipeline(s *fakeSearcher, q *fakeQualifier, e *fakeEnricher) *Pipeline {
	registry := search.NewRegistry(config.SearchConfig{
		BaselineIndex:   "base-cx",
		PainIndex:       "pain-cx",
		CompetitorIndex: "comp-cx",
		TechIndex:       "tech-cx",
	})
	return New(s, registry, q, e, config.PipelineConfig{
		SyncBatchSize:         3,
		BackgroundBatchSize:   8,
		SyncTimeoutSecs:       25,
		BackgroundTimeoutSecs: 300,
	})
}

func discoveryRequest() *model.DiscoveryRequest {
	return &model.DiscoveryRequest{
		Industry: "Plumbing",
		Size:     "10-50",
		Location: "Austin, TX",
	}
}

func baselineHit(n string) model.SearchHit {
	return model.SearchHit{Title: n, Snippet: "snippet", Link: "https://" + n + ".com", Tier: 1, SourceType: model.SourceDirectory}
}

func qualifiedLead(n string) model.QualifiedLead {
	return model.QualifiedLead{
		CompanyName:          n,
		Website:              n + ".com",
		QualificationSummary: "summary",
		Industry:             "Plumbing",
	}
}

func TestRun_MissingFieldsRejectedBeforeSearch(t *testing.T) {
	s := &fakeSearcher{}
	q := &fakeQualifier{}
	p := testPipeline(s, q, &fakeEnricher{})

	_, err := p.Run(context.Background(), &model.DiscoveryRequest{Industry: "Plumbing"}, model.ModeSync)
	require.Error(t, err)

	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"size", "location"}, verr.Missing)
	assert.Empty(t, s.calls(), "no search may run for an invalid request")
	assert.Zero(t, q.calls)
}

func TestRun_BaselineOnlyWithoutPremiumFacets(t *testing.T) {
	s := &fakeSearcher{fn: func(src search.Source, _ string) ([]model.SearchHit, error) {
		return []model.SearchHit{baselineHit("apex")}, nil
	}}
	q := &fakeQualifier{fn: func() ([]model.QualifiedLead, error) {
		return []model.QualifiedLead{qualifiedLead("apex")}, nil
	}}
	p := testPipeline(s, q, &fakeEnricher{})

	leads, err := p.Run(context.Background(), discoveryRequest(), model.ModeSync)
	require.NoError(t, err)
	require.Len(t, leads, 1)

	assert.Equal(t, []string{search.SourceBaseline}, s.calls(),
		"no high-intent facet means exactly one search call")
	assert.Equal(t, 1, q.calls)
}

func TestRun_TargetTypeUnlocksTierTwo(t *testing.T) {
	s := &fakeSearcher{}
	q := &fakeQualifier{}
	p := testPipeline(s, q, &fakeEnricher{})

	req := discoveryRequest()
	req.TargetType = "field service software"

	_, err := p.Run(context.Background(), req, model.ModeSync)
	require.NoError(t, err)

	calls := s.calls()
	require.Len(t, calls, 4)
	assert.Equal(t, search.SourceBaseline, calls[0], "baseline runs before the fan-out")
	rest := append([]string(nil), calls[1:]...)
	sort.Strings(rest)
	assert.Equal(t, []string{search.SourceCompetitor, search.SourcePain, search.SourceTechFinancial}, rest)
}

func TestRun_FinancialTermAloneUnlocksTierTwo(t *testing.T) {
	s := &fakeSearcher{}
	p := testPipeline(s, &fakeQualifier{}, &fakeEnricher{})

	req := discoveryRequest()
	req.FinancialTerm = "IT budget"

	_, err := p.Run(context.Background(), req, model.ModeSync)
	require.NoError(t, err)
	assert.Len(t, s.calls(), 4)
}

func TestRun_SearchTermAliasUnlocksTierTwo(t *testing.T) {
	s := &fakeSearcher{}
	p := testPipeline(s, &fakeQualifier{}, &fakeEnricher{})

	req := discoveryRequest()
	req.SearchTerm = "field service software"

	_, err := p.Run(context.Background(), req, model.ModeSync)
	require.NoError(t, err)
	assert.Len(t, s.calls(), 4, "searchTerm is an alias for targetType")
}

func TestRun_BaselineFailureIsFatal(t *testing.T) {
	s := &fakeSearcher{fn: func(src search.Source, _ string) ([]model.SearchHit, error) {
		return nil, eris.New("search backend down")
	}}
	q := &fakeQualifier{}
	p := testPipeline(s, q, &fakeEnricher{})

	_, err := p.Run(context.Background(), discoveryRequest(), model.ModeSync)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "baseline search")
	assert.Zero(t, q.calls, "qualification never runs after a baseline failure")
}

func TestRun_TierTwoFailuresDegrade(t *testing.T) {
	s := &fakeSearcher{fn: func(src search.Source, _ string) ([]model.SearchHit, error) {
		if src.ID == search.SourceBaseline {
			return []model.SearchHit{baselineHit("apex")}, nil
		}
		return nil, eris.New("quota exhausted")
	}}
	q := &fakeQualifier{fn: func() ([]model.QualifiedLead, error) {
		return []model.QualifiedLead{qualifiedLead("apex")}, nil
	}}
	p := testPipeline(s, q, &fakeEnricher{})

	req := discoveryRequest()
	req.TargetType = "field service software"

	leads, err := p.Run(context.Background(), req, model.ModeSync)
	require.NoError(t, err, "specialized source failures never fail the run")
	assert.Len(t, leads, 1)
	assert.Contains(t, q.snippets, "apex", "baseline hits still reach qualification")
}

func TestRun_EmptyMergeShortCircuits(t *testing.T) {
	s := &fakeSearcher{}
	q := &fakeQualifier{}
	e := &fakeEnricher{}
	p := testPipeline(s, q, e)

	leads, err := p.Run(context.Background(), discoveryRequest(), model.ModeSync)
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
	assert.Zero(t, q.calls, "no hits means the model is never called")
	assert.Zero(t, e.calls)
}

func TestRun_QualificationErrorPropagates(t *testing.T) {
	s := &fakeSearcher{fn: func(src search.Source, _ string) ([]model.SearchHit, error) {
		return []model.SearchHit{baselineHit("apex")}, nil
	}}
	q := &fakeQualifier{fn: func() ([]model.QualifiedLead, error) {
		return nil, eris.New("model unavailable")
	}}
	e := &fakeEnricher{}
	p := testPipeline(s, q, e)

	_, err := p.Run(context.Background(), discoveryRequest(), model.ModeSync)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qualification")
	assert.Zero(t, e.calls)
}

func TestRun_ZeroQualifiedLeadsShortCircuits(t *testing.T) {
	s := &fakeSearcher{fn: func(src search.Source, _ string) ([]model.SearchHit, error) {
		return []model.SearchHit{baselineHit("apex")}, nil
	}}
	q := &fakeQualifier{fn: func() ([]model.QualifiedLead, error) {
		return []model.QualifiedLead{}, nil
	}}
	e := &fakeEnricher{}
	p := testPipeline(s, q, e)

	leads, err := p.Run(context.Background(), discoveryRequest(), model.ModeSync)
	require.NoError(t, err)
	assert.NotNil(t, leads)
	assert.Empty(t, leads)
	assert.Zero(t, e.calls, "nothing to enrich")
}

func TestRun_QualifierReceivesRoleAndSnippets(t *testing.T) {
	s := &fakeSearcher{fn: func(src search.Source, _ string) ([]model.SearchHit, error) {
		return []model.SearchHit{baselineHit("apex")}, nil
	}}
	q := &fakeQualifier{}
	p := testPipeline(s, q, &fakeEnricher{})

	req := discoveryRequest()
	req.SalesPersona = "fractional CFO"

	_, err := p.Run(context.Background(), req, model.ModeSync)
	require.NoError(t, err)
	assert.Contains(t, q.snippets, "[1] apex")
	assert.Contains(t, q.role, "fractional CFO")
}

func TestRun_TruncatesByMode(t *testing.T) {
	many := make([]model.QualifiedLead, 10)
	for i := range many {
		many[i] = qualifiedLead(string(rune('a' + i)))
	}

	s := &fakeSearcher{fn: func(src search.Source, _ string) ([]model.SearchHit, error) {
		return []model.SearchHit{baselineHit("apex")}, nil
	}}
	q := &fakeQualifier{fn: func() ([]model.QualifiedLead, error) { return many, nil }}
	p := testPipeline(s, q, &fakeEnricher{})

	sync, err := p.Run(context.Background(), discoveryRequest(), model.ModeSync)
	require.NoError(t, err)
	assert.Len(t, sync, 3)

	background, err := p.Run(context.Background(), discoveryRequest(), model.ModeBackground)
	require.NoError(t, err)
	assert.Len(t, background, 8)
}

func TestRun_RanksBeforeTruncating(t *testing.T) {
	s := &fakeSearcher{fn: func(src search.Source, _ string) ([]model.SearchHit, error) {
		return []model.SearchHit{baselineHit("apex")}, nil
	}}
	q := &fakeQualifier{fn: func() ([]model.QualifiedLead, error) {
		return []model.QualifiedLead{
			qualifiedLead("low-1"),
			qualifiedLead("high-1"),
			qualifiedLead("low-2"),
			qualifiedLead("medium-1"),
			qualifiedLead("high-2"),
		}, nil
	}}
	e := &fakeEnricher{fn: func(leads []model.QualifiedLead) []model.EnrichedLead {
		quality := map[string]model.QualityScore{
			"low-1": model.QualityLow, "low-2": model.QualityLow,
			"medium-1": model.QualityMedium,
			"high-1":   model.QualityHigh, "high-2": model.QualityHigh,
		}
		out := make([]model.EnrichedLead, len(leads))
		for i, l := range leads {
			out[i] = model.EnrichedLead{QualifiedLead: l, QualityScore: quality[l.CompanyName]}
		}
		return out
	}}
	p := testPipeline(s, q, e)

	leads, err := p.Run(context.Background(), discoveryRequest(), model.ModeSync)
	require.NoError(t, err)
	require.Len(t, leads, 3)

	got := []string{leads[0].CompanyName, leads[1].CompanyName, leads[2].CompanyName}
	assert.Equal(t, []string{"high-1", "high-2", "medium-1"}, got,
		"the strongest leads survive truncation, stable within tiers")
}
