package enrich

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectml/leadscout/internal/config"
	"github.com/prospectml/leadscout/internal/model"
)

type fakeProber struct {
	live map[string]bool
}

func (f *fakeProber) IsLive(_ context.Context, url string) bool {
	return f.live[url]
}

func testEnricher(t *testing.T, prober LiveProber) *Enricher {
	t.Helper()
	e, err := New(config.EnrichConfig{Concurrency: 4, ProbeTimeoutSecs: 1}, WithProber(prober))
	require.NoError(t, err)
	return e
}

func TestEnrichAll(t *testing.T) {
	e := testEnricher(t, &fakeProber{live: map[string]bool{
		"apexplumbing.com": true,
	}})

	leads := []model.QualifiedLead{
		{
			CompanyName:          "Apex Plumbing",
			Website:              "apexplumbing.com",
			QualificationSummary: "Growing plumbing company frustrated with its dispatch software.",
			Industry:             "Plumbing",
			PainPoint:            "Dispatch delays during peak season.",
			Location:             "Austin, TX",
		},
	}
	req := &model.DiscoveryRequest{Industry: "Plumbing", Size: "10-50", Location: "Austin"}
	tiers := BuildTierIndex([]model.SearchHit{
		{Title: "Apex Plumbing reviews", Link: "https://apexplumbing.com/reviews", Tier: 2, SourceType: model.SourcePainReview},
	})

	enriched := e.EnrichAll(context.Background(), leads, req, tiers)
	require.Len(t, enriched, 1)

	lead := enriched[0]
	assert.True(t, lead.IsWebsiteLive)
	assert.Equal(t, "contact@apexplumbing.com", lead.Email)
	assert.Equal(t, "not available", lead.Phone)
	assert.Equal(t, 2, lead.SourceTier)
	assert.NotEmpty(t, lead.PremiumInsight)
	assert.Greater(t, lead.PersonaMatchScore, 0.0)
	assert.Equal(t, model.QualityHigh, lead.QualityScore)
}

func TestEnrichAll_PreservesInputOrder(t *testing.T) {
	e := testEnricher(t, &fakeProber{})

	leads := make([]model.QualifiedLead, 12)
	names := []string{"Alpha", "Bravo", "Charlie", "Delta", "Echo", "Foxtrot",
		"Golf", "Hotel", "India", "Juliett", "Kilo", "Lima"}
	for i, name := range names {
		leads[i] = model.QualifiedLead{
			CompanyName:          name,
			Website:              "example.invalid",
			QualificationSummary: "s",
			Industry:             "HVAC",
		}
	}
	req := &model.DiscoveryRequest{Industry: "HVAC", Size: "10-50", Location: "Denver"}

	enriched := e.EnrichAll(context.Background(), leads, req, nil)
	require.Len(t, enriched, len(names))
	for i, name := range names {
		assert.Equal(t, name, enriched[i].CompanyName)
	}
}

func TestEnrichAll_DeadWebsiteDegrades(t *testing.T) {
	e := testEnricher(t, &fakeProber{})

	leads := []model.QualifiedLead{{
		CompanyName:          "Ghost Services",
		Website:              "ghost.invalid",
		QualificationSummary: "Looks abandoned but matched the search.",
		Industry:             "HVAC",
		PainPoint:            "unclear",
	}}
	req := &model.DiscoveryRequest{Industry: "HVAC", Size: "10-50", Location: "Denver"}

	enriched := e.EnrichAll(context.Background(), leads, req, BuildTierIndex(nil))
	require.Len(t, enriched, 1)

	assert.False(t, enriched[0].IsWebsiteLive)
	assert.Equal(t, model.QualityLow, enriched[0].QualityScore)
	assert.Equal(t, 1, enriched[0].SourceTier, "unattributed leads default to the baseline tier")
	assert.Empty(t, enriched[0].PremiumInsight)
}

func TestNew_LoadsScoringFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scoring.yaml")
	content := `scoring:
  industry_weight: 0.4
  keyword_weight: 0.3
  location_weight: 0.1
  pain_weight: 0.2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	e, err := New(config.EnrichConfig{Concurrency: 2, ScoringPath: path})
	require.NoError(t, err)
	assert.Equal(t, 0.4, e.scoring.IndustryWeight)
}

func TestNew_BadScoringFile(t *testing.T) {
	_, err := New(config.EnrichConfig{Concurrency: 2, ScoringPath: filepath.Join(t.TempDir(), "missing.yaml")})
	require.Error(t, err)
}

func TestInferEmail(t *testing.T) {
	tests := []struct {
		website string
		want    string
	}{
		{"https://www.apexplumbing.com/about", "contact@apexplumbing.com"},
		{"apexplumbing.com", "contact@apexplumbing.com"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, InferEmail(tt.website), "InferEmail(%q)", tt.website)
	}
}
