package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prospectml/leadscout/internal/model"
)

func TestTierIndex_MatchByHost(t *testing.T) {
	idx := BuildTierIndex([]model.SearchHit{
		{Title: "Apex Plumbing reviews", Link: "https://www.apexplumbing.com/reviews", Tier: 2, SourceType: model.SourcePainReview},
		{Title: "Best plumbers in Austin", Link: "https://austinplumberdirectory.com", Tier: 1, SourceType: model.SourceDirectory},
	})

	hit, ok := idx.Match(model.QualifiedLead{
		CompanyName: "Apex Plumbing",
		Website:     "apexplumbing.com",
	})
	assert.True(t, ok)
	assert.Equal(t, 2, hit.Tier)
	assert.Equal(t, model.SourcePainReview, hit.SourceType)
}

func TestTierIndex_HighestTierWinsPerHost(t *testing.T) {
	idx := BuildTierIndex([]model.SearchHit{
		{Title: "Apex Plumbing", Link: "https://apexplumbing.com", Tier: 1, SourceType: model.SourceDirectory},
		{Title: "Apex Plumbing vs rivals", Link: "https://apexplumbing.com/compare", Tier: 2, SourceType: model.SourceCompetitor},
	})

	hit, ok := idx.Match(model.QualifiedLead{Website: "www.apexplumbing.com"})
	assert.True(t, ok)
	assert.Equal(t, 2, hit.Tier)
}

func TestTierIndex_TitleFallback(t *testing.T) {
	idx := BuildTierIndex([]model.SearchHit{
		{Title: "Why Apex Plumbing is hiring", Link: "https://news.example.com/article", Tier: 2, SourceType: model.SourceTechFinancial},
	})

	// Website host doesn't match any hit, but the company name appears in a
	// hit title.
	hit, ok := idx.Match(model.QualifiedLead{
		CompanyName: "Apex Plumbing",
		Website:     "apexplumbing.com",
	})
	assert.True(t, ok)
	assert.Equal(t, model.SourceTechFinancial, hit.SourceType)
}

func TestTierIndex_NoMatch(t *testing.T) {
	idx := BuildTierIndex([]model.SearchHit{
		{Title: "Unrelated result", Link: "https://elsewhere.com", Tier: 1},
	})

	_, ok := idx.Match(model.QualifiedLead{CompanyName: "Apex Plumbing", Website: "apexplumbing.com"})
	assert.False(t, ok)

	_, ok = idx.Match(model.QualifiedLead{})
	assert.False(t, ok)
}

func TestHostOf(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.apexplumbing.com/reviews", "apexplumbing.com"},
		{"http://Apex.IO", "apex.io"},
		{"apexplumbing.com", "apexplumbing.com"},
		{"  apexplumbing.com  ", "apexplumbing.com"},
		{"", ""},
		{"not a url at all", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hostOf(tt.in), "hostOf(%q)", tt.in)
	}
}
