package enrich

import (
	"math"
	"strings"

	"github.com/prospectml/leadscout/internal/model"
)

// PersonaMatch scores how well a lead fits the request persona and facets on
// a 0..1 scale. Components are weighted per the config: industry overlap,
// persona keyword coverage, location overlap, and a named pain point. The
// result is deterministic for a given lead and request.
func (sc ScoringConfig) PersonaMatch(lead model.QualifiedLead, req *model.DiscoveryRequest) float64 {
	content := strings.ToLower(lead.QualificationSummary + " " + lead.PainPoint)

	score := sc.IndustryWeight * tokenOverlap(lead.Industry, req.Industry)

	// With no persona the keyword component falls back to generic buying
	// intent, so the scale stays comparable across requests.
	persona := req.SalesPersona
	if persona == "" {
		persona = strings.Join(sc.StrongFitKeywords, " ")
	}
	score += sc.KeywordWeight * keywordCoverage(content, persona)

	switch {
	case lead.Location == "":
		// Unknown location is neutral, not disqualifying.
		score += sc.LocationWeight * 0.5
	case tokenOverlap(lead.Location, req.Location) > 0:
		score += sc.LocationWeight
	}

	if lead.PainPoint != "" {
		score += sc.PainWeight
	}

	return math.Round(math.Min(1, math.Max(0, score))*100) / 100
}

// Quality buckets a lead into High, Medium, or Low. High needs a live
// website, a named pain point, and a strong fit; Medium needs a live website
// plus either a pain point or a strong fit; everything else is Low.
func (sc ScoringConfig) Quality(lead model.QualifiedLead, websiteLive bool, personaMatch float64) model.QualityScore {
	strongFit := personaMatch >= sc.HighMatchThreshold || sc.hasStrongSignal(lead)

	switch {
	case websiteLive && lead.PainPoint != "" && strongFit:
		return model.QualityHigh
	case websiteLive && (lead.PainPoint != "" || strongFit):
		return model.QualityMedium
	default:
		return model.QualityLow
	}
}

// hasStrongSignal reports whether any buying-intent keyword appears in the
// lead's qualification summary or pain point.
func (sc ScoringConfig) hasStrongSignal(lead model.QualifiedLead) bool {
	lower := strings.ToLower(lead.QualificationSummary + " " + lead.PainPoint)
	for _, kw := range sc.StrongFitKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// PremiumInsight describes the high-intent channel that surfaced a lead.
// Only leads attributed to a specialized (tier 2) source get one.
func PremiumInsight(hit model.SearchHit) string {
	if hit.Tier < 2 {
		return ""
	}
	switch hit.SourceType {
	case model.SourcePainReview:
		return "Surfaced by pain-point monitoring: public reviews suggest active dissatisfaction with a current provider."
	case model.SourceCompetitor:
		return "Surfaced by competitor analysis: the company appears in comparison and alternatives coverage."
	case model.SourceTechFinancial:
		return "Surfaced by technology and budget signals: public sources point to active spend in this category."
	default:
		return "Surfaced by a specialized high-intent source."
	}
}

// tokenOverlap returns the fraction of b's words that appear among a's
// words, case-insensitively. Empty b scores zero.
func tokenOverlap(a, b string) float64 {
	bTokens := strings.Fields(strings.ToLower(b))
	if len(bTokens) == 0 {
		return 0
	}
	aTokens := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToLower(a)) {
		aTokens[strings.Trim(t, ",.;:")] = struct{}{}
	}
	matched := 0
	for _, t := range bTokens {
		if _, ok := aTokens[strings.Trim(t, ",.;:")]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(bTokens))
}

// keywordCoverage returns the fraction of significant words (length >= 3) in
// phrase that occur as substrings of content. Content is expected lowercased.
func keywordCoverage(content, phrase string) float64 {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(phrase)) {
		w = strings.Trim(w, ",.;:\"")
		if len(w) >= 3 {
			words = append(words, w)
		}
	}
	if len(words) == 0 {
		return 0
	}
	matched := 0
	for _, w := range words {
		if strings.Contains(content, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}
