package pipeline

import (
	"sort"

	"github.com/prospectml/leadscout/internal/model"
)

var qualityRank = map[model.QualityScore]int{
	model.QualityHigh:   3,
	model.QualityMedium: 2,
	model.QualityLow:    1,
}

// Rank orders leads by quality tier (High > Medium > Low), then by
// persona-match score descending. The sort is stable, so leads tying on
// both keys keep their qualification order.
func Rank(leads []model.EnrichedLead) []model.EnrichedLead {
	ranked := make([]model.EnrichedLead, len(leads))
	copy(ranked, leads)

	sort.SliceStable(ranked, func(i, j int) bool {
		qi, qj := qualityRank[ranked[i].QualityScore], qualityRank[ranked[j].QualityScore]
		if qi != qj {
			return qi > qj
		}
		return ranked[i].PersonaMatchScore > ranked[j].PersonaMatchScore
	})

	return ranked
}
