// Package pipeline implements the tiered lead discovery orchestrator: query
// composition, search fan-out, aggregation, qualification, enrichment,
// ranking, and truncation.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/internal/search"
)

// tierOneExclusions filters out pages that mention companies without being
// about them: job boards, PR wires, and how-to content.
const tierOneExclusions = `-jobs -careers -hiring -"press release" -"how to" -guide`

// TierOneQuery composes the guaranteed baseline query: a conjunction of the
// three mandatory facets plus the fixed negative-keyword suffix.
func TierOneQuery(req *model.DiscoveryRequest) string {
	return fmt.Sprintf(`"%s" "%s employees" "%s" %s`,
		req.Industry, req.Size, req.Location, tierOneExclusions)
}

// TierTwoQuery composes the specialized query for one Tier-2 source. Callers
// gate on req.HasPremiumFacets(); these queries are only meaningful when at
// least one high-intent facet is present.
func TierTwoQuery(sourceID string, req *model.DiscoveryRequest) string {
	term := simplifiedTerm(req)

	switch sourceID {
	case search.SourcePain:
		return fmt.Sprintf(`%s ("frustrated with" OR "switching from" OR "looking for alternatives") reviews "%s"`,
			term, req.Location)
	case search.SourceCompetitor:
		target := req.TargetType
		if target == "" {
			target = term
		}
		return fmt.Sprintf(`%s competitors vs alternatives`, target)
	case search.SourceTechFinancial:
		financial := req.FinancialTerm
		if financial == "" {
			financial = term
		}
		return fmt.Sprintf(`"%s" ("tech stack" OR "technology budget" OR "investment in software")`, financial)
	default:
		return term
	}
}

// simplifiedTerm reduces the high-intent facets to a single target phrase:
// both present concatenates them, one present uses it alone, and neither
// falls back to a generic term for residential lead types or the industry
// facet otherwise.
func simplifiedTerm(req *model.DiscoveryRequest) string {
	switch {
	case req.TargetType != "" && req.FinancialTerm != "":
		return req.TargetType + " " + req.FinancialTerm
	case req.TargetType != "":
		return req.TargetType
	case req.FinancialTerm != "":
		return req.FinancialTerm
	case strings.EqualFold(req.LeadType, "residential"):
		return "home services"
	default:
		return req.Industry
	}
}

// RoleInstruction states the qualification persona and grounding rules for
// the reasoning model, folding in the caller's optional facets.
func RoleInstruction(req *model.DiscoveryRequest) string {
	var b strings.Builder

	b.WriteString("You are a B2B lead qualification analyst")
	if req.SalesPersona != "" {
		fmt.Fprintf(&b, " supporting a %s", req.SalesPersona)
	}
	fmt.Fprintf(&b, ". Identify companies in the %s industry with %s employees near %s that are genuine sales prospects.",
		req.Industry, req.Size, req.Location)

	if req.LeadType != "" {
		fmt.Fprintf(&b, " Focus on %s leads.", req.LeadType)
	}
	if req.ActiveSignal != "" {
		fmt.Fprintf(&b, " Prioritize companies showing this signal: %s.", req.ActiveSignal)
	}
	if req.ClientProfile != "" {
		fmt.Fprintf(&b, " Ideal client profile: %s.", req.ClientProfile)
	}
	if req.SocialFocus != "" {
		fmt.Fprintf(&b, " Pay attention to social presence around %s.", req.SocialFocus)
	}

	b.WriteString(" Ground every claim in the provided search results; never invent companies that do not appear in them.")
	return b.String()
}
