// Package model defines the core types flowing through the lead discovery
// pipeline: the caller-supplied request facets, raw search hits, qualified
// and enriched leads, and durable background jobs.
package model

import "strings"

// Mode selects the invocation budget for a pipeline run.
type Mode string

const (
	// ModeSync is the bounded synchronous mode: small batch, short deadline.
	ModeSync Mode = "sync"
	// ModeBackground is the long-running job mode: larger batch, generous deadline.
	ModeBackground Mode = "background"
)

// DiscoveryRequest is the caller-supplied facet bundle describing the target
// audience. Industry, Size, and Location are mandatory; the remaining facets
// shape Tier-2 searches, qualification, and scoring.
type DiscoveryRequest struct {
	Industry      string `json:"industry"`
	Size          string `json:"size"`
	Location      string `json:"location"`
	LeadType      string `json:"leadType,omitempty"`
	TargetType    string `json:"targetType,omitempty"`
	SearchTerm    string `json:"searchTerm,omitempty"` // wire alias for TargetType
	FinancialTerm string `json:"financialTerm,omitempty"`
	SalesPersona  string `json:"salesPersona,omitempty"`
	SocialFocus   string `json:"socialFocus,omitempty"`
	ActiveSignal  string `json:"activeSignal,omitempty"`
	ClientProfile string `json:"clientProfile,omitempty"`
}

// Normalize trims facet whitespace and folds the searchTerm alias into
// TargetType when TargetType itself is empty.
func (r *DiscoveryRequest) Normalize() {
	r.Industry = strings.TrimSpace(r.Industry)
	r.Size = strings.TrimSpace(r.Size)
	r.Location = strings.TrimSpace(r.Location)
	r.LeadType = strings.TrimSpace(r.LeadType)
	r.TargetType = strings.TrimSpace(r.TargetType)
	r.SearchTerm = strings.TrimSpace(r.SearchTerm)
	r.FinancialTerm = strings.TrimSpace(r.FinancialTerm)
	r.SalesPersona = strings.TrimSpace(r.SalesPersona)
	r.SocialFocus = strings.TrimSpace(r.SocialFocus)
	r.ActiveSignal = strings.TrimSpace(r.ActiveSignal)
	r.ClientProfile = strings.TrimSpace(r.ClientProfile)

	if r.TargetType == "" && r.SearchTerm != "" {
		r.TargetType = r.SearchTerm
	}
}

// MissingFields returns the names of absent mandatory facets, in a fixed
// order. A non-empty result means the request must be rejected before any
// search executes.
func (r *DiscoveryRequest) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(r.Industry) == "" {
		missing = append(missing, "industry")
	}
	if strings.TrimSpace(r.Size) == "" {
		missing = append(missing, "size")
	}
	if strings.TrimSpace(r.Location) == "" {
		missing = append(missing, "location")
	}
	return missing
}

// HasPremiumFacets reports whether the request unlocks the Tier-2 specialized
// searches. Tier 2 runs only when the caller supplied at least one
// high-intent facet.
func (r *DiscoveryRequest) HasPremiumFacets() bool {
	return r.TargetType != "" || r.FinancialTerm != ""
}
