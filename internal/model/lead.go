package model

// SourceType labels which specialized search index produced a hit.
type SourceType string

const (
	SourceDirectory     SourceType = "Directory/Firmographic"
	SourcePainReview    SourceType = "Pain/Review"
	SourceCompetitor    SourceType = "Competitor"
	SourceTechFinancial SourceType = "Tech/Financial"
)

// SearchHit is a single normalized result from one search source. Hits are
// immutable once created and live only for the duration of a pipeline run.
type SearchHit struct {
	Title      string     `json:"title"`
	Snippet    string     `json:"snippet"`
	Link       string     `json:"link"`
	Tier       int        `json:"tier"`
	SourceType SourceType `json:"sourceType"`
}

// QualifiedLead is a structured candidate produced by the qualification model
// from the aggregated search hits. CompanyName, Website,
// QualificationSummary, and Industry are required; records missing any of
// them are dropped before enrichment.
type QualifiedLead struct {
	CompanyName          string `json:"companyName"`
	Website              string `json:"website"`
	QualificationSummary string `json:"qualificationSummary"`
	Industry             string `json:"industry"`
	PainPoint            string `json:"painPoint,omitempty"`
	ContactName          string `json:"contactName,omitempty"`
	Location             string `json:"location,omitempty"`
}

// Valid reports whether the lead carries every required field.
func (l QualifiedLead) Valid() bool {
	return l.CompanyName != "" && l.Website != "" &&
		l.QualificationSummary != "" && l.Industry != ""
}

// QualityScore is the coarse quality tier assigned during enrichment.
type QualityScore string

const (
	QualityHigh   QualityScore = "High"
	QualityMedium QualityScore = "Medium"
	QualityLow    QualityScore = "Low"
)

// EnrichedLead is a QualifiedLead augmented with derived signals. It is
// written exactly once by the enrichment stage and never mutated after.
type EnrichedLead struct {
	QualifiedLead

	IsWebsiteLive     bool         `json:"isWebsiteLive"`
	Email             string       `json:"email,omitempty"`
	Phone             string       `json:"phone"`
	PersonaMatchScore float64      `json:"personaMatchScore"`
	QualityScore      QualityScore `json:"qualityScore"`
	PremiumInsight    string       `json:"premiumInsight,omitempty"`
	SourceTier        int          `json:"sourceTier"`
}
