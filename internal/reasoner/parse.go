package reasoner

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/prospectml/leadscout/internal/model"
)

// cleanJSONArray extracts a JSON array from model text that may carry
// markdown code fences or prose around it.
func cleanJSONArray(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first [ and last ]. This also unwraps {"leads": [...]} shapes.
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// ParseLeads decodes a qualification response into leads. Records are
// decoded independently: a malformed record or one missing a required field
// is dropped, and a completely unparseable response yields zero leads rather
// than an error, so a bad model answer never fails the run.
func ParseLeads(text string) []model.QualifiedLead {
	cleaned := cleanJSONArray(text)
	if cleaned == "" {
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		zap.L().Warn("reasoner: unparseable qualification response",
			zap.Int("response_len", len(text)),
			zap.Error(err),
		)
		return nil
	}

	leads := make([]model.QualifiedLead, 0, len(raw))
	for i, rec := range raw {
		var lead model.QualifiedLead
		if err := json.Unmarshal(rec, &lead); err != nil {
			zap.L().Warn("reasoner: dropping malformed lead record",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		trimLead(&lead)
		if !lead.Valid() {
			zap.L().Debug("reasoner: dropping lead missing required fields",
				zap.Int("index", i),
				zap.String("company", lead.CompanyName),
			)
			continue
		}
		leads = append(leads, lead)
	}
	return leads
}

func trimLead(l *model.QualifiedLead) {
	l.CompanyName = strings.TrimSpace(l.CompanyName)
	l.Website = strings.TrimSpace(l.Website)
	l.QualificationSummary = strings.TrimSpace(l.QualificationSummary)
	l.Industry = strings.TrimSpace(l.Industry)
	l.PainPoint = strings.TrimSpace(l.PainPoint)
	l.ContactName = strings.TrimSpace(l.ContactName)
	l.Location = strings.TrimSpace(l.Location)
}
