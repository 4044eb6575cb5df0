package export

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/prospectml/leadscout/internal/model"
	"github.com/prospectml/leadscout/pkg/salesforce"
)

// leadSObject is the Salesforce object type lead exports create.
const leadSObject = "Lead"

// qualityRating maps quality tiers onto the standard Salesforce Lead ratings.
var qualityRating = map[model.QualityScore]string{
	model.QualityHigh:   "Hot",
	model.QualityMedium: "Warm",
	model.QualityLow:    "Cold",
}

// PushResult summarizes a Salesforce push.
type PushResult struct {
	Inserted int
	Skipped  int
	Failed   int
}

// PushSalesforce inserts leads as Salesforce Lead records, skipping websites
// an earlier push already created. Per-record rejections count as failures
// and are logged; they do not abort the push.
func PushSalesforce(ctx context.Context, c salesforce.Client, leads []model.EnrichedLead) (PushResult, error) {
	var res PushResult
	if len(leads) == 0 {
		return res, nil
	}

	websites := make([]string, 0, len(leads))
	for _, l := range leads {
		if l.Website != "" {
			websites = append(websites, l.Website)
		}
	}
	existing, err := c.ExistingWebsites(ctx, leadSObject, websites)
	if err != nil {
		return res, err
	}

	records := make([]map[string]any, 0, len(leads))
	for _, l := range leads {
		if l.Website != "" && existing[strings.ToLower(l.Website)] {
			res.Skipped++
			continue
		}
		records = append(records, leadRecord(l))
	}
	if len(records) == 0 {
		return res, nil
	}

	results, pushErr := c.InsertBatches(ctx, leadSObject, records)
	for _, r := range results {
		if r.Success {
			res.Inserted++
			continue
		}
		res.Failed++
		zap.L().Warn("export: salesforce rejected lead",
			zap.String("id", r.ID),
			zap.Strings("errors", r.Errors))
	}
	if pushErr != nil {
		return res, eris.Wrap(pushErr, "export: push salesforce")
	}
	return res, nil
}

// leadRecord maps an enriched lead onto Salesforce Lead fields. Salesforce
// requires Company and LastName on every Lead.
func leadRecord(l model.EnrichedLead) map[string]any {
	first, last := splitContactName(l.ContactName)

	record := map[string]any{
		"Company":     l.CompanyName,
		"Website":     l.Website,
		"Industry":    l.Industry,
		"Description": l.QualificationSummary,
		"LeadSource":  "LeadScout",
		"Rating":      qualityRating[l.QualityScore],
		"LastName":    last,
	}
	if first != "" {
		record["FirstName"] = first
	}
	if l.Email != "" {
		record["Email"] = l.Email
	}
	if l.Phone != "" && l.Phone != "not available" {
		record["Phone"] = l.Phone
	}
	if city, state := splitLocation(l.Location); city != "" {
		record["City"] = city
		if state != "" {
			record["State"] = state
		}
	}
	return record
}

// splitContactName splits a full name into first and last on the final space.
// Salesforce rejects Leads without a LastName, so a missing name becomes
// "Unknown".
func splitContactName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "Unknown"
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return "", name
	}
	return name[:idx], name[idx+1:]
}

// splitLocation splits a "City, State" facet on the first comma.
func splitLocation(location string) (city, state string) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", ""
	}
	city, state, found := strings.Cut(location, ",")
	if !found {
		return strings.TrimSpace(location), ""
	}
	return strings.TrimSpace(city), strings.TrimSpace(state)
}
