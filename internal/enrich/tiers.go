package enrich

import (
	"net/url"
	"strings"

	"github.com/prospectml/leadscout/internal/model"
)

// TierIndex maps qualified leads back to the search hits that produced them,
// so enrichment can attribute each lead to its discovery channel.
type TierIndex struct {
	hosts map[string]model.SearchHit
	hits  []model.SearchHit
}

// BuildTierIndex indexes hits by link host. When the same host appears in
// several hits, the highest tier wins; ties keep the first hit seen.
func BuildTierIndex(hits []model.SearchHit) *TierIndex {
	idx := &TierIndex{
		hosts: make(map[string]model.SearchHit, len(hits)),
		hits:  hits,
	}
	for _, h := range hits {
		host := hostOf(h.Link)
		if host == "" {
			continue
		}
		prev, ok := idx.hosts[host]
		if !ok || h.Tier > prev.Tier {
			idx.hosts[host] = h
		}
	}
	return idx
}

// Match returns the hit that most plausibly produced the lead: first by
// website host, then by the company name appearing in a hit title, scanning
// hits in their aggregated order. The boolean reports whether any hit
// matched.
func (ti *TierIndex) Match(lead model.QualifiedLead) (model.SearchHit, bool) {
	if host := hostOf(lead.Website); host != "" {
		if h, ok := ti.hosts[host]; ok {
			return h, true
		}
	}

	name := strings.ToLower(strings.TrimSpace(lead.CompanyName))
	if name == "" {
		return model.SearchHit{}, false
	}
	for _, h := range ti.hits {
		if strings.Contains(strings.ToLower(h.Title), name) {
			return h, true
		}
	}
	return model.SearchHit{}, false
}

// hostOf extracts the lowercased host from a URL or bare domain, with any
// leading "www." removed. Returns empty when no host can be parsed.
func hostOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}
