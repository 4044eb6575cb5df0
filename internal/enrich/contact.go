package enrich

// phoneUnavailable is the placeholder used until a phone data vendor is
// wired in. Kept stable so downstream consumers can filter on it.
const phoneUnavailable = "not available"

// InferEmail derives a generic inbox address from the lead's website host.
// Returns empty when the website has no parseable host.
func InferEmail(website string) string {
	host := hostOf(website)
	if host == "" {
		return ""
	}
	return "contact@" + host
}
