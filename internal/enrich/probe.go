package enrich

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Prober checks whether a lead's website answers HTTP requests.
type Prober struct {
	http *http.Client
}

// NewProber creates a Prober with the given per-request timeout.
func NewProber(timeout time.Duration) *Prober {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Prober{
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: timeout,
				}).DialContext,
				TLSHandshakeTimeout: timeout,
			},
		},
	}
}

// IsLive probes the URL with a GET and reports whether the site answered
// with a non-error status. Transport failures and 4xx/5xx responses both
// count as not live; neither is surfaced as an error.
func (p *Prober) IsLive(ctx context.Context, rawURL string) bool {
	normalized, err := normalizeWebsite(rawURL)
	if err != nil {
		return false
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, normalized, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; LeadScoutBot/1.0)")

	resp, err := p.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close() //nolint:errcheck

	return resp.StatusCode < http.StatusBadRequest
}

func normalizeWebsite(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", eris.New("enrich: empty website")
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", eris.Wrap(err, "enrich: parse website")
	}
	if u.Host == "" {
		return "", eris.Errorf("enrich: no host in %q", raw)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String(), nil
}
