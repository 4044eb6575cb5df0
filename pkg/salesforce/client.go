// Package salesforce pushes ranked leads into Salesforce as Lead records.
// It wraps the go-salesforce REST client behind the two operations the
// exporter needs: a website dedup lookup and a batched insert.
package salesforce

import (
	"context"

	gosf "github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// insertBatchLimit is the Collections API ceiling per insert request.
const insertBatchLimit = 200

// Client is the Salesforce surface the lead exporter depends on.
type Client interface {
	// ExistingWebsites reports which of the given websites already appear on
	// records of the named object, keyed by lowercased website.
	ExistingWebsites(ctx context.Context, object string, websites []string) (map[string]bool, error)

	// InsertBatches creates the records on the named object in batches of at
	// most 200, returning one SaveResult per record.
	InsertBatches(ctx context.Context, object string, records []map[string]any) ([]SaveResult, error)
}

// SaveResult is the per-record outcome of an insert.
type SaveResult struct {
	ID      string
	Success bool
	Errors  []string
}

// Option configures the client.
type Option func(*apiClient)

// WithThrottle caps outbound Salesforce calls at rps per second. Fractional
// rates are allowed; the burst floor is one call.
func WithThrottle(rps float64) Option {
	return func(c *apiClient) {
		if rps <= 0 {
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// apiClient implements Client over go-salesforce. The underlying library
// takes no context, so cancellation only covers the throttle wait.
type apiClient struct {
	api     *gosf.Salesforce
	limiter *rate.Limiter
}

// New wraps an authenticated go-salesforce session.
func New(api *gosf.Salesforce, opts ...Option) Client {
	c := &apiClient{api: api}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *apiClient) throttle(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "salesforce: throttle")
	}
	return nil
}
