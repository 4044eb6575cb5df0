// Package customsearch is a typed client for the Google Custom Search JSON
// API. Each configured search engine ("cx" index) behaves as an independent
// source; callers pass the index id per request.
package customsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// MaxResultsPerCall is the provider's hard ceiling on items per request.
const MaxResultsPerCall = 10

// Client performs Custom Search API operations.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest identifies one query against one configured index.
type SearchRequest struct {
	Query   string
	IndexID string // the engine's "cx" identifier
	Num     int    // requested item count, clamped to [1, MaxResultsPerCall]
}

// SearchResponse is the decoded API response.
type SearchResponse struct {
	Items             []Item            `json:"items"`
	SearchInformation SearchInformation `json:"searchInformation"`
}

// Item is a single search result.
type Item struct {
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	Link        string `json:"link"`
	DisplayLink string `json:"displayLink"`
}

// SearchInformation holds result metadata. TotalResults is a string in the
// wire format.
type SearchInformation struct {
	SearchTime   float64 `json:"searchTime"`
	TotalResults string  `json:"totalResults"`
}

// APIError is a non-200 response from the API. Callers classify retryability
// from the status code.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("customsearch: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Custom Search API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Query == "" {
		return nil, eris.New("customsearch: empty query")
	}
	if req.IndexID == "" {
		return nil, eris.New("customsearch: empty index id")
	}

	num := req.Num
	if num < 1 {
		num = 1
	}
	if num > MaxResultsPerCall {
		num = MaxResultsPerCall
	}

	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("cx", req.IndexID)
	params.Set("q", req.Query)
	params.Set("num", strconv.Itoa(num))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "customsearch: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "customsearch: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "customsearch: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var result SearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "customsearch: unmarshal response")
	}

	return &result, nil
}
