package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const maxResponseBodySize = 1 << 20 // 1MB

// Validators holds the conditional-request validators known for a resource.
type Validators struct {
	ETag         string
	LastModified string
}

// Response is the outcome of one conditional HTTP request.
type Response struct {
	StatusCode int
	Body       []byte
	// Validators are the entity tag and last-modified values to use on the
	// next request for the same resource.
	Validators Validators
	// NotModified is true when the server reported a conditional match.
	NotModified bool
}

// Doer is the abstract HTTP collaborator. It must honor conditional request
// semantics: a 304-equivalent answer is reported via NotModified, not an error.
type Doer interface {
	Do(ctx context.Context, url string, validators Validators) (*Response, error)
}

// HTTPDoer is the default Doer backed by net/http.
type HTTPDoer struct {
	client *http.Client
}

// NewHTTPDoer creates an HTTPDoer with connection pooling limits suitable for
// polling many status pages.
func NewHTTPDoer() *HTTPDoer {
	return &HTTPDoer{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}

// Do issues a GET carrying whichever validators are known and returns the
// structured response. Only transport-level failures are returned as errors;
// HTTP error statuses are reported through StatusCode.
func (d *HTTPDoer) Do(ctx context.Context, url string, validators Validators) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if validators.ETag != "" {
		req.Header.Set("If-None-Match", validators.ETag)
	}
	if validators.LastModified != "" {
		req.Header.Set("If-Modified-Since", validators.LastModified)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	// missing validator headers keep the last-known values
	next := validators
	if etag := resp.Header.Get("ETag"); etag != "" {
		next.ETag = etag
	}
	if modified := resp.Header.Get("Last-Modified"); modified != "" {
		next.LastModified = modified
	}

	if resp.StatusCode == http.StatusNotModified {
		return &Response{
			StatusCode:  resp.StatusCode,
			Validators:  validators,
			NotModified: true,
		}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
		Validators: next,
	}, nil
}
