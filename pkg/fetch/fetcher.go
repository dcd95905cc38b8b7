package fetch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"statuspage-monitor/pkg/snapshot"
)

const (
	summaryPath   = "/api/v2/summary.json"
	incidentsPath = "/api/v2/incidents.json"
)

// ErrorKind classifies a failed poll.
type ErrorKind string

const (
	// KindTransport covers connection, DNS, and timeout failures.
	KindTransport ErrorKind = "transport"
	// KindHTTP covers non-2xx, non-304 status codes.
	KindHTTP ErrorKind = "http"
	// KindParse covers malformed or unexpected payloads.
	KindParse ErrorKind = "parse"
)

// PollError describes why a poll cycle failed.
type PollError struct {
	Kind     ErrorKind
	Resource string
	Err      error
}

func (e *PollError) Error() string {
	return fmt.Sprintf("%s error polling %s: %v", e.Kind, e.Resource, e.Err)
}

func (e *PollError) Unwrap() error {
	return e.Err
}

// State is the outcome classification of one poll.
type State int

const (
	// Unchanged means both resources reported a conditional match.
	Unchanged State = iota
	// Updated means at least one resource served a fresh body that parsed cleanly.
	Updated
	// Failed means the poll produced no usable snapshot.
	Failed
)

// PollResult is the outcome of ConditionalFetcher.Poll. Snapshot is set only
// when State is Updated; Err only when State is Failed.
type PollResult struct {
	State    State
	Snapshot *snapshot.Snapshot
	Err      *PollError
}

// resourceState tracks the validators and last good body for one resource URL.
type resourceState struct {
	url        string
	validators Validators
	lastBody   []byte
}

// ConditionalFetcher turns fetches of one status page into Unchanged /
// Updated / Failed results, issuing conditional requests backed by a
// per-resource validator cache. It is intended for single-goroutine use:
// each endpoint monitor owns exactly one fetcher.
type ConditionalFetcher struct {
	doer      Doer
	summary   resourceState
	incidents resourceState
	now       func() time.Time
}

// NewConditionalFetcher creates a fetcher for the status page at baseURL.
func NewConditionalFetcher(baseURL string, doer Doer) *ConditionalFetcher {
	base := strings.TrimRight(baseURL, "/")
	return &ConditionalFetcher{
		doer:      doer,
		summary:   resourceState{url: base + summaryPath},
		incidents: resourceState{url: base + incidentsPath},
		now:       time.Now,
	}
}

// Poll fetches the summary and incidents resources conditionally and
// classifies the combined outcome. On failure of either resource the cached
// validators are left untouched, so the next attempt retries with the
// last-known-good validators and a stale 304 cannot mask a missed change.
func (f *ConditionalFetcher) Poll(ctx context.Context) PollResult {
	summaryResp, pollErr := f.fetchResource(ctx, &f.summary)
	if pollErr != nil {
		return PollResult{State: Failed, Err: pollErr}
	}

	incidentsResp, pollErr := f.fetchResource(ctx, &f.incidents)
	if pollErr != nil {
		return PollResult{State: Failed, Err: pollErr}
	}

	if summaryResp.NotModified && incidentsResp.NotModified {
		return PollResult{State: Unchanged}
	}

	summaryBody := f.bodyFor(summaryResp, &f.summary)
	incidentsBody := f.bodyFor(incidentsResp, &f.incidents)

	snap, err := snapshot.Parse(summaryBody, incidentsBody, f.now())
	if err != nil {
		return PollResult{State: Failed, Err: &PollError{Kind: KindParse, Resource: f.summary.url, Err: err}}
	}

	// advance validators only after a clean parse, last-write-wins
	f.summary.validators = summaryResp.Validators
	f.summary.lastBody = summaryBody
	f.incidents.validators = incidentsResp.Validators
	f.incidents.lastBody = incidentsBody

	return PollResult{State: Updated, Snapshot: snap}
}

func (f *ConditionalFetcher) fetchResource(ctx context.Context, resource *resourceState) (*Response, *PollError) {
	resp, err := f.doer.Do(ctx, resource.url, resource.validators)
	if err != nil {
		return nil, &PollError{Kind: KindTransport, Resource: resource.url, Err: err}
	}
	if resp.NotModified {
		if resource.lastBody == nil {
			// a conditional match before any full response is server misbehavior
			return nil, &PollError{
				Kind:     KindHTTP,
				Resource: resource.url,
				Err:      fmt.Errorf("got 304 before any full response"),
			}
		}
		return resp, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &PollError{
			Kind:     KindHTTP,
			Resource: resource.url,
			Err:      fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}
	return resp, nil
}

// bodyFor returns the fresh body, or the cached one on a conditional match.
func (f *ConditionalFetcher) bodyFor(resp *Response, resource *resourceState) []byte {
	if resp.NotModified {
		return resource.lastBody
	}
	return resp.Body
}
