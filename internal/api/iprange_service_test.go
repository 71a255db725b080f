package api

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"iprange-filter/internal/filter"
	"iprange-filter/internal/ranges"
	"iprange-filter/internal/region"

	"github.com/stretchr/testify/assert"
)

type countingFetcher struct {
	mu    sync.Mutex
	calls int
	doc   ranges.Document
	err   error
}

func (f *countingFetcher) Fetch(ctx context.Context) (ranges.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.doc, f.err
}

func (f *countingFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newResolver(f ranges.Fetcher) (*Resolver, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewResolver(ranges.NewCache(f)).WithClock(c.Now), c
}

func docOf(entries ...ranges.PrefixEntry) ranges.Document {
	return ranges.Document{Prefixes: entries}
}

func TestResolveScenarios(t *testing.T) {
	ctx := context.Background()

	rs, _ := newResolver(&countingFetcher{doc: docOf(ranges.V4("us-central1", "1.1.1.0/24"))})
	assert.Equal(t, "1.1.1.0/24", rs.Resolve(ctx, region.US, filter.VersionIPv4))

	rs, _ = newResolver(&countingFetcher{doc: docOf(ranges.V4("europe-west1", "2.2.2.0/24"))})
	assert.Equal(t, "", rs.Resolve(ctx, region.US, filter.VersionIPv4))

	rs, _ = newResolver(&countingFetcher{doc: docOf(
		ranges.V4("asia-south1", "3.3.3.0/24"),
		ranges.V6("asia-south1", "2404:6800::/32"),
	)})
	assert.Equal(t, "3.3.3.0/24\n2404:6800::/32", rs.Resolve(ctx, region.AS, filter.VersionAll))
}

func TestResolveConnectionFailure(t *testing.T) {
	err := &ranges.FetchError{
		Kind: ranges.KindConnection,
		Err:  &url.Error{Op: "Get", URL: "http://test.com/ipranges/cloud.json", Err: errors.New("Connection refused")},
	}
	rs, _ := newResolver(&countingFetcher{err: err})
	assert.Equal(t, "Connection error: Connection refused", rs.Resolve(context.Background(), region.ALL, filter.VersionAll))
}

func TestResolveOtherAndMalformedFailures(t *testing.T) {
	rs, _ := newResolver(&countingFetcher{err: &ranges.FetchError{Kind: ranges.KindOther, Err: errors.New("Simulated timeout")}})
	assert.Equal(t, "Could not fetch IP ranges: Simulated timeout", rs.Resolve(context.Background(), region.ALL, filter.VersionAll))

	rs, _ = newResolver(&countingFetcher{err: &ranges.FetchError{Kind: ranges.KindMalformed, Err: ranges.ErrMissingPrefixes}})
	assert.Equal(t, "Malformed or empty response from GCP", rs.Resolve(context.Background(), region.ALL, filter.VersionAll))
}

func TestFailureMessageUnclassified(t *testing.T) {
	assert.Equal(t, "Could not fetch IP ranges: boom", FailureMessage(fmt.Errorf("boom")))
}

func TestResolveIdempotentWithinInterval(t *testing.T) {
	f := &countingFetcher{doc: docOf(ranges.V4("us-central1", "5.5.5.0/24"), ranges.V6("us-east1", "2001:db8::/32"))}
	rs, c := newResolver(f)

	first := rs.Resolve(context.Background(), region.US, filter.VersionAll)
	c.t = c.t.Add(59 * time.Minute)
	second := rs.Resolve(context.Background(), region.US, filter.VersionAll)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.Calls())

	c.t = c.t.Add(2 * time.Minute)
	_ = rs.Resolve(context.Background(), region.US, filter.VersionAll)
	assert.Equal(t, 2, f.Calls())
}

func TestResolveTextReportsError(t *testing.T) {
	rs, _ := newResolver(&countingFetcher{err: &ranges.FetchError{Kind: ranges.KindMalformed, Err: ranges.ErrEmptyBody}})
	body, err := rs.ResolveText(context.Background(), region.EU, filter.VersionIPv6)
	assert.Error(t, err)
	assert.Equal(t, MsgMalformed, body)
	assert.False(t, rs.State().Cached)
}
