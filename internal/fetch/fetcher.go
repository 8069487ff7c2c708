// Package fetch resolves remote documents through the persistent
// cache. Repeated runs within a document's advertised lifetime never
// touch the network, which keeps the tool polite toward the source
// hosts it syncs from.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/smsegal/schemesync/internal/cache"
)

const (
	// DefaultTimeout is the default timeout for HTTP requests. Source
	// archives run to tens of megabytes, so this is generous.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "schemesync/1.0"

	// DefaultTTL applies when a response carries no usable max-age
	// directive.
	DefaultTTL = 24 * time.Hour

	// CacheTopic is the cache namespace for fetched documents.
	CacheTopic = "data-by-url"

	defaultMaxTries = 3
)

// Client fetches a URL, resolving through the cache when possible.
type Client interface {
	// Fetch returns the document at url, from cache when a live copy
	// exists, otherwise from the network.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Fetcher is the default Client implementation.
type Fetcher struct {
	client   *http.Client
	topic    *cache.Topic
	maxTries uint
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithMaxTries bounds retry attempts for transient failures.
func WithMaxTries(n uint) Option {
	return func(f *Fetcher) {
		f.maxTries = n
	}
}

// New creates a Fetcher over the given cache store.
func New(store *cache.Store, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:   &http.Client{Timeout: DefaultTimeout},
		topic:    store.Topic(CacheTopic),
		maxTries: defaultMaxTries,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the document at url. A live cache entry short-circuits
// the network entirely. On a miss the response is fetched, its
// lifetime resolved from the Cache-Control header, and the payload
// cached before it is returned. Failed requests are never cached, so
// the next run retries them.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	updater, data, err := f.topic.GetForUpdate(ctx, url)
	if err != nil {
		return nil, err
	}
	if data != nil {
		slog.Debug("cache hit", "url", url)
		return data, nil
	}

	slog.Info("fetching remote document", "url", url)
	body, ttl, err := f.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := updater.Write(ctx, body, ttl); err != nil {
		return nil, err
	}
	return body, nil
}

type response struct {
	body []byte
	ttl  time.Duration
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, time.Duration, error) {
	op := func() (response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return response{}, backoff.Permanent(fmt.Errorf("creating request for %s: %w", url, err))
		}
		req.Header.Set("User-Agent", UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return response{}, fmt.Errorf("fetching %s: %w", url, err)
		}
		defer func() {
			_ = resp.Body.Close()
		}()

		limited := io.LimitReader(resp.Body, MaxResponseSize+1)
		body, err := io.ReadAll(limited)
		if err != nil {
			return response{}, fmt.Errorf("reading response from %s: %w", url, err)
		}
		if int64(len(body)) > MaxResponseSize {
			return response{}, backoff.Permanent(fmt.Errorf("response from %s exceeds %d bytes", url, MaxResponseSize))
		}

		if resp.StatusCode != http.StatusOK {
			httpErr := NewHTTPError(resp.StatusCode, url, strings.TrimSpace(string(body)))
			if retryable(resp.StatusCode) {
				return response{}, httpErr
			}
			return response{}, backoff.Permanent(httpErr)
		}

		return response{body: body, ttl: ttlFrom(resp.Header)}, nil
	}

	res, err := backoff.Retry(ctx, op, backoff.WithMaxTries(f.maxTries))
	if err != nil {
		return nil, 0, err
	}
	return res.body, res.ttl, nil
}

func retryable(status int) bool {
	switch status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// ttlFrom resolves an entry lifetime from the Cache-Control header.
// Only a numeric max-age directive is honored; anything else falls
// back to DefaultTTL.
func ttlFrom(header http.Header) time.Duration {
	for _, directive := range strings.Split(header.Get("Cache-Control"), ",") {
		name, value, ok := strings.Cut(strings.TrimSpace(directive), "=")
		if !ok || !strings.EqualFold(name, "max-age") {
			continue
		}
		secs, err := strconv.ParseUint(strings.TrimSpace(value), 10, 64)
		if err != nil {
			continue
		}
		return time.Duration(secs) * time.Second
	}
	return DefaultTTL
}
