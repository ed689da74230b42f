package verify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// maxContentBytes caps fetched content before extraction to bound memory
// and regexp CPU. Matches the engine's documented 300 KB limit.
const maxContentBytes = 300_000

// defaultUserAgent is a browser-like UA; some storefront CDNs refuse plain
// Go clients.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// FetchError is a classified non-recoverable fetch failure. Kind is a short
// stable identifier used in failure codes.
type FetchError struct {
	Kind string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch failed (%s): %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// HTTPError reports a non-2xx response status.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Status)
}

// Fetcher retrieves page content over HTTP. Redirects are followed
// automatically; the body is truncated at maxContentBytes.
type Fetcher struct {
	client         *http.Client
	userAgent      string
	allowedDomains []string
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.client.Timeout = d
	}
}

// WithUserAgent overrides the browser-like default User-Agent.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithAllowedDomains restricts fetches to the given hostnames. An empty
// list permits all domains.
func WithAllowedDomains(domains []string) FetcherOption {
	return func(f *Fetcher) {
		f.allowedDomains = domains
	}
}

// NewFetcher creates a Fetcher with a 20s default request timeout.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: 20 * time.Second},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves target and returns up to maxContentBytes of the body.
// Failures come back as *FetchError or *HTTPError; the caller maps them to
// verdict failure codes.
func (f *Fetcher) Fetch(ctx context.Context, target string) (string, error) {
	if err := f.checkAllowedDomain(target); err != nil {
		return "", &FetchError{Kind: "Forbidden", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", &FetchError{Kind: "BadRequest", Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{Kind: classifyFetchError(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &HTTPError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes))
	if err != nil {
		return "", &FetchError{Kind: classifyFetchError(err), Err: err}
	}
	return string(body), nil
}

// checkAllowedDomain verifies the target's hostname against the allowlist.
func (f *Fetcher) checkAllowedDomain(target string) error {
	if len(f.allowedDomains) == 0 {
		return nil
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", target, err)
	}
	host := parsed.Hostname()
	for _, d := range f.allowedDomains {
		if host == d {
			return nil
		}
	}
	return fmt.Errorf("domain %q is not in the allowed list", host)
}

// classifyFetchError maps transport errors onto short stable kinds.
func classifyFetchError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	case errors.Is(err, context.Canceled):
		return "Abort"
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "DNS"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "Timeout"
		}
		return "Connection"
	}
	return "Error"
}
