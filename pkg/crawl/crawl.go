// Package crawl discovers product-detail-page URLs from a storefront seed
// page. It is a convenience for building target lists, not a general web
// crawler: one fetch, one href scan, PDP-looking links only.
package crawl

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/agentops/pdpguard/pkg/verify"
)

// DefaultMax is the default number of discovered URLs.
const DefaultMax = 10

// MaxDiscovered caps any discovery request.
const MaxDiscovered = 50

var (
	hrefPattern = regexp.MustCompile(`(?i)href=["']([^"']+)["']`)
	// PDP-ish path heuristics: Shopify and common storefront conventions.
	pdpPatterns = []*regexp.Regexp{
		regexp.MustCompile(`/products/[^/]+`),
		regexp.MustCompile(`/product/[^/]+`),
	}
)

// Discover fetches the seed page and returns up to max product URLs found
// in its links, deduplicated, in document order. max is clamped to
// [1, MaxDiscovered]; zero means DefaultMax.
func Discover(ctx context.Context, fetcher *verify.Fetcher, seed string, max int) ([]string, error) {
	if max <= 0 {
		max = DefaultMax
	}
	if max > MaxDiscovered {
		max = MaxDiscovered
	}

	parsed, err := url.Parse(seed)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("seed must be an absolute URL: %q", seed)
	}
	origin := parsed.Scheme + "://" + parsed.Host

	content, err := fetcher.Fetch(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("fetch seed: %w", err)
	}

	seen := make(map[string]bool)
	var urls []string
	for _, m := range hrefPattern.FindAllStringSubmatch(content, -1) {
		href := resolveHref(m[1], origin)
		if href == "" || !looksLikePDP(href) || seen[href] {
			continue
		}
		seen[href] = true
		urls = append(urls, href)
		if len(urls) >= max {
			break
		}
	}
	return urls, nil
}

// resolveHref normalizes an href against the seed's origin. Fragment,
// mailto, and javascript links resolve to nothing.
func resolveHref(href, origin string) string {
	switch {
	case href == "",
		strings.HasPrefix(href, "#"),
		strings.HasPrefix(href, "mailto:"),
		strings.HasPrefix(href, "javascript:"):
		return ""
	case strings.HasPrefix(href, "//"):
		return "https:" + href
	case strings.HasPrefix(href, "/"):
		return origin + href
	}
	return href
}

func looksLikePDP(href string) bool {
	for _, re := range pdpPatterns {
		if re.MatchString(href) {
			return true
		}
	}
	return false
}
