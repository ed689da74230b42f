package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/agentops/pdpguard/pkg/verify"
)

const collectionPage = `<html><body>
<a href="#top">Top</a>
<a href="mailto:ops@example.com">Contact</a>
<a href="javascript:void(0)">Menu</a>
<a href="/products/widget">Widget</a>
<a href="/products/widget">Widget again</a>
<a href="/collections/all">All</a>
<a href="//cdn.example.com/product/gadget">Gadget</a>
<a href="https://other.example.com/product/thing">Thing</a>
<a href="/about">About</a>
</body></html>`

func TestDiscover(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(collectionPage))
	}))
	defer srv.Close()

	urls, err := Discover(context.Background(), verify.NewFetcher(), srv.URL+"/collections/all", 0)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		srv.URL + "/products/widget",
		"https://cdn.example.com/product/gadget",
		"https://other.example.com/product/thing",
	}
	if !reflect.DeepEqual(urls, want) {
		t.Errorf("urls = %v, want %v", urls, want)
	}
}

func TestDiscoverCap(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 0; i < 30; i++ {
		b.WriteString(`<a href="/products/p` + strings.Repeat("x", i+1) + `">p</a>`)
	}
	b.WriteString("</body></html>")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(b.String()))
	}))
	defer srv.Close()

	urls, err := Discover(context.Background(), verify.NewFetcher(), srv.URL, 5)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(urls) != 5 {
		t.Errorf("got %d urls, want 5", len(urls))
	}
}

func TestDiscoverBadSeed(t *testing.T) {
	if _, err := Discover(context.Background(), verify.NewFetcher(), "/relative/only", 5); err == nil {
		t.Error("expected error for non-absolute seed")
	}
}

func TestDiscoverFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := Discover(context.Background(), verify.NewFetcher(), srv.URL, 5); err == nil {
		t.Error("expected error when the seed fetch fails")
	}
}
