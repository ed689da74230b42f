package detect

import (
	"strings"
	"testing"
)

const jsonLDProduct = `<html><head>
<script type="application/ld+json">
{"@type":"Product","name":"Widget","offers":{"@type":"Offer","price":"19.99","priceCurrency":"USD"}}
</script>
</head><body><h1>Widget</h1></body></html>`

func TestFindPriceJSONLD(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"offer price string", jsonLDProduct, true},
		{"offer price number", `<script type="application/ld+json">{"offers":{"price":19.99}}</script>`, true},
		{"lowPrice in offer array", `<script type="application/ld+json">[{"offers":[{"lowPrice":"5.00"}]}]</script>`, true},
		{"highPrice only", `<script type="application/ld+json">{"offers":{"highPrice":"120"}}</script>`, true},
		{"no offers", `<script type="application/ld+json">{"@type":"Product","name":"x"}</script>`, false},
		{"non-numeric price", `<script type="application/ld+json">{"offers":{"price":"call us"}}</script>`, false},
		{"malformed json ignored", `<script type="application/ld+json">{oops</script>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := jsonLDPrice(tt.content)
			if d.Found != tt.want {
				t.Errorf("Found = %v, want %v", d.Found, tt.want)
			}
			if d.Found && d.Evidence == "" {
				t.Error("positive detection without evidence")
			}
		})
	}
}

func TestFindPriceMeta(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"product price amount", `<meta property="product:price:amount" content="49.00">`, true},
		{"og price amount", `<meta property="og:price:amount" content="12,50">`, true},
		{"twitter data with currency", `<meta name="twitter:data1" content="$ 19.99">`, true},
		{"twitter data without currency", `<meta name="twitter:data1" content="In stock">`, false},
		{"unrelated meta", `<meta property="og:title" content="Widget">`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := metaPrice(tt.content); d.Found != tt.want {
				t.Errorf("Found = %v, want %v", d.Found, tt.want)
			}
		})
	}
}

func TestFindPriceMicrodata(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"itemprop with content", `<span itemprop="price" content="29.99">$29.99</span>`, true},
		{"data-price attribute", `<div data-price="1299"></div>`, true},
		{"data-product-price", `<div data-product-price="15.00"></div>`, true},
		{"no price markup", `<div class="price-box">TBD</div>`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := microdataPrice(tt.content); d.Found != tt.want {
				t.Errorf("Found = %v, want %v", d.Found, tt.want)
			}
		})
	}
}

func TestFindPriceLooseCurrency(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"dollar", "Only $ 24.99 today", true},
		{"euro", "Preis: €12,95", true},
		{"rupee", "₹ 1,499", true},
		{"single digit after symbol", "$5", false},
		{"no currency", "twenty dollars", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d := looseCurrencyPrice(tt.content); d.Found != tt.want {
				t.Errorf("Found = %v, want %v", d.Found, tt.want)
			}
		})
	}
}

func TestFindPriceCascadePriority(t *testing.T) {
	// JSON-LD evidence should win over a loose currency match later in
	// the document.
	content := jsonLDProduct + `<footer>Shipping from $4.99</footer>`
	d := FindPrice(content)
	if !d.Found {
		t.Fatal("expected price detection")
	}
	if !strings.Contains(d.Evidence, "ld+json") {
		t.Errorf("evidence %q does not come from the JSON-LD block", d.Evidence)
	}
}

func TestFindPriceEmptyContent(t *testing.T) {
	if d := FindPrice(""); d.Found {
		t.Error("empty content should not detect a price")
	}
}
