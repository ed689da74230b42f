package detect

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// priceStrategy is one detection strategy in the price cascade. Strategies
// run in fixed priority order and the first positive result wins; the
// ordering matters for evidence quality, not correctness.
type priceStrategy struct {
	name string
	fn   func(content string) Detection
}

var priceStrategies = []priceStrategy{
	{"jsonld", jsonLDPrice},
	{"meta", metaPrice},
	{"microdata", microdataPrice},
	{"currency", looseCurrencyPrice},
}

// FindPrice reports whether content carries a product price, running the
// strategy cascade: structured JSON-LD offers, then meta price tags, then
// microdata/data attributes, then a loose currency-symbol pattern.
func FindPrice(content string) Detection {
	for _, s := range priceStrategies {
		if d := s.fn(content); d.Found {
			return d
		}
	}
	return Detection{}
}

var (
	jsonLDScriptPattern = regexp.MustCompile(`(?is)<script[^>]+type=["']application/ld\+json["'][^>]*>(.*?)</script>`)
	numericPricePattern = regexp.MustCompile(`^\d[\d.,]*$`)
)

// jsonLDPrice scans embedded application/ld+json blocks for an offer
// carrying a numeric price, lowPrice, or highPrice field.
func jsonLDPrice(content string) Detection {
	for _, loc := range jsonLDScriptPattern.FindAllStringSubmatchIndex(content, -1) {
		raw := content[loc[2]:loc[3]]

		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			continue // malformed blocks are common in the wild
		}

		nodes, ok := parsed.([]any)
		if !ok {
			nodes = []any{parsed}
		}
		for _, node := range nodes {
			if nodeHasOfferPrice(node) {
				return Detection{Found: true, Evidence: Snippet(content, loc[0])}
			}
		}
	}
	return Detection{}
}

// nodeHasOfferPrice checks a single JSON-LD node for an offers block with a
// numeric price field.
func nodeHasOfferPrice(node any) bool {
	obj, ok := node.(map[string]any)
	if !ok {
		return false
	}

	var offers any
	for _, key := range []string{"offers", "Offers", "offer"} {
		if v, ok := obj[key]; ok && v != nil {
			offers = v
			break
		}
	}
	if offers == nil {
		return false
	}

	list, ok := offers.([]any)
	if !ok {
		list = []any{offers}
	}
	for _, entry := range list {
		off, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		for _, key := range []string{"price", "lowPrice", "highPrice"} {
			v, ok := off[key]
			if !ok || v == nil {
				continue
			}
			if numericPricePattern.MatchString(fmt.Sprintf("%v", v)) {
				return true
			}
		}
	}
	return false
}

var (
	metaPricePattern = regexp.MustCompile(`(?i)<meta[^>]+(?:property|name)=["'](?:product:price:amount|og:price:amount)["'][^>]*content=["']\d[\d.,]*["'][^>]*>`)
	twitterDataPrice = regexp.MustCompile(`(?i)<meta[^>]+name=["']twitter:data1["'][^>]*content=["'][^"']*(?:₹|\$|€|£)\s*\d[\d.,]*["'][^>]*>`)
)

// metaPrice looks for page metadata tags carrying a price amount:
// product:price:amount / og:price:amount, and the twitter:data1 tag some
// themes use to hold a currency-prefixed price.
func metaPrice(content string) Detection {
	if loc := metaPricePattern.FindStringIndex(content); loc != nil {
		return Detection{Found: true, Evidence: Snippet(content, loc[0])}
	}
	if loc := twitterDataPrice.FindStringIndex(content); loc != nil {
		return Detection{Found: true, Evidence: Snippet(content, loc[0])}
	}
	return Detection{}
}

var microdataPricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)itemprop=["']price["'][^>]*content=["']?\p{Sc}?\d[\d.,]*`),
	regexp.MustCompile(`(?i)\bdata-(?:price|product-price|price-amount|selling-plan-price)=["']\d[\d.,]*["']`),
}

// microdataPrice matches inline markup attributes conventionally used for
// price: itemprop microdata and data-price style attributes.
func microdataPrice(content string) Detection {
	for _, re := range microdataPricePatterns {
		if loc := re.FindStringIndex(content); loc != nil {
			return Detection{Found: true, Evidence: Snippet(content, loc[0])}
		}
	}
	return Detection{}
}

var looseCurrencyPattern = regexp.MustCompile(`(?:₹|\$|€|£)\s*\d[\d.,]+`)

// looseCurrencyPrice is the last-resort strategy: any currency symbol
// followed by digits, anywhere in the content.
func looseCurrencyPrice(content string) Detection {
	if loc := looseCurrencyPattern.FindStringIndex(content); loc != nil {
		return Detection{Found: true, Evidence: Snippet(content, loc[0])}
	}
	return Detection{}
}
