package detect

import "regexp"

// atcPatterns is the OR-set of purchasability signals. Unlike the price
// cascade there is no priority among them — storefront templates vary too
// much for one convention to dominate — so the first match wins.
var atcPatterns = []*regexp.Regexp{
	// Visible button label "add to cart" / "buy now", tolerating comments
	// and whitespace inside the button body.
	regexp.MustCompile(`(?is)<button[^>]*>(?:\s|<!--.*?-->)*?(?:add\s*(?:to\s*)?cart|buy\s*now)(?:\s|<!--.*?-->)*?</button>`),
	// Cart-add form target.
	regexp.MustCompile(`(?i)<form[^>]+action=["'][^"']*/cart/add[^"']*["']`),
	// Input or button named "add".
	regexp.MustCompile(`(?i)name=["']add["']`),
	// Element identified as AddToCart.
	regexp.MustCompile(`(?i)id=["']AddToCart["']`),
	// Bare AddToCart token (scripts, class names), any casing.
	regexp.MustCompile(`(?i)\bAddToCart\b`),
}

// FindAddToCart reports whether content carries an Add-to-Cart or Buy-Now
// control.
func FindAddToCart(content string) Detection {
	for _, re := range atcPatterns {
		if loc := re.FindStringIndex(content); loc != nil {
			return Detection{Found: true, Evidence: Snippet(content, loc[0])}
		}
	}
	return Detection{}
}
