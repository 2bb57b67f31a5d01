package patch

import (
	"regexp"
	"strings"
)

// pricePattern matches a trailing "– 35 po" style fragment on a display name.
var pricePattern = regexp.MustCompile(`(?i)^(.*?)\s*[–—-]\s*(\d+(?:[.,]\d+)?)\s*(po|pp|pe|pc|pl|mo|gp|sp|cp|ep|gold|oro|plata|cobre)\.?\s*$`)

// StripPrice splits a trailing price fragment off a name. When the name has
// no such fragment, or nothing would remain, it is returned unchanged with an
// empty price.
func StripPrice(name string) (clean, price string) {
	m := pricePattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return strings.TrimSpace(name), ""
	}
	clean = strings.TrimSpace(m[1])
	if clean == "" {
		return strings.TrimSpace(name), ""
	}
	// "Rope – 3 po – 35 po": keep the last price, drop every fragment.
	clean, _ = StripPrice(clean)
	return clean, m[2] + " " + strings.ToLower(m[3])
}

// HasPrice reports whether name ends in a price fragment.
func HasPrice(name string) bool {
	_, p := StripPrice(name)
	return p != ""
}
