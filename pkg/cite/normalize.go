package cite

import (
	"strings"
)

// NormalizeDOI canonicalizes a DOI for equality checks: lowercased,
// trimmed, with any "doi:" label or resolver URL prefix stripped.
// Returns "" for input that carries no DOI content.
func NormalizeDOI(doi string) string {
	normalized := strings.ToLower(strings.TrimSpace(doi))
	if normalized == "" {
		return ""
	}

	for _, prefix := range []string{
		"https://doi.org/",
		"http://doi.org/",
		"https://dx.doi.org/",
		"http://dx.doi.org/",
		"doi.org/",
		"doi:",
	} {
		if strings.HasPrefix(normalized, prefix) {
			normalized = strings.TrimPrefix(normalized, prefix)
			break
		}
	}

	return strings.TrimSpace(normalized)
}

// NormalizeURL canonicalizes a URL for equality checks: lowercased,
// trimmed, trailing slashes removed, and the query string stripped so
// tracking parameters do not defeat matching.
func NormalizeURL(rawURL string) string {
	normalized := strings.ToLower(strings.TrimSpace(rawURL))
	if normalized == "" {
		return ""
	}

	if queryIndex := strings.Index(normalized, "?"); queryIndex >= 0 {
		normalized = normalized[:queryIndex]
	}

	return strings.TrimRight(normalized, "/")
}

// URLsMatch reports whether two URLs refer to the same resource after
// normalization. Empty URLs never match anything.
func URLsMatch(url1, url2 string) bool {
	if url1 == "" || url2 == "" {
		return false
	}
	return NormalizeURL(url1) == NormalizeURL(url2)
}
