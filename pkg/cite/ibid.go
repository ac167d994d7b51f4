package cite

import (
	"regexp"
	"strings"
)

// ibidPattern matches explicit back-reference tokens: ibid, ibid., ibidem,
// and the Bluebook short form Id. / id., optionally followed by a pinpoint
// introduced with a comma, period, or "at", with an optional p./pp. label.
// Page ranges accept both hyphen and en dash.
var ibidPattern = regexp.MustCompile(
	`(?i)^(?:ibid\.?|ibidem\.?|id\.?)(?:\s*(?:at\s+|[,.]?\s*)?(?:pp?\.?\s*)?(\d+[-\x{2013}]?\d*)?)?\.?$`,
)

// IsIbid reports whether the raw note text is an explicit ibid reference.
// Recognized forms include "ibid", "Ibid.", "ibidem", "Id. at 45",
// "ibid., pp. 12-15". Never fails on malformed input.
func IsIbid(text string) bool {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return false
	}
	return ibidPattern.MatchString(cleaned)
}

// ExtractPinpoint returns the page or page range attached to an ibid
// reference ("ibid., 45" -> "45", "Id. at 123-125" -> "123-125"), or ""
// when the token carries no pinpoint or the text is not an ibid at all.
func ExtractPinpoint(text string) string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return ""
	}

	match := ibidPattern.FindStringSubmatch(cleaned)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}
