// Package style provides citation formatters behind a narrow interface.
// Formatters emit plain text with <i>...</i> marking italic spans; the
// document mutator translates that markup into native italic runs. No
// other markup is allowed.
package style

import (
	"strings"

	"github.com/coolbeans/citeflex/pkg/cite"
)

// Formatter renders a resolved metadata record in a particular citation
// style. Implementations must be safe for concurrent use.
type Formatter interface {
	// Name returns the human-readable style name (e.g., "APA (7th ed.)").
	Name() string

	// Format renders the full-form citation used the first time a source
	// is cited.
	Format(m *cite.Metadata) string

	// FormatShort renders the shortened citation used when the source has
	// been cited earlier but not immediately prior.
	FormatShort(m *cite.Metadata) string
}

// FormatIbid renders the shared back-reference form, optionally with a
// pinpoint page range: "Ibid." or "Ibid., 45."
func FormatIbid(pinpoint string) string {
	if pinpoint == "" {
		return "Ibid."
	}
	return "Ibid., " + pinpoint + "."
}

// joinAuthors renders an author list as "A", "A and B", or
// "A, B, and C" depending on length.
func joinAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return authors[0]
	case 2:
		return authors[0] + " and " + authors[1]
	default:
		return strings.Join(authors[:len(authors)-1], ", ") + ", and " + authors[len(authors)-1]
	}
}

// surname extracts the surname from a surname-first author string
// ("Kahneman, D." -> "Kahneman") or from a plain "First Last" name.
func surname(author string) string {
	author = strings.TrimSpace(author)
	if author == "" {
		return ""
	}
	if commaIndex := strings.Index(author, ","); commaIndex >= 0 {
		return strings.TrimSpace(author[:commaIndex])
	}
	fields := strings.Fields(author)
	return fields[len(fields)-1]
}

// shortTitle truncates a title to its first four words for short-form
// citations, dropping a leading article.
func shortTitle(title string) string {
	words := strings.Fields(title)
	if len(words) == 0 {
		return ""
	}
	switch strings.ToLower(words[0]) {
	case "the", "a", "an":
		if len(words) > 1 {
			words = words[1:]
		}
	}
	if len(words) > 4 {
		words = words[:4]
	}
	short := strings.Join(words, " ")
	return strings.TrimRight(short, ".,;:")
}

// ensurePeriod appends a terminal period unless the text already ends
// with sentence punctuation.
func ensurePeriod(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return trimmed
	}
	switch trimmed[len(trimmed)-1] {
	case '.', '!', '?':
		return trimmed
	}
	return trimmed + "."
}
