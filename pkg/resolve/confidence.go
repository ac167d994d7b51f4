package resolve

import (
	"strconv"
	"strings"

	"github.com/coolbeans/citeflex/pkg/cite"
)

// confidenceScore rates how well a returned record matches the query.
//
// Year: +0.30 exact, +0.20 within one year. Author surname appearing as
// a substring of any returned author: +0.30, second author likewise
// +0.15. DOI present: +0.15. Each completeness dimension (title,
// container, volume/pages): +0.05. Clamped to [0, 1].
func confidenceScore(metadata *cite.Metadata, query Query) float64 {
	confidence := 0.0

	if query.Year != "" && metadata.Year == query.Year {
		confidence += 0.30
	} else if metadata.Year != "" && yearsWithinTolerance(metadata.Year, query.Year, 1) {
		confidence += 0.20
	}

	if authorMatches(metadata.Authors, query.Author) {
		confidence += 0.30
	}
	if query.SecondAuthor != "" && authorMatches(metadata.Authors, query.SecondAuthor) {
		confidence += 0.15
	}

	if metadata.DOI != "" {
		confidence += 0.15
	}

	confidence += float64(metadata.Completeness()) * 0.05

	if confidence > 1.0 {
		confidence = 1.0
	}
	if confidence < 0.0 {
		confidence = 0.0
	}
	return confidence
}

// authorMatches reports whether surname appears case-insensitively as a
// substring of any author in the list.
func authorMatches(authors []string, surname string) bool {
	if surname == "" {
		return false
	}
	needle := strings.ToLower(surname)
	for _, author := range authors {
		if strings.Contains(strings.ToLower(author), needle) {
			return true
		}
	}
	return false
}

// yearsWithinTolerance reports whether two year strings parse as
// integers no more than tolerance apart. Unparseable years never match.
func yearsWithinTolerance(returned, queried string, tolerance int) bool {
	returnedYear, err := strconv.Atoi(strings.TrimSpace(returned))
	if err != nil {
		return false
	}
	queriedYear, err := strconv.Atoi(strings.TrimSpace(queried))
	if err != nil {
		return false
	}
	delta := returnedYear - queriedYear
	if delta < 0 {
		delta = -delta
	}
	return delta <= tolerance
}
