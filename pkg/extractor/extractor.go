// Package extractor recovers (author, year) citations from body prose.
// It runs a battery of narrative and parenthetical patterns over the
// text and canonicalizes the recovered author names.
package extractor

import (
	"regexp"
	"strings"

	"github.com/coolbeans/citeflex/pkg/cite"
)

// surnameClass matches one capitalized surname token, keeping hyphens,
// apostrophes, and accented letters.
const surnameClass = `\p{Lu}[\p{L}'’-]+`

// yearClass matches a four-digit year or the undated marker.
const yearClass = `(?:\d{4}|n\.d\.)`

var (
	parenGroupPattern = regexp.MustCompile(`\(([^()]+)\)`)

	// Parenthetical segment shapes, tried most-specific first.
	segmentEtAlPattern = regexp.MustCompile(
		`^(` + surnameClass + `)\s+et\s+al\.,?\s*(` + yearClass + `)$`)
	segmentTwoAuthorPattern = regexp.MustCompile(
		`^(` + surnameClass + `)\s*(?:&|and)\s*(` + surnameClass + `),\s*(` + yearClass + `)$`)
	segmentSinglePattern = regexp.MustCompile(
		`^(` + surnameClass + `),\s*(` + yearClass + `)$`)

	// Narrative shapes, tried most-specific first.
	narrativeEtAlPattern = regexp.MustCompile(
		`(` + surnameClass + `)\s+et\s+al\.\s*\((` + yearClass + `)\)`)
	narrativeTwoAuthorPattern = regexp.MustCompile(
		`(` + surnameClass + `)\s+and\s+(` + surnameClass + `)\s*\((` + yearClass + `)\)`)
	narrativeSinglePattern = regexp.MustCompile(
		`(` + surnameClass + `)\s*\((` + yearClass + `)\)`)

	honorificPattern = regexp.MustCompile(`^(?i:dr|prof|professor|mr|mrs|ms|sir|rev)\.?\s+`)
)

// Extractor parses in-text author-date citations out of prose.
type Extractor struct {
	citations []cite.AuthorYearCitation
}

// New creates an empty extractor.
func New() *Extractor {
	return &Extractor{}
}

// span is a claimed half-open byte interval of the input text.
type span struct {
	start, end int
}

func overlaps(claimed []span, start, end int) bool {
	for _, s := range claimed {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}

// ExtractFromText parses all in-text citations from a block of prose,
// in document order. Parenthetical groups are consumed first so that a
// narrative pattern never re-reads text inside a claimed group; a
// parenthetical group that yields no citation stays unclaimed, which
// lets "Surname (1979)" narrative forms match through it. Results
// accumulate across calls.
func (e *Extractor) ExtractFromText(text string) []cite.AuthorYearCitation {
	type located struct {
		start    int
		citation cite.AuthorYearCitation
	}

	var found []located
	var claimed []span

	for _, groupIndex := range parenGroupPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := groupIndex[0], groupIndex[1]
		content := text[groupIndex[2]:groupIndex[3]]

		matched := false
		for _, segment := range strings.Split(content, ";") {
			citation, ok := parseSegment(strings.TrimSpace(segment))
			if !ok {
				continue
			}
			matched = true
			found = append(found, located{start: start, citation: citation})
		}
		if matched {
			claimed = append(claimed, span{start: start, end: end})
		}
	}

	narrativePatterns := []struct {
		pattern *regexp.Regexp
		parse   func(groups []string) (cite.AuthorYearCitation, bool)
	}{
		{narrativeEtAlPattern, func(groups []string) (cite.AuthorYearCitation, bool) {
			author, ok := canonicalizeAuthor(groups[1])
			if !ok {
				return cite.AuthorYearCitation{}, false
			}
			return cite.AuthorYearCitation{Author: author, Year: groups[2], EtAl: true}, true
		}},
		{narrativeTwoAuthorPattern, func(groups []string) (cite.AuthorYearCitation, bool) {
			author, ok := canonicalizeAuthor(groups[1])
			if !ok {
				return cite.AuthorYearCitation{}, false
			}
			second, ok := canonicalizeAuthor(groups[2])
			if !ok {
				return cite.AuthorYearCitation{}, false
			}
			return cite.AuthorYearCitation{Author: author, Year: groups[3], SecondAuthor: second}, true
		}},
		{narrativeSinglePattern, func(groups []string) (cite.AuthorYearCitation, bool) {
			author, ok := canonicalizeAuthor(groups[1])
			if !ok {
				return cite.AuthorYearCitation{}, false
			}
			return cite.AuthorYearCitation{Author: author, Year: groups[2]}, true
		}},
	}

	for _, narrative := range narrativePatterns {
		for _, matchIndex := range narrative.pattern.FindAllStringSubmatchIndex(text, -1) {
			start, end := matchIndex[0], matchIndex[1]
			if overlaps(claimed, start, end) {
				continue
			}
			groups := make([]string, 0, len(matchIndex)/2)
			for i := 0; i < len(matchIndex); i += 2 {
				groups = append(groups, text[matchIndex[i]:matchIndex[i+1]])
			}
			citation, ok := narrative.parse(groups)
			if !ok {
				continue
			}
			citation.RawText = groups[0]
			found = append(found, located{start: start, citation: citation})
			claimed = append(claimed, span{start: start, end: end})
		}
	}

	// Restore document order across the two passes.
	for i := 1; i < len(found); i++ {
		for j := i; j > 0 && found[j].start < found[j-1].start; j-- {
			found[j], found[j-1] = found[j-1], found[j]
		}
	}

	extracted := make([]cite.AuthorYearCitation, 0, len(found))
	for _, item := range found {
		extracted = append(extracted, item.citation)
	}
	e.citations = append(e.citations, extracted...)
	return extracted
}

// parseSegment parses one parenthetical segment like "Kahneman &
// Tversky, 1979" into a citation.
func parseSegment(segment string) (cite.AuthorYearCitation, bool) {
	if groups := segmentEtAlPattern.FindStringSubmatch(segment); groups != nil {
		author, ok := canonicalizeAuthor(groups[1])
		if !ok {
			return cite.AuthorYearCitation{}, false
		}
		return cite.AuthorYearCitation{
			Author:  author,
			Year:    groups[2],
			EtAl:    true,
			RawText: "(" + segment + ")",
		}, true
	}
	if groups := segmentTwoAuthorPattern.FindStringSubmatch(segment); groups != nil {
		author, ok := canonicalizeAuthor(groups[1])
		if !ok {
			return cite.AuthorYearCitation{}, false
		}
		second, ok := canonicalizeAuthor(groups[2])
		if !ok {
			return cite.AuthorYearCitation{}, false
		}
		return cite.AuthorYearCitation{
			Author:       author,
			Year:         groups[3],
			SecondAuthor: second,
			RawText:      "(" + segment + ")",
		}, true
	}
	if groups := segmentSinglePattern.FindStringSubmatch(segment); groups != nil {
		author, ok := canonicalizeAuthor(groups[1])
		if !ok {
			return cite.AuthorYearCitation{}, false
		}
		return cite.AuthorYearCitation{
			Author:  author,
			Year:    groups[2],
			RawText: "(" + segment + ")",
		}, true
	}
	return cite.AuthorYearCitation{}, false
}

// canonicalizeAuthor strips honorifics, collapses internal whitespace,
// and rejects all-lowercase tokens, which are phrase fragments rather
// than names.
func canonicalizeAuthor(author string) (string, bool) {
	author = honorificPattern.ReplaceAllString(strings.TrimSpace(author), "")
	author = strings.Join(strings.Fields(author), " ")
	if author == "" {
		return "", false
	}
	if strings.ToLower(author) == author {
		return "", false
	}
	return author, true
}

// UniqueCitations deduplicates the accumulated citations, preserving
// first-seen order. "Smith et al." and "Smith" in the same year stay
// distinct entries.
func (e *Extractor) UniqueCitations() []cite.AuthorYearCitation {
	return Deduplicate(e.citations)
}

// Reset clears the accumulated citations.
func (e *Extractor) Reset() {
	e.citations = nil
}

// Deduplicate removes repeated citations, keyed by lowercased surname,
// year, lowercased second author, and the et al. flag. The first
// occurrence of each key is kept, in insertion order.
func Deduplicate(citations []cite.AuthorYearCitation) []cite.AuthorYearCitation {
	type dedupKey struct {
		author string
		year   string
		second string
		etAl   bool
	}

	seen := make(map[dedupKey]bool, len(citations))
	unique := make([]cite.AuthorYearCitation, 0, len(citations))
	for _, citation := range citations {
		key := dedupKey{
			author: strings.ToLower(citation.Author),
			year:   citation.Year,
			second: strings.ToLower(citation.SecondAuthor),
			etAl:   citation.EtAl,
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, citation)
	}
	return unique
}
