package cite

import (
	"strings"
)

// SourceKey derives a stable identity key from a metadata record. Two
// records with the same non-empty key cite the same work.
//
// Priority order:
//  1. DOI (normalized) - the most reliable identifier
//  2. URL (normalized) - for web sources
//  3. Case name + legal citation - for legal sources
//  4. Title, plus first author when present
//  5. Case name alone - legal sources without a reporter citation
//
// Returns "" when the record carries none of the above; empty keys must
// never be treated as matching.
func SourceKey(m *Metadata) string {
	if m == nil {
		return ""
	}

	if doi := NormalizeDOI(m.DOI); doi != "" {
		return "doi:" + doi
	}

	if m.URL != "" {
		return "url:" + NormalizeURL(m.URL)
	}

	if m.CaseName != "" && m.LegalCitation != "" {
		return "legal:" + lowerTrim(m.CaseName) + "|" + lowerTrim(m.LegalCitation)
	}

	if m.Title != "" {
		key := "title:" + lowerTrim(m.Title)
		if author := m.FirstAuthor(); author != "" {
			key += "|author:" + lowerTrim(author)
		}
		return key
	}

	if m.CaseName != "" {
		return "case:" + lowerTrim(m.CaseName)
	}

	return ""
}

// SourcesMatch reports whether two metadata records cite the same work.
// Records without a derivable key never match.
func SourcesMatch(m1, m2 *Metadata) bool {
	key1 := SourceKey(m1)
	key2 := SourceKey(m2)
	if key1 == "" || key2 == "" {
		return false
	}
	return key1 == key2
}

func lowerTrim(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
