// Package cite provides the core citation data model: resolved metadata
// records, author-year citations extracted from prose, DOI/URL
// normalization, source identity keys, and ibid recognition.
package cite

// Kind classifies the kind of cited source.
type Kind string

const (
	KindJournal    Kind = "journal"
	KindBook       Kind = "book"
	KindNewspaper  Kind = "newspaper"
	KindMedical    Kind = "medical"
	KindGovernment Kind = "government"
	KindLegal      Kind = "legal"
	KindURL        Kind = "url"
	KindGeneric    Kind = "generic"
)

// Metadata is a resolved citation record. It is created by a single
// resolver call and immutable thereafter; any field may be empty.
type Metadata struct {
	// Kind classifies the source (journal, book, newspaper, ...).
	Kind Kind `json:"kind"`

	// Title of the work.
	Title string `json:"title,omitempty"`

	// Authors in document order, surname-first strings.
	Authors []string `json:"authors,omitempty"`

	// Year is the four-digit publication year, if known.
	Year string `json:"year,omitempty"`

	// Date is the free-form publication date (e.g. "December 8, 2025").
	Date string `json:"date,omitempty"`

	// Container holds the journal, newspaper, or publisher name.
	Container string `json:"container,omitempty"`

	Volume string `json:"volume,omitempty"`
	Issue  string `json:"issue,omitempty"`
	Pages  string `json:"pages,omitempty"`

	// DOI as returned by the provider; compare via NormalizeDOI.
	DOI string `json:"doi,omitempty"`

	// URL of the source; compare via NormalizeURL.
	URL string `json:"url,omitempty"`

	// AccessDate records when a web source was retrieved.
	AccessDate string `json:"access_date,omitempty"`

	// Legal fields.
	CaseName      string `json:"case_name,omitempty"`
	LegalCitation string `json:"legal_citation,omitempty"`

	// SourceEngine names the provider that produced this record.
	// Diagnostic only; never used for matching.
	SourceEngine string `json:"source_engine,omitempty"`

	// RawSource echoes the input the record was resolved from.
	RawSource string `json:"raw_source,omitempty"`
}

// FirstAuthor returns the first author, or "" when none is recorded.
func (m *Metadata) FirstAuthor() string {
	if m == nil || len(m.Authors) == 0 {
		return ""
	}
	return m.Authors[0]
}

// Completeness counts how many of the three completeness dimensions are
// populated: title, container/publisher, and volume/pages. Used by the
// resolver to break confidence ties toward richer records.
func (m *Metadata) Completeness() int {
	if m == nil {
		return 0
	}
	dimensions := 0
	if m.Title != "" {
		dimensions++
	}
	if m.Container != "" {
		dimensions++
	}
	if m.Volume != "" || m.Pages != "" {
		dimensions++
	}
	return dimensions
}

// AuthorYearCitation is an in-text author-date citation recovered from
// body prose, e.g. "(Kahneman & Tversky, 1979)".
type AuthorYearCitation struct {
	// Author is the primary author surname.
	Author string `json:"author"`

	// Year is a four-digit year or the literal marker "n.d.".
	Year string `json:"year"`

	// SecondAuthor is set for two-author citations.
	SecondAuthor string `json:"second_author,omitempty"`

	// EtAl is true for "et al." citations.
	EtAl bool `json:"et_al,omitempty"`

	// RawText is the original span as found in the prose.
	RawText string `json:"raw_text"`
}

// NoDate is the year marker for undated citations.
const NoDate = "n.d."
