package style

import (
	"strings"

	"github.com/coolbeans/citeflex/pkg/cite"
)

// ChicagoAuthorDateFormatter renders citations in Chicago author-date
// reference style.
type ChicagoAuthorDateFormatter struct{}

// NewChicagoAuthorDateFormatter creates a Chicago author-date formatter.
func NewChicagoAuthorDateFormatter() *ChicagoAuthorDateFormatter {
	return &ChicagoAuthorDateFormatter{}
}

func (f *ChicagoAuthorDateFormatter) Name() string { return "Chicago Author-Date" }

// Format renders a full Chicago author-date reference:
// Author, First. Year. "Title." <i>Journal</i> Vol (Issue): Pages.
func (f *ChicagoAuthorDateFormatter) Format(m *cite.Metadata) string {
	if m == nil {
		return ""
	}

	var builder strings.Builder

	if authors := chicagoRefAuthors(m.Authors); authors != "" {
		builder.WriteString(ensurePeriod(authors) + " ")
	}

	year := m.Year
	if year == "" {
		year = cite.NoDate
	}
	builder.WriteString(year + ". ")

	switch m.Kind {
	case cite.KindBook:
		if m.Title != "" {
			builder.WriteString("<i>" + m.Title + "</i>. ")
		}
		if m.Container != "" {
			builder.WriteString(ensurePeriod(m.Container) + " ")
		}
	default:
		if m.Title != "" {
			builder.WriteString("\"" + strings.TrimSuffix(strings.TrimSpace(m.Title), ".") + ".\" ")
		}
		if m.Container != "" {
			builder.WriteString("<i>" + m.Container + "</i>")
			if m.Volume != "" {
				builder.WriteString(" " + m.Volume)
				if m.Issue != "" {
					builder.WriteString(" (" + m.Issue + ")")
				}
			}
			if m.Pages != "" {
				builder.WriteString(": " + m.Pages)
			}
			builder.WriteString(". ")
		}
	}

	if doi := cite.NormalizeDOI(m.DOI); doi != "" {
		builder.WriteString("https://doi.org/" + doi)
	} else if m.URL != "" {
		builder.WriteString(m.URL)
	}

	return ensurePeriodPreservingURL(builder.String())
}

// FormatShort renders the parenthetical-style short form: Surname (Year).
func (f *ChicagoAuthorDateFormatter) FormatShort(m *cite.Metadata) string {
	if m == nil {
		return ""
	}
	author := surname(m.FirstAuthor())
	year := m.Year
	if year == "" {
		year = cite.NoDate
	}
	if author == "" {
		return "(" + year + ")."
	}
	return author + " (" + year + ")."
}

// chicagoRefAuthors keeps the lead author surname-first and flips the
// rest to first-name-first, per Chicago reference lists.
func chicagoRefAuthors(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	ordered := make([]string, len(authors))
	ordered[0] = strings.TrimSpace(authors[0])
	for i := 1; i < len(authors); i++ {
		ordered[i] = firstNameFirst(authors[i])
	}
	return joinAuthors(ordered)
}
