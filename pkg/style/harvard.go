package style

import (
	"strings"

	"github.com/coolbeans/citeflex/pkg/cite"
)

// HarvardFormatter renders citations in Harvard author-date reference
// style.
type HarvardFormatter struct{}

// NewHarvardFormatter creates a Harvard formatter.
func NewHarvardFormatter() *HarvardFormatter {
	return &HarvardFormatter{}
}

func (f *HarvardFormatter) Name() string { return "Harvard" }

// Format renders a full Harvard reference:
// Author, A. (Year) 'Title', <i>Container</i>, Vol(Issue), pp. Pages.
func (f *HarvardFormatter) Format(m *cite.Metadata) string {
	if m == nil {
		return ""
	}

	var builder strings.Builder

	if authors := joinAuthors(m.Authors); authors != "" {
		builder.WriteString(authors + " ")
	}

	year := m.Year
	if year == "" {
		year = cite.NoDate
	}
	builder.WriteString("(" + year + ")")

	if m.Kind == cite.KindBook {
		if m.Title != "" {
			builder.WriteString(" <i>" + m.Title + "</i>.")
		}
		if m.Container != "" {
			builder.WriteString(" " + ensurePeriod(m.Container))
		}
	} else {
		if m.Title != "" {
			builder.WriteString(" '" + m.Title + "',")
		}
		if m.Container != "" {
			builder.WriteString(" <i>" + m.Container + "</i>")
			if m.Volume != "" {
				builder.WriteString(", " + m.Volume)
				if m.Issue != "" {
					builder.WriteString("(" + m.Issue + ")")
				}
			}
			if m.Pages != "" {
				builder.WriteString(", pp. " + m.Pages)
			}
			builder.WriteString(".")
		}
	}

	if m.URL != "" && cite.NormalizeDOI(m.DOI) == "" {
		builder.WriteString(" Available at: " + m.URL)
		if m.AccessDate != "" {
			builder.WriteString(" (Accessed: " + m.AccessDate + ")")
		}
		builder.WriteString(".")
	} else if doi := cite.NormalizeDOI(m.DOI); doi != "" {
		builder.WriteString(" doi: " + doi + ".")
	}

	return strings.TrimSpace(builder.String())
}

// FormatShort renders the Harvard short form: Surname (Year).
func (f *HarvardFormatter) FormatShort(m *cite.Metadata) string {
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
