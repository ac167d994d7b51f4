package style

import (
	"strings"

	"github.com/coolbeans/citeflex/pkg/cite"
)

// APAFormatter renders citations in APA (7th edition) reference style.
// This is the default style for author-date processing.
type APAFormatter struct{}

// NewAPAFormatter creates an APA (7th ed.) formatter.
func NewAPAFormatter() *APAFormatter {
	return &APAFormatter{}
}

func (f *APAFormatter) Name() string { return "APA (7th ed.)" }

// Format renders a full APA reference:
// Author, A., & Author, B. (Year). Title. <i>Container</i>, <i>Vol</i>(Issue), Pages. https://doi.org/...
func (f *APAFormatter) Format(m *cite.Metadata) string {
	if m == nil {
		return ""
	}

	var builder strings.Builder

	if authors := apaAuthors(m.Authors); authors != "" {
		builder.WriteString(authors)
		builder.WriteString(" ")
	}

	year := m.Year
	if year == "" {
		year = cite.NoDate
	}
	builder.WriteString("(" + year + "). ")

	switch m.Kind {
	case cite.KindBook:
		if m.Title != "" {
			builder.WriteString("<i>" + m.Title + "</i>. ")
		}
		if m.Container != "" {
			builder.WriteString(m.Container + ". ")
		}
	default:
		if m.Title != "" {
			builder.WriteString(ensurePeriod(m.Title) + " ")
		}
		if m.Container != "" {
			builder.WriteString("<i>" + m.Container + "</i>")
			if m.Volume != "" {
				builder.WriteString(", <i>" + m.Volume + "</i>")
				if m.Issue != "" {
					builder.WriteString("(" + m.Issue + ")")
				}
			}
			if m.Pages != "" {
				builder.WriteString(", " + m.Pages)
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

// FormatShort renders the APA short form: Surname (Year).
func (f *APAFormatter) FormatShort(m *cite.Metadata) string {
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

// apaAuthors renders "Kahneman, D., & Tversky, A." style author lists.
func apaAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return ensurePeriod(authors[0])
	default:
		head := strings.Join(authors[:len(authors)-1], ", ")
		return ensurePeriod(head + ", & " + authors[len(authors)-1])
	}
}

// ensurePeriodPreservingURL appends a terminal period except when the
// citation ends with a URL or DOI, which APA leaves bare.
func ensurePeriodPreservingURL(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return trimmed
	}
	if strings.HasSuffix(trimmed, "/") {
		return trimmed
	}
	lastSpace := strings.LastIndexByte(trimmed, ' ')
	lastToken := trimmed[lastSpace+1:]
	if strings.HasPrefix(lastToken, "http://") || strings.HasPrefix(lastToken, "https://") {
		return trimmed
	}
	return ensurePeriod(trimmed)
}
