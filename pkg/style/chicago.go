package style

import (
	"strings"

	"github.com/coolbeans/citeflex/pkg/cite"
)

// ChicagoFormatter renders citations in Chicago Manual of Style
// notes-bibliography form, the conventional style for endnote and
// footnote rewriting.
type ChicagoFormatter struct{}

// NewChicagoFormatter creates a Chicago Manual of Style formatter.
func NewChicagoFormatter() *ChicagoFormatter {
	return &ChicagoFormatter{}
}

func (f *ChicagoFormatter) Name() string { return "Chicago Manual of Style" }

// Format renders a full Chicago note.
//
// Journal:  Author, "Title," <i>Journal</i> Vol, no. Issue (Year): Pages.
// Book:     Author, <i>Title</i> (Publisher, Year).
// Web:      Author, "Title," <i>Container</i>, Date, URL.
func (f *ChicagoFormatter) Format(m *cite.Metadata) string {
	if m == nil {
		return ""
	}

	var parts []string

	if authors := joinAuthors(chicagoNoteAuthors(m.Authors)); authors != "" {
		parts = append(parts, authors)
	}

	switch m.Kind {
	case cite.KindBook:
		if m.Title != "" {
			parts = append(parts, "<i>"+m.Title+"</i>")
		}
		imprint := chicagoImprint(m.Container, m.Year)
		if imprint != "" {
			parts = append(parts, imprint)
		}
		if m.Pages != "" {
			parts = append(parts, m.Pages)
		}
	case cite.KindLegal:
		if m.CaseName != "" {
			parts = append(parts, "<i>"+m.CaseName+"</i>")
		}
		if m.LegalCitation != "" {
			parts = append(parts, m.LegalCitation)
		}
		if m.Year != "" {
			parts = append(parts, "("+m.Year+")")
		}
	case cite.KindNewspaper, cite.KindGovernment, cite.KindURL:
		if m.Title != "" {
			parts = append(parts, "\""+m.Title+",\"")
		}
		if m.Container != "" {
			parts = append(parts, "<i>"+m.Container+"</i>")
		}
		if m.Date != "" {
			parts = append(parts, m.Date)
		} else if m.Year != "" {
			parts = append(parts, m.Year)
		}
		if m.URL != "" {
			parts = append(parts, m.URL)
		}
	default:
		if m.Title != "" {
			parts = append(parts, "\""+m.Title+",\"")
		}
		journal := chicagoJournal(m)
		if journal != "" {
			parts = append(parts, journal)
		}
		if doi := cite.NormalizeDOI(m.DOI); doi != "" {
			parts = append(parts, "https://doi.org/"+doi)
		}
	}

	return ensurePeriodPreservingURL(joinNoteParts(parts))
}

// FormatShort renders the Chicago short note: Surname, <i>Short Title</i>.
func (f *ChicagoFormatter) FormatShort(m *cite.Metadata) string {
	if m == nil {
		return ""
	}

	var parts []string
	if author := surname(m.FirstAuthor()); author != "" {
		parts = append(parts, author)
	}

	switch {
	case m.Kind == cite.KindLegal && m.CaseName != "":
		parts = append(parts, "<i>"+m.CaseName+"</i>")
	case m.Kind == cite.KindBook && m.Title != "":
		parts = append(parts, "<i>"+shortTitle(m.Title)+"</i>")
	case m.Title != "":
		parts = append(parts, "\""+shortTitle(m.Title)+"\"")
	}

	return ensurePeriod(joinNoteParts(parts))
}

// chicagoNoteAuthors converts surname-first author strings to the
// first-name-first order Chicago uses in notes.
func chicagoNoteAuthors(authors []string) []string {
	noteAuthors := make([]string, 0, len(authors))
	for _, author := range authors {
		noteAuthors = append(noteAuthors, firstNameFirst(author))
	}
	return noteAuthors
}

// firstNameFirst flips "Kahneman, Daniel" into "Daniel Kahneman";
// names without a comma pass through unchanged.
func firstNameFirst(author string) string {
	commaIndex := strings.Index(author, ",")
	if commaIndex < 0 {
		return strings.TrimSpace(author)
	}
	last := strings.TrimSpace(author[:commaIndex])
	first := strings.TrimSpace(author[commaIndex+1:])
	if first == "" {
		return last
	}
	return first + " " + last
}

// chicagoImprint renders the "(Publisher, Year)" element of a book note.
func chicagoImprint(publisher, year string) string {
	switch {
	case publisher != "" && year != "":
		return "(" + publisher + ", " + year + ")"
	case publisher != "":
		return "(" + publisher + ")"
	case year != "":
		return "(" + year + ")"
	default:
		return ""
	}
}

// chicagoJournal renders "<i>Journal</i> Vol, no. Issue (Year): Pages".
func chicagoJournal(m *cite.Metadata) string {
	if m.Container == "" {
		return ""
	}

	var builder strings.Builder
	builder.WriteString("<i>" + m.Container + "</i>")
	if m.Volume != "" {
		builder.WriteString(" " + m.Volume)
	}
	if m.Issue != "" {
		builder.WriteString(", no. " + m.Issue)
	}
	if m.Year != "" {
		builder.WriteString(" (" + m.Year + ")")
	}
	if m.Pages != "" {
		builder.WriteString(": " + m.Pages)
	}
	return builder.String()
}

// joinNoteParts joins note elements with ", ", tolerating parts that
// already end in quoted commas.
func joinNoteParts(parts []string) string {
	joined := strings.Join(parts, ", ")
	// A part ending in `,"` already carries the separator.
	return strings.ReplaceAll(joined, ",\", ", ",\" ")
}
