package style

import (
	"strings"
	"testing"

	"github.com/coolbeans/citeflex/pkg/cite"
)

func journalArticle() *cite.Metadata {
	return &cite.Metadata{
		Kind:      cite.KindJournal,
		Title:     "Prospect Theory: An Analysis of Decision under Risk",
		Authors:   []string{"Kahneman, D.", "Tversky, A."},
		Year:      "1979",
		Container: "Econometrica",
		Volume:    "47",
		Issue:     "2",
		Pages:     "263-291",
		DOI:       "10.2307/1914185",
	}
}

func bookSource() *cite.Metadata {
	return &cite.Metadata{
		Kind:      cite.KindBook,
		Title:     "Thinking, Fast and Slow",
		Authors:   []string{"Kahneman, Daniel"},
		Year:      "2011",
		Container: "Farrar, Straus and Giroux",
	}
}

func TestFormatIbid(t *testing.T) {
	tests := []struct {
		name     string
		pinpoint string
		want     string
	}{
		{"no pinpoint", "", "Ibid."},
		{"single page", "45", "Ibid., 45."},
		{"page range", "45-47", "Ibid., 45-47."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatIbid(tt.pinpoint); got != tt.want {
				t.Errorf("FormatIbid(%q) = %q, want %q", tt.pinpoint, got, tt.want)
			}
		})
	}
}

func TestAPAFormat(t *testing.T) {
	formatter := NewAPAFormatter()

	t.Run("journal article", func(t *testing.T) {
		got := formatter.Format(journalArticle())
		want := "Kahneman, D., & Tversky, A. (1979). Prospect Theory: An Analysis of Decision under Risk. <i>Econometrica</i>, <i>47</i>(2), 263-291. https://doi.org/10.2307/1914185"
		if got != want {
			t.Errorf("Format() = %q, want %q", got, want)
		}
	})

	t.Run("book", func(t *testing.T) {
		got := formatter.Format(bookSource())
		if !strings.Contains(got, "<i>Thinking, Fast and Slow</i>") {
			t.Errorf("Format() = %q, want italic title", got)
		}
		if !strings.Contains(got, "(2011)") {
			t.Errorf("Format() = %q, want year", got)
		}
	})

	t.Run("missing year renders n.d.", func(t *testing.T) {
		m := journalArticle()
		m.Year = ""
		got := formatter.Format(m)
		if !strings.Contains(got, "(n.d.)") {
			t.Errorf("Format() = %q, want n.d. placeholder", got)
		}
	})

	t.Run("doi left bare at end", func(t *testing.T) {
		got := formatter.Format(journalArticle())
		if strings.HasSuffix(got, "1914185.") {
			t.Errorf("Format() = %q, terminal period must not follow DOI", got)
		}
	})

	t.Run("nil metadata", func(t *testing.T) {
		if got := formatter.Format(nil); got != "" {
			t.Errorf("Format(nil) = %q, want empty", got)
		}
	})
}

func TestAPAFormatShort(t *testing.T) {
	formatter := NewAPAFormatter()

	tests := []struct {
		name string
		m    *cite.Metadata
		want string
	}{
		{"author and year", journalArticle(), "Kahneman (1979)."},
		{"no author", &cite.Metadata{Year: "1979"}, "(1979)."},
		{"no year", &cite.Metadata{Authors: []string{"Kahneman, D."}}, "Kahneman (n.d.)."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatter.FormatShort(tt.m); got != tt.want {
				t.Errorf("FormatShort() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChicagoFormat(t *testing.T) {
	formatter := NewChicagoFormatter()

	t.Run("journal article", func(t *testing.T) {
		got := formatter.Format(journalArticle())
		for _, fragment := range []string{
			"D. Kahneman and A. Tversky",
			"\"Prospect Theory: An Analysis of Decision under Risk,\"",
			"<i>Econometrica</i> 47, no. 2 (1979): 263-291",
			"https://doi.org/10.2307/1914185",
		} {
			if !strings.Contains(got, fragment) {
				t.Errorf("Format() = %q, missing %q", got, fragment)
			}
		}
	})

	t.Run("book imprint", func(t *testing.T) {
		got := formatter.Format(bookSource())
		want := "Daniel Kahneman, <i>Thinking, Fast and Slow</i>, (Farrar, Straus and Giroux, 2011)."
		if got != want {
			t.Errorf("Format() = %q, want %q", got, want)
		}
	})

	t.Run("legal case", func(t *testing.T) {
		m := &cite.Metadata{
			Kind:          cite.KindLegal,
			CaseName:      "Brown v. Board of Education",
			LegalCitation: "347 U.S. 483",
			Year:          "1954",
		}
		got := formatter.Format(m)
		want := "<i>Brown v. Board of Education</i>, 347 U.S. 483, (1954)."
		if got != want {
			t.Errorf("Format() = %q, want %q", got, want)
		}
	})
}

func TestChicagoFormatShort(t *testing.T) {
	formatter := NewChicagoFormatter()

	tests := []struct {
		name string
		m    *cite.Metadata
		want string
	}{
		{
			"article short title in quotes",
			journalArticle(),
			"Kahneman, \"Prospect Theory: An Analysis\".",
		},
		{
			"book short title in italics",
			bookSource(),
			"Kahneman, <i>Thinking, Fast and Slow</i>.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatter.FormatShort(tt.m); got != tt.want {
				t.Errorf("FormatShort() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHarvardFormat(t *testing.T) {
	formatter := NewHarvardFormatter()

	got := formatter.Format(journalArticle())
	for _, fragment := range []string{
		"(1979)",
		"'Prospect Theory: An Analysis of Decision under Risk',",
		"<i>Econometrica</i>, 47(2), pp. 263-291.",
		"doi: 10.2307/1914185.",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("Format() = %q, missing %q", got, fragment)
		}
	}
}

func TestChicagoAuthorDateFormat(t *testing.T) {
	formatter := NewChicagoAuthorDateFormatter()

	got := formatter.Format(journalArticle())
	for _, fragment := range []string{
		"Kahneman, D.",
		"1979.",
		"\"Prospect Theory: An Analysis of Decision under Risk.\"",
		"<i>Econometrica</i> 47 (2): 263-291.",
		"https://doi.org/10.2307/1914185",
	} {
		if !strings.Contains(got, fragment) {
			t.Errorf("Format() = %q, missing %q", got, fragment)
		}
	}
}

func TestSurname(t *testing.T) {
	tests := []struct {
		name   string
		author string
		want   string
	}{
		{"surname first", "Kahneman, D.", "Kahneman"},
		{"plain name", "Daniel Kahneman", "Kahneman"},
		{"single token", "Aristotle", "Aristotle"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := surname(tt.author); got != tt.want {
				t.Errorf("surname(%q) = %q, want %q", tt.author, got, tt.want)
			}
		})
	}
}

func TestShortTitle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"drops leading article", "The Structure of Scientific Revolutions", "Structure of Scientific Revolutions"},
		{"truncates to four words", "Prospect Theory: An Analysis of Decision under Risk", "Prospect Theory: An Analysis"},
		{"short title unchanged", "Nudge", "Nudge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shortTitle(tt.title); got != tt.want {
				t.Errorf("shortTitle(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}
