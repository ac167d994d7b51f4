package extractor

import (
	"testing"

	"github.com/coolbeans/citeflex/pkg/cite"
)

func TestExtractFromText(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []cite.AuthorYearCitation
	}{
		{
			name: "narrative",
			text: "Bandura (1977) proposed self-efficacy theory.",
			want: []cite.AuthorYearCitation{
				{Author: "Bandura", Year: "1977"},
			},
		},
		{
			name: "narrative two-author",
			text: "Kahneman and Tversky (1979) described prospect theory.",
			want: []cite.AuthorYearCitation{
				{Author: "Kahneman", Year: "1979", SecondAuthor: "Tversky"},
			},
		},
		{
			name: "parenthetical",
			text: "Self-efficacy matters (Bandura, 1977).",
			want: []cite.AuthorYearCitation{
				{Author: "Bandura", Year: "1977"},
			},
		},
		{
			name: "parenthetical ampersand",
			text: "Losses loom larger than gains (Kahneman & Tversky, 1979).",
			want: []cite.AuthorYearCitation{
				{Author: "Kahneman", Year: "1979", SecondAuthor: "Tversky"},
			},
		},
		{
			name: "parenthetical and",
			text: "Losses loom larger than gains (Kahneman and Tversky, 1979).",
			want: []cite.AuthorYearCitation{
				{Author: "Kahneman", Year: "1979", SecondAuthor: "Tversky"},
			},
		},
		{
			name: "parenthetical et al",
			text: "Well-being research (Diener et al., 2014) continues.",
			want: []cite.AuthorYearCitation{
				{Author: "Diener", Year: "2014", EtAl: true},
			},
		},
		{
			name: "narrative et al",
			text: "Diener et al. (2014) surveyed the field.",
			want: []cite.AuthorYearCitation{
				{Author: "Diener", Year: "2014", EtAl: true},
			},
		},
		{
			name: "multi-work parenthetical",
			text: "Several studies agree (Bandura, 1977; Diener et al., 2014).",
			want: []cite.AuthorYearCitation{
				{Author: "Bandura", Year: "1977"},
				{Author: "Diener", Year: "2014", EtAl: true},
			},
		},
		{
			name: "no date marker",
			text: "An undated report (Smith, n.d.) was cited.",
			want: []cite.AuthorYearCitation{
				{Author: "Smith", Year: "n.d."},
			},
		},
		{
			name: "bare year is not a citation",
			text: "the (1977) study was influential",
			want: nil,
		},
		{
			name: "accented surname",
			text: "Piñera (2003) argued otherwise.",
			want: []cite.AuthorYearCitation{
				{Author: "Piñera", Year: "2003"},
			},
		},
		{
			name: "hyphenated surname",
			text: "A later review (Smith-Jones, 2010) disagreed.",
			want: []cite.AuthorYearCitation{
				{Author: "Smith-Jones", Year: "2010"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New().ExtractFromText(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("ExtractFromText() returned %d citations, want %d: %+v", len(got), len(tt.want), got)
			}
			for i, want := range tt.want {
				if got[i].Author != want.Author || got[i].Year != want.Year ||
					got[i].SecondAuthor != want.SecondAuthor || got[i].EtAl != want.EtAl {
					t.Errorf("citation %d = %+v, want %+v", i, got[i], want)
				}
			}
		})
	}
}

// Mixed narrative and parenthetical forms must come back in document
// order with duplicates collapsed.
func TestExtractDocumentOrder(t *testing.T) {
	text := "(Bandura, 1977) and Kahneman and Tversky (1979) and (Diener et al., 2014)"

	extractor := New()
	extractor.ExtractFromText(text)
	unique := extractor.UniqueCitations()

	want := []cite.AuthorYearCitation{
		{Author: "Bandura", Year: "1977"},
		{Author: "Kahneman", Year: "1979", SecondAuthor: "Tversky"},
		{Author: "Diener", Year: "2014", EtAl: true},
	}
	if len(unique) != len(want) {
		t.Fatalf("UniqueCitations() returned %d citations, want %d: %+v", len(unique), len(want), unique)
	}
	for i, w := range want {
		if unique[i].Author != w.Author || unique[i].Year != w.Year ||
			unique[i].SecondAuthor != w.SecondAuthor || unique[i].EtAl != w.EtAl {
			t.Errorf("citation %d = %+v, want %+v", i, unique[i], w)
		}
	}
}

func TestDeduplicate(t *testing.T) {
	t.Run("first occurrence wins", func(t *testing.T) {
		citations := []cite.AuthorYearCitation{
			{Author: "Bandura", Year: "1977", RawText: "first"},
			{Author: "Kahneman", Year: "1979"},
			{Author: "bandura", Year: "1977", RawText: "second"},
		}
		unique := Deduplicate(citations)
		if len(unique) != 2 {
			t.Fatalf("Deduplicate() returned %d citations, want 2", len(unique))
		}
		if unique[0].RawText != "first" {
			t.Errorf("Deduplicate() kept %q, want first occurrence", unique[0].RawText)
		}
	})

	t.Run("et al stays distinct from single author", func(t *testing.T) {
		citations := []cite.AuthorYearCitation{
			{Author: "Smith", Year: "2001", EtAl: true},
			{Author: "Smith", Year: "2001"},
		}
		if got := Deduplicate(citations); len(got) != 2 {
			t.Errorf("Deduplicate() returned %d citations, want 2", len(got))
		}
	})

	t.Run("second author part of key", func(t *testing.T) {
		citations := []cite.AuthorYearCitation{
			{Author: "Kahneman", Year: "1979", SecondAuthor: "Tversky"},
			{Author: "Kahneman", Year: "1979"},
		}
		if got := Deduplicate(citations); len(got) != 2 {
			t.Errorf("Deduplicate() returned %d citations, want 2", len(got))
		}
	})
}

func TestCanonicalizeAuthor(t *testing.T) {
	tests := []struct {
		name   string
		author string
		want   string
		ok     bool
	}{
		{"plain surname", "Bandura", "Bandura", true},
		{"honorific stripped", "Dr. Bandura", "Bandura", true},
		{"whitespace collapsed", "Van  der  Berg", "Van der Berg", true},
		{"accents preserved", "Müller", "Müller", true},
		{"all lowercase rejected", "the", "", false},
		{"empty rejected", "  ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := canonicalizeAuthor(tt.author)
			if got != tt.want || ok != tt.ok {
				t.Errorf("canonicalizeAuthor(%q) = (%q, %v), want (%q, %v)", tt.author, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func FuzzExtractFromText(f *testing.F) {
	f.Add("Bandura (1977) proposed self-efficacy theory.")
	f.Add("(Kahneman & Tversky, 1979; Diener et al., 2014)")
	f.Add("the (1977) study")
	f.Add("((nested) parens, 2001)")

	f.Fuzz(func(t *testing.T, text string) {
		citations := New().ExtractFromText(text)
		for _, citation := range citations {
			if citation.Author == "" {
				t.Errorf("extracted citation with empty author: %+v", citation)
			}
			if citation.Year == "" {
				t.Errorf("extracted citation with empty year: %+v", citation)
			}
		}
	})
}
