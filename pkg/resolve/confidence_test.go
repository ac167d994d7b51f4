package resolve

import (
	"math"
	"testing"

	"github.com/coolbeans/citeflex/pkg/cite"
)

func TestConfidenceScore(t *testing.T) {
	query := Query{Author: "Kahneman", Year: "1979", SecondAuthor: "Tversky"}

	tests := []struct {
		name     string
		metadata *cite.Metadata
		want     float64
	}{
		{
			name:     "empty record",
			metadata: &cite.Metadata{},
			want:     0.0,
		},
		{
			name: "exact year only",
			metadata: &cite.Metadata{
				Year:    "1979",
				Authors: []string{"Nobody Relevant"},
			},
			want: 0.30,
		},
		{
			name: "year within one",
			metadata: &cite.Metadata{
				Year:    "1980",
				Authors: []string{"Nobody Relevant"},
			},
			want: 0.20,
		},
		{
			name: "year off by two scores nothing",
			metadata: &cite.Metadata{
				Year:    "1981",
				Authors: []string{"Nobody Relevant"},
			},
			want: 0.0,
		},
		{
			name: "author substring match",
			metadata: &cite.Metadata{
				Year:    "1979",
				Authors: []string{"Kahneman, Daniel"},
			},
			want: 0.60,
		},
		{
			name: "both authors match",
			metadata: &cite.Metadata{
				Year:    "1979",
				Authors: []string{"Kahneman, Daniel", "Tversky, Amos"},
			},
			want: 0.75,
		},
		{
			name: "full record clamps at one",
			metadata: &cite.Metadata{
				Year:      "1979",
				Authors:   []string{"Kahneman, Daniel", "Tversky, Amos"},
				Title:     "Prospect Theory",
				Container: "Econometrica",
				Volume:    "47",
				Pages:     "263-291",
				DOI:       "10.2307/1914185",
			},
			// 0.30 + 0.30 + 0.15 + 0.15 + 0.15 = 1.05 clamped
			want: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := confidenceScore(tt.metadata, query)
			if math.Abs(got-tt.want) > 0.0001 {
				t.Errorf("confidenceScore() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfidenceScoreEmptyQueryYear(t *testing.T) {
	// raw-note queries often carry no year; two empty years must not
	// count as an exact match
	query := Query{Author: "Kahneman"}
	metadata := &cite.Metadata{Authors: []string{"Kahneman, Daniel"}}

	if got := confidenceScore(metadata, query); math.Abs(got-0.30) > 0.0001 {
		t.Errorf("confidenceScore() = %v, want 0.30 for author match only", got)
	}
}

func TestAuthorMatches(t *testing.T) {
	tests := []struct {
		name    string
		authors []string
		surname string
		want    bool
	}{
		{"case insensitive", []string{"KAHNEMAN, Daniel"}, "kahneman", true},
		{"substring", []string{"Daniel Kahneman"}, "Kahneman", true},
		{"no match", []string{"Thaler, Richard"}, "Kahneman", false},
		{"empty surname never matches", []string{"Kahneman"}, "", false},
		{"empty author list", nil, "Kahneman", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := authorMatches(tt.authors, tt.surname); got != tt.want {
				t.Errorf("authorMatches(%v, %q) = %v, want %v", tt.authors, tt.surname, got, tt.want)
			}
		})
	}
}

func TestYearsWithinTolerance(t *testing.T) {
	tests := []struct {
		name      string
		returned  string
		queried   string
		tolerance int
		want      bool
	}{
		{"exact", "1979", "1979", 1, true},
		{"one earlier", "1978", "1979", 1, true},
		{"one later", "1980", "1979", 1, true},
		{"two apart", "1981", "1979", 1, false},
		{"unparseable returned", "n.d.", "1979", 1, false},
		{"unparseable queried", "1979", "", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := yearsWithinTolerance(tt.returned, tt.queried, tt.tolerance); got != tt.want {
				t.Errorf("yearsWithinTolerance(%q, %q, %d) = %v, want %v",
					tt.returned, tt.queried, tt.tolerance, got, tt.want)
			}
		})
	}
}

func TestGuessValidate(t *testing.T) {
	tests := []struct {
		name    string
		guess   Guess
		wantErr bool
	}{
		{"valid journal", Guess{Type: "journal", Year: "1979", Confidence: 0.8}, false},
		{"empty type defaults", Guess{Confidence: 0.5}, false},
		{"unknown type", Guess{Type: "podcast", Confidence: 0.8}, true},
		{"confidence above one", Guess{Type: "book", Confidence: 1.2}, true},
		{"negative confidence", Guess{Type: "book", Confidence: -0.1}, true},
		{"malformed year", Guess{Type: "book", Year: "79", Confidence: 0.8}, true},
		{"empty year allowed", Guess{Type: "book", Confidence: 0.8}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.guess.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseGuess(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		guess, err := parseGuess(`{"type": "journal", "title": "Prospect Theory", "confidence": 0.8}`)
		if err != nil {
			t.Fatalf("parseGuess() error = %v", err)
		}
		if guess.Title != "Prospect Theory" {
			t.Errorf("Title = %q", guess.Title)
		}
	})

	t.Run("fenced json", func(t *testing.T) {
		guess, err := parseGuess("```json\n{\"type\": \"book\", \"confidence\": 0.6}\n```")
		if err != nil {
			t.Fatalf("parseGuess() error = %v", err)
		}
		if guess.Type != "book" {
			t.Errorf("Type = %q", guess.Type)
		}
	})

	t.Run("prose rejected", func(t *testing.T) {
		if _, err := parseGuess("I believe this is Prospect Theory by Kahneman."); err == nil {
			t.Error("parseGuess() accepted prose")
		}
	})

	t.Run("schema violation rejected", func(t *testing.T) {
		if _, err := parseGuess(`{"type": "mixtape", "confidence": 0.9}`); err == nil {
			t.Error("parseGuess() accepted unknown type")
		}
	})
}
