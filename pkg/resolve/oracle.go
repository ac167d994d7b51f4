package resolve

import (
	"context"
	"fmt"
	"regexp"

	"github.com/coolbeans/citeflex/pkg/cite"
)

// Oracle is the contextual-guessing fallback consulted when no search
// provider produces a confident match. Implementations typically wrap a
// language model.
type Oracle interface {
	// Guess attempts to identify the cited work from the query alone.
	// Returns nil when the oracle has no guess.
	Guess(ctx context.Context, query Query) (*Guess, error)
}

// Guess is the oracle's structured answer. Fields mirror the metadata
// record; unknown fields stay empty.
type Guess struct {
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Year       string   `json:"year"`
	Journal    string   `json:"journal"`
	Volume     string   `json:"volume"`
	Issue      string   `json:"issue"`
	Pages      string   `json:"pages"`
	Publisher  string   `json:"publisher"`
	DOI        string   `json:"doi"`
	Confidence float64  `json:"confidence"`
}

var guessYearPattern = regexp.MustCompile(`^\d{4}$`)

// guessKinds are the citation kinds an oracle may report. Anything else
// fails validation.
var guessKinds = map[string]cite.Kind{
	"journal":   cite.KindJournal,
	"book":      cite.KindBook,
	"newspaper": cite.KindNewspaper,
	"medical":   cite.KindMedical,
	"":          cite.KindJournal,
}

// Validate checks the guess against its schema: a known type tag, a
// confidence in [0, 1], and a four-digit year when a year is present.
// Schema violations are rejected outright rather than defaulted.
func (g *Guess) Validate() error {
	if g == nil {
		return fmt.Errorf("guess is nil")
	}
	if _, known := guessKinds[g.Type]; !known {
		return fmt.Errorf("unknown citation type %q", g.Type)
	}
	if g.Confidence < 0 || g.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0, 1]", g.Confidence)
	}
	if g.Year != "" && !guessYearPattern.MatchString(g.Year) {
		return fmt.Errorf("year %q is not a four-digit year", g.Year)
	}
	return nil
}

// Metadata converts a validated guess into a metadata record.
func (g *Guess) Metadata() *cite.Metadata {
	kind, known := guessKinds[g.Type]
	if !known {
		kind = cite.KindJournal
	}

	container := g.Journal
	if container == "" {
		container = g.Publisher
	}

	return &cite.Metadata{
		Kind:         kind,
		Title:        g.Title,
		Authors:      g.Authors,
		Year:         g.Year,
		Container:    container,
		Volume:       g.Volume,
		Issue:        g.Issue,
		Pages:        g.Pages,
		DOI:          g.DOI,
		SourceEngine: "Claude AI",
	}
}
