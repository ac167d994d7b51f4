package pipeline

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/phuslu/log"

	"github.com/coolbeans/citeflex/pkg/cite"
	"github.com/coolbeans/citeflex/pkg/docx"
	"github.com/coolbeans/citeflex/pkg/extractor"
	"github.com/coolbeans/citeflex/pkg/resolve"
	"github.com/coolbeans/citeflex/pkg/style"
)

// CitationResult is the per-citation entry of the author-date results
// log.
type CitationResult struct {
	Citation  cite.AuthorYearCitation `json:"citation"`
	Reference string                  `json:"reference"`
	Metadata  *cite.Metadata          `json:"metadata,omitempty"`
	Found     bool                    `json:"found"`
}

// ProcessAuthorDate scans the document body for in-text author-date
// citations, resolves each unique one, and rebuilds the reference list
// in the named style. Unresolvable citations get a visible placeholder
// entry rather than silently disappearing.
func (e *Engine) ProcessAuthorDate(ctx context.Context, fileBytes []byte, styleName string) ([]byte, []CitationResult, error) {
	archive, err := docx.OpenArchive(fileBytes)
	if err != nil {
		return fileBytes, nil, fmt.Errorf("cannot extract document: %w", err)
	}

	bodyText, err := archive.BodyText()
	if err != nil {
		return fileBytes, nil, fmt.Errorf("cannot read document body: %w", err)
	}

	citations := extractor.Deduplicate(extractor.New().ExtractFromText(bodyText))
	log.Info().Int("citations", len(citations)).Str("style", styleName).Msg("resolving in-text citations")

	formatter := e.styles.Get(styleName)
	results := e.resolveCitations(ctx, citations, formatter)

	references := make([]string, 0, len(results))
	for _, result := range sortedByAuthorYear(results) {
		references = append(references, result.Reference)
	}

	if err := archive.SpliceReferences(style.ReferenceHeading(styleName), references); err != nil {
		return fileBytes, results, fmt.Errorf("cannot splice reference list: %w", err)
	}

	if e.addLinks {
		if err := archive.ActivateLinks(); err != nil {
			log.Warn().Err(err).Msg("hyperlink activation failed")
		}
	}

	output, err := archive.Bytes()
	if err != nil {
		return fileBytes, results, fmt.Errorf("cannot repackage document: %w", err)
	}
	return output, results, nil
}

// ExtractCitations returns the deduplicated in-text citations of the
// document body without resolving them.
func (e *Engine) ExtractCitations(fileBytes []byte) ([]cite.AuthorYearCitation, error) {
	archive, err := docx.OpenArchive(fileBytes)
	if err != nil {
		return nil, fmt.Errorf("cannot extract document: %w", err)
	}
	bodyText, err := archive.BodyText()
	if err != nil {
		return nil, err
	}
	return extractor.Deduplicate(extractor.New().ExtractFromText(bodyText)), nil
}

// resolveCitations fans the unique citations out over the worker pool.
// Each slot is owned by one task.
func (e *Engine) resolveCitations(ctx context.Context, citations []cite.AuthorYearCitation, formatter style.Formatter) []CitationResult {
	results := make([]CitationResult, len(citations))
	slots := make(chan struct{}, e.workers)
	var waitGroup sync.WaitGroup

	for index, citation := range citations {
		waitGroup.Add(1)
		slots <- struct{}{}
		go func(index int, citation cite.AuthorYearCitation) {
			defer waitGroup.Done()
			defer func() { <-slots }()

			results[index] = e.resolveCitation(ctx, citation, formatter)
		}(index, citation)
	}
	waitGroup.Wait()
	return results
}

func (e *Engine) resolveCitation(ctx context.Context, citation cite.AuthorYearCitation, formatter style.Formatter) CitationResult {
	query := resolve.Query{
		Author:       citation.Author,
		Year:         citation.Year,
		SecondAuthor: citation.SecondAuthor,
	}

	result, err := e.resolver.Resolve(ctx, query)
	if err != nil || result == nil || result.Metadata == nil {
		log.Debug().Str("author", citation.Author).Str("year", citation.Year).Msg("citation unresolved")
		return CitationResult{
			Citation:  citation,
			Reference: fmt.Sprintf("[NOT FOUND: %s, %s]", citation.Author, citation.Year),
		}
	}

	return CitationResult{
		Citation:  citation,
		Reference: formatter.Format(result.Metadata),
		Metadata:  result.Metadata,
		Found:     true,
	}
}

// sortedByAuthorYear orders reference entries alphabetically the way a
// reference list reads: by surname, then year, then second author.
func sortedByAuthorYear(results []CitationResult) []CitationResult {
	sorted := make([]CitationResult, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Citation, sorted[j].Citation
		if first := strings.ToLower(a.Author); first != strings.ToLower(b.Author) {
			return first < strings.ToLower(b.Author)
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return strings.ToLower(a.SecondAuthor) < strings.ToLower(b.SecondAuthor)
	})
	return sorted
}
