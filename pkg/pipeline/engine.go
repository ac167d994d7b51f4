package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/phuslu/log"

	"github.com/coolbeans/citeflex/pkg/cite"
	"github.com/coolbeans/citeflex/pkg/docx"
	"github.com/coolbeans/citeflex/pkg/resolve"
	"github.com/coolbeans/citeflex/pkg/style"
)

// Form is the citation form chosen for a note.
type Form string

const (
	FormFull  Form = "full"
	FormShort Form = "short"
	FormIbid  Form = "ibid"
)

// NoteResult is the per-note entry of the results log.
type NoteResult struct {
	NoteID    int            `json:"note_id"`
	NoteKind  string         `json:"note_kind"`
	Original  string         `json:"original"`
	Formatted string         `json:"formatted"`
	Metadata  *cite.Metadata `json:"metadata,omitempty"`
	URL       string         `json:"url,omitempty"`
	Form      Form           `json:"form"`
	Success   bool           `json:"success"`
	Error     string         `json:"error,omitempty"`
}

// Resolver is the slice of the citation resolver the pipeline needs.
type Resolver interface {
	Resolve(ctx context.Context, query resolve.Query) (*resolve.Result, error)
	ResolveNote(ctx context.Context, rawText string) (*resolve.Result, error)
}

const defaultNoteWorkers = 10

// Engine runs documents through the two-phase citation pipeline.
type Engine struct {
	resolver Resolver
	styles   *style.Registry
	workers  int
	addLinks bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithNoteWorkers sets the parallelism of the resolution phase.
func WithNoteWorkers(workers int) EngineOption {
	return func(e *Engine) {
		if workers > 0 {
			e.workers = workers
		}
	}
}

// WithoutLinks disables the hyperlink activation pass.
func WithoutLinks() EngineOption {
	return func(e *Engine) { e.addLinks = false }
}

// WithStyles replaces the default style registry.
func WithStyles(registry *style.Registry) EngineOption {
	return func(e *Engine) {
		if registry != nil {
			e.styles = registry
		}
	}
}

func NewEngine(resolver Resolver, options ...EngineOption) *Engine {
	engine := &Engine{
		resolver: resolver,
		styles:   style.NewRegistry(),
		workers:  defaultNoteWorkers,
		addLinks: true,
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// fetchedNote is the self-contained record a resolution task emits.
// The form pass consumes these strictly in document order.
type fetchedNote struct {
	note         docx.Note
	kind         docx.NoteKind
	explicitIbid bool
	pinpoint     string
	result       *resolve.Result
	currentURL   string
	err          error
}

// ProcessDocument rewrites every endnote and footnote as a properly
// formatted citation in the named style. It always returns best-effort
// output bytes and a per-note results log; on a fatal error the input
// bytes come back unchanged alongside the error.
func (e *Engine) ProcessDocument(ctx context.Context, fileBytes []byte, styleName string) ([]byte, []NoteResult, error) {
	archive, err := docx.OpenArchive(fileBytes)
	if err != nil {
		return fileBytes, nil, fmt.Errorf("cannot extract document: %w", err)
	}

	var all []fetchedNote
	for _, kind := range []docx.NoteKind{docx.Endnotes, docx.Footnotes} {
		notes, err := archive.Notes(kind)
		if err != nil {
			return fileBytes, nil, fmt.Errorf("cannot read %s part: %w", kind, err)
		}
		for _, note := range notes {
			all = append(all, fetchedNote{note: note, kind: kind})
		}
	}

	log.Info().Int("notes", len(all)).Str("style", styleName).Msg("resolving document notes")

	e.fetchNotes(ctx, all)

	formatter := e.styles.Get(styleName)
	results := e.applyCitationForms(archive, all, formatter)

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

// fetchNotes resolves all notes in parallel. Each task owns its slot,
// so no locking is needed. Explicit ibid tokens never hit a provider.
func (e *Engine) fetchNotes(ctx context.Context, all []fetchedNote) {
	slots := make(chan struct{}, e.workers)
	var waitGroup sync.WaitGroup

	for index := range all {
		entry := &all[index]

		if cite.IsIbid(entry.note.Text) {
			entry.explicitIbid = true
			entry.pinpoint = cite.ExtractPinpoint(entry.note.Text)
			continue
		}

		waitGroup.Add(1)
		slots <- struct{}{}
		go func() {
			defer waitGroup.Done()
			defer func() { <-slots }()

			result, err := e.resolver.ResolveNote(ctx, entry.note.Text)
			entry.result = result
			entry.err = err

			if result != nil && result.Metadata != nil {
				entry.currentURL = result.Metadata.URL
			}
			if entry.currentURL == "" {
				if trimmed := strings.TrimSpace(entry.note.Text); strings.HasPrefix(trimmed, "http") {
					entry.currentURL = trimmed
				}
			}
		}()
	}
	waitGroup.Wait()
}

// applyCitationForms is the sequential pass deciding full, short, or
// ibid per note. Only full, short, and structurally matched ibid
// citations enter the history; explicit-token and URL ibids carry no
// fresh metadata worth recording.
func (e *Engine) applyCitationForms(archive *docx.Archive, all []fetchedNote, formatter style.Formatter) []NoteResult {
	history := NewHistory()
	results := make([]NoteResult, 0, len(all))

	for _, entry := range all {
		result := NoteResult{
			NoteID:   entry.note.ID,
			NoteKind: entry.kind.String(),
			Original: entry.note.Text,
		}

		switch {
		case entry.explicitIbid:
			if history.Previous() == nil {
				log.Warn().Int("note", entry.note.ID).Msg("ibid with no previous citation")
				result.Formatted = entry.note.Text
				result.Form = FormIbid
				result.Error = "ibid reference but no previous citation found"
				results = append(results, result)
				continue
			}
			formatted := style.FormatIbid(entry.pinpoint)
			result.Formatted = formatted
			result.Form = FormIbid
			result.Metadata = history.Previous().Metadata
			result.URL = history.PreviousURL()
			result.Success = e.writeNote(archive, entry, formatted, &result)

		case entry.result == nil || entry.result.Metadata == nil:
			result.Formatted = entry.note.Text
			result.Form = FormFull
			if entry.err != nil {
				result.Error = entry.err.Error()
			} else {
				result.Error = "no metadata found"
			}

		case entry.currentURL != "" && cite.URLsMatch(entry.currentURL, history.PreviousURL()):
			formatted := style.FormatIbid("")
			result.Formatted = formatted
			result.Form = FormIbid
			result.Metadata = history.Previous().Metadata
			result.URL = entry.currentURL
			result.Success = e.writeNote(archive, entry, formatted, &result)

		case history.IsSameAsPrevious(entry.result.Metadata):
			formatted := style.FormatIbid("")
			result.Formatted = formatted
			result.Form = FormIbid
			result.Metadata = entry.result.Metadata
			result.URL = entry.currentURL
			result.Success = e.writeNote(archive, entry, formatted, &result)
			history.Add(entry.result.Metadata, formatted)

		case history.HasBeenCitedBefore(entry.result.Metadata):
			formatted := formatter.FormatShort(entry.result.Metadata)
			result.Formatted = formatted
			result.Form = FormShort
			result.Metadata = entry.result.Metadata
			result.URL = entry.currentURL
			result.Success = e.writeNote(archive, entry, formatted, &result)
			history.Add(entry.result.Metadata, formatted)

		default:
			formatted := formatter.Format(entry.result.Metadata)
			result.Formatted = formatted
			result.Form = FormFull
			result.Metadata = entry.result.Metadata
			result.URL = entry.currentURL
			result.Success = e.writeNote(archive, entry, formatted, &result)
			history.Add(entry.result.Metadata, formatted)
		}

		results = append(results, result)
	}
	return results
}

// writeNote mutates the note in place. A write failure leaves the note
// untouched and never stops the run.
func (e *Engine) writeNote(archive *docx.Archive, entry fetchedNote, formatted string, result *NoteResult) bool {
	if err := archive.WriteNote(entry.kind, entry.note.ID, formatted); err != nil {
		log.Warn().Err(err).Int("note", entry.note.ID).Str("kind", entry.kind.String()).Msg("note write failed")
		result.Error = err.Error()
		result.Formatted = entry.note.Text
		return false
	}
	return true
}

// UpdateNote rewrites a single note in a processed document, for
// after-the-fact manual edits.
func UpdateNote(fileBytes []byte, kind docx.NoteKind, noteID int, formatted string) ([]byte, error) {
	archive, err := docx.OpenArchive(fileBytes)
	if err != nil {
		return fileBytes, fmt.Errorf("cannot extract document: %w", err)
	}
	if err := archive.WriteNote(kind, noteID, formatted); err != nil {
		return fileBytes, err
	}
	output, err := archive.Bytes()
	if err != nil {
		return fileBytes, fmt.Errorf("cannot repackage document: %w", err)
	}
	return output, nil
}
