// Package pipeline orchestrates document processing: a parallel
// resolution phase over all notes, then a sequential citation-form pass
// that decides full, short-form, or ibid per note, plus the author-date
// mode that rebuilds a reference list from in-text citations.
package pipeline

import (
	"github.com/coolbeans/citeflex/pkg/cite"
)

// HistoryEntry records one emitted citation.
type HistoryEntry struct {
	Metadata  *cite.Metadata
	Formatted string
	SourceKey string
	Ordinal   int
}

// History is the ordered citation ledger driving ibid and short-form
// detection. seen keeps the first occurrence per source key, so a
// source stays "cited before" no matter how many citations interleave.
// Not safe for concurrent use; the form pass is single-threaded.
type History struct {
	previous *HistoryEntry
	seen     map[string]*HistoryEntry
	ordinal  int
}

func NewHistory() *History {
	return &History{seen: make(map[string]*HistoryEntry)}
}

// Add records an emitted citation. Sources without a usable key still
// become "previous" but are never entered into seen.
func (h *History) Add(metadata *cite.Metadata, formatted string) {
	h.ordinal++
	entry := &HistoryEntry{
		Metadata:  metadata,
		Formatted: formatted,
		SourceKey: cite.SourceKey(metadata),
		Ordinal:   h.ordinal,
	}
	h.previous = entry
	if entry.SourceKey != "" {
		if _, exists := h.seen[entry.SourceKey]; !exists {
			h.seen[entry.SourceKey] = entry
		}
	}
}

// Previous returns the most recently added entry, or nil.
func (h *History) Previous() *HistoryEntry { return h.previous }

// PreviousURL returns the URL of the most recent entry's metadata.
func (h *History) PreviousURL() string {
	if h.previous == nil || h.previous.Metadata == nil {
		return ""
	}
	return h.previous.Metadata.URL
}

// IsSameAsPrevious reports whether the metadata refers to the same
// source as the most recent entry.
func (h *History) IsSameAsPrevious(metadata *cite.Metadata) bool {
	if h.previous == nil {
		return false
	}
	key := cite.SourceKey(metadata)
	return key != "" && key == h.previous.SourceKey
}

// HasBeenCitedBefore reports whether the metadata's source has appeared
// at any earlier point.
func (h *History) HasBeenCitedBefore(metadata *cite.Metadata) bool {
	key := cite.SourceKey(metadata)
	if key == "" {
		return false
	}
	_, exists := h.seen[key]
	return exists
}

// Len returns how many citations have been added.
func (h *History) Len() int { return h.ordinal }
