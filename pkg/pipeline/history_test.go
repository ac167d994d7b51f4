package pipeline

import (
	"testing"

	"github.com/coolbeans/citeflex/pkg/cite"
)

func jonesFoo() *cite.Metadata {
	return &cite.Metadata{
		Kind:    cite.KindBook,
		Title:   "Foo",
		Authors: []string{"Jones, Alice"},
		Year:    "2001",
	}
}

func smithBar() *cite.Metadata {
	return &cite.Metadata{
		Kind:    cite.KindBook,
		Title:   "Bar",
		Authors: []string{"Smith, Bob"},
		Year:    "2010",
	}
}

func TestHistorySameAsPrevious(t *testing.T) {
	history := NewHistory()
	if history.IsSameAsPrevious(jonesFoo()) {
		t.Error("empty history claimed a previous match")
	}

	history.Add(jonesFoo(), "formatted jones")
	if !history.IsSameAsPrevious(jonesFoo()) {
		t.Error("same source not recognized as previous")
	}
	if history.IsSameAsPrevious(smithBar()) {
		t.Error("different source matched previous")
	}

	history.Add(smithBar(), "formatted smith")
	if history.IsSameAsPrevious(jonesFoo()) {
		t.Error("previous should now be smith")
	}
}

func TestHistoryFirstOccurrenceWins(t *testing.T) {
	history := NewHistory()
	history.Add(jonesFoo(), "first")
	history.Add(smithBar(), "second")
	history.Add(jonesFoo(), "third")

	key := cite.SourceKey(jonesFoo())
	entry := history.seen[key]
	if entry == nil {
		t.Fatal("source missing from ledger")
	}
	if entry.Formatted != "first" || entry.Ordinal != 1 {
		t.Errorf("seen kept %+v, want the first occurrence", entry)
	}
	if history.Len() != 3 {
		t.Errorf("Len() = %d, want 3", history.Len())
	}
}

func TestHistoryCitedBefore(t *testing.T) {
	history := NewHistory()
	history.Add(jonesFoo(), "jones")
	history.Add(smithBar(), "smith")

	if !history.HasBeenCitedBefore(jonesFoo()) {
		t.Error("interleaved source forgotten")
	}
	if history.HasBeenCitedBefore(&cite.Metadata{Kind: cite.KindGeneric}) {
		t.Error("keyless metadata reported as cited")
	}
}

func TestHistoryKeylessNeverEntersSeen(t *testing.T) {
	history := NewHistory()
	keyless := &cite.Metadata{Kind: cite.KindGeneric}
	history.Add(keyless, "mystery")

	if len(history.seen) != 0 {
		t.Error("keyless metadata polluted the ledger")
	}
	if history.Previous() == nil {
		t.Error("keyless metadata must still become previous")
	}
}
