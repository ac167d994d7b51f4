// Package resolve turns (author, year) queries into full citation
// metadata by federating several bibliographic search providers and
// falling back to a contextual-guessing oracle for the hard cases.
package resolve

import (
	"context"
	"net/http"

	"github.com/coolbeans/citeflex/pkg/cite"
)

// Query is one author-date lookup.
type Query struct {
	// Author is the primary author surname.
	Author string

	// Year is a four-digit year. The resolver rejects "n.d." without
	// issuing any I/O.
	Year string

	// SecondAuthor is the optional second author surname.
	SecondAuthor string

	// Context is an optional hint about the document's field, passed to
	// the oracle fallback only.
	Context string

	// Text is the free-form raw note text for note-pipeline lookups.
	// When set, providers search it directly instead of composing an
	// author-year query.
	Text string

	// URL is set when the raw note is URL-shaped; it routes the query to
	// the web-index provider.
	URL string
}

// Simple returns the plain concatenated query string: the raw note
// text when present, otherwise author(s) plus year.
func (q Query) Simple() string {
	if q.Text != "" {
		return q.Text
	}
	if q.SecondAuthor != "" {
		return q.Author + " " + q.SecondAuthor + " " + q.Year
	}
	return q.Author + " " + q.Year
}

// Raw returns the query as it appeared in the document, e.g.
// "(Bandura, 1977)" or the raw note text.
func (q Query) Raw() string {
	if q.Text != "" {
		return q.Text
	}
	return "(" + q.Author + ", " + q.Year + ")"
}

// Provider is a single bibliographic search backend. Search returns nil
// metadata when the provider has no candidate; network failures come
// back as errors and are absorbed by the federation.
type Provider interface {
	// Name identifies the provider in logs and source-engine tags.
	Name() string

	// Search looks up a single query. Implementations must honor ctx
	// cancellation and never block past their per-call timeout.
	Search(ctx context.Context, query Query) (*cite.Metadata, error)
}

// HTTPClient matches the Do method of *http.Client so providers accept
// mock transports in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// providerEntry attaches scoring traits and declared order to a
// registered provider.
type providerEntry struct {
	provider Provider

	// doiBoost grants +0.10 to results carrying a DOI. Set for archival
	// indexes whose DOIs are authoritative.
	doiBoost bool

	// webIndex applies the -0.05 penalty to results lacking a DOI. Set
	// for general web indexes, which often return near-miss pages.
	webIndex bool

	// order is the declaration position, the final tie-breaker.
	order int
}

// ProviderOption configures a provider at registration time.
type ProviderOption func(*providerEntry)

// WithDOIBoost marks the provider's DOI-bearing results for the +0.10
// confidence boost.
func WithDOIBoost() ProviderOption {
	return func(entry *providerEntry) { entry.doiBoost = true }
}

// WithWebIndexPenalty marks the provider as a general web index whose
// DOI-less results are penalized by 0.05.
func WithWebIndexPenalty() ProviderOption {
	return func(entry *providerEntry) { entry.webIndex = true }
}

// Result is a scored resolver outcome.
type Result struct {
	Metadata   *cite.Metadata `json:"metadata"`
	Confidence float64        `json:"confidence"`

	// Rationale explains why this result was matched.
	Rationale string `json:"rationale"`
}
