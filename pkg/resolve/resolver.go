package resolve

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/phuslu/log"

	"github.com/coolbeans/citeflex/pkg/cite"
)

// ErrNotFound is returned when no provider or oracle result clears the
// acceptance threshold.
var ErrNotFound = errors.New("no confident citation match")

// ErrUndated is returned for "n.d." queries, which cannot be searched
// effectively. No I/O is performed.
var ErrUndated = errors.New("undated citation cannot be resolved")

const (
	// DefaultThreshold is the minimum confidence for accepting a
	// provider result without consulting the oracle.
	DefaultThreshold = 0.6

	// DefaultOracleThreshold is the minimum self-reported confidence for
	// accepting an oracle guess.
	DefaultOracleThreshold = 0.5

	// DefaultTimeout bounds one full federation round.
	DefaultTimeout = 5 * time.Second

	// DefaultWorkers sizes the per-query provider fan-out pool.
	DefaultWorkers = 4

	// yearTolerance is the post-hoc allowance between the queried year
	// and the year a provider returned.
	yearTolerance = 1
)

// Resolver federates bibliographic providers behind a single Resolve
// call. Construct once and share; providers are registered up front and
// reused across queries.
type Resolver struct {
	providers []providerEntry
	oracle    Oracle

	threshold       float64
	oracleThreshold float64
	timeout         time.Duration
	workers         int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithOracle installs the contextual-guessing fallback consulted when
// no provider result clears the threshold.
func WithOracle(oracle Oracle) Option {
	return func(r *Resolver) { r.oracle = oracle }
}

// WithThreshold overrides the provider acceptance threshold.
func WithThreshold(threshold float64) Option {
	return func(r *Resolver) { r.threshold = threshold }
}

// WithOracleThreshold overrides the oracle acceptance threshold.
func WithOracleThreshold(threshold float64) Option {
	return func(r *Resolver) { r.oracleThreshold = threshold }
}

// WithTimeout overrides the wall-clock deadline for one federation
// round. Results arriving after the deadline are discarded.
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) { r.timeout = timeout }
}

// WithWorkers overrides the fan-out pool size. Values below 1 are
// ignored.
func WithWorkers(workers int) Option {
	return func(r *Resolver) {
		if workers >= 1 {
			r.workers = workers
		}
	}
}

// NewResolver creates a resolver over the given providers. Provider
// order is significant: it breaks confidence ties.
func NewResolver(options ...Option) *Resolver {
	resolver := &Resolver{
		threshold:       DefaultThreshold,
		oracleThreshold: DefaultOracleThreshold,
		timeout:         DefaultTimeout,
		workers:         DefaultWorkers,
	}
	for _, option := range options {
		option(resolver)
	}
	return resolver
}

// AddProvider registers a provider at the end of the declared order.
func (r *Resolver) AddProvider(provider Provider, options ...ProviderOption) {
	entry := providerEntry{provider: provider, order: len(r.providers)}
	for _, option := range options {
		option(&entry)
	}
	r.providers = append(r.providers, entry)
}

// scoredResult pairs a provider result with its declared order for
// deterministic tie-breaking.
type scoredResult struct {
	result Result
	order  int
}

// Resolve runs the federation for one query and returns the best
// result, or ErrNotFound / ErrUndated. Individual provider failures are
// logged and absorbed; the federation itself never fails on them.
func (r *Resolver) Resolve(ctx context.Context, query Query) (*Result, error) {
	if query.Year == cite.NoDate {
		return nil, ErrUndated
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results := r.fanOut(deadlineCtx, query)

	sortResults(results)

	if len(results) > 0 && results[0].result.Confidence >= r.threshold {
		best := results[0].result
		best.Metadata.RawSource = query.Raw()
		return &best, nil
	}

	if len(results) > 0 {
		log.Debug().
			Str("author", query.Author).
			Str("year", query.Year).
			Float64("confidence", results[0].result.Confidence).
			Msg("low-confidence provider results, consulting oracle")
	}

	if oracleResult := r.consultOracle(ctx, query); oracleResult != nil {
		results = append(results, scoredResult{result: *oracleResult, order: len(r.providers)})
	}

	if len(results) == 0 {
		return nil, ErrNotFound
	}

	sortResults(results)
	best := results[0].result
	best.Metadata.RawSource = query.Raw()
	return &best, nil
}

var noteYearPattern = regexp.MustCompile(`\b(1[5-9]\d{2}|20\d{2})\b`)
var noteAuthorPattern = regexp.MustCompile(`^\p{Lu}[\p{L}'’-]+`)

// ResolveNote resolves a free-form raw note string from the note
// pipeline. URL-shaped notes route to the web-index provider; other
// notes fan out to the whole federation with the raw text as the query.
// Unlike Resolve, the best available result is returned without a
// confidence gate, since raw notes carry their own bibliographic detail.
func (r *Resolver) ResolveNote(ctx context.Context, rawText string) (*Result, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil, ErrNotFound
	}

	query := Query{Text: rawText}
	if strings.HasPrefix(rawText, "http://") || strings.HasPrefix(rawText, "https://") {
		query.URL = strings.Fields(rawText)[0]
	} else {
		// Parse a surname and year out of the note so scoring has
		// something to match against.
		if author := noteAuthorPattern.FindString(rawText); author != "" {
			query.Author = author
		}
		if year := noteYearPattern.FindString(rawText); year != "" {
			query.Year = year
		}
	}

	deadlineCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results := r.fanOut(deadlineCtx, query)

	if len(results) == 0 && query.URL == "" && query.Author != "" && query.Year != "" {
		if oracleResult := r.consultOracle(ctx, query); oracleResult != nil {
			results = append(results, scoredResult{result: *oracleResult, order: len(r.providers)})
		}
	}

	if len(results) == 0 {
		return nil, ErrNotFound
	}

	sortResults(results)
	best := results[0].result
	best.Metadata.RawSource = rawText
	if best.Metadata.URL == "" && query.URL != "" {
		best.Metadata.URL = query.URL
	}
	return &best, nil
}

// fanOut queries every provider in parallel, bounded by the worker
// pool, and collects whatever arrives before the deadline.
func (r *Resolver) fanOut(ctx context.Context, query Query) []scoredResult {
	resultChannel := make(chan scoredResult, len(r.providers))
	workerSlots := make(chan struct{}, r.workers)

	var waitGroup sync.WaitGroup
	for _, entry := range r.providers {
		// URL-shaped queries only make sense against a web index.
		if query.URL != "" && !entry.webIndex {
			continue
		}
		waitGroup.Add(1)
		go func(entry providerEntry) {
			defer waitGroup.Done()

			select {
			case workerSlots <- struct{}{}:
				defer func() { <-workerSlots }()
			case <-ctx.Done():
				return
			}

			metadata, err := entry.provider.Search(ctx, query)
			if err != nil {
				log.Warn().
					Err(err).
					Str("provider", entry.provider.Name()).
					Str("author", query.Author).
					Str("year", query.Year).
					Msg("provider search failed")
				return
			}
			if metadata == nil || metadata.Title == "" {
				return
			}
			if query.Year != "" && metadata.Year != "" && !yearsWithinTolerance(metadata.Year, query.Year, yearTolerance) {
				log.Debug().
					Str("provider", entry.provider.Name()).
					Str("returned_year", metadata.Year).
					Str("queried_year", query.Year).
					Msg("dropping result with mismatched year")
				return
			}
			if metadata.SourceEngine == "" {
				metadata.SourceEngine = entry.provider.Name()
			}

			confidence := confidenceScore(metadata, query)
			if entry.doiBoost && metadata.DOI != "" {
				confidence = min(1.0, confidence+0.10)
			}
			if entry.webIndex && metadata.DOI == "" {
				confidence = max(0.0, confidence-0.05)
			}

			select {
			case resultChannel <- scoredResult{
				result: Result{
					Metadata:   metadata,
					Confidence: confidence,
					Rationale:  entry.provider.Name() + " author+year match",
				},
				order: entry.order,
			}:
			case <-ctx.Done():
			}
		}(entry)
	}

	go func() {
		waitGroup.Wait()
		close(resultChannel)
	}()

	var collected []scoredResult
	for {
		select {
		case result, open := <-resultChannel:
			if !open {
				return collected
			}
			collected = append(collected, result)
		case <-ctx.Done():
			// Late arrivals are dropped.
			return collected
		}
	}
}

// consultOracle asks the fallback oracle and converts an acceptable
// guess into a boosted result. A guess is accepted only when its
// self-reported confidence clears the oracle threshold and the queried
// author surname appears among the returned authors.
func (r *Resolver) consultOracle(ctx context.Context, query Query) *Result {
	if r.oracle == nil {
		return nil
	}

	guess, err := r.oracle.Guess(ctx, query)
	if err != nil {
		log.Warn().
			Err(err).
			Str("author", query.Author).
			Str("year", query.Year).
			Msg("oracle guess failed")
		return nil
	}
	if guess == nil || guess.Confidence < r.oracleThreshold {
		return nil
	}

	metadata := guess.Metadata()
	if metadata.Title == "" || !authorMatches(metadata.Authors, query.Author) {
		log.Debug().
			Str("author", query.Author).
			Strs("returned_authors", metadata.Authors).
			Msg("oracle result did not match author")
		return nil
	}

	return &Result{
		Metadata:   metadata,
		Confidence: min(0.95, guess.Confidence+0.10),
		Rationale:  "oracle contextual match",
	}
}

// sortResults orders by confidence descending, then metadata richness,
// then declared provider order.
func sortResults(results []scoredResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].result.Confidence != results[j].result.Confidence {
			return results[i].result.Confidence > results[j].result.Confidence
		}
		left, right := results[i].result.Metadata.Completeness(), results[j].result.Metadata.Completeness()
		if left != right {
			return left > right
		}
		return results[i].order < results[j].order
	})
}
