package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Searcher runs the backend remote search
type Searcher interface {
	Search(ctx context.Context, term string) (string, error)
}

// QueryHook is called before a backend search; the returned func runs when
// the search finishes
type QueryHook func(mode, term string) (done func())

// Filter reports whether a caller can use rec. Filters run before sorting
// and the exact-match collapse.
type Filter func(rec Record) bool

// InstalledOnly keeps records marked as installed
func InstalledOnly(rec Record) bool { return rec.Installed }

// Option configures a Resolver
type Option func(*Resolver)

// WithScorer replaces the default Levenshtein scorer
func WithScorer(s Scorer) Option {
	return func(r *Resolver) { r.scorer = s }
}

// WithIndex enables the local index fallback in Smart
func WithIndex(idx *Index) Option {
	return func(r *Resolver) { r.index = idx }
}

// WithQueryHook registers a hook around each backend search
func WithQueryHook(h QueryHook) Option {
	return func(r *Resolver) { r.hook = h }
}

// WithLogger sets the resolver logger
func WithLogger(log *zerolog.Logger) Option {
	return func(r *Resolver) { r.log = log }
}

// Resolver turns a possibly misspelt term into ranked candidates
type Resolver struct {
	backend   Searcher
	scorer    Scorer
	threshold float64
	index     *Index
	hook      QueryHook
	log       *zerolog.Logger
}

// NewResolver creates a resolver over backend with a [0, 1] score threshold
func NewResolver(backend Searcher, threshold float64, opts ...Option) *Resolver {
	nop := zerolog.Nop()
	r := &Resolver{
		backend:   backend,
		scorer:    LevenshteinScorer{},
		threshold: threshold,
		log:       &nop,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Strict searches the backend for term as given
func (r *Resolver) Strict(ctx context.Context, term string, filters ...Filter) (*ResultSet, error) {
	return r.run(ctx, "strict", term, term, filters)
}

// Fuzzy fetches the whole catalog and ranks it against term
func (r *Resolver) Fuzzy(ctx context.Context, term string, filters ...Filter) (*ResultSet, error) {
	return r.run(ctx, "fuzzy", term, "", filters)
}

// Smart runs Strict, then Fuzzy when Strict found nothing, then the local
// index when both are empty
func (r *Resolver) Smart(ctx context.Context, term string, filters ...Filter) (*ResultSet, error) {
	rs, err := r.Strict(ctx, term, filters...)
	if err != nil || rs.Len() > 0 {
		return rs, err
	}

	rs, err = r.Fuzzy(ctx, term, filters...)
	if err != nil || rs.Len() > 0 {
		return rs, err
	}

	if r.index == nil {
		return rs, nil
	}
	rec, ok, err := r.index.Lookup(strings.TrimSpace(term))
	if err != nil {
		r.log.Warn().Err(err).Str("index", r.index.Path()).Msg("local index unreadable")
		return rs, nil
	}
	if ok && keep(rec, filters) {
		r.log.Debug().Str("term", term).Msg("resolved from local index")
		return NewResultSet([]Record{rec}), nil
	}
	return rs, nil
}

func (r *Resolver) run(ctx context.Context, mode, term, searchArg string, filters []Filter) (*ResultSet, error) {
	if r.hook != nil {
		done := r.hook(mode, term)
		if done != nil {
			defer done()
		}
	}

	raw, err := r.backend.Search(ctx, searchArg)
	if err != nil {
		return nil, fmt.Errorf("%s query for %q: %w", mode, term, err)
	}

	rs := ParseString(raw, term, r.scorer, r.threshold)
	if len(filters) > 0 {
		rs = rs.filter(func(rec Record) bool { return keep(rec, filters) })
	}
	rs.SortByScore()
	collapsed := rs.CollapseExact()

	r.log.Debug().
		Str("mode", mode).
		Str("term", term).
		Int("results", rs.Len()).
		Bool("exact", collapsed).
		Msg("query finished")

	return rs, nil
}

func keep(rec Record, filters []Filter) bool {
	for _, f := range filters {
		if !f(rec) {
			return false
		}
	}
	return true
}
