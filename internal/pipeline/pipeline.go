// Package pipeline turns backend candidates into the bounded, deduplicated
// list of records returned to the caller.
package pipeline

import (
	"context"
	"iter"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/cerche/internal/search"
)

// Extractor fetches one URL and returns its record.
type Extractor interface {
	Extract(ctx context.Context, url string, timeout time.Duration) (search.Record, error)
}

// Options tune a pipeline run.
type Options struct {
	// Timeout bounds each page fetch.
	Timeout time.Duration
	// MaxTextBytes caps record content. Zero means unlimited.
	MaxTextBytes int
	// StripMenuLines drops short "* " lines and junk characters from content.
	StripMenuLines bool
	// Workers > 1 fetches candidates in parallel windows.
	Workers int
}

// Pipeline filters candidates for a single request. It holds no state
// between runs.
type Pipeline struct {
	Extractor Extractor
	Options   Options
}

// New returns a pipeline using ex and opts.
func New(ex Extractor, opts Options) *Pipeline {
	return &Pipeline{Extractor: ex, Options: opts}
}

// Run returns at most n accepted records in acceptance order. In URL mode
// candidates are extracted lazily and no candidate past the n-th accepted
// one is fetched. The result is never nil.
func (p *Pipeline) Run(ctx context.Context, n int, c search.Candidates) []search.Record {
	if n <= 0 {
		return []search.Record{}
	}
	st := &run{
		logger: zerolog.Ctx(ctx),
		opts:   p.Options,
		n:      n,
		seen:   make(map[string]struct{}),
		out:    make([]search.Record, 0, min(n, c.Len())),
	}
	switch c.Mode {
	case search.ModeRecords:
		for _, rec := range c.Records {
			if st.full() {
				break
			}
			st.consider(rec.URL, rec, nil, false)
		}
	default:
		urls := slices.Values(c.URLs)
		if p.Options.Workers > 1 {
			p.runParallel(ctx, urls, st)
		} else {
			p.runSequential(ctx, urls, st)
		}
	}
	st.logger.Debug().Int("accepted", len(st.out)).Int("requested", n).Int("candidates", c.Len()).
		Str("mode", c.Mode.String()).Msg("pipeline done")
	if len(st.out) > n {
		st.out = st.out[:n]
	}
	return st.out
}

func (p *Pipeline) runSequential(ctx context.Context, urls iter.Seq[string], st *run) {
	for u := range urls {
		if st.full() || ctx.Err() != nil {
			return
		}
		rec, err := p.Extractor.Extract(ctx, u, p.Options.Timeout)
		st.consider(u, rec, err, true)
	}
}

// runParallel fetches windows of min(Workers, n-accepted) candidates at a
// time and evaluates each window in candidate order.
func (p *Pipeline) runParallel(ctx context.Context, urls iter.Seq[string], st *run) {
	next, stop := iter.Pull(urls)
	defer stop()
	for !st.full() && ctx.Err() == nil {
		size := min(p.Options.Workers, st.n-len(st.out))
		batch := make([]string, 0, size)
		for len(batch) < size {
			u, ok := next()
			if !ok {
				break
			}
			batch = append(batch, u)
		}
		if len(batch) == 0 {
			return
		}
		recs := make([]search.Record, len(batch))
		errs := make([]error, len(batch))
		var g errgroup.Group
		for i, u := range batch {
			g.Go(func() error {
				recs[i], errs[i] = p.Extractor.Extract(ctx, u, p.Options.Timeout)
				return nil
			})
		}
		_ = g.Wait()
		for i, u := range batch {
			if st.full() {
				return
			}
			st.consider(u, recs[i], errs[i], true)
		}
	}
}

// run is the per-request state: the dedup set and accepted records.
type run struct {
	logger *zerolog.Logger
	opts   Options
	n      int
	seen   map[string]struct{}
	out    []search.Record
}

func (r *run) full() bool { return len(r.out) >= r.n }

func (r *run) consider(url string, rec search.Record, fetchErr error, fetched bool) {
	if reasons := classify(rec, fetchErr, r.seen); len(reasons) > 0 {
		ev := r.logger.Info().Str("url", url).Strs("reasons", reasonStrings(reasons))
		if fetchErr != nil {
			ev = ev.Err(fetchErr)
		}
		ev.Msg("excluding candidate")
		return
	}
	rec.Content = Clean(rec.Content, fetched && r.opts.StripMenuLines, r.opts.MaxTextBytes)
	if reasons := classify(rec, nil, r.seen); len(reasons) > 0 {
		r.logger.Info().Str("url", url).Strs("reasons", reasonStrings(reasons)).Msg("excluding candidate after cleanup")
		return
	}
	r.seen[rec.Content] = struct{}{}
	r.out = append(r.out, rec)
	title := rec.Title
	if title == "" {
		title = "<No Title>"
	}
	r.logger.Info().Str("url", url).Str("title", title).Int("content_len", len(rec.Content)).Msg("accepted result")
}
