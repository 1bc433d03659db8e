package search

import (
	"context"
	"errors"
	"fmt"
)

// Record is a validated search hit as served to clients.
type Record struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	URL     string `json:"url"`
}

// Mode tells the pipeline what shape a backend answered with.
type Mode int

const (
	// ModeURLs carries bare URLs that still need fetching and extraction.
	ModeURLs Mode = iota
	// ModeRecords carries complete records built from backend snippets.
	ModeRecords
)

func (m Mode) String() string {
	switch m {
	case ModeURLs:
		return "urls"
	case ModeRecords:
		return "records"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Candidates is the tagged result of a backend search. Only the slice that
// matches Mode is populated.
type Candidates struct {
	Mode    Mode
	URLs    []string
	Records []Record
}

// Len returns the number of candidates regardless of mode.
func (c Candidates) Len() int {
	if c.Mode == ModeRecords {
		return len(c.Records)
	}
	return len(c.URLs)
}

// Backend is the single capability every search provider exposes.
type Backend interface {
	Search(ctx context.Context, query string, n int) (Candidates, error)
	Name() string
}

// Result represents a single raw hit from any provider before it is turned
// into candidates.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Source  string `json:"-"` // provider name for observability
}

// ErrUnsupported marks a mode or option combination a backend cannot serve.
var ErrUnsupported = errors.New("unsupported by backend")

// BackendError is returned by every backend when the upstream call fails or
// the request cannot be served as configured.
type BackendError struct {
	Provider string
	Query    string
	Err      error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s search for %q: %v", e.Provider, e.Query, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func backendErr(provider, query string, err error) error {
	return &BackendError{Provider: provider, Query: query, Err: err}
}

// buildCandidates turns raw hits into candidates. In description-only mode a
// hit without snippet text is skipped rather than failing the search.
func buildCandidates(results []Result, descriptionOnly bool) Candidates {
	if !descriptionOnly {
		urls := make([]string, 0, len(results))
		for _, r := range results {
			urls = append(urls, r.URL)
		}
		return Candidates{Mode: ModeURLs, URLs: DedupURLs(urls)}
	}
	records := make([]Record, 0, len(results))
	for _, r := range results {
		if r.Snippet == "" {
			continue
		}
		records = append(records, Record{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Title + ". " + r.Snippet,
		})
	}
	return Candidates{Mode: ModeRecords, Records: records}
}

// requestCount applies the over-fetch allowance to the requested count.
func requestCount(n, overfetch int) int {
	if n <= 0 {
		n = 1
	}
	if overfetch < 0 {
		overfetch = 0
	}
	return n + overfetch
}
