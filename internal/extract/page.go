package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/cerche/internal/fetch"
	"github.com/hyperifyio/cerche/internal/search"
	"github.com/hyperifyio/cerche/internal/textenc"
)

// Kind classifies why a page could not be extracted.
type Kind string

const (
	KindNetwork     Kind = "network"
	KindStatus      Kind = "status"
	KindContentType Kind = "content_type"
	KindDecode      Kind = "decode"
)

// Failure is the only error type returned by PageExtractor.Extract.
type Failure struct {
	Kind Kind
	URL  string
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("extract %s: %s: %v", f.URL, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Fetcher performs the single GET behind an extraction.
type Fetcher interface {
	Get(ctx context.Context, rawURL string, timeout time.Duration) (*fetch.Response, error)
}

// PageExtractor fetches a URL and turns the page into a Record.
type PageExtractor struct {
	Fetcher   Fetcher
	Extractor Extractor
}

// Extract fetches rawURL once within timeout and returns its title and text.
// The returned Record always carries rawURL as given, even after redirects.
func (p *PageExtractor) Extract(ctx context.Context, rawURL string, timeout time.Duration) (search.Record, error) {
	logger := zerolog.Ctx(ctx)
	resp, err := p.Fetcher.Get(ctx, rawURL, timeout)
	if err != nil {
		return search.Record{}, &Failure{Kind: classify(err), URL: rawURL, Err: err}
	}
	page, cs := textenc.Decode(resp.Body, resp.ContentType)
	base, err := url.Parse(resp.URL)
	if err != nil {
		base = nil
	}
	ex := p.Extractor
	if ex == nil {
		ex = TextExtractor{}
	}
	doc, err := ex.Extract(page, base)
	if err != nil {
		return search.Record{}, &Failure{Kind: KindDecode, URL: rawURL, Err: err}
	}
	logger.Debug().
		Str("url", rawURL).
		Str("charset", cs).
		Int("bytes", len(resp.Body)).
		Bool("truncated", resp.Truncated).
		Int("text_len", len(doc.Text)).
		Msg("page extracted")
	return search.Record{Title: doc.Title, Content: doc.Text, URL: rawURL}, nil
}

func classify(err error) Kind {
	var se *fetch.StatusError
	if errors.As(err, &se) {
		return KindStatus
	}
	var ce *fetch.ContentTypeError
	if errors.As(err, &ce) {
		return KindContentType
	}
	return KindNetwork
}
