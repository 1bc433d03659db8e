package extract

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/cerche/internal/fetch"
)

func TestPageExtractor_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><head><title>Hello</title></head><body><p>World</p></body></html>"))
	}))
	defer srv.Close()

	p := &PageExtractor{Fetcher: &fetch.Client{}}
	rec, err := p.Extract(context.Background(), srv.URL, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Title != "Hello" || rec.Content != "World" || rec.URL != srv.URL {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestPageExtractor_FailureKinds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/pdf":
			w.Header().Set("Content-Type", "application/pdf")
			_, _ = w.Write([]byte("%PDF"))
		}
	}))
	defer srv.Close()

	cases := map[string]Kind{
		srv.URL + "/missing": KindStatus,
		srv.URL + "/pdf":     KindContentType,
		"http://127.0.0.1:1": KindNetwork,
		"ftp://example.com":  KindNetwork,
	}
	p := &PageExtractor{Fetcher: &fetch.Client{}}
	for u, want := range cases {
		_, err := p.Extract(context.Background(), u, time.Second)
		var f *Failure
		if !errors.As(err, &f) {
			t.Fatalf("%s: expected *Failure, got %v", u, err)
		}
		if f.Kind != want || f.URL != u {
			t.Fatalf("%s: got kind %q url %q, want %q", u, f.Kind, f.URL, want)
		}
	}
}

type failingExtractor struct{}

func (failingExtractor) Extract(string, *url.URL) (Document, error) {
	return Document{}, errors.New("boom")
}

func TestPageExtractor_DecodeFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<p>x</p>"))
	}))
	defer srv.Close()

	p := &PageExtractor{Fetcher: &fetch.Client{}, Extractor: failingExtractor{}}
	_, err := p.Extract(context.Background(), srv.URL, time.Second)
	var f *Failure
	if !errors.As(err, &f) || f.Kind != KindDecode {
		t.Fatalf("expected decode failure, got %v", err)
	}
}

func TestReadabilityExtractor_KeepsArticle(t *testing.T) {
	para := strings.Repeat("Readable article sentence with enough words to score well. ", 12)
	page := `<html><head><title>Article Title</title></head><body>
        <nav><ul><li><a href="/">Home</a></li></ul></nav>
        <article><h1>Article Title</h1><p>` + para + `</p><p>` + para + `</p></article>
        <footer>Copyright footer</footer></body></html>`
	u, _ := url.Parse("https://example.com/post")
	doc, err := ReadabilityExtractor{}.Extract(page, u)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Article Title" {
		t.Fatalf("unexpected title %q", doc.Title)
	}
	if !strings.Contains(doc.Text, "Readable article sentence") {
		t.Fatalf("expected article text, got %q", doc.Text)
	}
}
