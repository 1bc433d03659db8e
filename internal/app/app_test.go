package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/cerche/internal/client"
	"github.com/hyperifyio/cerche/internal/search"
)

// writeResults stores a file-backend result list pointing at base.
func writeResults(t *testing.T, base string) string {
	t.Helper()
	results := []search.Result{
		{Title: "Go intro", URL: base + "/intro", Snippet: "An intro to go"},
		{Title: "Go blocked", URL: base + "/forbidden", Snippet: "Blocked go page"},
		{Title: "Go menu", URL: base + "/menu", Snippet: "Menus about go"},
		{Title: "Go again", URL: base + "/intro-copy", Snippet: "Same go text"},
		{Title: "Go deep", URL: base + "/deep", Snippet: "Deep go dive"},
	}
	b, err := json.Marshal(results)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, b, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func pageServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		switch r.URL.Path {
		case "/intro", "/intro-copy":
			_, _ = w.Write([]byte(`<html><head><title>Intro</title></head><body><p>Go is a language.</p></body></html>`))
		case "/forbidden":
			_, _ = w.Write([]byte(`<html><body>Forbidden</body></html>`))
		case "/menu":
			_, _ = w.Write([]byte(`<html><body><ul><li>Home</li><li>Docs</li></ul></body></html>`))
		case "/deep":
			_, _ = w.Write([]byte(`<html><head><title>Deep</title></head><body><p>Goroutines are cheap.</p></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func fileConfig(path string) Config {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1:0"
	cfg.SearchEngine = EngineFile
	cfg.FileSearchPath = path
	cfg.Timeout = 2 * time.Second
	cfg.StripMenuLines = true
	return cfg
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig() // google without credentials
	if _, err := New(cfg); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestApp_EndToEnd(t *testing.T) {
	pages := pageServer()
	defer pages.Close()

	a, err := New(fileConfig(writeResults(t, pages.URL)))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	c := &client.Client{BaseURL: srv.URL}
	recs, err := c.Retrieve(context.Background(), "go", 3)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	// forbidden is rejected, menu is empty after stripping, intro-copy is a duplicate.
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %+v", recs)
	}
	if recs[0].Title != "Intro" || !strings.HasSuffix(recs[0].URL, "/intro") {
		t.Fatalf("unexpected first record %+v", recs[0])
	}
	if recs[1].Title != "Deep" || recs[1].Content != "Goroutines are cheap.\n" {
		t.Fatalf("unexpected second record %+v", recs[1])
	}
}

func TestApp_DescriptionOnly(t *testing.T) {
	cfg := fileConfig(writeResults(t, "https://unreachable.invalid"))
	cfg.DescriptionOnly = true
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	recs, err := (&client.Client{BaseURL: srv.URL}).Retrieve(context.Background(), "go", 2)
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(recs) != 2 || recs[0].Content != "Go intro. An intro to go" {
		t.Fatalf("unexpected records %+v", recs)
	}
}

func TestApp_BackendTimeout(t *testing.T) {
	release := make(chan struct{})
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()
	defer close(release)

	cfg := DefaultConfig()
	cfg.SearchEngine = EngineSearxNG
	cfg.SearxURL = slow.URL
	cfg.Timeout = 200 * time.Millisecond
	a, err := New(cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	start := time.Now()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("q=x&n=1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	a.Handler().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", rr.Code, rr.Body.String())
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("backend call took %v with a 200ms timeout", elapsed)
	}
}

func TestApp_ServeShutsDown(t *testing.T) {
	a, err := New(fileConfig(writeResults(t, "https://unreachable.invalid")))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}

func TestNewBackend_GoogleSites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.txt")
	if err := os.WriteFile(path, []byte("https://www.example.com/a\nhttp://docs.example.org/b\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := validGoogle()
	cfg.GoogleSitesFile = path
	b, err := NewBackend(cfg, http.DefaultClient)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	g, ok := b.(*search.Google)
	if !ok {
		t.Fatalf("expected google backend, got %T", b)
	}
	if len(g.Sites) != 2 || g.Sites[0] != "example.com" || g.Sites[1] != "docs.example.org" {
		t.Fatalf("unexpected sites %v", g.Sites)
	}
}

func TestNewBackend_GoogleScraping(t *testing.T) {
	t.Setenv("GOOGLE_OFFICIAL_API", "false")
	cfg := DefaultConfig()
	if err := ApplyEnvOverrides(&cfg); err != nil {
		t.Fatalf("env: %v", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("scraping mode should not need credentials: %v", err)
	}
	b, err := NewBackend(cfg, http.DefaultClient)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	if _, ok := b.(*search.GoogleScraper); !ok {
		t.Fatalf("expected google scraper, got %T", b)
	}
}
