package app

import (
	"context"
	"fmt"
	"net"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/cerche/internal/extract"
	"github.com/hyperifyio/cerche/internal/fetch"
	"github.com/hyperifyio/cerche/internal/pipeline"
	"github.com/hyperifyio/cerche/internal/search"
	"github.com/hyperifyio/cerche/internal/server"
)

// App wires the configured backend, extractor and pipeline behind the HTTP
// handler.
type App struct {
	cfg     Config
	addr    string
	backend search.Backend
	handler *server.Handler
}

// New validates cfg and builds the application. It performs no network I/O.
func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	addr, err := ParseHost(cfg.Host)
	if err != nil {
		return nil, err
	}
	hc := newHighThroughputHTTPClient(cfg.Timeout)
	backend, err := NewBackend(cfg, hc)
	if err != nil {
		return nil, err
	}
	ex, err := extract.New(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	fetcher := &fetch.Client{
		HTTPClient:        hc,
		UserAgent:         cfg.UserAgent,
		PerRequestTimeout: cfg.Timeout,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		MaxConcurrent:     cfg.MaxConcurrentFetches,
	}
	pl := pipeline.New(&extract.PageExtractor{Fetcher: fetcher, Extractor: ex}, pipeline.Options{
		Timeout:        cfg.Timeout,
		MaxTextBytes:   cfg.MaxTextBytes,
		StripMenuLines: cfg.StripMenuLines,
		Workers:        cfg.Workers,
	})
	h := &server.Handler{
		Backend:         backend,
		Pipeline:        pl,
		MaxRequestBytes: cfg.MaxRequestBytes,
		SearchTimeout:   cfg.Timeout,
		WorkerName:      server.WorkerName(),
		Logger:          log.Logger,
	}
	return &App{cfg: cfg, addr: addr, backend: backend, handler: h}, nil
}

// NewBackend builds the search backend selected by cfg.SearchEngine.
func NewBackend(cfg Config, hc *http.Client) (search.Backend, error) {
	switch NormalizeEngine(cfg.SearchEngine) {
	case EngineGoogle:
		if !cfg.GoogleOfficialAPI {
			return &search.GoogleScraper{
				Overfetch:       cfg.Overfetch,
				DescriptionOnly: cfg.DescriptionOnly,
				HTTPClient:      hc,
			}, nil
		}
		g := &search.Google{
			Key:         cfg.GoogleKey,
			CX:          cfg.GoogleCX,
			ExtraParams: cfg.GoogleParams,
			Overfetch:   cfg.Overfetch,
			HTTPClient:  hc,
			UserAgent:   cfg.UserAgent,
		}
		if cfg.GoogleSitesFile != "" {
			sites, err := search.LoadSites(cfg.GoogleSitesFile)
			if err != nil {
				return nil, fmt.Errorf("config: google.sites_file: %w", err)
			}
			g.Sites = sites
		}
		return g, nil
	case EngineBing:
		return &search.Bing{
			SubscriptionKey: cfg.BingKey,
			Overfetch:       cfg.Overfetch,
			DescriptionOnly: cfg.DescriptionOnly,
			HTTPClient:      hc,
			UserAgent:       cfg.UserAgent,
		}, nil
	case EngineSearxNG:
		return &search.SearxNG{
			BaseURL:         cfg.SearxURL,
			APIKey:          cfg.SearxKey,
			Overfetch:       cfg.Overfetch,
			DescriptionOnly: cfg.DescriptionOnly,
			HTTPClient:      hc,
			UserAgent:       cfg.UserAgent,
		}, nil
	case EngineFile:
		return &search.FileProvider{
			Path:            cfg.FileSearchPath,
			Overfetch:       cfg.Overfetch,
			DescriptionOnly: cfg.DescriptionOnly,
		}, nil
	default:
		return nil, fmt.Errorf("config: unknown search engine %q", cfg.SearchEngine)
	}
}

// Handler returns the HTTP handler serving searches.
func (a *App) Handler() http.Handler { return a.handler }

// Addr is the normalized listen address.
func (a *App) Addr() string { return a.addr }

// LogConfig prints the effective configuration with secrets redacted.
func (a *App) LogConfig(logger zerolog.Logger) {
	c := a.cfg
	sites := 0
	if g, ok := a.backend.(*search.Google); ok {
		sites = len(g.Sites)
	}
	logger.Info().
		Str("host", a.addr).
		Str("search_engine", a.backend.Name()).
		Dur("timeout", c.Timeout).
		Bool("description_only", c.DescriptionOnly).
		Bool("strip_menu_lines", c.StripMenuLines).
		Int("max_text_bytes", c.MaxTextBytes).
		Int("overfetch", c.Overfetch).
		Int("workers", c.Workers).
		Str("extractor", c.Extractor).
		Str("bing_key", redact(c.BingKey)).
		Str("google_key", redact(c.GoogleKey)).
		Bool("google_official_api", c.GoogleOfficialAPI).
		Str("google_cx", c.GoogleCX).
		Int("google_sites", sites).
		Str("searx_url", c.SearxURL).
		Str("search_file", c.FileSearchPath).
		Str("version", BuildVersion).
		Msg("configuration")
}

// Serve listens on the configured address until ctx is canceled.
func (a *App) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", a.addr, err)
	}
	ctx = log.Logger.WithContext(ctx)
	return server.Serve(ctx, server.NewHTTPServer(a.addr, a.handler), ln)
}
