package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/cerche/internal/app"
)

type serveOptions struct {
	configPath string
	cfg        app.Config
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{cfg: app.DefaultConfig()}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the search server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts.configPath, opts.cfg)
			if err != nil {
				return err
			}
			if cfg.Verbose || root.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			a.LogConfig(log.Logger)
			return a.Serve(cmd.Context())
		},
	}
	bindServeFlags(cmd, opts)
	return cmd
}

func bindServeFlags(cmd *cobra.Command, opts *serveOptions) {
	flagCfg := &opts.cfg
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "Path to a YAML or JSON config file (or set CERCHE_CONFIG)")
	f.StringVar(&flagCfg.Host, "host", flagCfg.Host, "Listen address HOSTNAME[:PORT]")
	f.DurationVar(&flagCfg.Timeout, "timeout", flagCfg.Timeout, "Per-page fetch and backend call timeout")
	f.StringVar(&flagCfg.SearchEngine, "search-engine", flagCfg.SearchEngine, "Backend: google, bing, searxng, file")
	f.BoolVar(&flagCfg.DescriptionOnly, "description-only", false, "Answer from backend snippets without fetching pages")
	f.BoolVar(&flagCfg.StripMenuLines, "strip-menu-lines", false, "Drop short list lines and junk characters from page text")
	f.IntVar(&flagCfg.MaxTextBytes, "max-text-bytes", 0, "Cap content per result in bytes (0 = unlimited)")
	f.IntVar(&flagCfg.Overfetch, "overfetch", flagCfg.Overfetch, "Extra URLs to request from the backend beyond n")
	f.IntVar(&flagCfg.Workers, "workers", flagCfg.Workers, "Pages fetched in parallel per request")
	f.StringVar(&flagCfg.Extractor, "extractor", flagCfg.Extractor, "Text extractor: text or readability")
	f.StringVar(&flagCfg.UserAgent, "user-agent", flagCfg.UserAgent, "User-Agent for page and API requests")
	f.Int64Var(&flagCfg.MaxBodyBytes, "max-body-bytes", flagCfg.MaxBodyBytes, "Cap on bytes read per fetched page")
	f.Int64Var(&flagCfg.MaxRequestBytes, "max-request-bytes", flagCfg.MaxRequestBytes, "Cap on POST body size")
	f.IntVar(&flagCfg.MaxConcurrentFetches, "max-concurrent-fetches", 0, "Process-wide cap on in-flight page fetches (0 = unlimited)")
	f.StringVar(&flagCfg.BingKey, "bing-key", "", "Bing subscription key (or set BING_SUBSCRIPTION_KEY)")
	f.StringVar(&flagCfg.GoogleKey, "google-key", "", "Google Custom Search key (or set GOOGLE_SEARCH_KEY)")
	f.StringVar(&flagCfg.GoogleCX, "google-cx", "", "Google search engine id (or set GOOGLE_SEARCH_CX)")
	f.StringVar(&flagCfg.GoogleParams, "google-params", "", "Extra raw query parameters for Google")
	f.StringVar(&flagCfg.GoogleSitesFile, "google-sites-file", "", "File of URLs whose hosts restrict Google results")
	f.BoolVar(&flagCfg.GoogleOfficialAPI, "google-official-api", flagCfg.GoogleOfficialAPI, "Use the Custom Search API; false scrapes result pages (or set GOOGLE_OFFICIAL_API)")
	f.StringVar(&flagCfg.SearxURL, "searx-url", "", "SearxNG base URL (or set SEARX_URL)")
	f.StringVar(&flagCfg.SearxKey, "searx-key", "", "SearxNG API key (optional)")
	f.StringVar(&flagCfg.FileSearchPath, "search-file", "", "JSON results file for the file backend")
}

// resolveConfig layers defaults, the config file, the environment and then
// explicitly set flags, each overriding the previous.
func resolveConfig(cmd *cobra.Command, configPath string, flagCfg app.Config) (app.Config, error) {
	cfg := app.DefaultConfig()
	if strings.TrimSpace(configPath) == "" {
		configPath = os.Getenv("CERCHE_CONFIG")
	}
	if strings.TrimSpace(configPath) != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			return cfg, fmt.Errorf("config file %s: %w", configPath, err)
		}
		if err := app.ApplyFileConfig(&cfg, fc); err != nil {
			return cfg, err
		}
	}
	if err := app.ApplyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	applyFlags(&cfg, flagCfg, cmd.Flags().Changed)
	return cfg, nil
}

// applyFlags copies the flags the user actually set from src into dst.
func applyFlags(dst *app.Config, src app.Config, changed func(string) bool) {
	setters := map[string]func(){
		"host":                   func() { dst.Host = src.Host },
		"timeout":                func() { dst.Timeout = src.Timeout },
		"search-engine":          func() { dst.SearchEngine = src.SearchEngine },
		"description-only":       func() { dst.DescriptionOnly = src.DescriptionOnly },
		"strip-menu-lines":       func() { dst.StripMenuLines = src.StripMenuLines },
		"max-text-bytes":         func() { dst.MaxTextBytes = src.MaxTextBytes },
		"overfetch":              func() { dst.Overfetch = src.Overfetch },
		"workers":                func() { dst.Workers = src.Workers },
		"extractor":              func() { dst.Extractor = src.Extractor },
		"user-agent":             func() { dst.UserAgent = src.UserAgent },
		"max-body-bytes":         func() { dst.MaxBodyBytes = src.MaxBodyBytes },
		"max-request-bytes":      func() { dst.MaxRequestBytes = src.MaxRequestBytes },
		"max-concurrent-fetches": func() { dst.MaxConcurrentFetches = src.MaxConcurrentFetches },
		"bing-key":               func() { dst.BingKey = src.BingKey },
		"google-key":             func() { dst.GoogleKey = src.GoogleKey },
		"google-cx":              func() { dst.GoogleCX = src.GoogleCX },
		"google-params":          func() { dst.GoogleParams = src.GoogleParams },
		"google-sites-file":      func() { dst.GoogleSitesFile = src.GoogleSitesFile },
		"google-official-api":    func() { dst.GoogleOfficialAPI = src.GoogleOfficialAPI },
		"searx-url":              func() { dst.SearxURL = src.SearxURL },
		"searx-key":              func() { dst.SearxKey = src.SearxKey },
		"search-file":            func() { dst.FileSearchPath = src.FileSearchPath },
	}
	for name, set := range setters {
		if changed(name) {
			set()
		}
	}
}
