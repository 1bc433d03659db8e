package app

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperifyio/cerche/internal/extract"
)

// Search engine names accepted by the configuration.
const (
	EngineGoogle  = "google"
	EngineBing    = "bing"
	EngineSearxNG = "searxng"
	EngineFile    = "file"
)

// DefaultPort is used when the host option carries no port.
const DefaultPort = 8080

// Config holds runtime configuration for the server and the query client.
// It is immutable once the server starts.
type Config struct {
	Host string

	// Fetching and filtering
	Timeout              time.Duration
	DescriptionOnly      bool
	StripMenuLines       bool
	MaxTextBytes         int
	Overfetch            int
	Workers              int
	Extractor            string
	UserAgent            string
	MaxBodyBytes         int64
	MaxRequestBytes      int64
	MaxConcurrentFetches int

	// Search
	SearchEngine    string
	BingKey         string
	GoogleKey       string
	GoogleCX        string
	GoogleParams    string
	GoogleSitesFile string
	SearxURL        string
	SearxKey        string
	FileSearchPath  string

	// GoogleOfficialAPI selects the Custom Search JSON API. When false the
	// google engine scrapes the public result pages instead.
	GoogleOfficialAPI bool

	Verbose bool
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Host:              fmt.Sprintf("0.0.0.0:%d", DefaultPort),
		Timeout:           5 * time.Second,
		SearchEngine:      EngineGoogle,
		GoogleOfficialAPI: true,
		Overfetch:         2,
		Workers:           1,
		Extractor:         "text",
		UserAgent:         "cerche/1.0",
		MaxBodyBytes:      5 << 20,
		MaxRequestBytes:   1 << 20,
	}
}

// NormalizeEngine maps engine names and their aliases to canonical names.
// Unknown names are returned lower-cased and trimmed.
func NormalizeEngine(name string) string {
	switch s := strings.ToLower(strings.TrimSpace(name)); s {
	case "google", "primary":
		return EngineGoogle
	case "bing", "secondary":
		return EngineBing
	case "searxng", "searx":
		return EngineSearxNG
	default:
		return s
	}
}

// ParseHost validates a HOSTNAME[:PORT] string and returns it with the port
// filled in.
func ParseHost(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", errors.New("config: host is empty")
	}
	if !strings.Contains(host, ":") {
		host = net.JoinHostPort(host, strconv.Itoa(DefaultPort))
	}
	name, port, err := net.SplitHostPort(host)
	if err != nil {
		return "", fmt.Errorf("config: host %q: %w", host, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil || p < 0 || p > 65535 {
		return "", fmt.Errorf("config: host %q: invalid port %q", host, port)
	}
	return net.JoinHostPort(name, strconv.Itoa(p)), nil
}

// ParseTimeout accepts a Go duration ("5s") or a bare number of seconds ("5").
func ParseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q", s)
	}
	return time.Duration(f * float64(time.Second)), nil
}

// ValidateConfig checks the startup rules. Any error is fatal before the
// server listens.
func ValidateConfig(cfg Config) error {
	if _, err := ParseHost(cfg.Host); err != nil {
		return err
	}
	if cfg.Timeout <= 0 {
		return errors.New("config: timeout must be positive")
	}
	if cfg.MaxTextBytes < 0 || cfg.Overfetch < 0 || cfg.Workers < 0 ||
		cfg.MaxBodyBytes < 0 || cfg.MaxRequestBytes < 0 || cfg.MaxConcurrentFetches < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if _, err := extract.New(cfg.Extractor); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch NormalizeEngine(cfg.SearchEngine) {
	case EngineGoogle:
		if cfg.DescriptionOnly {
			return errors.New("config: description_only is not supported by the google engine")
		}
		if trim(cfg.BingKey) != "" {
			return errors.New("config: a bing subscription key is not supported by the google engine")
		}
		if !cfg.GoogleOfficialAPI {
			if trim(cfg.GoogleParams) != "" || trim(cfg.GoogleSitesFile) != "" {
				return errors.New("config: google.extra_params and google.sites_file require google.official_api")
			}
			break
		}
		if trim(cfg.GoogleKey) == "" {
			return errors.New("config: google.key is required (or set GOOGLE_SEARCH_KEY)")
		}
		if trim(cfg.GoogleCX) == "" {
			return errors.New("config: google.cx is required (or set GOOGLE_SEARCH_CX)")
		}
		if path := trim(cfg.GoogleSitesFile); path != "" {
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("config: google.sites_file: %w", err)
			}
		}
	case EngineBing:
		if trim(cfg.BingKey) == "" {
			return errors.New("config: bing.subscription_key is required (or set BING_SUBSCRIPTION_KEY)")
		}
	case EngineSearxNG:
		if trim(cfg.SearxURL) == "" {
			return errors.New("config: searx.url is required (or set SEARX_URL)")
		}
	case EngineFile:
		if trim(cfg.FileSearchPath) == "" {
			return errors.New("config: search.file is required (or set SEARCH_FILE)")
		}
	default:
		return fmt.Errorf("config: unknown search engine %q", cfg.SearchEngine)
	}
	return nil
}

func trim(s string) string { return strings.TrimSpace(s) }

// redact keeps only the first characters of a secret for logging.
func redact(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 4 {
		return "****"
	}
	return secret[:4] + "****"
}
