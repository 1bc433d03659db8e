package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validGoogle() Config {
	cfg := DefaultConfig()
	cfg.GoogleKey = "key"
	cfg.GoogleCX = "cx"
	return cfg
}

func TestValidateConfig(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"google ok", func(c *Config) {}, ""},
		{"google missing key", func(c *Config) { c.GoogleKey = "" }, "google.key"},
		{"google missing cx", func(c *Config) { c.GoogleCX = "" }, "google.cx"},
		{"google description only", func(c *Config) { c.DescriptionOnly = true }, "description_only"},
		{"google with bing key", func(c *Config) { c.BingKey = "b" }, "bing subscription key"},
		{"google missing sites file", func(c *Config) { c.GoogleSitesFile = filepath.Join(dir, "nope.txt") }, "sites_file"},
		{"google scraping needs no key", func(c *Config) { c.GoogleOfficialAPI = false; c.GoogleKey = ""; c.GoogleCX = "" }, ""},
		{"google scraping with params", func(c *Config) { c.GoogleOfficialAPI = false; c.GoogleParams = "lr=lang_en" }, "official_api"},
		{"bing ok", func(c *Config) { c.SearchEngine = "Bing"; c.BingKey = "b"; c.DescriptionOnly = true }, ""},
		{"bing alias without key", func(c *Config) { c.SearchEngine = "secondary" }, "bing.subscription_key"},
		{"searx without url", func(c *Config) { c.SearchEngine = "searxng" }, "searx.url"},
		{"file without path", func(c *Config) { c.SearchEngine = "file" }, "search.file"},
		{"unknown engine", func(c *Config) { c.SearchEngine = "altavista" }, "unknown search engine"},
		{"unknown extractor", func(c *Config) { c.Extractor = "markdown" }, "unknown extractor"},
		{"negative limit", func(c *Config) { c.MaxTextBytes = -1 }, "negative"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"bad host", func(c *Config) { c.Host = "0.0.0.0:http" }, "invalid port"},
	}
	for _, tc := range cases {
		cfg := validGoogle()
		tc.mutate(&cfg)
		err := ValidateConfig(cfg)
		if tc.wantErr == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tc.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: expected error containing %q, got %v", tc.name, tc.wantErr, err)
		}
	}
}

func TestParseHost(t *testing.T) {
	cases := map[string]string{
		"0.0.0.0:8080": "0.0.0.0:8080",
		"localhost":    "localhost:8080",
		"127.0.0.1:0":  "127.0.0.1:0",
		" example:9 ":  "example:9",
		"[::1]:8081":   "[::1]:8081",
	}
	for in, want := range cases {
		got, err := ParseHost(in)
		if err != nil {
			t.Fatalf("ParseHost(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseHost(%q) = %q, want %q", in, got, want)
		}
	}
	for _, bad := range []string{"", "host:port", "host:70000"} {
		if _, err := ParseHost(bad); err == nil {
			t.Fatalf("ParseHost(%q): expected error", bad)
		}
	}
}

func TestParseTimeout(t *testing.T) {
	cases := map[string]time.Duration{
		"5":     5 * time.Second,
		"1.5":   1500 * time.Millisecond,
		"250ms": 250 * time.Millisecond,
		"2m":    2 * time.Minute,
	}
	for in, want := range cases {
		got, err := ParseTimeout(in)
		if err != nil || got != want {
			t.Fatalf("ParseTimeout(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseTimeout("soon"); err == nil {
		t.Fatalf("expected error for invalid timeout")
	}
}

func TestLoadConfigFile_YAMLAndPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cerche.yaml")
	content := `host: 127.0.0.1:9000
timeout: 3s
search_engine: bing
strip_menu_lines: true
max_text_bytes: 2048
workers: 4
bing:
  subscription_key: from-file
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Host != "127.0.0.1:9000" || cfg.Timeout != 3*time.Second || !cfg.StripMenuLines {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.MaxTextBytes != 2048 || cfg.Workers != 4 || cfg.BingKey != "from-file" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Overfetch != 2 {
		t.Fatalf("unset file value must keep default, got overfetch=%d", cfg.Overfetch)
	}

	// env beats file
	t.Setenv("BING_SUBSCRIPTION_KEY", "from-env")
	t.Setenv("CERCHE_WORKERS", "2")
	if err := ApplyEnvOverrides(&cfg); err != nil {
		t.Fatalf("env: %v", err)
	}
	if cfg.BingKey != "from-env" || cfg.Workers != 2 {
		t.Fatalf("env should override file: %+v", cfg)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cerche.json")
	if err := os.WriteFile(path, []byte(`{"search_engine":"file","search":{"file":"results.json"},"description_only":true}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, fc); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.SearchEngine != "file" || cfg.FileSearchPath != "results.json" || !cfg.DescriptionOnly {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestApplyFileConfig_BadTimeout(t *testing.T) {
	cfg := DefaultConfig()
	if err := ApplyFileConfig(&cfg, FileConfig{Timeout: "later"}); err == nil {
		t.Fatalf("expected error for bad timeout")
	}
}
