package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperifyio/cerche/internal/app"
)

// serveConfig parses args with the serve flags and returns the layered config.
func serveConfig(t *testing.T, args ...string) app.Config {
	t.Helper()
	opts := &serveOptions{cfg: app.DefaultConfig()}
	cmd := &cobra.Command{Use: "serve"}
	bindServeFlags(cmd, opts)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := resolveConfig(cmd, opts.configPath, opts.cfg)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return cfg
}

func TestResolveConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cerche.yaml")
	content := "host: 127.0.0.1:7000\nworkers: 3\ntimeout: 9s\nbing:\n  subscription_key: file-key\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CERCHE_CONFIG", "")
	t.Setenv("CERCHE_HOST", "")
	t.Setenv("CERCHE_TIMEOUT", "")
	t.Setenv("CERCHE_WORKERS", "5")
	t.Setenv("BING_SUBSCRIPTION_KEY", "env-key")

	cfg := serveConfig(t, "--config", path, "--bing-key", "flag-key")
	if cfg.Host != "127.0.0.1:7000" {
		t.Fatalf("file host should apply, got %q", cfg.Host)
	}
	if cfg.Timeout != 9*time.Second {
		t.Fatalf("file timeout should apply, got %v", cfg.Timeout)
	}
	if cfg.Workers != 5 {
		t.Fatalf("env should beat file, got workers=%d", cfg.Workers)
	}
	if cfg.BingKey != "flag-key" {
		t.Fatalf("flag should beat env, got %q", cfg.BingKey)
	}
	if cfg.Overfetch != 2 {
		t.Fatalf("default overfetch expected, got %d", cfg.Overfetch)
	}
}

func TestResolveConfig_UnsetFlagsKeepEnv(t *testing.T) {
	t.Setenv("CERCHE_CONFIG", "")
	t.Setenv("CERCHE_HOST", "10.0.0.1:9999")
	cfg := serveConfig(t)
	if cfg.Host != "10.0.0.1:9999" {
		t.Fatalf("flag default must not override env, got %q", cfg.Host)
	}
}

func TestApplyFlags_OnlyChanged(t *testing.T) {
	dst := app.DefaultConfig()
	src := app.Config{Host: "h:1", Workers: 9, Extractor: "readability"}
	applyFlags(&dst, src, func(name string) bool { return name == "workers" })
	if dst.Workers != 9 || dst.Host == "h:1" || dst.Extractor != "text" {
		t.Fatalf("unexpected config %+v", dst)
	}
}

func TestQueryCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.PostForm.Get("q") != "hello world" || r.PostForm.Get("n") != "2" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		_, _ = w.Write([]byte(`{"response":[{"title":"T","content":"C","url":"U"}]}`))
	}))
	defer srv.Close()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"query", "--env-file", "", "--host", strings.TrimPrefix(srv.URL, "http://"), "-n", "2", "hello", "world"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), `"title": "T"`) {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--env-file", ""})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "cerche "+app.BuildVersion) {
		t.Fatalf("unexpected version output %q", out.String())
	}
}

func TestServeCommand_InvalidConfig(t *testing.T) {
	t.Setenv("CERCHE_CONFIG", "")
	t.Setenv("CERCHE_SEARCH_ENGINE", "")
	t.Setenv("GOOGLE_SEARCH_KEY", "")
	t.Setenv("GOOGLE_SEARCH_CX", "")
	t.Setenv("GOOGLE_OFFICIAL_API", "")
	t.Setenv("BING_SUBSCRIPTION_KEY", "")
	t.Setenv("CERCHE_DESCRIPTION_ONLY", "")
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"serve", "--env-file", "", "--search-engine", "google"})
	err := root.ExecuteContext(context.Background())
	if err == nil || !strings.Contains(err.Error(), "google.key") {
		t.Fatalf("expected google.key validation error, got %v", err)
	}
}

func TestSearchCommand_FileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	results := `[{"title":"Go tour","url":"https://go.dev/tour","snippet":"Learn go"},{"title":"Rust book","url":"https://rust-lang.org","snippet":"Learn rust"}]`
	if err := os.WriteFile(path, []byte(results), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("CERCHE_CONFIG", "")
	t.Setenv("CERCHE_DESCRIPTION_ONLY", "")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"search", "--env-file", "", "--search-engine", "file", "--search-file", path, "go"})
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	want := "file: 1 urls candidates\n1. https://go.dev/tour\n"
	if out.String() != want {
		t.Fatalf("output %q, want %q", out.String(), want)
	}
}
