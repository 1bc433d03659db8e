package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. Callers apply it after the config file so env takes precedence over
// the file while flags, applied last, stay highest. Malformed numeric,
// duration and boolean values are reported together.
func ApplyEnvOverrides(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	var errs []error
	invalid := func(key, s string, err error) {
		errs = append(errs, fmt.Errorf("config: env %s=%q: %w", key, s, err))
	}

	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.Host, "CERCHE_HOST")
	setString(&cfg.SearchEngine, "CERCHE_SEARCH_ENGINE")
	setString(&cfg.Extractor, "CERCHE_EXTRACTOR")
	setString(&cfg.UserAgent, "CERCHE_USER_AGENT")
	setString(&cfg.BingKey, "BING_SUBSCRIPTION_KEY")
	setString(&cfg.GoogleKey, "GOOGLE_SEARCH_KEY")
	setString(&cfg.GoogleCX, "GOOGLE_SEARCH_CX")
	setString(&cfg.GoogleParams, "GOOGLE_SEARCH_PARAMS")
	setString(&cfg.GoogleSitesFile, "GOOGLE_SITES_FILE")
	// Support both SEARX_URL and SEARXNG_URL; prefer SEARX_URL if set
	setString(&cfg.SearxURL, "SEARX_URL", "SEARXNG_URL")
	setString(&cfg.SearxKey, "SEARX_KEY", "SEARXNG_KEY")
	setString(&cfg.FileSearchPath, "SEARCH_FILE")

	if s := strings.TrimSpace(os.Getenv("CERCHE_TIMEOUT")); s != "" {
		if d, err := ParseTimeout(s); err == nil {
			cfg.Timeout = d
		} else {
			invalid("CERCHE_TIMEOUT", s, err)
		}
	}

	setInt := func(dst *int, key string) {
		if s := strings.TrimSpace(os.Getenv(key)); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				*dst = n
			} else {
				invalid(key, s, err)
			}
		}
	}
	setInt(&cfg.MaxTextBytes, "CERCHE_MAX_TEXT_BYTES")
	setInt(&cfg.Overfetch, "CERCHE_OVERFETCH")
	setInt(&cfg.Workers, "CERCHE_WORKERS")
	setInt(&cfg.MaxConcurrentFetches, "CERCHE_MAX_CONCURRENT_FETCHES")

	setInt64 := func(dst *int64, key string) {
		if s := strings.TrimSpace(os.Getenv(key)); s != "" {
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				*dst = n
			} else {
				invalid(key, s, err)
			}
		}
	}
	setInt64(&cfg.MaxBodyBytes, "CERCHE_MAX_BODY_BYTES")
	setInt64(&cfg.MaxRequestBytes, "CERCHE_MAX_REQUEST_BYTES")

	// Booleans override when env present and truthy/falsey
	setBool := func(dst *bool, envKey string) {
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			switch s {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			default:
				invalid(envKey, s, errors.New("not a boolean"))
			}
		}
	}
	setBool(&cfg.DescriptionOnly, "CERCHE_DESCRIPTION_ONLY")
	setBool(&cfg.StripMenuLines, "CERCHE_STRIP_MENU_LINES")
	setBool(&cfg.GoogleOfficialAPI, "GOOGLE_OFFICIAL_API")
	setBool(&cfg.Verbose, "VERBOSE")
	return errors.Join(errs...)
}
