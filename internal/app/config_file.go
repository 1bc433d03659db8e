package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Pointer
// fields distinguish "unset" from an explicit zero.
type FileConfig struct {
	Host                 string `yaml:"host" json:"host"`
	Timeout              string `yaml:"timeout" json:"timeout"`
	SearchEngine         string `yaml:"search_engine" json:"search_engine"`
	DescriptionOnly      *bool  `yaml:"description_only" json:"description_only"`
	StripMenuLines       *bool  `yaml:"strip_menu_lines" json:"strip_menu_lines"`
	MaxTextBytes         *int   `yaml:"max_text_bytes" json:"max_text_bytes"`
	Overfetch            *int   `yaml:"overfetch" json:"overfetch"`
	Workers              *int   `yaml:"workers" json:"workers"`
	Extractor            string `yaml:"extractor" json:"extractor"`
	UserAgent            string `yaml:"user_agent" json:"user_agent"`
	MaxBodyBytes         *int64 `yaml:"max_body_bytes" json:"max_body_bytes"`
	MaxRequestBytes      *int64 `yaml:"max_request_bytes" json:"max_request_bytes"`
	MaxConcurrentFetches *int   `yaml:"max_concurrent_fetches" json:"max_concurrent_fetches"`
	Verbose              *bool  `yaml:"verbose" json:"verbose"`

	Bing struct {
		SubscriptionKey string `yaml:"subscription_key" json:"subscription_key"`
	} `yaml:"bing" json:"bing"`

	Google struct {
		Key         string `yaml:"key" json:"key"`
		CX          string `yaml:"cx" json:"cx"`
		ExtraParams string `yaml:"extra_params" json:"extra_params"`
		SitesFile   string `yaml:"sites_file" json:"sites_file"`
		OfficialAPI *bool  `yaml:"official_api" json:"official_api"`
	} `yaml:"google" json:"google"`

	Searx struct {
		URL string `yaml:"url" json:"url"`
		Key string `yaml:"key" json:"key"`
	} `yaml:"searx" json:"searx"`

	Search struct {
		File string `yaml:"file" json:"file"`
	} `yaml:"search" json:"search"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value present in fc onto cfg. It runs
// before env and flags, so it only ever replaces defaults.
func ApplyFileConfig(cfg *Config, fc FileConfig) error {
	if cfg == nil {
		return nil
	}
	setString := func(dst *string, v string) {
		if trim(v) != "" {
			*dst = trim(v)
		}
	}
	setString(&cfg.Host, fc.Host)
	setString(&cfg.SearchEngine, fc.SearchEngine)
	setString(&cfg.Extractor, fc.Extractor)
	setString(&cfg.UserAgent, fc.UserAgent)
	setString(&cfg.BingKey, fc.Bing.SubscriptionKey)
	setString(&cfg.GoogleKey, fc.Google.Key)
	setString(&cfg.GoogleCX, fc.Google.CX)
	setString(&cfg.GoogleParams, fc.Google.ExtraParams)
	setString(&cfg.GoogleSitesFile, fc.Google.SitesFile)
	setString(&cfg.SearxURL, fc.Searx.URL)
	setString(&cfg.SearxKey, fc.Searx.Key)
	setString(&cfg.FileSearchPath, fc.Search.File)

	if trim(fc.Timeout) != "" {
		d, err := ParseTimeout(fc.Timeout)
		if err != nil {
			return fmt.Errorf("config file: %w", err)
		}
		cfg.Timeout = d
	}
	if fc.DescriptionOnly != nil {
		cfg.DescriptionOnly = *fc.DescriptionOnly
	}
	if fc.StripMenuLines != nil {
		cfg.StripMenuLines = *fc.StripMenuLines
	}
	if fc.Google.OfficialAPI != nil {
		cfg.GoogleOfficialAPI = *fc.Google.OfficialAPI
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	if fc.MaxTextBytes != nil {
		cfg.MaxTextBytes = *fc.MaxTextBytes
	}
	if fc.Overfetch != nil {
		cfg.Overfetch = *fc.Overfetch
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.MaxConcurrentFetches != nil {
		cfg.MaxConcurrentFetches = *fc.MaxConcurrentFetches
	}
	if fc.MaxBodyBytes != nil {
		cfg.MaxBodyBytes = *fc.MaxBodyBytes
	}
	if fc.MaxRequestBytes != nil {
		cfg.MaxRequestBytes = *fc.MaxRequestBytes
	}
	return nil
}
