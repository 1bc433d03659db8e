package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// SearxNG implements Backend against a SearxNG instance's /search endpoint.
type SearxNG struct {
	BaseURL         string
	APIKey          string // optional
	HTTPClient      *http.Client
	UserAgent       string // optional custom UA
	Overfetch       int
	DescriptionOnly bool
}

func (s *SearxNG) Name() string { return "searxng" }

func (s *SearxNG) Search(ctx context.Context, query string, n int) (Candidates, error) {
	if s.BaseURL == "" {
		return Candidates{}, backendErr(s.Name(), query, fmt.Errorf("missing searxng base url"))
	}
	limit := requestCount(n, s.Overfetch)
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return Candidates{}, backendErr(s.Name(), query, err)
	}
	// Ensure path
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("language", "auto")
	q.Set("safesearch", "1")
	q.Set("categories", "general")
	q.Set("count", fmt.Sprintf("%d", limit))
	if s.APIKey != "" {
		q.Set("apikey", s.APIKey)
	}
	u.RawQuery = q.Encode()

	var sr searxResponse
	if err := getJSON(ctx, s.HTTPClient, u.String(), map[string]string{"User-Agent": s.UserAgent}, &sr); err != nil {
		return Candidates{}, backendErr(s.Name(), query, err)
	}
	out := make([]Result, 0, len(sr.Results))
	for _, r := range sr.Results {
		if r.URL == "" || r.Title == "" {
			continue
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(r.Title),
			URL:     strings.TrimSpace(r.URL),
			Snippet: strings.TrimSpace(r.Content),
			Source:  s.Name(),
		})
		if len(out) >= limit {
			break
		}
	}
	return buildCandidates(out, s.DescriptionOnly), nil
}

type searxResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}
