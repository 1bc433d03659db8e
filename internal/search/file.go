package search

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
)

// FileProvider serves search results from a local JSON file for offline and
// test use. The file holds an array of {"title": "...", "url": "...", "snippet": "..."}.
type FileProvider struct {
	Path            string
	Overfetch       int
	DescriptionOnly bool
}

func (f *FileProvider) Name() string { return "file" }

func (f *FileProvider) Search(_ context.Context, query string, n int) (Candidates, error) {
	if strings.TrimSpace(f.Path) == "" {
		return Candidates{}, backendErr(f.Name(), query, errors.New("file provider path is empty"))
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return Candidates{}, backendErr(f.Name(), query, err)
	}
	var raw []Result
	if err := json.Unmarshal(b, &raw); err != nil {
		return Candidates{}, backendErr(f.Name(), query, err)
	}
	limit := requestCount(n, f.Overfetch)
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Result, 0, len(raw))
	for _, r := range raw {
		if r.URL == "" || r.Title == "" {
			continue
		}
		if q == "" || strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Snippet), q) {
			r.Source = f.Name()
			out = append(out, r)
			if len(out) >= limit {
				break
			}
		}
	}
	return buildCandidates(out, f.DescriptionOnly), nil
}
