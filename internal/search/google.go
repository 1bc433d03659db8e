package search

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

const (
	googleSearchURL = "https://customsearch.googleapis.com/customsearch/v1"
	googleMaxNum    = 10
	// MaxSites caps the siteSearch restrictions appended to a Google query.
	MaxSites = 200
)

// Google implements Backend against the Custom Search JSON API.
type Google struct {
	Key string
	CX  string
	// ExtraParams is a raw query string appended to every request, e.g. "lr=lang_en&safe=active".
	ExtraParams string
	// Sites restricts results to these hosts via siteSearch parameters.
	Sites []string

	BaseURL         string // defaults to the public endpoint
	Overfetch       int
	DescriptionOnly bool
	HTTPClient      *http.Client
	UserAgent       string
}

func (g *Google) Name() string { return "google" }

func (g *Google) Search(ctx context.Context, query string, n int) (Candidates, error) {
	if g.DescriptionOnly {
		return Candidates{}, backendErr(g.Name(), query, fmt.Errorf("description-only mode: %w", ErrUnsupported))
	}
	if g.Key == "" || g.CX == "" {
		return Candidates{}, backendErr(g.Name(), query, errors.New("missing key or cx"))
	}
	num := requestCount(n, g.Overfetch)
	if num > googleMaxNum {
		num = googleMaxNum
	}

	links, err := g.fetchLinks(ctx, query, num)
	if err != nil {
		return Candidates{}, backendErr(g.Name(), query, err)
	}
	if len(links) == 0 {
		// A title-restricted query often rescues sparse results.
		zerolog.Ctx(ctx).Debug().Str("query", query).Msg("google returned no items; retrying with intitle")
		links, err = g.fetchLinks(ctx, "intitle:"+query, num)
		if err != nil {
			return Candidates{}, backendErr(g.Name(), query, err)
		}
	}
	return Candidates{Mode: ModeURLs, URLs: DedupURLs(links)}, nil
}

func (g *Google) fetchLinks(ctx context.Context, query string, num int) ([]string, error) {
	u, err := g.requestURL(query, num)
	if err != nil {
		return nil, err
	}
	var resp googleResponse
	if err := getJSON(ctx, g.HTTPClient, u, map[string]string{"User-Agent": g.UserAgent}, &resp); err != nil {
		return nil, err
	}
	links := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.Link != "" {
			links = append(links, it.Link)
		}
	}
	return links, nil
}

func (g *Google) requestURL(query string, num int) (string, error) {
	base := g.BaseURL
	if base == "" {
		base = googleSearchURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("key", g.Key)
	q.Set("cx", g.CX)
	q.Set("q", query)
	q.Set("num", fmt.Sprintf("%d", num))
	for _, site := range g.Sites {
		q.Add("siteSearch", site)
	}
	u.RawQuery = q.Encode()
	if extra := strings.TrimLeft(strings.TrimSpace(g.ExtraParams), "&?"); extra != "" {
		u.RawQuery += "&" + extra
	}
	return u.String(), nil
}

type googleResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"items"`
}

var sitePrefix = regexp.MustCompile(`^https?://(www\.)?`)

// SiteFromURL reduces a URL to the bare host form used by siteSearch.
func SiteFromURL(raw string) string {
	s := sitePrefix.ReplaceAllString(strings.TrimSpace(raw), "")
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}
	return s
}

// LoadSites reads newline-separated URLs from path and returns their unique
// hosts in first-seen order, clipped to MaxSites.
func LoadSites(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seen := map[string]struct{}{}
	var sites []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		site := SiteFromURL(line)
		if site == "" {
			continue
		}
		if _, ok := seen[site]; ok {
			continue
		}
		seen[site] = struct{}{}
		sites = append(sites, site)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(sites) > MaxSites {
		sites = sites[:MaxSites]
	}
	return sites, nil
}
