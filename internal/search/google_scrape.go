package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

const (
	googleWebURL = "https://www.google.com/search"
	// DefaultScrapePause spaces out result-page requests. Shorter pauses get
	// the caller's IP blocked.
	DefaultScrapePause = time.Second
	googlePageSize     = 10
	googleMaxPages     = 5
	googleMaxPageBytes = 2 << 20
	browserUserAgent   = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// GoogleScraper implements Backend by parsing Google's HTML result pages.
// It needs no credentials. Requests are serialized process-wide with at
// least Pause between them.
type GoogleScraper struct {
	BaseURL         string        // defaults to the public search page
	Pause           time.Duration // zero means DefaultScrapePause
	Overfetch       int
	DescriptionOnly bool
	HTTPClient      *http.Client
	UserAgent       string // empty uses a desktop browser string

	mu   sync.Mutex
	last time.Time
}

func (g *GoogleScraper) Name() string { return "google" }

func (g *GoogleScraper) Search(ctx context.Context, query string, n int) (Candidates, error) {
	if g.DescriptionOnly {
		return Candidates{}, backendErr(g.Name(), query, fmt.Errorf("description-only mode: %w", ErrUnsupported))
	}
	want := requestCount(n, g.Overfetch)
	var links []string
	for page := 0; page < googleMaxPages && len(links) < want; page++ {
		found, err := g.fetchPage(ctx, query, page*googlePageSize)
		if err != nil {
			return Candidates{}, backendErr(g.Name(), query, err)
		}
		if len(found) == 0 {
			break
		}
		links = DedupURLs(append(links, found...))
	}
	zerolog.Ctx(ctx).Debug().Str("query", query).Int("links", len(links)).Msg("google result pages parsed")
	if len(links) > want {
		links = links[:want]
	}
	return Candidates{Mode: ModeURLs, URLs: links}, nil
}

// wait blocks until Pause has passed since the previous page request.
func (g *GoogleScraper) wait(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	pause := g.Pause
	if pause <= 0 {
		pause = DefaultScrapePause
	}
	if !g.last.IsZero() {
		if d := pause - time.Since(g.last); d > 0 {
			t := time.NewTimer(d)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	g.last = time.Now()
	return nil
}

func (g *GoogleScraper) fetchPage(ctx context.Context, query string, start int) ([]string, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	base := g.BaseURL
	if base == "" {
		base = googleWebURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("num", strconv.Itoa(googlePageSize))
	q.Set("hl", "en")
	if start > 0 {
		q.Set("start", strconv.Itoa(start))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	ua := g.UserAgent
	if ua == "" {
		ua = browserUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	hc := g.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultSearchTimeout}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.New("rate limited by google (status 429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, googleMaxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}
	if doc.Find("#captcha-form").Length() > 0 {
		return nil, errors.New("google answered with a captcha")
	}
	return resultLinks(doc), nil
}

// resultLinks collects organic result targets in page order. Result anchors
// either wrap an h3 title or use the /url?q= redirect form.
func resultLinks(doc *goquery.Document) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		redirect := strings.HasPrefix(href, "/url?")
		if !redirect && s.Find("h3").Length() == 0 {
			return
		}
		if link := resultTarget(href); link != "" {
			links = append(links, link)
		}
	})
	return links
}

// resultTarget unwraps Google redirects and rejects links back into Google.
func resultTarget(href string) string {
	if strings.HasPrefix(href, "/url?") {
		u, err := url.Parse(href)
		if err != nil {
			return ""
		}
		href = u.Query().Get("q")
		if href == "" {
			href = u.Query().Get("url")
		}
	}
	u, err := url.Parse(href)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	if host == "google.com" || strings.HasPrefix(host, "google.") ||
		strings.HasSuffix(host, ".google.com") || strings.Contains(host, ".google.") {
		return ""
	}
	return href
}
