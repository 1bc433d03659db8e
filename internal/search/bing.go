package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

const (
	bingSearchURL = "https://api.bing.microsoft.com/v7.0/search"
	// maxDescriptionItems bounds how many description-only (news) items
	// contribute records in description-only mode.
	maxDescriptionItems = 3
)

// Bing implements Backend against the Bing Web Search v7 API.
type Bing struct {
	SubscriptionKey string

	BaseURL         string // defaults to the public endpoint
	Overfetch       int
	DescriptionOnly bool
	HTTPClient      *http.Client
	UserAgent       string
}

func (b *Bing) Name() string { return "bing" }

type bingItem struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	Description string `json:"description"`
}

type bingAnswer struct {
	Value []bingItem `json:"value"`
}

type bingResponse struct {
	News     bingAnswer `json:"news"`
	WebPages bingAnswer `json:"webPages"`
	Entities bingAnswer `json:"entities"`
	Places   bingAnswer `json:"places"`
}

func (b *Bing) Search(ctx context.Context, query string, n int) (Candidates, error) {
	if b.SubscriptionKey == "" {
		return Candidates{}, backendErr(b.Name(), query, errors.New("missing subscription key"))
	}
	logger := zerolog.Ctx(ctx)

	u, err := b.requestURL(query, requestCount(n, b.Overfetch))
	if err != nil {
		return Candidates{}, backendErr(b.Name(), query, err)
	}
	var resp bingResponse
	headers := map[string]string{
		"Ocp-Apim-Subscription-Key": b.SubscriptionKey,
		"User-Agent":                b.UserAgent,
	}
	if err := getJSON(ctx, b.HTTPClient, u, headers, &resp); err != nil {
		return Candidates{}, backendErr(b.Name(), query, err)
	}

	items := make([]bingItem, 0, len(resp.News.Value)+len(resp.WebPages.Value)+len(resp.Entities.Value)+len(resp.Places.Value))
	for _, section := range []struct {
		name  string
		value []bingItem
	}{
		{"news", resp.News.Value},
		{"webPages", resp.WebPages.Value},
		{"entities", resp.Entities.Value},
		{"places", resp.Places.Value},
	} {
		if len(section.value) > 0 {
			logger.Debug().Int("count", len(section.value)).Str("section", section.name).Msg("bing adding items")
		}
		items = append(items, section.value...)
	}

	if b.DescriptionOnly {
		return Candidates{Mode: ModeRecords, Records: b.records(logger, items)}, nil
	}

	urls := make([]string, 0, len(items))
	for _, it := range items {
		if it.URL == "" || FilterSpecialChars(it.Name) == "" {
			continue
		}
		urls = append(urls, it.URL)
	}
	urls = DedupURLs(urls)
	if len(urls) == 0 {
		logger.Warn().Str("query", query).Msg("no bing urls found")
	}
	return Candidates{Mode: ModeURLs, URLs: urls}, nil
}

// records builds description-only records. Items lacking both snippet and
// description are skipped.
func (b *Bing) records(logger *zerolog.Logger, items []bingItem) []Record {
	out := make([]Record, 0, len(items))
	descriptions := 0
	for _, it := range items {
		if it.URL == "" {
			continue
		}
		title := FilterSpecialChars(it.Name)
		if title == "" {
			logger.Debug().Str("url", it.URL).Msg("no title; skipping")
			continue
		}
		content := title + ". "
		switch {
		case it.Snippet != "":
			content += FilterSpecialChars(it.Snippet)
		case it.Description != "":
			if descriptions >= maxDescriptionItems {
				continue
			}
			content += FilterSpecialChars(it.Description)
			descriptions++
		default:
			logger.Debug().Str("url", it.URL).Msg("no description for item; skipping")
			continue
		}
		out = append(out, Record{Title: title, URL: it.URL, Content: content})
	}
	return out
}

func (b *Bing) requestURL(query string, count int) (string, error) {
	base := b.BaseURL
	if base == "" {
		base = bingSearchURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("count", fmt.Sprintf("%d", count))
	q.Set("textDecorations", "false")
	q.Set("textFormat", "HTML")
	q.Set("responseFilter", "News,Entities,Places,Webpages")
	q.Set("promote", "News")
	q.Set("answerCount", "5")
	u.RawQuery = q.Encode()
	return u.String(), nil
}
