package extract

import (
	"fmt"
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// Extractor turns a decoded HTML document into title and text.
// Implementations must be deterministic and free of side effects.
type Extractor interface {
	Extract(page string, pageURL *url.URL) (Document, error)
}

// TextExtractor converts the whole body to text with FromHTML.
type TextExtractor struct{}

func (TextExtractor) Extract(page string, _ *url.URL) (Document, error) {
	return FromHTML(page), nil
}

// ReadabilityExtractor keeps only the main article as detected by
// go-readability, then normalizes it like TextExtractor. Pages without a
// detectable article fall back to the whole body.
type ReadabilityExtractor struct{}

func (ReadabilityExtractor) Extract(page string, pageURL *url.URL) (Document, error) {
	if pageURL == nil {
		pageURL = &url.URL{}
	}
	article, err := readability.FromReader(strings.NewReader(page), pageURL)
	if err != nil {
		return Document{}, fmt.Errorf("readability: %w", err)
	}
	full := FromHTML(page)
	if strings.TrimSpace(article.Content) == "" {
		return full, nil
	}
	doc := FromHTML(article.Content)
	doc.Title = full.Title
	if doc.Title == "" {
		doc.Title = CleanTitle(article.Title)
	}
	return doc, nil
}

// New returns the extractor registered under name ("text" or "readability").
func New(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return TextExtractor{}, nil
	case "readability":
		return ReadabilityExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q", name)
	}
}
