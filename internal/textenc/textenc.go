// Package textenc resolves character encodings for request and page bodies
// and decodes them to UTF-8.
//
// An explicit charset parameter in the Content-Type header always wins over
// anything found in or guessed from the body.
package textenc

import (
	"fmt"
	"mime"
	"strings"

	"github.com/gogs/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// DefaultCharset is used when nothing better is known.
const DefaultCharset = "utf-8"

// minDetectConfidence is the chardet confidence (0-100) below which a guess
// is ignored.
const minDetectConfidence = 30

const fallbackGuess = "windows-1252"

// CharsetFromContentType returns the charset parameter of a Content-Type
// header value, lower-cased, or "" when absent.
func CharsetFromContentType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err == nil {
		return strings.ToLower(strings.TrimSpace(params["charset"]))
	}
	// Tolerate sloppy headers such as "text/html;charset=utf-8;;".
	lower := strings.ToLower(contentType)
	i := strings.Index(lower, "charset=")
	if i < 0 {
		return ""
	}
	v := lower[i+len("charset="):]
	if j := strings.IndexAny(v, "; \t"); j >= 0 {
		v = v[:j]
	}
	return strings.Trim(v, `"'`)
}

// Lookup resolves a charset label to an encoding and its canonical name.
func Lookup(label string) (encoding.Encoding, string, error) {
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, "", fmt.Errorf("unknown charset %q: %w", label, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		name = strings.ToLower(label)
	}
	return enc, name, nil
}

// Detect guesses the charset of b statistically. It returns "" when the
// detector has no usable answer.
func Detect(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	res, err := chardet.NewTextDetector().DetectBest(b)
	if err != nil || res == nil || res.Confidence < minDetectConfidence {
		return ""
	}
	return strings.ToLower(res.Charset)
}

// DecodeRequest decodes a request body. A declared charset must be known;
// otherwise the body is detected, falling back to UTF-8.
func DecodeRequest(body []byte, contentType string) (string, string, error) {
	if label := CharsetFromContentType(contentType); label != "" {
		enc, name, err := Lookup(label)
		if err != nil {
			return "", "", err
		}
		s, err := decode(enc, body)
		return s, name, err
	}
	enc, name := detected(body)
	s, err := decode(enc, body)
	return s, name, err
}

// Decode decodes an HTML document body. Resolution order: header
// charset, BOM or <meta> declaration, statistical detection, then the HTML5
// default guess. It never fails; undecodable bytes become U+FFFD.
func Decode(body []byte, contentType string) (string, string) {
	if label := CharsetFromContentType(contentType); label != "" {
		if enc, name, err := Lookup(label); err == nil {
			if s, err := decode(enc, body); err == nil {
				return s, name
			}
		}
	}
	guess, guessName, certain := charset.DetermineEncoding(body, "text/html")
	// A windows-1252 answer only means DetermineEncoding found nothing.
	if certain || guessName != fallbackGuess {
		if s, err := decode(guess, body); err == nil {
			return s, guessName
		}
	}
	if label := Detect(body); label != "" {
		if enc, name, err := Lookup(label); err == nil {
			if s, err := decode(enc, body); err == nil {
				return s, name
			}
		}
	}
	if s, err := decode(guess, body); err == nil {
		return s, guessName
	}
	return string(body), DefaultCharset
}

func detected(body []byte) (encoding.Encoding, string) {
	if label := Detect(body); label != "" {
		if enc, name, err := Lookup(label); err == nil {
			return enc, name
		}
	}
	enc, name, _ := Lookup(DefaultCharset)
	return enc, name
}

func decode(enc encoding.Encoding, b []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	return string(out), nil
}
