package server

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/hyperifyio/cerche/internal/textenc"
)

// ClientError is a malformed request. It is answered with Status (400 when
// zero) and its message as plain text.
type ClientError struct {
	Status int
	Msg    string
}

func (e *ClientError) Error() string { return e.Msg }

func (e *ClientError) status() int {
	if e.Status == 0 {
		return http.StatusBadRequest
	}
	return e.Status
}

func badRequest(format string, args ...any) *ClientError {
	return &ClientError{Msg: fmt.Sprintf(format, args...)}
}

// Query is a parsed search request.
type Query struct {
	Q string
	N int
}

// ParseQuery decodes a form body in the charset named by contentType (or
// a detected one) and validates it. Every field must appear exactly once.
func ParseQuery(body []byte, contentType string) (Query, error) {
	decoded, cs, err := textenc.DecodeRequest(body, contentType)
	if err != nil {
		return Query{}, badRequest("cannot decode body: %v", err)
	}
	values, err := parseForm(decoded)
	if err != nil {
		return Query{}, badRequest("malformed form body (%s): %v", cs, err)
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if len(values[k]) != 1 {
			return Query{}, badRequest("field %q must appear exactly once, got %d", k, len(values[k]))
		}
	}

	q := values.Get("q")
	if strings.TrimSpace(q) == "" {
		return Query{}, badRequest("missing field %q", "q")
	}
	rawN := strings.TrimSpace(values.Get("n"))
	if rawN == "" {
		return Query{}, badRequest("missing field %q", "n")
	}
	n, err := strconv.Atoi(rawN)
	if err != nil {
		return Query{}, badRequest("field %q must be an integer: %q", "n", rawN)
	}
	if n <= 0 {
		return Query{}, badRequest("field %q must be positive, got %d", "n", n)
	}
	return Query{Q: q, N: n}, nil
}

// parseForm splits a urlencoded body on '&' only, so ';' is ordinary text.
// Pairs without '=' and blank values are dropped.
func parseForm(body string) (url.Values, error) {
	values := url.Values{}
	for _, pair := range strings.Split(body, "&") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, err := url.QueryUnescape(k)
		if err != nil {
			return nil, err
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			return nil, err
		}
		if val == "" {
			continue
		}
		values.Add(key, val)
	}
	return values, nil
}
