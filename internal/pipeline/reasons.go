package pipeline

import "github.com/hyperifyio/cerche/internal/search"

// Reason names why a candidate was excluded.
type Reason string

const (
	ReasonEmptyResponse    Reason = "empty_response"
	ReasonContentEmpty     Reason = "content_empty"
	ReasonAlreadySeen      Reason = "already_seen"
	ReasonContentForbidden Reason = "content_forbidden"
)

// forbiddenContent is the whole-page text some sites serve to scrapers.
const forbiddenContent = "Forbidden"

// classify returns every reason that applies. A failed fetch only ever
// yields ReasonEmptyResponse.
func classify(rec search.Record, fetchErr error, seen map[string]struct{}) []Reason {
	if fetchErr != nil {
		return []Reason{ReasonEmptyResponse}
	}
	var out []Reason
	if rec.Content == "" {
		out = append(out, ReasonContentEmpty)
	}
	if _, ok := seen[rec.Content]; ok {
		out = append(out, ReasonAlreadySeen)
	}
	if rec.Content == forbiddenContent {
		out = append(out, ReasonContentForbidden)
	}
	return out
}

func reasonStrings(rs []Reason) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}
