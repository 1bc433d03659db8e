// Package server exposes the search pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hyperifyio/cerche/internal/search"
)

// DefaultMaxRequestBytes caps POST bodies.
const DefaultMaxRequestBytes int64 = 1 << 20

// Runner filters backend candidates into the final records.
type Runner interface {
	Run(ctx context.Context, n int, c search.Candidates) []search.Record
}

// Handler serves POST / searches and GET / liveness checks.
type Handler struct {
	Backend  search.Backend
	Pipeline Runner
	// MaxRequestBytes caps the POST body. Zero means DefaultMaxRequestBytes.
	MaxRequestBytes int64
	// SearchTimeout bounds the backend call. Zero leaves it unbounded.
	SearchTimeout time.Duration
	// WorkerName identifies this process in GET responses.
	WorkerName string
	Logger     zerolog.Logger
}

type response struct {
	Response []search.Record `json:"response"`
}

// WorkerName returns "<hostname>-<pid>".
func WorkerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	logger := h.Logger.With().Str("request_id", id).Logger()
	ctx := logger.WithContext(r.Context())
	w.Header().Set("X-Request-Id", id)

	switch r.Method {
	case http.MethodGet:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "%s/%s\n", h.WorkerName, id)
	case http.MethodPost:
		h.search(ctx, w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) search(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("state", "received").Str("remote", r.RemoteAddr).Msg("request")

	limit := h.MaxRequestBytes
	if limit <= 0 {
		limit = DefaultMaxRequestBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			h.fail(ctx, w, &ClientError{Status: http.StatusRequestEntityTooLarge, Msg: fmt.Sprintf("request body exceeds %d bytes", limit)})
			return
		}
		h.fail(ctx, w, badRequest("read body: %v", err))
		return
	}
	q, err := ParseQuery(body, r.Header.Get("Content-Type"))
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	logger.Info().Str("q", q.Q).Int("n", q.N).Msg("received query")
	logger.Debug().Str("state", "parsed").Msg("request")

	candidates, err := h.searchBackend(ctx, q)
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	logger.Debug().Str("state", "backend_called").Str("backend", h.Backend.Name()).
		Str("mode", candidates.Mode.String()).Int("candidates", candidates.Len()).Msg("request")

	records := h.Pipeline.Run(ctx, q.N, candidates)
	if records == nil {
		records = []search.Record{}
	}
	logger.Debug().Str("state", "pipeline_run").Int("records", len(records)).Msg("request")

	b, err := json.Marshal(response{Response: records})
	if err != nil {
		h.fail(ctx, w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
	logger.Debug().Str("state", "responded").Int("bytes", len(b)).Msg("request")
}

func (h *Handler) searchBackend(ctx context.Context, q Query) (search.Candidates, error) {
	if h.SearchTimeout <= 0 {
		return h.Backend.Search(ctx, q.Q, q.N)
	}
	sctx, cancel := context.WithTimeout(ctx, h.SearchTimeout)
	defer cancel()
	c, err := h.Backend.Search(sctx, q.Q, q.N)
	if err != nil && errors.Is(sctx.Err(), context.DeadlineExceeded) {
		var be *search.BackendError
		if !errors.As(err, &be) {
			err = &search.BackendError{Provider: h.Backend.Name(), Query: q.Q, Err: err}
		}
	}
	return c, err
}

// fail writes err as plain text with a status derived from its type.
func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, err error) {
	logger := zerolog.Ctx(ctx)
	status := http.StatusInternalServerError
	var ce *ClientError
	var be *search.BackendError
	switch {
	case errors.As(err, &ce):
		status = ce.status()
		logger.Warn().Err(err).Int("status", status).Msg("bad request")
	case errors.As(err, &be):
		status = http.StatusBadGateway
		logger.Error().Err(be.Err).Str("provider", be.Provider).Str("query", be.Query).Msg("backend failed")
	default:
		logger.Error().Err(err).Msg("request failed")
	}
	logger.Debug().Str("state", "error_responded").Int("status", status).Msg("request")
	http.Error(w, err.Error(), status)
}
