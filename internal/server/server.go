// Package server exposes the normalizer over HTTP.
//
// Routes:
//
//	POST /v1/normalize        {"text": "..."} or {"tokens": [...]} → result
//	GET  /v1/spell/{number}   spoken form of a digit string
//	GET  /healthz, /readyz    probes (see package health)
//	GET  /metrics             Prometheus exposition
//
// Every route runs inside [observe.Middleware]. The normalizer can be
// replaced at runtime with [Server.SetNormalizer], e.g. after the tables file
// changed; in-flight requests finish on the normalizer they started with.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/mowa/internal/health"
	"github.com/MrWong99/mowa/internal/observe"
	"github.com/MrWong99/mowa/internal/textnorm"
	"github.com/MrWong99/mowa/internal/textnorm/annotate"
)

// DefaultMaxBodyBytes caps request bodies.
const DefaultMaxBodyBytes = 1 << 20

// NormalizeRequest is the body of POST /v1/normalize. When Tokens is
// non-empty the annotated pipeline is used and Text is ignored.
type NormalizeRequest struct {
	Text   string            `json:"text"`
	Tokens []annotate.Record `json:"tokens,omitempty"`
}

// SpellResponse is the body returned by GET /v1/spell/{number}.
type SpellResponse struct {
	Number string   `json:"number"`
	Words  []string `json:"words"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Option configures a [Server].
type Option func(*Server)

// WithMetrics sets the metrics used by the request middleware. Default:
// [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHealth registers the probes of h.
func WithHealth(h *health.Handler) Option {
	return func(s *Server) {
		s.health = h
	}
}

// WithGatherer sets the registry /metrics serves. Default:
// [prometheus.DefaultGatherer].
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMaxBodyBytes overrides [DefaultMaxBodyBytes].
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// Server serves the HTTP API. It is safe for concurrent use.
type Server struct {
	norm     atomic.Pointer[textnorm.Normalizer]
	metrics  *observe.Metrics
	health   *health.Handler
	gatherer prometheus.Gatherer
	maxBody  int64
}

// New creates a [Server] around n.
func New(n *textnorm.Normalizer, opts ...Option) *Server {
	s := &Server{maxBody: DefaultMaxBodyBytes}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	s.norm.Store(n)
	return s
}

// Normalizer returns the normalizer currently serving requests.
func (s *Server) Normalizer() *textnorm.Normalizer { return s.norm.Load() }

// SetNormalizer atomically replaces the normalizer.
func (s *Server) SetNormalizer(n *textnorm.Normalizer) { s.norm.Store(n) }

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/normalize", s.handleNormalize)
	mux.HandleFunc("GET /v1/spell/{number}", s.handleSpell)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	if s.health != nil {
		s.health.Register(mux)
	}
	return observe.Middleware(s.metrics)(mux)
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var req NormalizeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	n := s.Normalizer()
	var (
		res *textnorm.Result
		err error
	)
	if len(req.Tokens) > 0 {
		res, err = n.NormalizeAnnotatedContext(r.Context(), annotate.Link(req.Tokens))
	} else {
		res, err = n.NormalizeContext(r.Context(), req.Text)
	}
	if err != nil {
		if errors.Is(err, textnorm.ErrAlignmentMismatch) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		observe.Logger(r.Context()).Error("normalize failed", "err", err)
		writeError(w, http.StatusInternalServerError, "normalization failed")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSpell(w http.ResponseWriter, r *http.Request) {
	number := r.PathValue("number")
	words, ok := s.Normalizer().Verbalizer().Numbers().SpellDigits(number)
	if !ok {
		writeError(w, http.StatusBadRequest, "no digits in "+number)
		return
	}
	writeJSON(w, http.StatusOK, SpellResponse{Number: number, Words: words})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}
