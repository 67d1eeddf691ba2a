package api

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ratewave/featuregate/internal/audit"
	"github.com/ratewave/featuregate/internal/auth"
	"github.com/ratewave/featuregate/internal/engine"
	"github.com/ratewave/featuregate/internal/schema"
	"github.com/ratewave/featuregate/internal/snapshot"
	"github.com/ratewave/featuregate/internal/source"
	"github.com/ratewave/featuregate/internal/store"
	"github.com/ratewave/featuregate/internal/telemetry"
	"github.com/ratewave/featuregate/internal/validation"
)

// maxConfigBody caps PUT /v1/config payloads at 1 MiB.
const maxConfigBody = 1 << 20

// Server hosts the evaluation and config endpoints.
type Server struct {
	engine      *engine.Engine
	kv          store.KV
	ring        *audit.Ring
	adminAPIKey string
	rolloutSalt string
	log         *slog.Logger
}

// NewServer wires the HTTP surface. kv may be nil, in which case rollout
// buckets are always hash-derived from the request's device ID. ring may be
// nil to disable the recent-decisions endpoint.
func NewServer(eng *engine.Engine, kv store.KV, ring *audit.Ring, adminKey, rolloutSalt string, log *slog.Logger) *Server {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Server{
		engine:      eng,
		kv:          kv,
		ring:        ring,
		adminAPIKey: adminKey,
		rolloutSalt: rolloutSalt,
		log:         log,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))
	r.Use(telemetry.Middleware)

	// health
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// public: current config snapshot (ETag)
	r.Get("/v1/config/snapshot", s.handleSnapshot)

	// public: evaluation
	r.Post("/v1/evaluate", s.handleEvaluate)
	r.Post("/v1/evaluate/batch", s.handleEvaluateBatch)

	// admin (protected)
	r.Put("/v1/config", s.authAdmin(s.handlePutConfig))
	r.Get("/v1/decisions/recent", s.authAdmin(s.handleRecentDecisions))

	return r
}

// authAdmin guards admin endpoints with a bearer API key.
func (s *Server) authAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if token == "" || !auth.VerifyAPIKeyConstantTime(token, s.adminAPIKey) {
			UnauthorizedError(w, r, "invalid or missing API key")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := snapshot.Load()
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == snap.ETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", snap.ETag)
	writeJSON(w, http.StatusOK, snap)
}

type putConfigResponse struct {
	OK       bool              `json:"ok"`
	ETag     string            `json:"etag"`
	Features int               `json:"features"`
	Warnings map[string]string `json:"warnings,omitempty"`
}

// handlePutConfig replaces the live config document. The new document must
// pass validation; an invalid one leaves the current snapshot untouched.
func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxConfigBody))
	if err != nil {
		BadRequestError(w, r, ErrCodeBadRequest, "cannot read body")
		return
	}

	doc, err := schema.Decode(body)
	if err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid config document")
		return
	}

	result := validation.ValidateDocument(doc)
	if !result.Valid {
		ValidationError(w, r, "config document failed validation", result.Errors)
		return
	}

	snap, err := source.Publish(doc)
	if err != nil {
		InternalError(w, r, "publish failed")
		return
	}

	s.log.Info("config replaced via API",
		"etag", snap.ETag, "features", len(doc.Features))
	telemetry.SnapshotFeatures.Set(float64(len(doc.Features)))

	writeJSON(w, http.StatusOK, putConfigResponse{
		OK:       true,
		ETag:     snap.ETag,
		Features: len(doc.Features),
		Warnings: result.Warnings,
	})
}

type recentDecisionsResponse struct {
	Decisions []audit.Record `json:"decisions"`
}

func (s *Server) handleRecentDecisions(w http.ResponseWriter, r *http.Request) {
	if s.ring == nil {
		writeJSON(w, http.StatusOK, recentDecisionsResponse{Decisions: []audit.Record{}})
		return
	}
	recent := s.ring.Recent()
	if recent == nil {
		recent = []audit.Record{}
	}
	writeJSON(w, http.StatusOK, recentDecisionsResponse{Decisions: recent})
}
