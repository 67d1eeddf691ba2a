package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ratewave/featuregate/internal/engine"
	"github.com/ratewave/featuregate/internal/providers"
	"github.com/ratewave/featuregate/internal/rollout"
	"github.com/ratewave/featuregate/internal/snapshot"
	"github.com/ratewave/featuregate/internal/store"
)

// deviceDTO carries the client's device metadata in evaluation requests.
type deviceDTO struct {
	Platform         string     `json:"platform"`
	DeviceID         string     `json:"deviceId,omitempty"`
	Build            string     `json:"build,omitempty"`
	Version          string     `json:"version,omitempty"`
	Brand            string     `json:"brand,omitempty"`
	Model            string     `json:"model,omitempty"`
	Locale           string     `json:"locale,omitempty"`
	FirstInstalledAt *time.Time `json:"firstInstalledAt,omitempty"`
}

// userDTO carries the authenticated user snapshot; absent means signed out.
type userDTO struct {
	ID           string     `json:"id"`
	Email        string     `json:"email,omitempty"`
	Providers    []string   `json:"providers,omitempty"`
	RegisteredAt *time.Time `json:"registeredAt,omitempty"`
}

// contextDTO is the full client-side evaluation context shipped with a
// request. The server builds static providers from it, so the engine sees
// the same contract as an on-device embedding.
type contextDTO struct {
	Device               deviceDTO      `json:"device"`
	User                 *userDTO       `json:"user,omitempty"`
	PushToken            string         `json:"pushToken,omitempty"`
	NotificationsEnabled bool           `json:"notificationsEnabled,omitempty"`
	PlanType             string         `json:"planType,omitempty"`
	IsFirstTimeUser      *bool          `json:"isFirstTimeUser,omitempty"`
	Attributes           map[string]any `json:"attributes,omitempty"`
}

// evaluateRequest is the body of POST /v1/evaluate.
type evaluateRequest struct {
	Feature string     `json:"feature"`
	Default bool       `json:"default,omitempty"`
	Context contextDTO `json:"context"`
}

// evaluateResponse is the body of a single-feature evaluation.
type evaluateResponse struct {
	EvaluationID string          `json:"evaluationId"`
	Decision     engine.Decision `json:"decision"`
	ETag         string          `json:"etag"`
	EvaluatedAt  string          `json:"evaluatedAt"`
}

// batchRequest is the body of POST /v1/evaluate/batch.
type batchRequest struct {
	Features []string   `json:"features"`
	Default  bool       `json:"default,omitempty"`
	Context  contextDTO `json:"context"`
}

// batchResponse maps feature names to their decisions.
type batchResponse struct {
	EvaluationID string                     `json:"evaluationId"`
	Decisions    map[string]engine.Decision `json:"decisions"`
	ETag         string                     `json:"etag"`
	EvaluatedAt  string                     `json:"evaluatedAt"`
}

// buildContext turns a request payload into an engine evaluation context.
// Per-request values land in a scratch memory store so the engine reads them
// through the same KV contract it uses on device.
func (s *Server) buildContext(dto contextDTO) *engine.Context {
	var user *providers.User
	if dto.User != nil {
		user = &providers.User{
			ID:        dto.User.ID,
			Email:     dto.User.Email,
			Providers: dto.User.Providers,
		}
		if dto.User.RegisteredAt != nil {
			user.RegisteredAt = *dto.User.RegisteredAt
		}
	}

	var installed time.Time
	if dto.Device.FirstInstalledAt != nil {
		installed = *dto.Device.FirstInstalledAt
	}

	scratch := store.NewMemoryStore().Seed(map[string]string{
		store.KeyPlanType: strings.ToLower(dto.PlanType),
	})
	if dto.IsFirstTimeUser != nil {
		scratch.SeedBool(store.KeyFirstTimeUser, *dto.IsFirstTimeUser)
	}

	return &engine.Context{
		Device: providers.StaticDevice{
			OS:        dto.Device.Platform,
			Build:     dto.Device.Build,
			AppVer:    dto.Device.Version,
			BrandName: dto.Device.Brand,
			ModelName: dto.Device.Model,
			Locale:    dto.Device.Locale,
			Installed: installed,
		},
		Identity:   providers.StaticIdentity{User: user},
		Push:       providers.StaticPush{FCMToken: dto.PushToken, Enabled: dto.NotificationsEnabled},
		Store:      scratch,
		Buckets:    s.bucketSource(dto.Device.DeviceID),
		Attributes: dto.Attributes,
	}
}

// bucketSource picks the rollout bucket strategy for a request. With a
// device ID and a configured salt the bucket is hash-derived and stateless;
// with a device ID and a KV store it is sticky per device; without an ID
// there is nothing stable to bucket on.
func (s *Server) bucketSource(deviceID string) rollout.BucketSource {
	if deviceID == "" {
		return rollout.NewHashed("", s.rolloutSalt)
	}
	if s.kv != nil {
		return rollout.NewSticky(s.kv, store.KeyRolloutID+":"+deviceID, s.log)
	}
	return rollout.NewHashed(deviceID, s.rolloutSalt)
}

// handleEvaluate handles POST /v1/evaluate.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}
	if strings.TrimSpace(req.Feature) == "" {
		BadRequestError(w, r, ErrCodeValidation, "feature is required")
		return
	}
	if req.Context.Device.Platform == "" {
		BadRequestError(w, r, ErrCodeValidation, "context.device.platform is required")
		return
	}

	snap := snapshot.Load()
	ec := s.buildContext(req.Context)
	decision := s.engine.Decide(r.Context(), snap.Document, req.Feature, req.Default, ec)

	writeJSON(w, http.StatusOK, evaluateResponse{
		EvaluationID: uuid.NewString(),
		Decision:     decision,
		ETag:         snap.ETag,
		EvaluatedAt:  time.Now().UTC().Format(time.RFC3339),
	})
}

// maxBatchFeatures caps one batch request.
const maxBatchFeatures = 64

// handleEvaluateBatch handles POST /v1/evaluate/batch.
func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequestError(w, r, ErrCodeInvalidJSON, "invalid JSON")
		return
	}
	if len(req.Features) == 0 {
		BadRequestError(w, r, ErrCodeValidation, "features is required")
		return
	}
	if len(req.Features) > maxBatchFeatures {
		BadRequestError(w, r, ErrCodeValidation, "too many features in one batch")
		return
	}
	if req.Context.Device.Platform == "" {
		BadRequestError(w, r, ErrCodeValidation, "context.device.platform is required")
		return
	}

	snap := snapshot.Load()
	ec := s.buildContext(req.Context)
	decisions := s.engine.DecideAll(r.Context(), snap.Document, req.Features, req.Default, ec)

	writeJSON(w, http.StatusOK, batchResponse{
		EvaluationID: uuid.NewString(),
		Decisions:    decisions,
		ETag:         snap.ETag,
		EvaluatedAt:  time.Now().UTC().Format(time.RFC3339),
	})
}
