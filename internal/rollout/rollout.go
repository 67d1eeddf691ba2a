// Package rollout assigns devices to percentage-rollout buckets (0-99).
//
// Two bucket sources exist:
//   - Sticky: the on-device model. A bucket is generated once per
//     installation, cached in memory and mirrored to persistent storage, and
//     never reassigned afterwards. Stability is the entire point: increasing
//     a rollout from 10% to 20% only adds devices, never removes them.
//   - Hashed: the stateless server-side model, bucketing by
//     xxhash(deviceID:salt) so any instance computes the same bucket without
//     shared storage.
package rollout

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/ratewave/featuregate/internal/store"
)

// BucketCount is the number of rollout buckets. Percentages compare directly
// against bucket values: a device is inside rollout P iff bucket < P.
const BucketCount = 100

// BucketSource yields the rollout bucket for the current evaluation target.
type BucketSource interface {
	Bucket(ctx context.Context) (int, error)
}

// InRollout reports whether a bucket falls inside a rollout percentage.
// Out-of-range percentages are not clamped; the comparison is whatever it
// naturally is.
func InRollout(bucket, percentage int) bool {
	return bucket < percentage
}

// Sticky is the write-once persistent bucket assigner. The in-memory cache
// is authoritative for the process lifetime; the KV store mirror survives
// restarts. Safe for concurrent first access: only one generation and at
// most one storage write happen even when evaluations race on a cold cache.
type Sticky struct {
	kv  store.KV
	key string
	log *slog.Logger

	mu     sync.Mutex
	cached int
	warm   bool

	// randBucket is swappable in tests.
	randBucket func() int
}

// NewSticky creates a sticky assigner persisting under key (normally
// store.KeyRolloutID). A nil logger discards diagnostics.
func NewSticky(kv store.KV, key string, log *slog.Logger) *Sticky {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Sticky{kv: kv, key: key, log: log, randBucket: randomBucket}
}

// Bucket returns the stable bucket for this installation, generating and
// persisting one on first use. It never fails: a storage read error counts
// as an absent value (a fresh bucket is generated), and a storage write
// error is tolerated because the in-memory cache stays valid.
func (s *Sticky) Bucket(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.warm {
		return s.cached, nil
	}

	if bucket, ok := s.readStored(ctx); ok {
		s.cached, s.warm = bucket, true
		return bucket, nil
	}

	bucket := s.randBucket()
	s.cached, s.warm = bucket, true

	if err := s.kv.SetString(ctx, s.key, strconv.Itoa(bucket)); err != nil {
		s.log.Warn("rollout bucket persist failed, keeping in-memory value",
			"key", s.key, "bucket", bucket, "error", err)
	}
	return bucket, nil
}

// readStored adopts a persisted value when it parses as an integer in
// [0,BucketCount). Anything else (missing key, read error, garbage) means a
// fresh bucket gets generated.
func (s *Sticky) readStored(ctx context.Context) (int, bool) {
	raw, ok, err := s.kv.GetString(ctx, s.key)
	if err != nil {
		s.log.Warn("rollout bucket read failed, generating fresh value",
			"key", s.key, "error", err)
		return 0, false
	}
	if !ok {
		return 0, false
	}
	bucket, err := strconv.Atoi(raw)
	if err != nil || bucket < 0 || bucket >= BucketCount {
		s.log.Warn("stored rollout bucket invalid, regenerating",
			"key", s.key, "stored", raw)
		return 0, false
	}
	return bucket, true
}

// randomBucket returns a uniformly random bucket. crypto/rand avoids any
// seeding concerns; the modulus is exact since BucketCount divides the range
// handled by big.Int.
func randomBucket() int {
	n, err := rand.Int(rand.Reader, big.NewInt(BucketCount))
	if err != nil {
		// Out of entropy is effectively unreachable; bucket 0 keeps the
		// device out of partial rollouts rather than crashing evaluation.
		return 0
	}
	return int(n.Int64())
}

// Hashed buckets a device deterministically from its identifier and a shared
// salt. The same deviceID + salt combination always yields the same bucket,
// so a fleet of stateless servers agrees without coordination.
type Hashed struct {
	deviceID string
	salt     string
}

// NewHashed creates a deterministic bucket source for one device.
func NewHashed(deviceID, salt string) *Hashed {
	return &Hashed{deviceID: deviceID, salt: salt}
}

// Bucket returns the hash-derived bucket. An empty device ID has no identity
// to hash and lands in no rollout; BucketCount (out of range of every valid
// percentage comparison) is returned so InRollout is false for any P <= 100.
func (h *Hashed) Bucket(_ context.Context) (int, error) {
	if h.deviceID == "" {
		return BucketCount, nil
	}
	sum := xxhash.Sum64String(h.deviceID + ":" + h.salt)
	return int(sum % BucketCount), nil
}
