package rollout

import "github.com/ratewave/featuregate/internal/store"

// NewStickyForTest creates a sticky assigner whose generated bucket is fixed,
// for tests that need a deterministic fresh installation. The persistence
// behavior is identical to NewSticky.
func NewStickyForTest(kv store.KV, key string, bucket int) *Sticky {
	s := NewSticky(kv, key, nil)
	s.randBucket = func() int { return bucket }
	return s
}
