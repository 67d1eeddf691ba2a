package store

import "context"

// KV defines the persistent key-value contract the evaluation engine depends
// on. Implementations must be thread-safe and support concurrent access.
//
// Reads are presence-aware: the second return value reports whether the key
// exists, so callers can distinguish "absent" from a zero value. Absence is
// never an error.
type KV interface {
	// GetString returns the string stored under key.
	GetString(ctx context.Context, key string) (value string, ok bool, err error)

	// SetString stores value under key, overwriting any previous value.
	SetString(ctx context.Context, key, value string) error

	// GetBool returns the boolean stored under key.
	GetBool(ctx context.Context, key string) (value bool, ok bool, err error)

	// SetBool stores a boolean under key.
	SetBool(ctx context.Context, key string, value bool) error

	// Close releases any resources held by the store.
	// After Close is called, the store should not be used.
	Close() error
}

// Keys the engine persists under. Kept in one place so the server, CLI and
// tests agree on them.
const (
	// KeyRolloutID holds the sticky rollout bucket as a decimal string.
	KeyRolloutID = "rollout_id"
	// KeyPlanType holds the persisted subscription plan tag ("free", "premium").
	KeyPlanType = "plan_type"
	// KeyFirstTimeUser holds the derived first-time-user flag.
	KeyFirstTimeUser = "is_first_time_user"
)
