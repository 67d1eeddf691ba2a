// Package snapshot holds the process-wide current remote-config document.
// Readers get an immutable pointer; writers atomically swap in a rebuilt
// snapshot, so evaluation never observes a half-updated document.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/ratewave/featuregate/internal/schema"
)

// Snapshot is one immutable published config document with its ETag.
type Snapshot struct {
	ETag      string           `json:"etag"`
	Document  *schema.Document `json:"document"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

var current atomic.Pointer[Snapshot]

// Load returns the current snapshot. Before the first Update it returns an
// empty document so callers never see nil.
func Load() *Snapshot {
	if s := current.Load(); s != nil {
		return s
	}
	return &Snapshot{
		ETag:      "",
		Document:  &schema.Document{},
		UpdatedAt: time.Now().UTC(),
	}
}

// Update publishes a snapshot as the current one.
func Update(s *Snapshot) {
	current.Store(s)
}

// Reset clears the published snapshot. Test use only.
func Reset() {
	current.Store(nil)
}

// Build wraps a document into a snapshot with a weak ETag over its canonical
// JSON form.
func Build(doc *schema.Document) *Snapshot {
	blob, _ := json.Marshal(doc)
	sum := sha256.Sum256(blob)
	return &Snapshot{
		ETag:      `W/"` + hex.EncodeToString(sum[:]) + `"`,
		Document:  doc,
		UpdatedAt: time.Now().UTC(),
	}
}
