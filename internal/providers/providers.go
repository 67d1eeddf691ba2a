// Package providers declares the collaborator contracts the evaluation
// engine consumes: device metadata, identity, and push state. The engine
// only reads through these interfaces; how the data is obtained (platform
// APIs on device, request payloads on the server) is the caller's concern.
package providers

import (
	"context"
	"time"
)

// Device exposes metadata about the client installation. Implementations
// should be cheap: values are read at most once per evaluation.
type Device interface {
	// Platform returns the OS name, normally "android" or "ios".
	Platform() string
	// BuildNumber returns the numeric app build as a string; the engine
	// parses it leniently (garbage reads as zero).
	BuildNumber() string
	// Version returns the dot-separated app version.
	Version() string
	// Brand returns the device manufacturer name.
	Brand() string
	// Model returns the device model name.
	Model() string
	// LocaleTag returns the current platform locale tag ("es-VE", "en_US").
	LocaleTag() string
	// FirstInstallTime returns when the app was first installed.
	FirstInstallTime() (time.Time, error)
}

// User is a snapshot of the authenticated account, taken once per
// evaluation. RegisteredAt is the zero time when unknown.
type User struct {
	ID           string
	Email        string
	Providers    []string
	RegisteredAt time.Time
}

// Identity yields the current authenticated user. A nil user with a nil
// error means signed out, which is not a failure.
type Identity interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// Push exposes the notification subsystem. Both calls may involve a
// round-trip and must honor the context.
type Push interface {
	// Token returns the current push registration token, empty when the
	// device has none.
	Token(ctx context.Context) (string, error)
	// NotificationsEnabled reports the OS-level notification permission.
	NotificationsEnabled(ctx context.Context) (bool, error)
}
