package engine

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ratewave/featuregate/internal/locale"
	"github.com/ratewave/featuregate/internal/providers"
	"github.com/ratewave/featuregate/internal/rollout"
	"github.com/ratewave/featuregate/internal/store"
)

// Context aggregates everything condition predicates can read: device
// metadata, the key-value store, the rollout bucket source, and the external
// providers for identity and push state.
//
// Provider round-trips are lazy and memoized: a provider is queried the
// first time a predicate needs it and never again for the lifetime of the
// Context, even across concurrent evaluations sharing it. Predicates that
// fail earlier in the chain therefore never trigger later lookups.
type Context struct {
	Device   providers.Device
	Identity providers.Identity
	Push     providers.Push
	Store    store.KV
	Buckets  rollout.BucketSource

	// Attributes feeds expression conditions; free-form, may be nil.
	Attributes map[string]any

	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time

	userOnce sync.Once
	user     *providers.User
	userErr  error

	tokenOnce sync.Once
	token     string
	tokenErr  error

	notifOnce sync.Once
	notif     bool
	notifErr  error

	installOnce sync.Once
	installed   time.Time
	installErr  error

	bucketOnce sync.Once
	bucket     int
	bucketErr  error

	localeOnce sync.Once
	language   string
	country    string
}

func (ec *Context) now() time.Time {
	if ec.Now != nil {
		return ec.Now()
	}
	return time.Now()
}

func (ec *Context) currentUser(ctx context.Context) (*providers.User, error) {
	ec.userOnce.Do(func() {
		ec.user, ec.userErr = ec.Identity.CurrentUser(ctx)
	})
	return ec.user, ec.userErr
}

func (ec *Context) pushToken(ctx context.Context) (string, error) {
	ec.tokenOnce.Do(func() {
		ec.token, ec.tokenErr = ec.Push.Token(ctx)
	})
	return ec.token, ec.tokenErr
}

func (ec *Context) notificationsEnabled(ctx context.Context) (bool, error) {
	ec.notifOnce.Do(func() {
		ec.notif, ec.notifErr = ec.Push.NotificationsEnabled(ctx)
	})
	return ec.notif, ec.notifErr
}

func (ec *Context) firstInstallTime() (time.Time, error) {
	ec.installOnce.Do(func() {
		ec.installed, ec.installErr = ec.Device.FirstInstallTime()
	})
	return ec.installed, ec.installErr
}

func (ec *Context) rolloutBucket(ctx context.Context) (int, error) {
	ec.bucketOnce.Do(func() {
		ec.bucket, ec.bucketErr = ec.Buckets.Bucket(ctx)
	})
	return ec.bucket, ec.bucketErr
}

func (ec *Context) deviceLocale() (language, country string) {
	ec.localeOnce.Do(func() {
		ec.language, ec.country = locale.Split(ec.Device.LocaleTag())
	})
	return ec.language, ec.country
}

// buildNumber parses the device build leniently: whitespace is trimmed and
// anything non-numeric reads as zero.
func (ec *Context) buildNumber() int {
	n, err := strconv.Atoi(strings.TrimSpace(ec.Device.BuildNumber()))
	if err != nil {
		return 0
	}
	return n
}

// daysSinceInstall returns whole days since first install, or -1 when the
// install time is unknown or in the future.
func (ec *Context) daysSinceInstall() (int, error) {
	installed, err := ec.firstInstallTime()
	if err != nil {
		return -1, err
	}
	if installed.IsZero() {
		return -1, nil
	}
	elapsed := ec.now().Sub(installed)
	if elapsed < 0 {
		return -1, nil
	}
	return int(elapsed.Hours() / 24), nil
}
