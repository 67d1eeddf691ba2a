package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/ratewave/featuregate/internal/rollout"
	"github.com/ratewave/featuregate/internal/schema"
	"github.com/ratewave/featuregate/internal/store"
	"github.com/ratewave/featuregate/internal/version"
)

// registrationDateLayout is the wire format for registration-date bounds.
const registrationDateLayout = "2006-01-02"

// predicate is one optional condition field. present reports whether the
// field is populated; match evaluates it against the context. An error from
// match means a provider failed, which denies this condition.
type predicate struct {
	field   string
	present func(c *schema.Condition) bool
	match   func(ctx context.Context, c *schema.Condition, ec *Context) (bool, error)
}

// predicates is the ordered chain. Evaluation folds over it with
// short-circuit AND, so cheap local checks sit before anything that can
// trigger a provider round-trip: a failed platform check must never cost a
// token lookup.
var predicates = []predicate{
	{
		field:   "platform",
		present: func(c *schema.Condition) bool { return c.Platform != "" },
		match: func(_ context.Context, c *schema.Condition, ec *Context) (bool, error) {
			return strings.EqualFold(ec.Device.Platform(), string(c.Platform)), nil
		},
	},
	{
		field:   "minBuild",
		present: func(c *schema.Condition) bool { return c.MinBuild != nil },
		match: func(_ context.Context, c *schema.Condition, ec *Context) (bool, error) {
			return ec.buildNumber() >= *c.MinBuild, nil
		},
	},
	{
		field:   "maxBuild",
		present: func(c *schema.Condition) bool { return c.MaxBuild != nil },
		match: func(_ context.Context, c *schema.Condition, ec *Context) (bool, error) {
			return ec.buildNumber() <= *c.MaxBuild, nil
		},
	},
	{
		field:   "minVersion",
		present: func(c *schema.Condition) bool { return c.MinVersion != "" },
		match: func(_ context.Context, c *schema.Condition, ec *Context) (bool, error) {
			return version.IsAtLeast(ec.Device.Version(), c.MinVersion), nil
		},
	},
	{
		field:   "models",
		present: func(c *schema.Condition) bool { return len(c.Models) > 0 },
		match: func(_ context.Context, c *schema.Condition, ec *Context) (bool, error) {
			device := strings.ToLower(ec.Device.Brand() + " " + ec.Device.Model())
			for _, model := range c.Models {
				if model != "" && strings.Contains(device, strings.ToLower(model)) {
					return true, nil
				}
			}
			return false, nil
		},
	},
	{
		field:   "countryCodes",
		present: func(c *schema.Condition) bool { return len(c.CountryCodes) > 0 },
		match: func(_ context.Context, c *schema.Condition, ec *Context) (bool, error) {
			_, country := ec.deviceLocale()
			return containsFold(c.CountryCodes, country), nil
		},
	},
	{
		field:   "deviceLanguages",
		present: func(c *schema.Condition) bool { return len(c.DeviceLanguages) > 0 },
		match: func(_ context.Context, c *schema.Condition, ec *Context) (bool, error) {
			language, _ := ec.deviceLocale()
			return containsFold(c.DeviceLanguages, language), nil
		},
	},
	{
		field:   "minDaysSinceInstall",
		present: func(c *schema.Condition) bool { return c.MinDaysSinceInstall != nil },
		match: func(_ context.Context, c *schema.Condition, ec *Context) (bool, error) {
			days, err := ec.daysSinceInstall()
			if err != nil {
				return false, err
			}
			return days >= 0 && days >= *c.MinDaysSinceInstall, nil
		},
	},
	{
		field:   "maxDaysSinceInstall",
		present: func(c *schema.Condition) bool { return c.MaxDaysSinceInstall != nil },
		match: func(_ context.Context, c *schema.Condition, ec *Context) (bool, error) {
			days, err := ec.daysSinceInstall()
			if err != nil {
				return false, err
			}
			return days >= 0 && days <= *c.MaxDaysSinceInstall, nil
		},
	},
	{
		field:   "rolloutPercentage",
		present: func(c *schema.Condition) bool { return c.RolloutPercentage != nil },
		match: func(ctx context.Context, c *schema.Condition, ec *Context) (bool, error) {
			bucket, err := ec.rolloutBucket(ctx)
			if err != nil {
				return false, err
			}
			return rollout.InRollout(bucket, *c.RolloutPercentage), nil
		},
	},
	{
		field:   "planTypes",
		present: func(c *schema.Condition) bool { return len(c.PlanTypes) > 0 },
		match: func(ctx context.Context, c *schema.Condition, ec *Context) (bool, error) {
			plan, ok, err := ec.Store.GetString(ctx, store.KeyPlanType)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
			return containsFold(c.PlanTypes, plan), nil
		},
	},
	{
		field:   "isFirstTimeUser",
		present: func(c *schema.Condition) bool { return c.IsFirstTimeUser != nil },
		match: func(ctx context.Context, c *schema.Condition, ec *Context) (bool, error) {
			// An absent flag reads as false: a device that never recorded a
			// first launch is not a first-time user.
			firstTime, _, err := ec.Store.GetBool(ctx, store.KeyFirstTimeUser)
			if err != nil {
				return false, err
			}
			return firstTime == *c.IsFirstTimeUser, nil
		},
	},
	{
		field:   "userIds",
		present: func(c *schema.Condition) bool { return len(c.UserIDs) > 0 },
		match: func(ctx context.Context, c *schema.Condition, ec *Context) (bool, error) {
			user, err := ec.currentUser(ctx)
			if err != nil {
				return false, err
			}
			if user == nil || user.ID == "" {
				return false, nil
			}
			for _, id := range c.UserIDs {
				if id == user.ID {
					return true, nil
				}
			}
			return false, nil
		},
	},
	{
		field:   "emails",
		present: func(c *schema.Condition) bool { return len(c.Emails) > 0 },
		match: func(ctx context.Context, c *schema.Condition, ec *Context) (bool, error) {
			user, err := ec.currentUser(ctx)
			if err != nil {
				return false, err
			}
			if user == nil || user.Email == "" {
				return false, nil
			}
			return containsFold(c.Emails, user.Email), nil
		},
	},
	{
		field:   "authProviders",
		present: func(c *schema.Condition) bool { return len(c.AuthProviders) > 0 },
		match: func(ctx context.Context, c *schema.Condition, ec *Context) (bool, error) {
			user, err := ec.currentUser(ctx)
			if err != nil {
				return false, err
			}
			if user == nil {
				return false, nil
			}
			for _, linked := range user.Providers {
				for _, wanted := range c.AuthProviders {
					if linked == wanted {
						return true, nil
					}
				}
			}
			return false, nil
		},
	},
	{
		field:   "minRegistrationDate",
		present: func(c *schema.Condition) bool { return c.MinRegistrationDate != "" },
		match: func(ctx context.Context, c *schema.Condition, ec *Context) (bool, error) {
			registered, ok, err := ec.registrationDay(ctx)
			if err != nil || !ok {
				return false, err
			}
			bound, parseErr := time.ParseInLocation(registrationDateLayout, c.MinRegistrationDate, time.UTC)
			if parseErr != nil {
				return false, nil
			}
			return !registered.Before(bound), nil
		},
	},
	{
		field:   "maxRegistrationDate",
		present: func(c *schema.Condition) bool { return c.MaxRegistrationDate != "" },
		match: func(ctx context.Context, c *schema.Condition, ec *Context) (bool, error) {
			registered, ok, err := ec.registrationDay(ctx)
			if err != nil || !ok {
				return false, err
			}
			bound, parseErr := time.ParseInLocation(registrationDateLayout, c.MaxRegistrationDate, time.UTC)
			if parseErr != nil {
				return false, nil
			}
			return !registered.After(bound), nil
		},
	},
	{
		field:   "notificationsEnabled",
		present: func(c *schema.Condition) bool { return c.NotificationsEnabled != nil },
		match: func(ctx context.Context, c *schema.Condition, ec *Context) (bool, error) {
			enabled, err := ec.notificationsEnabled(ctx)
			if err != nil {
				return false, err
			}
			return enabled == *c.NotificationsEnabled, nil
		},
	},
	{
		field:   "fcmTokens",
		present: func(c *schema.Condition) bool { return len(c.FCMTokens) > 0 },
		match: func(ctx context.Context, c *schema.Condition, ec *Context) (bool, error) {
			token, err := ec.pushToken(ctx)
			if err != nil {
				return false, err
			}
			if token == "" {
				return false, nil
			}
			for _, candidate := range c.FCMTokens {
				if candidate == token {
					return true, nil
				}
			}
			return false, nil
		},
	},
	{
		field:   "expression",
		present: func(c *schema.Condition) bool { return c.Expression != "" },
		match: func(_ context.Context, c *schema.Condition, ec *Context) (bool, error) {
			return evaluateExpression(c.Expression, ec.Attributes)
		},
	},
}

// matchConditions evaluates every populated field of a condition set with
// short-circuit AND semantics. It returns the name of the first field that
// failed, or "" when all populated fields are satisfied. A set with zero
// populated fields always matches.
func (e *Engine) matchConditions(ctx context.Context, cond *schema.Condition, ec *Context) (bool, string) {
	if cond == nil {
		return true, ""
	}
	for _, p := range predicates {
		if !p.present(cond) {
			continue
		}
		ok, err := p.match(ctx, cond, ec)
		if err != nil {
			e.log.Warn("condition provider failed, denying",
				"field", p.field, "error", err)
			return false, p.field
		}
		if !ok {
			return false, p.field
		}
	}
	return true, ""
}

// registrationDay returns the user's registration timestamp truncated to a
// UTC day. ok is false when there is no signed-in user or no known
// registration time.
func (ec *Context) registrationDay(ctx context.Context) (time.Time, bool, error) {
	user, err := ec.currentUser(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	if user == nil || user.RegisteredAt.IsZero() {
		return time.Time{}, false, nil
	}
	day := user.RegisteredAt.UTC().Truncate(24 * time.Hour)
	return day, true, nil
}

// evaluateExpression applies a JSON Logic expression to the attribute map,
// following JavaScript-like truthiness on the result. Invalid expressions
// deny rather than error out.
func evaluateExpression(expression string, attributes map[string]any) (bool, error) {
	if attributes == nil {
		attributes = map[string]any{}
	}
	data, err := json.Marshal(attributes)
	if err != nil {
		return false, err
	}

	var result bytes.Buffer
	if err := jsonlogic.Apply(strings.NewReader(expression), bytes.NewReader(data), &result); err != nil {
		return false, nil
	}

	var value any
	if err := json.Unmarshal(result.Bytes(), &value); err != nil {
		return false, nil
	}
	return isTruthy(value), nil
}

// isTruthy follows JavaScript-like truthiness rules.
func isTruthy(v any) bool {
	switch value := v.(type) {
	case nil:
		return false
	case bool:
		return value
	case float64:
		return value != 0
	case string:
		return value != ""
	case []any:
		return len(value) > 0
	case map[string]any:
		return len(value) > 0
	default:
		return true
	}
}

// containsFold reports case-insensitive membership.
func containsFold(list []string, value string) bool {
	for _, item := range list {
		if strings.EqualFold(item, value) {
			return true
		}
	}
	return false
}
