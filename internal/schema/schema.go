// Package schema defines the remote-config document the evaluation engine
// consumes: a flat list of feature definitions, each with a master switch and
// an optional prioritized rule list.
//
// Conditions are a typed sparse predicate bag rather than a generic map so
// misspelled condition names fail at decode review time, not silently at
// runtime. Every field is optional; an absent field never excludes a match.
package schema

import (
	"encoding/json"
	"fmt"
)

// Action is what a matching rule does to the feature.
type Action string

const (
	ActionEnable  Action = "enable"
	ActionDisable Action = "disable"
)

// Platform identifies the client OS.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// Condition is one predicate bag. Populated fields combine with AND
// semantics; a condition with zero populated fields always matches.
//
// Pointer fields distinguish "absent" from a meaningful zero (build 0,
// rollout 0%, notificationsEnabled=false).
type Condition struct {
	Platform             Platform `json:"platform,omitempty"`
	MinBuild             *int     `json:"minBuild,omitempty"`
	MaxBuild             *int     `json:"maxBuild,omitempty"`
	MinVersion           string   `json:"minVersion,omitempty"`
	Models               []string `json:"models,omitempty"`
	UserIDs              []string `json:"userIds,omitempty"`
	FCMTokens            []string `json:"fcmTokens,omitempty"`
	NotificationsEnabled *bool    `json:"notificationsEnabled,omitempty"`
	RolloutPercentage    *int     `json:"rolloutPercentage,omitempty"`
	Emails               []string `json:"emails,omitempty"`
	AuthProviders        []string `json:"authProviders,omitempty"`
	PlanTypes            []string `json:"planTypes,omitempty"`
	CountryCodes         []string `json:"countryCodes,omitempty"`
	DeviceLanguages      []string `json:"deviceLanguages,omitempty"`
	MinDaysSinceInstall  *int     `json:"minDaysSinceInstall,omitempty"`
	MaxDaysSinceInstall  *int     `json:"maxDaysSinceInstall,omitempty"`
	IsFirstTimeUser      *bool    `json:"isFirstTimeUser,omitempty"`
	MinRegistrationDate  string   `json:"minRegistrationDate,omitempty"`
	MaxRegistrationDate  string   `json:"maxRegistrationDate,omitempty"`

	// Expression is an optional JSON Logic expression evaluated against the
	// free-form attribute map of the evaluation context. An escape hatch for
	// predicates the typed fields cannot express.
	Expression string `json:"expression,omitempty"`
}

// Rule pairs an action with an optional condition set. A rule without
// conditions is a catch-all: it matches unconditionally once reached in
// priority order. Higher priority is evaluated first; ties keep document
// order.
type Rule struct {
	Action     Action     `json:"action"`
	Priority   int        `json:"priority,omitempty"`
	Conditions *Condition `json:"conditions,omitempty"`
}

// IsCatchAll reports whether the rule matches unconditionally.
func (r Rule) IsCatchAll() bool {
	return r.Conditions == nil
}

// Feature is one named flag. Enabled is the master switch: when false, rules
// are never even consulted. When true, the presence of rules flips the
// feature into whitelist mode (no matching rule means denied).
type Feature struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Document is the deserialized remote-config snapshot. The engine treats it
// as immutable per evaluation and never caches or mutates it.
type Document struct {
	Features []Feature `json:"features"`
}

// Feature returns the definition for name, or nil when absent.
func (d *Document) Feature(name string) *Feature {
	if d == nil {
		return nil
	}
	for i := range d.Features {
		if d.Features[i].Name == name {
			return &d.Features[i]
		}
	}
	return nil
}

// Decode parses a JSON remote-config document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode config document: %w", err)
	}
	return &doc, nil
}
