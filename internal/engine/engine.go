// Package engine decides whether a named feature is active for the current
// client, given a remote-config document and an evaluation context.
//
// The decision logic is deliberately asymmetric: a disabled feature is off
// for everyone no matter what its rules say (master kill-switch), an enabled
// feature without rules is on for everyone, and an enabled feature *with*
// rules is off unless a rule explicitly grants it (whitelist mode). That
// asymmetry lets an operator ship a feature wide open and then restrict it
// progressively by adding rules, without ever writing a deny-all catch-all.
package engine

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ratewave/featuregate/internal/schema"
)

// Reason classifies how a decision was reached.
type Reason string

const (
	// ReasonDefault: no config document or unknown feature name.
	ReasonDefault Reason = "DEFAULT"
	// ReasonKillSwitch: the feature's master switch is off.
	ReasonKillSwitch Reason = "KILL_SWITCH"
	// ReasonRuleMatch: a rule matched and its action decided the outcome.
	ReasonRuleMatch Reason = "RULE_MATCH"
	// ReasonImplicitDeny: rules exist but none matched.
	ReasonImplicitDeny Reason = "IMPLICIT_DENY"
	// ReasonOpen: the feature is enabled and carries no rules.
	ReasonOpen Reason = "OPEN"
)

// Decision is the full evaluation result for one feature.
type Decision struct {
	Feature     string `json:"feature"`
	Enabled     bool   `json:"enabled"`
	Reason      Reason `json:"reason"`
	MatchedRule int    `json:"matchedRule"` // index into the feature's rule list, -1 when none
	DeniedBy    string `json:"deniedBy,omitempty"`
}

// Observer receives every decision, for metrics and audit sinks.
type Observer interface {
	ObserveDecision(d Decision)
}

// Engine evaluates features. It holds no per-evaluation state; the same
// Engine serves concurrent evaluations.
type Engine struct {
	log       *slog.Logger
	observers []Observer
}

// New creates an engine. A nil logger discards diagnostics.
func New(log *slog.Logger, observers ...Observer) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{log: log, observers: observers}
}

// Evaluate reports whether the named feature is active. It never fails:
// provider errors deny the affected condition, and a missing document or
// feature resolves to defaultValue.
func (e *Engine) Evaluate(ctx context.Context, doc *schema.Document, name string, defaultValue bool, ec *Context) bool {
	return e.Decide(ctx, doc, name, defaultValue, ec).Enabled
}

// Decide evaluates the named feature and returns the full decision.
func (e *Engine) Decide(ctx context.Context, doc *schema.Document, name string, defaultValue bool, ec *Context) Decision {
	d := e.decide(ctx, doc, name, defaultValue, ec)
	if !d.Enabled {
		e.log.Info("feature denied",
			"feature", d.Feature, "reason", string(d.Reason), "deniedBy", d.DeniedBy)
	}
	for _, o := range e.observers {
		o.ObserveDecision(d)
	}
	return d
}

func (e *Engine) decide(ctx context.Context, doc *schema.Document, name string, defaultValue bool, ec *Context) Decision {
	d := Decision{Feature: name, MatchedRule: -1}

	feature := doc.Feature(name)
	if feature == nil {
		d.Enabled = defaultValue
		d.Reason = ReasonDefault
		return d
	}

	if !feature.Enabled {
		d.Reason = ReasonKillSwitch
		return d
	}

	if len(feature.Rules) == 0 {
		d.Enabled = true
		d.Reason = ReasonOpen
		return d
	}

	outcome, matched, deniedBy := e.resolveRules(ctx, feature.Rules, ec)
	switch outcome {
	case OutcomeEnable:
		d.Enabled = true
		d.Reason = ReasonRuleMatch
		d.MatchedRule = matched
	case OutcomeDisable:
		d.Reason = ReasonRuleMatch
		d.MatchedRule = matched
	default:
		d.Reason = ReasonImplicitDeny
		d.DeniedBy = deniedBy
	}
	return d
}

// evaluateAllLimit bounds concurrent evaluations in DecideAll. Provider
// memoization on the shared Context keeps the fan-out from amplifying
// round-trips.
const evaluateAllLimit = 4

// DecideAll evaluates several features against one shared context, e.g. the
// batch of flags an app checks at startup. Evaluations are independent;
// results map feature name to decision.
func (e *Engine) DecideAll(ctx context.Context, doc *schema.Document, names []string, defaultValue bool, ec *Context) map[string]Decision {
	results := make(map[string]Decision, len(names))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(evaluateAllLimit)
	for _, name := range names {
		g.Go(func() error {
			d := e.Decide(gctx, doc, name, defaultValue, ec)
			mu.Lock()
			results[d.Feature] = d
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // evaluations never return errors
	return results
}

// EvaluateAll is DecideAll reduced to the on/off outcome per feature.
func (e *Engine) EvaluateAll(ctx context.Context, doc *schema.Document, names []string, defaultValue bool, ec *Context) map[string]bool {
	decisions := e.DecideAll(ctx, doc, names, defaultValue, ec)
	out := make(map[string]bool, len(decisions))
	for name, d := range decisions {
		out[name] = d.Enabled
	}
	return out
}
