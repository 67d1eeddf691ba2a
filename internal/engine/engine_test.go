package engine

import (
	"context"
	"testing"

	"github.com/ratewave/featuregate/internal/rollout"
	"github.com/ratewave/featuregate/internal/schema"
	"github.com/ratewave/featuregate/internal/store"
)

func TestEvaluate_NoConfigOrUnknownFeature(t *testing.T) {
	e := New(nil)
	ec := newTestContext()

	if got := e.Evaluate(context.Background(), nil, "anything", true, ec); !got {
		t.Fatal("nil document must resolve to the default")
	}
	if got := e.Evaluate(context.Background(), nil, "anything", false, ec); got {
		t.Fatal("nil document must resolve to the default")
	}

	doc := &schema.Document{Features: []schema.Feature{{Name: "other", Enabled: true}}}
	if got := e.Evaluate(context.Background(), doc, "missing", true, ec); !got {
		t.Fatal("unknown feature must resolve to the default")
	}
}

func TestEvaluate_MasterSwitchDominates(t *testing.T) {
	// enabled=false wins even over an unconditional enable rule.
	doc := &schema.Document{Features: []schema.Feature{{
		Name:    "x",
		Enabled: false,
		Rules:   []schema.Rule{{Action: schema.ActionEnable}},
	}}}

	e := New(nil)
	d := e.Decide(context.Background(), doc, "x", true, newTestContext())
	if d.Enabled {
		t.Fatal("kill-switch must dominate rules")
	}
	if d.Reason != ReasonKillSwitch {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonKillSwitch)
	}
}

func TestEvaluate_EnabledWithoutRulesIsOpen(t *testing.T) {
	doc := &schema.Document{Features: []schema.Feature{{Name: "x", Enabled: true}}}

	e := New(nil)
	d := e.Decide(context.Background(), doc, "x", false, newTestContext())
	if !d.Enabled || d.Reason != ReasonOpen {
		t.Fatalf("decision = %+v, want open allow", d)
	}
}

func TestEvaluate_WhitelistImplicitDeny(t *testing.T) {
	doc := &schema.Document{Features: []schema.Feature{{
		Name:    "x",
		Enabled: true,
		Rules: []schema.Rule{{
			Action:     schema.ActionEnable,
			Conditions: &schema.Condition{Platform: schema.PlatformIOS},
		}},
	}}}

	e := New(nil)
	d := e.Decide(context.Background(), doc, "x", true, newTestContext())
	if d.Enabled {
		t.Fatal("presence of rules must flip the default to deny")
	}
	if d.Reason != ReasonImplicitDeny {
		t.Fatalf("reason = %s, want %s", d.Reason, ReasonImplicitDeny)
	}
	if d.DeniedBy != "platform" {
		t.Fatalf("deniedBy = %q, want platform", d.DeniedBy)
	}
}

func TestEvaluate_PriorityCatchAllShadowsConditionedRule(t *testing.T) {
	// The scenario from the rollout playbook: a priority-2 catch-all disable
	// beats a priority-1 conditioned enable even though the condition holds
	// and the enable rule comes first in the document.
	doc := &schema.Document{Features: []schema.Feature{{
		Name:    "x",
		Enabled: true,
		Rules: []schema.Rule{
			{Action: schema.ActionEnable, Priority: 1, Conditions: &schema.Condition{Platform: schema.PlatformAndroid}},
			{Action: schema.ActionDisable, Priority: 2},
		},
	}}}

	e := New(nil)
	d := e.Decide(context.Background(), doc, "x", true, newTestContext())
	if d.Enabled {
		t.Fatal("higher-priority catch-all must win")
	}
	if d.Reason != ReasonRuleMatch || d.MatchedRule != 1 {
		t.Fatalf("decision = %+v, want rule 1 match", d)
	}
}

func TestEvaluate_PriorityTiesKeepDocumentOrder(t *testing.T) {
	doc := &schema.Document{Features: []schema.Feature{{
		Name:    "x",
		Enabled: true,
		Rules: []schema.Rule{
			{Action: schema.ActionDisable},
			{Action: schema.ActionEnable},
		},
	}}}

	e := New(nil)
	d := e.Decide(context.Background(), doc, "x", true, newTestContext())
	if d.Enabled || d.MatchedRule != 0 {
		t.Fatalf("decision = %+v, want first catch-all at index 0", d)
	}
}

func TestEvaluate_UnknownActionSkipped(t *testing.T) {
	doc := &schema.Document{Features: []schema.Feature{{
		Name:    "x",
		Enabled: true,
		Rules: []schema.Rule{
			{Action: schema.Action("maybe")},
			{Action: schema.ActionEnable},
		},
	}}}

	e := New(nil)
	d := e.Decide(context.Background(), doc, "x", false, newTestContext())
	if !d.Enabled || d.MatchedRule != 1 {
		t.Fatalf("decision = %+v, want the enable rule after skipping the unknown action", d)
	}
}

func TestEvaluate_StoredBucketDeniesRollout(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	_ = kv.SetString(ctx, store.KeyRolloutID, "50")

	ec := newTestContext()
	ec.Store = kv
	ec.Buckets = rollout.NewSticky(kv, store.KeyRolloutID, nil)

	doc := &schema.Document{Features: []schema.Feature{{
		Name:    "x",
		Enabled: true,
		Rules: []schema.Rule{{
			Action:     schema.ActionEnable,
			Conditions: &schema.Condition{RolloutPercentage: intPtr(40)},
		}},
	}}}

	e := New(nil)
	if e.Evaluate(ctx, doc, "x", true, ec) {
		t.Fatal("bucket 50 must be outside a 40% rollout")
	}
	// The valid stored value stays untouched.
	stored, _, _ := kv.GetString(ctx, store.KeyRolloutID)
	if stored != "50" {
		t.Fatalf("stored bucket = %q, want unchanged \"50\"", stored)
	}
}

func TestEvaluate_FreshBucketPersistedOnce(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()

	sticky := rollout.NewStickyForTest(kv, store.KeyRolloutID, 5)
	ec := newTestContext()
	ec.Store = kv
	ec.Buckets = sticky

	doc := &schema.Document{Features: []schema.Feature{{
		Name:    "x",
		Enabled: true,
		Rules: []schema.Rule{{
			Action:     schema.ActionEnable,
			Conditions: &schema.Condition{RolloutPercentage: intPtr(10)},
		}},
	}}}

	e := New(nil)
	if !e.Evaluate(ctx, doc, "x", false, ec) {
		t.Fatal("bucket 5 must be inside a 10% rollout")
	}
	stored, ok, _ := kv.GetString(ctx, store.KeyRolloutID)
	if !ok || stored != "5" {
		t.Fatalf("persisted bucket = (%q, %v), want (\"5\", true)", stored, ok)
	}
}

type recordingObserver struct {
	decisions []Decision
}

func (r *recordingObserver) ObserveDecision(d Decision) {
	r.decisions = append(r.decisions, d)
}

func TestDecide_NotifiesObservers(t *testing.T) {
	obs := &recordingObserver{}
	e := New(nil, obs)

	doc := &schema.Document{Features: []schema.Feature{{Name: "x", Enabled: true}}}
	e.Decide(context.Background(), doc, "x", false, newTestContext())

	if len(obs.decisions) != 1 {
		t.Fatalf("observed %d decisions, want 1", len(obs.decisions))
	}
	if obs.decisions[0].Feature != "x" || !obs.decisions[0].Enabled {
		t.Fatalf("observed decision = %+v", obs.decisions[0])
	}
}

func TestDecideAll(t *testing.T) {
	doc := &schema.Document{Features: []schema.Feature{
		{Name: "open", Enabled: true},
		{Name: "killed", Enabled: false},
		{Name: "gated", Enabled: true, Rules: []schema.Rule{{
			Action:     schema.ActionEnable,
			Conditions: &schema.Condition{Platform: schema.PlatformAndroid},
		}}},
	}}

	e := New(nil)
	results := e.DecideAll(context.Background(), doc, []string{"open", "killed", "gated", "unknown"}, true, newTestContext())

	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}
	if !results["open"].Enabled || results["killed"].Enabled || !results["gated"].Enabled {
		t.Fatalf("unexpected results: %+v", results)
	}
	if !results["unknown"].Enabled || results["unknown"].Reason != ReasonDefault {
		t.Fatalf("unknown feature = %+v, want default allow", results["unknown"])
	}

	flags := e.EvaluateAll(context.Background(), doc, []string{"open", "killed"}, false, newTestContext())
	if !flags["open"] || flags["killed"] {
		t.Fatalf("EvaluateAll = %v", flags)
	}
}
