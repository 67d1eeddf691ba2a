package engine

import (
	"context"
	"sort"

	"github.com/ratewave/featuregate/internal/schema"
)

// Outcome is the result of resolving a feature's rule list.
type Outcome int

const (
	// OutcomeNoMatch means the list was exhausted without any rule matching.
	OutcomeNoMatch Outcome = iota
	// OutcomeEnable means the first matching rule grants the feature.
	OutcomeEnable
	// OutcomeDisable means the first matching rule denies the feature.
	OutcomeDisable
)

// resolveRules walks the rules in descending-priority order (ties keep
// document order) and returns the action of the first rule whose conditions
// match. A catch-all rule matches unconditionally once reached, so a
// low-priority catch-all can still be shadowed by a higher-priority
// conditioned rule. Returns the matched rule's index in the original list
// (-1 for no match) and the condition field that denied the
// highest-priority rule examined, for diagnostics.
func (e *Engine) resolveRules(ctx context.Context, rules []schema.Rule, ec *Context) (Outcome, int, string) {
	order := make([]int, len(rules))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return rules[order[a]].Priority > rules[order[b]].Priority
	})

	deniedBy := ""
	for _, idx := range order {
		rule := rules[idx]
		matched, field := e.matchConditions(ctx, rule.Conditions, ec)
		if !matched {
			if deniedBy == "" {
				deniedBy = field
			}
			continue
		}
		switch rule.Action {
		case schema.ActionEnable:
			return OutcomeEnable, idx, ""
		case schema.ActionDisable:
			return OutcomeDisable, idx, ""
		default:
			// Unknown action: skip the rule rather than guess.
			continue
		}
	}
	return OutcomeNoMatch, -1, deniedBy
}
