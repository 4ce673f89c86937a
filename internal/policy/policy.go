// Package policy implements stateless rule checks over proposed agent
// actions. The validator is an open registry: unknown action types are valid
// by default, and each rule inspects only the fields of the actions it knows.
package policy

import (
	"time"

	"github.com/thomasbaier2/SecondBrain/internal/config"
	"github.com/thomasbaier2/SecondBrain/internal/types"
)

// Action is a proposed agent action to be checked against standing rules.
type Action struct {
	Type      string         // e.g. "schedule_meeting"
	StartTime time.Time      // meaningful for time-bound actions
	Data      map[string]any // action-specific fields
}

// Rule is one standing behavioral rule. Check must be pure.
type Rule interface {
	Name() string
	Check(action Action) types.PolicyResult
}

// Registry validates actions against its registered rules. The first failing
// rule wins; an action no rule objects to is valid.
type Registry struct {
	rules []Rule
}

// NewRegistry creates a registry with the given rules.
func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: rules}
}

// Register appends a rule.
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Validate checks an action against every rule, in registration order.
func (r *Registry) Validate(action Action) types.PolicyResult {
	for _, rule := range r.rules {
		if res := rule.Check(action); !res.Valid {
			return res
		}
	}
	return types.PolicyResult{Valid: true}
}

// DefaultRegistry builds the registry with the standard rule set.
func DefaultRegistry(cfg config.PolicyConfig) *Registry {
	return NewRegistry(NewMorningShield(cfg))
}

// MorningShield rejects meetings proposed inside the protected focus window.
type MorningShield struct {
	active    bool
	startHour int
	endHour   int
	reason    string
}

// NewMorningShield builds the rule from configuration.
func NewMorningShield(cfg config.PolicyConfig) *MorningShield {
	return &MorningShield{
		active:    cfg.MorningShieldActive,
		startHour: cfg.MorningShieldStart,
		endHour:   cfg.MorningShieldEnd,
		reason:    cfg.MorningShieldReason,
	}
}

// Name returns the rule name.
func (m *MorningShield) Name() string { return "morning_shield" }

// Check rejects meeting-scheduling actions starting within [start, end).
// An unknown start time fails open: the rule only judges times it has.
func (m *MorningShield) Check(action Action) types.PolicyResult {
	if !m.active || (action.Type != "schedule_meeting" && action.Type != "create_appointment") {
		return types.PolicyResult{Valid: true}
	}
	if action.StartTime.IsZero() {
		return types.PolicyResult{Valid: true}
	}

	hour := action.StartTime.Hour()
	if hour >= m.startHour && hour < m.endHour {
		return types.PolicyResult{Valid: false, Reason: m.reason}
	}
	return types.PolicyResult{Valid: true}
}
