package pipeline

import (
	"github.com/louisbranch/emberfall/internal/game/action"
	"github.com/louisbranch/emberfall/internal/game/classify"
	"github.com/louisbranch/emberfall/internal/game/consistency"
	"github.com/louisbranch/emberfall/internal/game/diff"
	"github.com/louisbranch/emberfall/internal/game/encode"
	"github.com/louisbranch/emberfall/internal/game/rules"
	"github.com/louisbranch/emberfall/internal/game/simulate"
	"github.com/louisbranch/emberfall/internal/game/state"
)

// reportHistoryWindow bounds the history excerpt in SystemReport.
const reportHistoryWindow = 5

// SystemReport aggregates the health of every pipeline component.
type SystemReport struct {
	Metrics           Metrics                        `json:"metrics"`
	Consistency       consistency.Report             `json:"consistency"`
	ConsistencyErrors map[string]map[string]uint64   `json:"consistency_errors"`
	Validations       uint64                         `json:"validations"`
	ValidationsPassed uint64                         `json:"validations_passed"`
	Classifications   map[classify.Category]uint64   `json:"classifications"`
	RulesPassed       uint64                         `json:"rules_passed"`
	RulesFailed       uint64                         `json:"rules_failed"`
	CustomRules       int                            `json:"custom_rules"`
	Simulator         simulate.Report                `json:"simulator"`
	RecentTransitions []Transition                   `json:"recent_transitions,omitempty"`
}

// CurrentState returns a copy of the live snapshot.
func (m *Manager) CurrentState() state.Snapshot {
	return m.current.Clone()
}

// PreviousState returns a copy of the snapshot before the last transition.
func (m *Manager) PreviousState() state.Snapshot {
	return m.previous.Clone()
}

// LastDiff returns the diff of the most recent successful transition.
func (m *Manager) LastDiff() diff.Result {
	return m.lastDiff
}

// Rules exposes the registry for custom-rule registration and inspection.
func (m *Manager) Rules() *rules.Registry {
	return m.registry
}

// Metrics returns the manager's counters.
func (m *Manager) Metrics() Metrics {
	return m.metrics
}

// History returns a copy of the bounded transition log, oldest first.
func (m *Manager) History() []Transition {
	out := make([]Transition, len(m.history))
	copy(out, m.history)
	return out
}

// CheckAction reports whether an action would pass the rule registry and the
// state-consistency gates, without mutating state. Component validation
// counters still advance.
func (m *Manager) CheckAction(act action.Action) (rulesOK, stateOK bool) {
	rulesOK = m.registry.ValidateAction(act, m.current)
	stateOK = m.validator.ValidateActionAgainstState(act, m.current)
	return rulesOK, stateOK
}

// StateForNarrative projects the live snapshot into the generator-facing
// encoding.
func (m *Manager) StateForNarrative() encode.NarrativeState {
	return encode.ForNarrative(m.current)
}

// Report assembles the full system report.
func (m *Manager) Report() SystemReport {
	errorCounts, total, passed := m.validator.Metrics()
	rulesPassed, rulesFailed := m.registry.Counters()

	report := SystemReport{
		Metrics:           m.metrics,
		Consistency:       m.validator.Validate(m.current),
		ConsistencyErrors: errorCounts,
		Validations:       total,
		ValidationsPassed: passed,
		Classifications:   m.classifier.Counts(),
		RulesPassed:       rulesPassed,
		RulesFailed:       rulesFailed,
		CustomRules:       m.registry.CustomRuleCount(),
		Simulator:         m.simulator.Summary(),
	}
	if n := len(m.history); n > 0 {
		start := n - reportHistoryWindow
		if start < 0 {
			start = 0
		}
		report.RecentTransitions = append(report.RecentTransitions, m.history[start:]...)
	}
	return report
}

// Reset restores the manager to a fresh snapshot and clears the transition
// log, diff, and counters. Component-level counters (classifier, registry,
// validator, simulator) are left intact; they describe lifetime activity.
func (m *Manager) Reset(initial state.Snapshot) {
	m.current = initial.Clone()
	m.previous = initial.Clone()
	m.lastDiff = diff.Result{}
	m.history = nil
	m.metrics = Metrics{}
}
