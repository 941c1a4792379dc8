// Package consistency validates live state, proposed actions, observed
// transitions, and narrative-generator output against fixed bounds.
//
// Checks never panic outward: failures are recorded as structured error
// counts and reported through booleans and reports, leaving remediation to
// the caller.
package consistency

import (
	"math"
	"strings"

	"github.com/louisbranch/emberfall/internal/game/action"
	"github.com/louisbranch/emberfall/internal/game/state"
)

// Validation domains reported by Report.
const (
	DomainInventory  = "inventory"
	DomainLocation   = "location"
	DomainSkills     = "skills"
	DomainTime       = "time"
	DomainReputation = "reputation"
	DomainResources  = "resources"
)

// deltaTolerance absorbs float rounding when comparing expected deltas.
const deltaTolerance = 0.01

// Report aggregates the per-domain check outcomes for one snapshot.
type Report struct {
	Overall bool            `json:"overall"`
	Domains map[string]bool `json:"domains"`
	Issues  []string        `json:"issues,omitempty"`
}

// Validator runs consistency checks and accumulates error metrics.
type Validator struct {
	errorCounts       map[string]map[string]uint64
	totalValidations  uint64
	passedValidations uint64
}

// New returns a validator with zeroed metrics.
func New() *Validator {
	return &Validator{errorCounts: map[string]map[string]uint64{}}
}

// CheckInventory verifies no inventory quantity is negative.
func (v *Validator) CheckInventory(snap state.Snapshot) bool {
	for _, qty := range snap.Inventory {
		if qty < 0 {
			v.recordError(DomainInventory, "negative_quantity")
			return false
		}
	}
	return true
}

// CheckLocation verifies the location is non-empty.
func (v *Validator) CheckLocation(snap state.Snapshot) bool {
	if strings.TrimSpace(snap.Location) == "" {
		v.recordError(DomainLocation, "empty_location")
		return false
	}
	return true
}

// CheckSkills verifies every named skill level stays in bounds.
func (v *Validator) CheckSkills(snap state.Snapshot) bool {
	for _, level := range snap.Skills {
		if level < 0 || level > state.SkillMax {
			v.recordError(DomainSkills, "level_out_of_range")
			return false
		}
	}
	return true
}

// CheckTime verifies world time has not gone negative.
func (v *Validator) CheckTime(snap state.Snapshot) bool {
	if snap.Time < 0 {
		v.recordError(DomainTime, "negative_time")
		return false
	}
	return true
}

// CheckReputation verifies reputation bounds.
func (v *Validator) CheckReputation(snap state.Snapshot) bool {
	if snap.Reputation < 0 || snap.Reputation > state.ReputationMax {
		v.recordError(DomainReputation, "reputation_out_of_range")
		return false
	}
	return true
}

// CheckResources verifies health, mana, and coin bounds.
func (v *Validator) CheckResources(snap state.Snapshot) bool {
	if snap.Health < 0 || snap.Health > state.HealthMax {
		v.recordError(DomainResources, "health_out_of_range")
		return false
	}
	if snap.Mana < 0 || snap.Mana > state.ManaMax {
		v.recordError(DomainResources, "mana_out_of_range")
		return false
	}
	if snap.Coins < 0 {
		v.recordError(DomainResources, "negative_coins")
		return false
	}
	return true
}

// ValidateActionAgainstState gates an action on current resources. Gates run
// in a fixed order and short-circuit on the first failure. The total counter
// advances on every call; the passed counter only on full success.
func (v *Validator) ValidateActionAgainstState(act action.Action, snap state.Snapshot) bool {
	v.totalValidations++

	if act.Kind == action.KindUseItem {
		payload, err := act.Item()
		if err != nil {
			v.recordError(DomainInventory, "bad_item_payload")
			return false
		}
		needed := payload.Quantity
		if needed == 0 {
			needed = 1
		}
		if snap.Inventory[payload.Item] < needed {
			v.recordError(DomainInventory, "insufficient_items")
			return false
		}
	}

	if act.SkillRequired != "" && snap.Skills[act.SkillRequired] < act.MinimumLevel {
		v.recordError(DomainSkills, "insufficient_skill")
		return false
	}

	if act.Kind == action.KindCastSpell {
		payload, err := act.Spell()
		if err != nil {
			v.recordError(DomainResources, "bad_spell_payload")
			return false
		}
		if payload.ManaCost > 0 && snap.Mana < payload.ManaCost {
			v.recordError(DomainResources, "insufficient_mana")
			return false
		}
	}

	// Literal time-sufficiency gate: the accumulated world time must meet
	// the action's requirement. Kept as-is from the upstream design.
	if act.TimeRequired > 0 && snap.Time < act.TimeRequired {
		v.recordError(DomainTime, "insufficient_time")
		return false
	}

	if act.ReputationRequired > 0 && snap.Reputation < act.ReputationRequired {
		v.recordError(DomainReputation, "insufficient_reputation")
		return false
	}

	v.passedValidations++
	return true
}

// ValidateTransition compares observed scalar deltas against the deltas the
// action declared, within a small tolerance.
func (v *Validator) ValidateTransition(prev, next state.Snapshot, act action.Action) bool {
	if act.Expected == nil {
		return true
	}
	if !deltaMatches(act.Expected.Health, prev.Health, next.Health) {
		v.recordError(DomainResources, "unexpected_health_delta")
		return false
	}
	if !deltaMatches(act.Expected.Mana, prev.Mana, next.Mana) {
		v.recordError(DomainResources, "unexpected_mana_delta")
		return false
	}
	if !deltaMatches(act.Expected.Coins, prev.Coins, next.Coins) {
		v.recordError(DomainResources, "unexpected_coin_delta")
		return false
	}
	return true
}

// Validate runs every per-domain check and aggregates the results.
func (v *Validator) Validate(snap state.Snapshot) Report {
	report := Report{Domains: map[string]bool{}}

	checks := []struct {
		domain string
		pass   bool
	}{
		{DomainInventory, v.CheckInventory(snap)},
		{DomainLocation, v.CheckLocation(snap)},
		{DomainSkills, v.CheckSkills(snap)},
		{DomainTime, v.CheckTime(snap)},
		{DomainReputation, v.CheckReputation(snap)},
		{DomainResources, v.CheckResources(snap)},
	}

	report.Overall = true
	for _, check := range checks {
		report.Domains[check.domain] = check.pass
		if !check.pass {
			report.Overall = false
			report.Issues = append(report.Issues, check.domain)
		}
	}
	return report
}

// Metrics returns a copy of the nested error counters plus the validation
// totals.
func (v *Validator) Metrics() (errors map[string]map[string]uint64, total, passed uint64) {
	errors = make(map[string]map[string]uint64, len(v.errorCounts))
	for category, kinds := range v.errorCounts {
		inner := make(map[string]uint64, len(kinds))
		for kind, count := range kinds {
			inner[kind] = count
		}
		errors[category] = inner
	}
	return errors, v.totalValidations, v.passedValidations
}

// recordError bumps the nested counter for (category, kind). It never fails.
func (v *Validator) recordError(category, kind string) {
	bucket, ok := v.errorCounts[category]
	if !ok {
		bucket = map[string]uint64{}
		v.errorCounts[category] = bucket
	}
	bucket[kind]++
}

func deltaMatches(expected *float64, before, after int) bool {
	if expected == nil {
		return true
	}
	observed := float64(after - before)
	return math.Abs(observed-*expected) <= deltaTolerance
}
