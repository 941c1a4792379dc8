package consistency

import (
	"strings"

	"github.com/louisbranch/emberfall/internal/game/state"
)

// NarrativeOutput is the slice of a narrative-generator response this
// validator can check: the prose, any proposed state changes, and an
// optional time the prose claims to be set at.
type NarrativeOutput struct {
	Narrative    string
	StateChanges map[string]float64
	TimeContext  *int64
}

// weaponPhrases maps suspicious narrative phrases to the inventory item the
// character must hold for the phrase to be consistent.
var weaponPhrases = map[string]string{
	"draws a sword":   "sword",
	"swings a sword":  "sword",
	"nocks an arrow":  "bow",
	"draws their bow": "bow",
	"dagger flashes":  "dagger",
}

// spellPhrases flag spell-casting prose. Casting anything needs at least the
// cheapest spell's mana.
var spellPhrases = []string{
	"casts a spell",
	"weaves a spell",
	"utters an incantation",
	"channels mana",
}

// minimumCastMana is the cheapest spell cost; prose describing casting with
// less mana than this is inconsistent.
const minimumCastMana = 5

// ValidateNarrativeOutput runs the lexical consistency heuristic against
// generated prose. It is a guard, not a parser: it flags known phrase
// patterns whose resource preconditions fail, bound-checks proposed state
// changes, and rejects narrative time regressions.
func (v *Validator) ValidateNarrativeOutput(output NarrativeOutput, snap state.Snapshot) bool {
	prose := strings.ToLower(output.Narrative)

	for phrase, item := range weaponPhrases {
		if strings.Contains(prose, phrase) && snap.Inventory[item] <= 0 {
			v.recordError("narrative", "weapon_without_item")
			return false
		}
	}

	for _, phrase := range spellPhrases {
		if strings.Contains(prose, phrase) && snap.Mana < minimumCastMana {
			v.recordError("narrative", "cast_without_mana")
			return false
		}
	}

	for field, delta := range output.StateChanges {
		if !v.changeInBounds(field, delta, snap) {
			v.recordError("narrative", "state_change_out_of_bounds")
			return false
		}
	}

	if output.TimeContext != nil && *output.TimeContext < snap.Time {
		v.recordError("narrative", "time_regression")
		return false
	}

	return true
}

func (v *Validator) changeInBounds(field string, delta float64, snap state.Snapshot) bool {
	switch field {
	case "health":
		target := float64(snap.Health) + delta
		return target >= 0 && target <= state.HealthMax
	case "mana":
		target := float64(snap.Mana) + delta
		return target >= 0 && target <= state.ManaMax
	case "reputation":
		target := float64(snap.Reputation) + delta
		return target >= 0 && target <= state.ReputationMax
	case "coins":
		return float64(snap.Coins)+delta >= 0
	default:
		// Unrecognized fields are ignored rather than rejected; the
		// heuristic only guards the bounded resources.
		return true
	}
}
