package rules

// Export bundles the full rule tables with fixed natural-language guidance
// for the narrative generator. The generator consumes rules as context only;
// it never decides mechanics.
type Export struct {
	Combat     CombatRule              `json:"combat"`
	Magic      map[string]SpellRule    `json:"magic"`
	Time       TimeRule                `json:"time"`
	Reputation ReputationRule          `json:"reputation"`
	Locations  map[string]LocationRule `json:"locations"`
	Skill      SkillRule               `json:"skill"`
	Custom     []Rule                  `json:"custom,omitempty"`
	Guidance   string                  `json:"guidance"`
	Examples   []string                `json:"examples"`
}

const exportGuidance = `These rules govern game mechanics. Narrate within them:
never invent mechanical outcomes, never change numbers, never let a character
use resources they do not have. Mechanical results are computed for you and
included in the request; your job is the story around them.`

var exportExamples = []string{
	`Action "sword_attack" with an equipped sword and swordsmanship 12 passed
its combat check; describe a successful strike without stating damage numbers.`,
	`Spell "fireball" requires 25 mana; if the request says the cast failed,
describe the fizzle rather than a smaller explosion.`,
	`A character with reputation 75 is notorious; guards react with hostility
in dialogue scenes.`,
}

// ExportForNarrative returns the full rule table plus guidance and worked
// examples so the narrative generator can stay consistent with mechanics.
func (r *Registry) ExportForNarrative() Export {
	var custom []Rule
	for _, bucket := range r.custom {
		for _, rule := range bucket {
			custom = append(custom, rule)
		}
	}
	return Export{
		Combat:     r.Combat(),
		Magic:      r.magicCopy(),
		Time:       r.Time(),
		Reputation: r.Reputation(),
		Locations:  r.Locations(),
		Skill:      r.Skill(),
		Custom:     custom,
		Guidance:   exportGuidance,
		Examples:   append([]string(nil), exportExamples...),
	}
}

func (r *Registry) magicCopy() map[string]SpellRule {
	out := make(map[string]SpellRule, len(r.magic))
	for name, rule := range r.magic {
		out[name] = rule
	}
	return out
}
