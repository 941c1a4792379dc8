// Package rules holds the immutable built-in game rule tables and the action
// validator the pipeline gates on.
//
// Built-in rules are constructed once at startup and never mutated. Custom
// rules may be appended later; on a name collision a custom rule wins
// (last-write-wins), which keeps scripted rule packs authoritative over
// shipped defaults.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/emberfall/internal/game/action"
	"github.com/louisbranch/emberfall/internal/game/state"
)

var (
	// ErrUnknownDomain indicates a rule referenced a domain the registry
	// does not manage.
	ErrUnknownDomain = errors.New("unknown rule domain")
	// ErrEmptyRuleName indicates a custom rule without a name.
	ErrEmptyRuleName = errors.New("rule name is required")
)

// Rule is the resolved view of one action rule: the domain base merged with
// any name-specific override and any custom rule. Pointer fields distinguish
// "unset" from zero so overrides can touch a subset of fields.
type Rule struct {
	Domain             string
	Name               string
	RequiresWeapon     *bool
	RequiredSkill      string
	MinimumLevel       *int
	ManaCost           *int
	SuccessThreshold   *float64
	CriticalChance     *float64
	CriticalMultiplier *float64
}

// CombatRule describes the combat domain base mechanics.
type CombatRule struct {
	RequiresWeapon     bool
	WeaponSkills       map[string]string // weapon -> required skill
	MinimumLevel       int
	SuccessThreshold   float64
	CriticalChance     float64
	CriticalMultiplier float64
}

// SpellRule describes one spell type in the magic domain.
type SpellRule struct {
	ManaCost      int
	MinimumLevel  int
	RequiredSkill string
}

// TimeRule describes operating-hour windows and patrol cadence.
type TimeRule struct {
	OperatingHours map[string][2]int // establishment -> [open, close) hour
	NightStart     int               // hour, inclusive
	NightEnd       int               // hour, exclusive
	PatrolMinutes  int64
}

// ReputationBand names a reputation interval.
type ReputationBand struct {
	Name string
	Min  int
	Max  int
}

// ReputationRule describes reputation bands and NPC-class thresholds.
type ReputationRule struct {
	Bands         []ReputationBand
	HostileAbove  map[string]int // npc class -> reputation above which hostile
	FriendlyBelow map[string]int // npc class -> reputation below which friendly
}

// LocationRule describes one location's danger profile.
type LocationRule struct {
	DangerLevel          int
	SpawnRate            float64
	ExperienceMultiplier float64
}

// SkillRule describes per-skill action costs and synergy pairs.
type SkillRule struct {
	ActionCosts map[string]int    // action name -> stamina cost
	Synergies   map[string]string // skill -> synergistic skill
}

// Registry owns the built-in rule tables plus an appendable custom bucket.
// Validation failures feed running pass/fail counters.
type Registry struct {
	combat     CombatRule
	magic      map[string]SpellRule
	time       TimeRule
	reputation ReputationRule
	locations  map[string]LocationRule
	skill      SkillRule

	overrides map[string]map[string]Rule // built-in per-name overrides
	custom    map[string]map[string]Rule

	passed uint64
	failed uint64
}

// NewRegistry builds the registry with the built-in rule tables.
func NewRegistry() *Registry {
	return &Registry{
		combat: CombatRule{
			RequiresWeapon: true,
			WeaponSkills: map[string]string{
				"sword":  "swordsmanship",
				"bow":    "archery",
				"dagger": "stealth",
				"staff":  "spellcraft",
			},
			MinimumLevel:       1,
			SuccessThreshold:   0.55,
			CriticalChance:     0.10,
			CriticalMultiplier: 2.0,
		},
		magic: map[string]SpellRule{
			"fireball":  {ManaCost: 25, MinimumLevel: 10, RequiredSkill: "spellcraft"},
			"heal":      {ManaCost: 15, MinimumLevel: 5, RequiredSkill: "spellcraft"},
			"ward":      {ManaCost: 10, MinimumLevel: 3, RequiredSkill: "spellcraft"},
			"spark":     {ManaCost: 5, MinimumLevel: 1, RequiredSkill: "spellcraft"},
			"blink":     {ManaCost: 20, MinimumLevel: 12, RequiredSkill: "spellcraft"},
			"frostbind": {ManaCost: 30, MinimumLevel: 15, RequiredSkill: "spellcraft"},
		},
		time: TimeRule{
			OperatingHours: map[string][2]int{
				"shops":  {6, 18},
				"tavern": {10, 2},
				"temple": {5, 22},
			},
			NightStart:    18,
			NightEnd:      6,
			PatrolMinutes: 120,
		},
		reputation: ReputationRule{
			Bands: []ReputationBand{
				{Name: "outcast", Min: 0, Max: 19},
				{Name: "stranger", Min: 20, Max: 39},
				{Name: "known", Min: 40, Max: 59},
				{Name: "respected", Min: 60, Max: 79},
				{Name: "notorious", Min: 80, Max: 100},
			},
			HostileAbove:  map[string]int{"guard": 70, "bandit": 40},
			FriendlyBelow: map[string]int{"guard": 30, "merchant": 50},
		},
		locations: map[string]LocationRule{
			"village":    {DangerLevel: 0, SpawnRate: 0.05, ExperienceMultiplier: 1.0},
			"forest":     {DangerLevel: 2, SpawnRate: 0.35, ExperienceMultiplier: 1.2},
			"caves":      {DangerLevel: 4, SpawnRate: 0.55, ExperienceMultiplier: 1.5},
			"ruins":      {DangerLevel: 5, SpawnRate: 0.65, ExperienceMultiplier: 1.8},
			"badlands":   {DangerLevel: 7, SpawnRate: 0.80, ExperienceMultiplier: 2.2},
			"deep_mines": {DangerLevel: 9, SpawnRate: 0.90, ExperienceMultiplier: 2.8},
		},
		skill: SkillRule{
			ActionCosts: map[string]int{
				"lockpick":   5,
				"forage":     3,
				"haggle":     2,
				"smith":      8,
				"brew":       6,
				"persuade":   4,
				"intimidate": 4,
			},
			Synergies: map[string]string{
				"swordsmanship": "athletics",
				"spellcraft":    "lore",
				"stealth":       "perception",
				"smithing":      "mining",
			},
		},
		overrides: builtinOverrides(),
		custom:    map[string]map[string]Rule{},
	}
}

// builtinOverrides names specific actions that tighten their domain base.
func builtinOverrides() map[string]map[string]Rule {
	return map[string]map[string]Rule{
		action.DomainCombat: {
			"sword_attack": {RequiredSkill: "swordsmanship", MinimumLevel: intPtr(1)},
			"power_strike": {RequiredSkill: "swordsmanship", MinimumLevel: intPtr(15), CriticalChance: floatPtr(0.20)},
			"snipe":        {RequiredSkill: "archery", MinimumLevel: intPtr(20), SuccessThreshold: floatPtr(0.40)},
		},
		action.DomainMagic: {
			"fireball":  {ManaCost: intPtr(25), MinimumLevel: intPtr(10), RequiredSkill: "spellcraft"},
			"heal":      {ManaCost: intPtr(15), MinimumLevel: intPtr(5), RequiredSkill: "spellcraft"},
			"ward":      {ManaCost: intPtr(10), MinimumLevel: intPtr(3), RequiredSkill: "spellcraft"},
			"spark":     {ManaCost: intPtr(5), MinimumLevel: intPtr(1), RequiredSkill: "spellcraft"},
			"blink":     {ManaCost: intPtr(20), MinimumLevel: intPtr(12), RequiredSkill: "spellcraft"},
			"frostbind": {ManaCost: intPtr(30), MinimumLevel: intPtr(15), RequiredSkill: "spellcraft"},
		},
		action.DomainSkill: {
			"lockpick": {RequiredSkill: "stealth", MinimumLevel: intPtr(5)},
			"smith":    {RequiredSkill: "smithing", MinimumLevel: intPtr(10)},
		},
	}
}

// RuleForAction resolves the rule for (domain, name): the domain base rule,
// then the built-in per-name override, then any custom rule. Reports false
// when the domain has no base and no entry matches the name.
func (r *Registry) RuleForAction(domain, name string) (Rule, bool) {
	resolved, ok := r.baseRule(domain, name)
	resolved.Domain = domain
	resolved.Name = name

	if override, found := r.overrides[domain][name]; found {
		mergeRule(&resolved, override)
		ok = true
	}
	if custom, found := r.custom[domain][name]; found {
		mergeRule(&resolved, custom)
		ok = true
	}
	if !ok {
		return Rule{}, false
	}
	return resolved, true
}

func (r *Registry) baseRule(domain, name string) (Rule, bool) {
	switch domain {
	case action.DomainCombat:
		requires := r.combat.RequiresWeapon
		minimum := r.combat.MinimumLevel
		threshold := r.combat.SuccessThreshold
		critChance := r.combat.CriticalChance
		critMult := r.combat.CriticalMultiplier
		return Rule{
			RequiresWeapon:     &requires,
			MinimumLevel:       &minimum,
			SuccessThreshold:   &threshold,
			CriticalChance:     &critChance,
			CriticalMultiplier: &critMult,
		}, true
	case action.DomainMagic:
		spell, ok := r.magic[name]
		if !ok {
			return Rule{}, false
		}
		cost := spell.ManaCost
		minimum := spell.MinimumLevel
		return Rule{
			ManaCost:      &cost,
			MinimumLevel:  &minimum,
			RequiredSkill: spell.RequiredSkill,
		}, true
	case action.DomainSkill:
		if _, ok := r.skill.ActionCosts[name]; ok {
			return Rule{}, true
		}
		return Rule{}, false
	case action.DomainTime, action.DomainReputation, action.DomainLocation:
		// These domains gate through dedicated tables, not per-name rules.
		return Rule{}, true
	default:
		return Rule{}, false
	}
}

func mergeRule(dst *Rule, src Rule) {
	if src.RequiresWeapon != nil {
		dst.RequiresWeapon = src.RequiresWeapon
	}
	if src.RequiredSkill != "" {
		dst.RequiredSkill = src.RequiredSkill
	}
	if src.MinimumLevel != nil {
		dst.MinimumLevel = src.MinimumLevel
	}
	if src.ManaCost != nil {
		dst.ManaCost = src.ManaCost
	}
	if src.SuccessThreshold != nil {
		dst.SuccessThreshold = src.SuccessThreshold
	}
	if src.CriticalChance != nil {
		dst.CriticalChance = src.CriticalChance
	}
	if src.CriticalMultiplier != nil {
		dst.CriticalMultiplier = src.CriticalMultiplier
	}
}

// ValidateAction gates an action against the rule tables and the character's
// current skills. It returns false for any rule violation and fails closed
// when a payload cannot be decoded. Every call feeds the pass/fail counters.
func (r *Registry) ValidateAction(act action.Action, snap state.Snapshot) bool {
	ok := r.validate(act, snap)
	if ok {
		r.passed++
	} else {
		r.failed++
	}
	return ok
}

func (r *Registry) validate(act action.Action, snap state.Snapshot) bool {
	rule, found := r.RuleForAction(act.Domain(), act.Name)
	if !found {
		return false
	}

	if act.Domain() == action.DomainCombat && rule.RequiresWeapon != nil && *rule.RequiresWeapon {
		payload, err := act.Combat()
		if err != nil || strings.TrimSpace(payload.Weapon) == "" {
			return false
		}
		if skill, known := r.combat.WeaponSkills[payload.Weapon]; known && rule.RequiredSkill == "" {
			rule.RequiredSkill = skill
		}
	}

	if rule.RequiredSkill != "" && rule.MinimumLevel != nil {
		if snap.Skills[rule.RequiredSkill] < *rule.MinimumLevel {
			return false
		}
	}

	if act.Kind == action.KindCastSpell && rule.ManaCost != nil {
		payload, err := act.Spell()
		if err != nil {
			return false
		}
		if payload.ManaCost < *rule.ManaCost {
			return false
		}
	}

	return true
}

// AddCustomRule appends a rule into its domain bucket. Name collisions with
// built-ins resolve last-write-wins in favor of the custom rule.
func (r *Registry) AddCustomRule(rule Rule) error {
	domain := strings.TrimSpace(rule.Domain)
	switch domain {
	case action.DomainCombat, action.DomainMagic, action.DomainTime,
		action.DomainReputation, action.DomainLocation, action.DomainSkill:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDomain, rule.Domain)
	}
	name := strings.TrimSpace(rule.Name)
	if name == "" {
		return ErrEmptyRuleName
	}

	bucket, ok := r.custom[domain]
	if !ok {
		bucket = map[string]Rule{}
		r.custom[domain] = bucket
	}
	bucket[name] = rule
	return nil
}

// CustomRuleCount reports how many custom rules each domain carries.
func (r *Registry) CustomRuleCount() int {
	total := 0
	for _, bucket := range r.custom {
		total += len(bucket)
	}
	return total
}

// Combat returns a copy of the combat base rule.
func (r *Registry) Combat() CombatRule {
	out := r.combat
	out.WeaponSkills = copyStringMap(r.combat.WeaponSkills)
	return out
}

// Spell returns the rule for one spell type.
func (r *Registry) Spell(spellType string) (SpellRule, bool) {
	rule, ok := r.magic[spellType]
	return rule, ok
}

// Time returns a copy of the time rule.
func (r *Registry) Time() TimeRule {
	out := r.time
	out.OperatingHours = make(map[string][2]int, len(r.time.OperatingHours))
	for name, hours := range r.time.OperatingHours {
		out.OperatingHours[name] = hours
	}
	return out
}

// Reputation returns a copy of the reputation rule.
func (r *Registry) Reputation() ReputationRule {
	out := r.reputation
	out.Bands = append([]ReputationBand(nil), r.reputation.Bands...)
	out.HostileAbove = copyIntMap(r.reputation.HostileAbove)
	out.FriendlyBelow = copyIntMap(r.reputation.FriendlyBelow)
	return out
}

// Location returns the rule for one location.
func (r *Registry) Location(name string) (LocationRule, bool) {
	rule, ok := r.locations[name]
	return rule, ok
}

// Locations returns a copy of the full location table.
func (r *Registry) Locations() map[string]LocationRule {
	out := make(map[string]LocationRule, len(r.locations))
	for name, rule := range r.locations {
		out[name] = rule
	}
	return out
}

// Skill returns a copy of the skill rule.
func (r *Registry) Skill() SkillRule {
	return SkillRule{
		ActionCosts: copyIntMap(r.skill.ActionCosts),
		Synergies:   copyStringMap(r.skill.Synergies),
	}
}

// Counters reports the running validation pass/fail totals.
func (r *Registry) Counters() (passed, failed uint64) {
	return r.passed, r.failed
}

func copyStringMap(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}

func copyIntMap(src map[string]int) map[string]int {
	out := make(map[string]int, len(src))
	for key, value := range src {
		out[key] = value
	}
	return out
}

func intPtr(value int) *int { return &value }

func floatPtr(value float64) *float64 { return &value }
