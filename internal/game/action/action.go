// Package action defines the tagged action envelope consumed by the hybrid
// pipeline.
//
// An Action carries a kind discriminator plus the shared gating fields every
// component inspects (player choice, automation, skill requirements). Data
// that only one kind understands lives in a kind-specific payload decoded on
// demand, mirroring how commands carry typed payloads elsewhere in the
// codebase.
package action

import (
	"encoding/json"
	"fmt"
)

// Kind discriminates action variants.
type Kind string

// Player-initiated kinds. These resolve through the narrative generator.
const (
	KindCombat      Kind = "combat"
	KindDialogue    Kind = "dialogue"
	KindExploration Kind = "exploration"
	KindTrade       Kind = "trade"
	KindUseItem     Kind = "use_item"
	KindCastSpell   Kind = "cast_spell"
)

// Environment kinds. These resolve through deterministic simulation.
const (
	KindTimePassage   Kind = "time_passage"
	KindWeatherChange Kind = "weather_change"
	KindNPCBehavior   Kind = "npc_behavior"
	KindWorldEvent    Kind = "world_event"
	KindEconomyUpdate Kind = "economy_update"
)

// Hybrid kinds. These resolve through simulation and narrative together.
const (
	KindSkillCheck      Kind = "skill_check"
	KindCrafting        Kind = "crafting"
	KindNegotiation     Kind = "negotiation"
	KindCombatEncounter Kind = "combat_encounter"
)

// Rule domains addressed by the registry.
const (
	DomainCombat     = "combat"
	DomainMagic      = "magic"
	DomainTime       = "time"
	DomainReputation = "reputation"
	DomainLocation   = "location"
	DomainSkill      = "skill"
)

// ExpectedDeltas declares the scalar changes an action expects to cause.
// Transition validation compares them against observed snapshot deltas.
type ExpectedDeltas struct {
	Health *float64 `json:"health,omitempty"`
	Mana   *float64 `json:"mana,omitempty"`
	Coins  *float64 `json:"coins,omitempty"`
}

// Action is a proposed state change. One instance is created per caller tick
// and consumed once by the pipeline.
type Action struct {
	Kind Kind `json:"kind"`
	// Name addresses a specific rule inside the kind's rule domain,
	// for example "sword_attack" or "fireball".
	Name               string          `json:"name,omitempty"`
	PlayerChoice       bool            `json:"player_choice,omitempty"`
	Automatic          bool            `json:"automatic,omitempty"`
	SkillRequired      string          `json:"skill_required,omitempty"`
	MinimumLevel       int             `json:"minimum_level,omitempty"`
	Duration           int64           `json:"duration,omitempty"` // world minutes
	TimeRequired       int64           `json:"time_required,omitempty"`
	ReputationRequired int             `json:"reputation_required,omitempty"`
	Expected           *ExpectedDeltas `json:"expected,omitempty"`
	PayloadJSON        json.RawMessage `json:"payload,omitempty"`
}

// CombatPayload carries combat-only fields.
type CombatPayload struct {
	Weapon string `json:"weapon"`
}

// SpellPayload carries spell-casting fields.
type SpellPayload struct {
	SpellType string `json:"spell_type"`
	ManaCost  int    `json:"mana_cost"`
}

// ItemPayload carries item-use fields.
type ItemPayload struct {
	Item     string `json:"item"`
	Quantity int    `json:"quantity"`
}

// TradePayload carries trade fields.
type TradePayload struct {
	Merchant string `json:"merchant"`
	Item     string `json:"item"`
	Offer    int    `json:"offer"`
}

// SkillCheckPayload carries hybrid skill-check fields.
type SkillCheckPayload struct {
	Skill      string `json:"skill"`
	Difficulty int    `json:"difficulty"`
}

// CraftingPayload carries crafting fields.
type CraftingPayload struct {
	Recipe string `json:"recipe"`
}

// IsPlayerKind reports whether kind belongs to the player-action set.
func IsPlayerKind(kind Kind) bool {
	switch kind {
	case KindCombat, KindDialogue, KindExploration, KindTrade, KindUseItem, KindCastSpell:
		return true
	}
	return false
}

// IsEnvironmentKind reports whether kind belongs to the environment-change set.
func IsEnvironmentKind(kind Kind) bool {
	switch kind {
	case KindTimePassage, KindWeatherChange, KindNPCBehavior, KindWorldEvent, KindEconomyUpdate:
		return true
	}
	return false
}

// IsHybridKind reports whether kind belongs to the hybrid set.
func IsHybridKind(kind Kind) bool {
	switch kind {
	case KindSkillCheck, KindCrafting, KindNegotiation, KindCombatEncounter:
		return true
	}
	return false
}

// Domain maps an action kind to the rule domain that governs it.
func (a Action) Domain() string {
	switch a.Kind {
	case KindCombat, KindCombatEncounter:
		return DomainCombat
	case KindCastSpell:
		return DomainMagic
	case KindTimePassage:
		return DomainTime
	case KindTrade, KindDialogue, KindNegotiation:
		return DomainReputation
	case KindExploration, KindWorldEvent:
		return DomainLocation
	default:
		return DomainSkill
	}
}

// Combat decodes the combat payload.
func (a Action) Combat() (CombatPayload, error) {
	var payload CombatPayload
	if err := a.decode(&payload); err != nil {
		return CombatPayload{}, err
	}
	return payload, nil
}

// Spell decodes the spell payload.
func (a Action) Spell() (SpellPayload, error) {
	var payload SpellPayload
	if err := a.decode(&payload); err != nil {
		return SpellPayload{}, err
	}
	return payload, nil
}

// Item decodes the item payload.
func (a Action) Item() (ItemPayload, error) {
	var payload ItemPayload
	if err := a.decode(&payload); err != nil {
		return ItemPayload{}, err
	}
	return payload, nil
}

// Trade decodes the trade payload.
func (a Action) Trade() (TradePayload, error) {
	var payload TradePayload
	if err := a.decode(&payload); err != nil {
		return TradePayload{}, err
	}
	return payload, nil
}

// SkillCheck decodes the skill-check payload.
func (a Action) SkillCheck() (SkillCheckPayload, error) {
	var payload SkillCheckPayload
	if err := a.decode(&payload); err != nil {
		return SkillCheckPayload{}, err
	}
	return payload, nil
}

// Crafting decodes the crafting payload.
func (a Action) Crafting() (CraftingPayload, error) {
	var payload CraftingPayload
	if err := a.decode(&payload); err != nil {
		return CraftingPayload{}, err
	}
	return payload, nil
}

func (a Action) decode(target any) error {
	if len(a.PayloadJSON) == 0 {
		return nil
	}
	if err := json.Unmarshal(a.PayloadJSON, target); err != nil {
		return fmt.Errorf("decode %s payload: %w", a.Kind, err)
	}
	return nil
}

// WithPayload returns a copy of the action carrying the encoded payload.
// It panics only on unmarshalable values, which is a programming error.
func (a Action) WithPayload(payload any) Action {
	encoded, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("encode %s payload: %v", a.Kind, err))
	}
	a.PayloadJSON = encoded
	return a
}
