// Package encode projects live snapshots to and from a schema-checked
// record, the canonical form handed to the narrative generator.
package encode

import (
	"errors"
	"fmt"

	"github.com/louisbranch/emberfall/internal/game/state"
)

// Field defaults applied when a record is partially populated.
const (
	DefaultHealth = 100
	DefaultMana   = 0
)

var (
	// ErrFieldOutOfBounds indicates a record field violates its schema bound.
	ErrFieldOutOfBounds = errors.New("record field out of bounds")
	// ErrMissingLocation indicates a record without a world location.
	ErrMissingLocation = errors.New("record world location is required")
)

// PlayerRecord carries scalar character fields. Pointers distinguish absent
// fields (which take defaults on decode) from legitimate zero values.
type PlayerRecord struct {
	Health *int `json:"health,omitempty"`
	Mana   *int `json:"mana,omitempty"`
	Coins  *int `json:"coins,omitempty"`
	Age    *int `json:"age,omitempty"`
}

// SkillRecord carries one skill's level and accumulated experience.
type SkillRecord struct {
	Level      int `json:"level"`
	Experience int `json:"experience"`
}

// WorldRecord carries location, time, and world-condition flags.
type WorldRecord struct {
	Location   string          `json:"location"`
	Conditions map[string]bool `json:"conditions,omitempty"`
	Time       int64           `json:"time"`
}

// Record is the canonical encoded form of a snapshot.
type Record struct {
	Player     PlayerRecord           `json:"player"`
	Skills     map[string]SkillRecord `json:"skills"`
	Inventory  map[string]int         `json:"inventory"`
	World      WorldRecord            `json:"world"`
	Level      int                    `json:"level"`
	Reputation int                    `json:"reputation"`
}

// FieldSchema declares the type and bounds of one record field.
type FieldSchema struct {
	Type string   `json:"type"`
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
}

// Encode projects a snapshot into its canonical record. Level is derived
// from the character's strongest skill.
func Encode(snap state.Snapshot) Record {
	health := snap.Health
	mana := snap.Mana
	coins := snap.Coins
	age := snap.Age

	skills := make(map[string]SkillRecord, len(snap.Skills))
	level := 0
	for name, skillLevel := range snap.Skills {
		skills[name] = SkillRecord{Level: skillLevel}
		if skillLevel > level {
			level = skillLevel
		}
	}

	inventory := make(map[string]int, len(snap.Inventory))
	for item, qty := range snap.Inventory {
		inventory[item] = qty
	}
	conditions := make(map[string]bool, len(snap.Conditions))
	for name, set := range snap.Conditions {
		conditions[name] = set
	}

	return Record{
		Player: PlayerRecord{Health: &health, Mana: &mana, Coins: &coins, Age: &age},
		Skills: skills,
		World: WorldRecord{
			Location:   snap.Location,
			Conditions: conditions,
			Time:       snap.Time,
		},
		Inventory:  inventory,
		Level:      level,
		Reputation: snap.Reputation,
	}
}

// Decode is the inverse projection. Absent player fields take the fixed
// defaults; it tolerates partially populated records.
func Decode(record Record) state.Snapshot {
	snap := state.Snapshot{
		Health:     valueOr(record.Player.Health, DefaultHealth),
		Mana:       valueOr(record.Player.Mana, DefaultMana),
		Coins:      valueOr(record.Player.Coins, 0),
		Age:        valueOr(record.Player.Age, 0),
		Location:   record.World.Location,
		Time:       record.World.Time,
		Reputation: record.Reputation,
		Skills:     make(map[string]int, len(record.Skills)),
		Inventory:  make(map[string]int, len(record.Inventory)),
		Conditions: make(map[string]bool, len(record.World.Conditions)),
	}
	for name, skill := range record.Skills {
		snap.Skills[name] = skill.Level
	}
	for item, qty := range record.Inventory {
		snap.Inventory[item] = qty
	}
	for name, set := range record.World.Conditions {
		snap.Conditions[name] = set
	}
	return snap
}

// Schema declares the per-field types and bounds Validate enforces.
func Schema() map[string]FieldSchema {
	return map[string]FieldSchema{
		"player.health":      {Type: "integer", Min: floatPtr(0), Max: floatPtr(100)},
		"player.mana":        {Type: "integer", Min: floatPtr(0), Max: floatPtr(100)},
		"player.coins":       {Type: "integer", Min: floatPtr(0)},
		"player.age":         {Type: "integer", Min: floatPtr(0)},
		"world.location":     {Type: "string"},
		"world.time":         {Type: "integer", Min: floatPtr(0)},
		"reputation":         {Type: "integer", Min: floatPtr(0), Max: floatPtr(100)},
		"skills.*.level":     {Type: "integer", Min: floatPtr(0), Max: floatPtr(100)},
		"inventory.*":        {Type: "integer", Min: floatPtr(0)},
		"world.conditions.*": {Type: "boolean"},
	}
}

// Validate rejects records whose populated fields violate the schema bounds.
func Validate(record Record) error {
	if err := checkBound("player.health", record.Player.Health); err != nil {
		return err
	}
	if err := checkBound("player.mana", record.Player.Mana); err != nil {
		return err
	}
	if record.Player.Coins != nil && *record.Player.Coins < 0 {
		return fmt.Errorf("%w: player.coins %d", ErrFieldOutOfBounds, *record.Player.Coins)
	}
	if record.Player.Age != nil && *record.Player.Age < 0 {
		return fmt.Errorf("%w: player.age %d", ErrFieldOutOfBounds, *record.Player.Age)
	}
	if record.World.Time < 0 {
		return fmt.Errorf("%w: world.time %d", ErrFieldOutOfBounds, record.World.Time)
	}
	if record.World.Location == "" {
		return ErrMissingLocation
	}
	if record.Reputation < 0 || record.Reputation > 100 {
		return fmt.Errorf("%w: reputation %d", ErrFieldOutOfBounds, record.Reputation)
	}
	for name, skill := range record.Skills {
		if skill.Level < 0 || skill.Level > 100 {
			return fmt.Errorf("%w: skill %q level %d", ErrFieldOutOfBounds, name, skill.Level)
		}
	}
	for item, qty := range record.Inventory {
		if qty < 0 {
			return fmt.Errorf("%w: inventory %q quantity %d", ErrFieldOutOfBounds, item, qty)
		}
	}
	return nil
}

// NarrativeState bundles the encoded state, its schema, and a fixed
// instruction block for the narrative generator.
type NarrativeState struct {
	State        Record                 `json:"state"`
	Schema       map[string]FieldSchema `json:"schema"`
	Instructions string                 `json:"instructions"`
}

const narrativeInstructions = `This is the authoritative mechanical state.
Write narrative that is consistent with it. Do not change numbers, invent
items, or resolve mechanics; those are computed deterministically.`

// ForNarrative bundles the encoded state for the narrative generator.
func ForNarrative(snap state.Snapshot) NarrativeState {
	return NarrativeState{
		State:        Encode(snap),
		Schema:       Schema(),
		Instructions: narrativeInstructions,
	}
}

func checkBound(field string, value *int) error {
	if value == nil {
		return nil
	}
	if *value < 0 || *value > 100 {
		return fmt.Errorf("%w: %s %d", ErrFieldOutOfBounds, field, *value)
	}
	return nil
}

func valueOr(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

func floatPtr(value float64) *float64 { return &value }
