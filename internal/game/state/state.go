// Package state defines the character and world snapshot that the hybrid
// pipeline reads and mutates.
//
// A Snapshot is a point-in-time projection: components treat a received
// Snapshot as immutable and produce new values through Clone.
package state

import (
	"errors"
	"fmt"
	"strings"
)

// Bounds for scalar snapshot fields.
const (
	HealthMax     = 100
	ManaMax       = 100
	ReputationMax = 100
	SkillMax      = 100
)

var (
	// ErrHealthOutOfRange indicates health is outside 0..100.
	ErrHealthOutOfRange = errors.New("health must be in range 0..100")
	// ErrManaOutOfRange indicates mana is outside 0..100.
	ErrManaOutOfRange = errors.New("mana must be in range 0..100")
	// ErrReputationOutOfRange indicates reputation is outside 0..100.
	ErrReputationOutOfRange = errors.New("reputation must be in range 0..100")
	// ErrNegativeCoins indicates coins are negative.
	ErrNegativeCoins = errors.New("coins must not be negative")
	// ErrNegativeTime indicates world time is negative.
	ErrNegativeTime = errors.New("time must not be negative")
	// ErrEmptyLocation indicates location is empty.
	ErrEmptyLocation = errors.New("location is required")
	// ErrSkillOutOfRange indicates a skill level is outside 0..100.
	ErrSkillOutOfRange = errors.New("skill level must be in range 0..100")
	// ErrNegativeQuantity indicates an inventory quantity is negative.
	ErrNegativeQuantity = errors.New("inventory quantity must not be negative")
)

// Snapshot captures the mutable character and world state at one instant.
type Snapshot struct {
	Health     int
	Mana       int
	Coins      int
	Location   string
	Time       int64 // world minutes since campaign start
	Reputation int
	Age        int
	Skills     map[string]int
	Inventory  map[string]int
	Conditions map[string]bool
}

// New returns a snapshot with full health, no mana, and empty collections.
func New(location string) Snapshot {
	return Snapshot{
		Health:     HealthMax,
		Location:   location,
		Skills:     map[string]int{},
		Inventory:  map[string]int{},
		Conditions: map[string]bool{},
	}
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Skills = make(map[string]int, len(s.Skills))
	for name, level := range s.Skills {
		out.Skills[name] = level
	}
	out.Inventory = make(map[string]int, len(s.Inventory))
	for item, qty := range s.Inventory {
		out.Inventory[item] = qty
	}
	out.Conditions = make(map[string]bool, len(s.Conditions))
	for name, set := range s.Conditions {
		out.Conditions[name] = set
	}
	return out
}

// Validate checks every live-snapshot invariant and returns the first
// violation found.
func (s Snapshot) Validate() error {
	if s.Health < 0 || s.Health > HealthMax {
		return fmt.Errorf("%w: got %d", ErrHealthOutOfRange, s.Health)
	}
	if s.Mana < 0 || s.Mana > ManaMax {
		return fmt.Errorf("%w: got %d", ErrManaOutOfRange, s.Mana)
	}
	if s.Reputation < 0 || s.Reputation > ReputationMax {
		return fmt.Errorf("%w: got %d", ErrReputationOutOfRange, s.Reputation)
	}
	if s.Coins < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeCoins, s.Coins)
	}
	if s.Time < 0 {
		return fmt.Errorf("%w: got %d", ErrNegativeTime, s.Time)
	}
	if strings.TrimSpace(s.Location) == "" {
		return ErrEmptyLocation
	}
	for name, level := range s.Skills {
		if level < 0 || level > SkillMax {
			return fmt.Errorf("%w: skill %q level %d", ErrSkillOutOfRange, name, level)
		}
	}
	for item, qty := range s.Inventory {
		if qty < 0 {
			return fmt.Errorf("%w: item %q quantity %d", ErrNegativeQuantity, item, qty)
		}
	}
	return nil
}

// ClampHealth bounds a health value into 0..HealthMax.
func ClampHealth(value int) int {
	return clamp(value, 0, HealthMax)
}

// ClampMana bounds a mana value into 0..ManaMax.
func ClampMana(value int) int {
	return clamp(value, 0, ManaMax)
}

// ClampReputation bounds a reputation value into 0..ReputationMax.
func ClampReputation(value int) int {
	return clamp(value, 0, ReputationMax)
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
