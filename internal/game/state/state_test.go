package state

import (
	"errors"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	snap := New("village")
	if snap.Health != HealthMax {
		t.Fatalf("expected full health, got %d", snap.Health)
	}
	if snap.Mana != 0 {
		t.Fatalf("expected zero mana, got %d", snap.Mana)
	}
	if snap.Location != "village" {
		t.Fatalf("expected village location, got %q", snap.Location)
	}
	if snap.Skills == nil || snap.Inventory == nil || snap.Conditions == nil {
		t.Fatal("expected initialized collections")
	}
	if err := snap.Validate(); err != nil {
		t.Fatalf("fresh snapshot should validate: %v", err)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	snap := New("village")
	snap.Skills["swordsmanship"] = 10
	snap.Inventory["potion"] = 2
	snap.Conditions["weather_rain"] = true

	clone := snap.Clone()
	clone.Skills["swordsmanship"] = 99
	clone.Inventory["potion"] = 0
	clone.Conditions["weather_rain"] = false
	clone.Health = 1

	if snap.Skills["swordsmanship"] != 10 {
		t.Fatalf("clone mutation leaked into skills: %d", snap.Skills["swordsmanship"])
	}
	if snap.Inventory["potion"] != 2 {
		t.Fatalf("clone mutation leaked into inventory: %d", snap.Inventory["potion"])
	}
	if !snap.Conditions["weather_rain"] {
		t.Fatal("clone mutation leaked into conditions")
	}
	if snap.Health != HealthMax {
		t.Fatalf("clone mutation leaked into health: %d", snap.Health)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Snapshot)
		wantErr error
	}{
		{
			name:    "health above max",
			mutate:  func(s *Snapshot) { s.Health = HealthMax + 1 },
			wantErr: ErrHealthOutOfRange,
		},
		{
			name:    "negative health",
			mutate:  func(s *Snapshot) { s.Health = -1 },
			wantErr: ErrHealthOutOfRange,
		},
		{
			name:    "mana above max",
			mutate:  func(s *Snapshot) { s.Mana = ManaMax + 1 },
			wantErr: ErrManaOutOfRange,
		},
		{
			name:    "reputation above max",
			mutate:  func(s *Snapshot) { s.Reputation = ReputationMax + 5 },
			wantErr: ErrReputationOutOfRange,
		},
		{
			name:    "negative coins",
			mutate:  func(s *Snapshot) { s.Coins = -10 },
			wantErr: ErrNegativeCoins,
		},
		{
			name:    "negative time",
			mutate:  func(s *Snapshot) { s.Time = -1 },
			wantErr: ErrNegativeTime,
		},
		{
			name:    "blank location",
			mutate:  func(s *Snapshot) { s.Location = "  " },
			wantErr: ErrEmptyLocation,
		},
		{
			name:    "skill above max",
			mutate:  func(s *Snapshot) { s.Skills["alchemy"] = SkillMax + 1 },
			wantErr: ErrSkillOutOfRange,
		},
		{
			name:    "negative inventory quantity",
			mutate:  func(s *Snapshot) { s.Inventory["potion"] = -1 },
			wantErr: ErrNegativeQuantity,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			snap := New("village")
			tc.mutate(&snap)
			err := snap.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestClamps(t *testing.T) {
	if got := ClampHealth(150); got != HealthMax {
		t.Fatalf("expected clamp to %d, got %d", HealthMax, got)
	}
	if got := ClampHealth(-20); got != 0 {
		t.Fatalf("expected clamp to zero, got %d", got)
	}
	if got := ClampMana(42); got != 42 {
		t.Fatalf("expected passthrough, got %d", got)
	}
	if got := ClampReputation(101); got != ReputationMax {
		t.Fatalf("expected clamp to %d, got %d", ReputationMax, got)
	}
}
