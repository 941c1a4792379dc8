package encode

import (
	"errors"
	"reflect"
	"testing"

	"github.com/louisbranch/emberfall/internal/game/state"
)

func intPtr(value int) *int { return &value }

func sampleSnapshot() state.Snapshot {
	snap := state.New("forest")
	snap.Health = 75
	snap.Mana = 30
	snap.Coins = 120
	snap.Time = 900
	snap.Age = 25
	snap.Reputation = 40
	snap.Skills["swordsmanship"] = 12
	snap.Skills["lore"] = 30
	snap.Inventory["potion"] = 2
	snap.Conditions["weather_rain"] = true
	return snap
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	snap := sampleSnapshot()
	decoded := Decode(Encode(snap))
	if !reflect.DeepEqual(snap, decoded) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, snap)
	}
}

func TestEncodeDerivesLevel(t *testing.T) {
	snap := sampleSnapshot()
	record := Encode(snap)
	if record.Level != 30 {
		t.Fatalf("level = %d, want strongest skill 30", record.Level)
	}

	empty := state.New("village")
	if got := Encode(empty).Level; got != 0 {
		t.Fatalf("level without skills = %d, want 0", got)
	}
}

func TestDecodeAppliesDefaults(t *testing.T) {
	record := Record{World: WorldRecord{Location: "village"}}
	snap := Decode(record)
	if snap.Health != DefaultHealth {
		t.Fatalf("health = %d, want default %d", snap.Health, DefaultHealth)
	}
	if snap.Mana != DefaultMana {
		t.Fatalf("mana = %d, want default %d", snap.Mana, DefaultMana)
	}
	if snap.Coins != 0 || snap.Age != 0 {
		t.Fatalf("coins/age = %d/%d, want zero", snap.Coins, snap.Age)
	}
	if snap.Skills == nil || snap.Inventory == nil || snap.Conditions == nil {
		t.Fatal("decode must initialize collections")
	}
}

func TestDecodePreservesExplicitZero(t *testing.T) {
	record := Record{
		Player: PlayerRecord{Health: intPtr(0)},
		World:  WorldRecord{Location: "village"},
	}
	if got := Decode(record).Health; got != 0 {
		t.Fatalf("explicit zero health decoded as %d", got)
	}
}

func TestValidateRecord(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Record)
		wantErr error
	}{
		{
			name:    "valid record",
			mutate:  func(*Record) {},
			wantErr: nil,
		},
		{
			name:    "health above bound",
			mutate:  func(r *Record) { r.Player.Health = intPtr(101) },
			wantErr: ErrFieldOutOfBounds,
		},
		{
			name:    "negative coins",
			mutate:  func(r *Record) { r.Player.Coins = intPtr(-1) },
			wantErr: ErrFieldOutOfBounds,
		},
		{
			name:    "negative time",
			mutate:  func(r *Record) { r.World.Time = -5 },
			wantErr: ErrFieldOutOfBounds,
		},
		{
			name:    "missing location",
			mutate:  func(r *Record) { r.World.Location = "" },
			wantErr: ErrMissingLocation,
		},
		{
			name:    "reputation above bound",
			mutate:  func(r *Record) { r.Reputation = 120 },
			wantErr: ErrFieldOutOfBounds,
		},
		{
			name:    "skill level above bound",
			mutate:  func(r *Record) { r.Skills["lore"] = SkillRecord{Level: 101} },
			wantErr: ErrFieldOutOfBounds,
		},
		{
			name:    "negative inventory",
			mutate:  func(r *Record) { r.Inventory["potion"] = -2 },
			wantErr: ErrFieldOutOfBounds,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			record := Encode(sampleSnapshot())
			tc.mutate(&record)
			err := Validate(record)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestForNarrative(t *testing.T) {
	bundle := ForNarrative(sampleSnapshot())
	if bundle.Instructions == "" {
		t.Fatal("expected generator instructions")
	}
	if len(bundle.Schema) == 0 {
		t.Fatal("expected schema entries")
	}
	if bundle.State.World.Location != "forest" {
		t.Fatalf("location = %q", bundle.State.World.Location)
	}
	if _, ok := bundle.Schema["player.health"]; !ok {
		t.Fatal("schema missing player.health")
	}
}
