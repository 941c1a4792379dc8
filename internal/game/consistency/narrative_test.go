package consistency

import (
	"testing"

	"github.com/louisbranch/emberfall/internal/game/state"
)

func int64Ptr(value int64) *int64 { return &value }

func TestValidateNarrativeOutput(t *testing.T) {
	snap := state.New("village")
	snap.Mana = 3
	snap.Coins = 10
	snap.Time = 600
	snap.Inventory["bow"] = 1

	cases := []struct {
		name      string
		output    NarrativeOutput
		want      bool
		errorKind string
	}{
		{
			name:   "plain prose passes",
			output: NarrativeOutput{Narrative: "The hero rests by the fire."},
			want:   true,
		},
		{
			name:      "weapon phrase without item",
			output:    NarrativeOutput{Narrative: "She draws a sword and advances."},
			want:      false,
			errorKind: "weapon_without_item",
		},
		{
			name:   "weapon phrase with item held",
			output: NarrativeOutput{Narrative: "He nocks an arrow in silence."},
			want:   true,
		},
		{
			name:      "casting without mana",
			output:    NarrativeOutput{Narrative: "The mage channels mana into the ward."},
			want:      false,
			errorKind: "cast_without_mana",
		},
		{
			name: "state change out of bounds",
			output: NarrativeOutput{
				Narrative:    "A blow lands.",
				StateChanges: map[string]float64{"coins": -50},
			},
			want:      false,
			errorKind: "state_change_out_of_bounds",
		},
		{
			name: "state change within bounds",
			output: NarrativeOutput{
				Narrative:    "A coin pouch changes hands.",
				StateChanges: map[string]float64{"coins": -10, "reputation": 5},
			},
			want: true,
		},
		{
			name: "unknown fields ignored",
			output: NarrativeOutput{
				Narrative:    "Fortune stirs.",
				StateChanges: map[string]float64{"luck": -999},
			},
			want: true,
		},
		{
			name: "time regression",
			output: NarrativeOutput{
				Narrative:   "Dawn breaks again.",
				TimeContext: int64Ptr(100),
			},
			want:      false,
			errorKind: "time_regression",
		},
		{
			name: "time moving forward",
			output: NarrativeOutput{
				Narrative:   "Night falls.",
				TimeContext: int64Ptr(900),
			},
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := New()
			if got := v.ValidateNarrativeOutput(tc.output, snap); got != tc.want {
				t.Fatalf("validate = %v, want %v", got, tc.want)
			}
			if tc.errorKind != "" {
				errs, _, _ := v.Metrics()
				if errs["narrative"][tc.errorKind] != 1 {
					t.Fatalf("expected %q error recorded, got %v", tc.errorKind, errs)
				}
			}
		})
	}
}
