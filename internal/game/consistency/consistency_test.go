package consistency

import (
	"testing"

	"github.com/louisbranch/emberfall/internal/game/action"
	"github.com/louisbranch/emberfall/internal/game/state"
)

func floatPtr(value float64) *float64 { return &value }

func TestDomainChecks(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*state.Snapshot)
		check  func(*Validator, state.Snapshot) bool
		want   bool
	}{
		{
			name:   "healthy snapshot passes resources",
			mutate: func(*state.Snapshot) {},
			check:  (*Validator).CheckResources,
			want:   true,
		},
		{
			name:   "negative inventory fails",
			mutate: func(s *state.Snapshot) { s.Inventory["potion"] = -1 },
			check:  (*Validator).CheckInventory,
			want:   false,
		},
		{
			name:   "blank location fails",
			mutate: func(s *state.Snapshot) { s.Location = " " },
			check:  (*Validator).CheckLocation,
			want:   false,
		},
		{
			name:   "skill above cap fails",
			mutate: func(s *state.Snapshot) { s.Skills["lore"] = 101 },
			check:  (*Validator).CheckSkills,
			want:   false,
		},
		{
			name:   "negative time fails",
			mutate: func(s *state.Snapshot) { s.Time = -1 },
			check:  (*Validator).CheckTime,
			want:   false,
		},
		{
			name:   "reputation above cap fails",
			mutate: func(s *state.Snapshot) { s.Reputation = 101 },
			check:  (*Validator).CheckReputation,
			want:   false,
		},
		{
			name:   "mana above cap fails",
			mutate: func(s *state.Snapshot) { s.Mana = 101 },
			check:  (*Validator).CheckResources,
			want:   false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := New()
			snap := state.New("village")
			tc.mutate(&snap)
			if got := tc.check(v, snap); got != tc.want {
				t.Fatalf("check = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValidateActionAgainstState(t *testing.T) {
	base := state.New("village")
	base.Mana = 20
	base.Time = 500
	base.Reputation = 40
	base.Skills["stealth"] = 6
	base.Inventory["potion"] = 1

	cases := []struct {
		name string
		act  action.Action
		want bool
	}{
		{
			name: "use item in stock",
			act: action.Action{Kind: action.KindUseItem}.
				WithPayload(action.ItemPayload{Item: "potion", Quantity: 1}),
			want: true,
		},
		{
			name: "use item out of stock",
			act: action.Action{Kind: action.KindUseItem}.
				WithPayload(action.ItemPayload{Item: "potion", Quantity: 2}),
			want: false,
		},
		{
			name: "zero quantity defaults to one",
			act: action.Action{Kind: action.KindUseItem}.
				WithPayload(action.ItemPayload{Item: "rope"}),
			want: false, // no rope held
		},
		{
			name: "skill gate met",
			act:  action.Action{Kind: action.KindSkillCheck, SkillRequired: "stealth", MinimumLevel: 5},
			want: true,
		},
		{
			name: "skill gate unmet",
			act:  action.Action{Kind: action.KindSkillCheck, SkillRequired: "stealth", MinimumLevel: 10},
			want: false,
		},
		{
			name: "spell with enough mana",
			act: action.Action{Kind: action.KindCastSpell}.
				WithPayload(action.SpellPayload{SpellType: "ward", ManaCost: 10}),
			want: true,
		},
		{
			name: "spell without mana",
			act: action.Action{Kind: action.KindCastSpell}.
				WithPayload(action.SpellPayload{SpellType: "fireball", ManaCost: 25}),
			want: false,
		},
		{
			name: "time requirement met",
			act:  action.Action{Kind: action.KindExploration, TimeRequired: 400},
			want: true,
		},
		{
			name: "time requirement unmet",
			act:  action.Action{Kind: action.KindExploration, TimeRequired: 600},
			want: false,
		},
		{
			name: "reputation requirement unmet",
			act:  action.Action{Kind: action.KindTrade, ReputationRequired: 60},
			want: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := New()
			if got := v.ValidateActionAgainstState(tc.act, base); got != tc.want {
				t.Fatalf("validate = %v, want %v", got, tc.want)
			}
			_, total, passed := v.Metrics()
			if total != 1 {
				t.Fatalf("total = %d, want 1", total)
			}
			if tc.want && passed != 1 {
				t.Fatalf("passed = %d, want 1", passed)
			}
			if !tc.want && passed != 0 {
				t.Fatalf("passed = %d, want 0", passed)
			}
		})
	}
}

func TestValidateTransition(t *testing.T) {
	prev := state.New("village")
	next := prev.Clone()
	next.Health = 80

	t.Run("no expectations always passes", func(t *testing.T) {
		v := New()
		if !v.ValidateTransition(prev, next, action.Action{}) {
			t.Fatal("expected pass without expectations")
		}
	})

	t.Run("matching delta passes", func(t *testing.T) {
		v := New()
		act := action.Action{Expected: &action.ExpectedDeltas{Health: floatPtr(-20)}}
		if !v.ValidateTransition(prev, next, act) {
			t.Fatal("expected matching delta to pass")
		}
	})

	t.Run("mismatched delta fails", func(t *testing.T) {
		v := New()
		act := action.Action{Expected: &action.ExpectedDeltas{Health: floatPtr(-5)}}
		if v.ValidateTransition(prev, next, act) {
			t.Fatal("expected mismatched delta to fail")
		}
	})

	t.Run("tolerance absorbs rounding", func(t *testing.T) {
		v := New()
		act := action.Action{Expected: &action.ExpectedDeltas{Health: floatPtr(-19.995)}}
		if !v.ValidateTransition(prev, next, act) {
			t.Fatal("expected near-equal delta to pass")
		}
	})
}

func TestValidateReport(t *testing.T) {
	v := New()
	snap := state.New("village")
	snap.Time = -1
	snap.Inventory["potion"] = -2

	report := v.Validate(snap)
	if report.Overall {
		t.Fatal("expected overall failure")
	}
	if report.Domains[DomainTime] || report.Domains[DomainInventory] {
		t.Fatal("failing domains should report false")
	}
	if report.Domains[DomainLocation] != true {
		t.Fatal("passing domains should report true")
	}
	if len(report.Issues) != 2 {
		t.Fatalf("issues = %v, want two entries", report.Issues)
	}

	errs, _, _ := v.Metrics()
	if errs[DomainTime]["negative_time"] != 1 {
		t.Fatalf("expected recorded time error, got %v", errs)
	}
}
