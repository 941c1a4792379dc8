package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func writeRulePack(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.lua")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write rule pack: %v", err)
	}
	return path
}

func TestLoadLuaRules(t *testing.T) {
	path := writeRulePack(t, `
return {
    { domain = "magic", name = "emberstorm", mana_cost = 40,
      minimum_level = 20, required_skill = "spellcraft" },
    { domain = "combat", name = "shield_bash", requires_weapon = false,
      minimum_level = 8, critical_chance = 0.25 },
}
`)

	rules, err := LoadLuaRules(path)
	if err != nil {
		t.Fatalf("load rule pack: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(rules))
	}

	ember := rules[0]
	if ember.Domain != "magic" || ember.Name != "emberstorm" {
		t.Fatalf("unexpected first rule: %+v", ember)
	}
	if ember.ManaCost == nil || *ember.ManaCost != 40 {
		t.Fatalf("mana cost = %v", ember.ManaCost)
	}
	if ember.MinimumLevel == nil || *ember.MinimumLevel != 20 {
		t.Fatalf("minimum level = %v", ember.MinimumLevel)
	}
	if ember.RequiredSkill != "spellcraft" {
		t.Fatalf("required skill = %q", ember.RequiredSkill)
	}

	bash := rules[1]
	if bash.RequiresWeapon == nil || *bash.RequiresWeapon {
		t.Fatalf("requires weapon = %v", bash.RequiresWeapon)
	}
	if bash.CriticalChance == nil || *bash.CriticalChance != 0.25 {
		t.Fatalf("critical chance = %v", bash.CriticalChance)
	}
}

func TestLoadLuaRulesErrors(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{name: "not a table", content: `return 42`},
		{name: "entry not a table", content: `return { "bare string" }`},
		{name: "missing domain", content: `return { { name = "orphan" } }`},
		{name: "missing name", content: `return { { domain = "combat" } }`},
		{name: "syntax error", content: `return {`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeRulePack(t, tc.content)
			if _, err := LoadLuaRules(path); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadLuaRulesMissingFile(t *testing.T) {
	if _, err := LoadLuaRules(filepath.Join(t.TempDir(), "absent.lua")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadedRulesRegister(t *testing.T) {
	path := writeRulePack(t, `
return {
    { domain = "magic", name = "emberstorm", mana_cost = 40,
      minimum_level = 20, required_skill = "spellcraft" },
}
`)
	loaded, err := LoadLuaRules(path)
	if err != nil {
		t.Fatalf("load rule pack: %v", err)
	}

	r := NewRegistry()
	for _, rule := range loaded {
		if err := r.AddCustomRule(rule); err != nil {
			t.Fatalf("register rule: %v", err)
		}
	}
	rule, ok := r.RuleForAction("magic", "emberstorm")
	if !ok {
		t.Fatal("emberstorm should resolve after registration")
	}
	if rule.ManaCost == nil || *rule.ManaCost != 40 {
		t.Fatalf("mana cost = %v", rule.ManaCost)
	}
}
