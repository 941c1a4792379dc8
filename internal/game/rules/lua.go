package rules

import (
	"fmt"

	"github.com/Shopify/go-lua"
)

// LoadLuaRules executes a Lua rule pack and returns the custom rules it
// declares. The script must return an array of tables, each carrying at
// least "domain" and "name" plus any override fields:
//
//	return {
//	    { domain = "magic", name = "emberstorm", mana_cost = 40,
//	      minimum_level = 20, required_skill = "spellcraft" },
//	    { domain = "combat", name = "shield_bash", requires_weapon = false,
//	      minimum_level = 8 },
//	}
func LoadLuaRules(path string) ([]Rule, error) {
	l := lua.NewState()
	lua.OpenLibraries(l)

	if err := lua.LoadFile(l, path, ""); err != nil {
		return nil, fmt.Errorf("load rule pack: %w", err)
	}
	if err := l.ProtectedCall(0, 1, 0); err != nil {
		return nil, fmt.Errorf("run rule pack: %w", err)
	}

	if l.TypeOf(-1) != lua.TypeTable {
		l.Pop(1)
		return nil, fmt.Errorf("rule pack must return a table of rules")
	}

	count := l.RawLength(-1)
	decoded := make([]Rule, 0, count)
	for i := 1; i <= count; i++ {
		l.RawGetInt(-1, i)
		if l.TypeOf(-1) != lua.TypeTable {
			l.Pop(2)
			return nil, fmt.Errorf("rule pack entry %d is not a table", i)
		}
		rule, err := decodeLuaRule(l)
		l.Pop(1)
		if err != nil {
			l.Pop(1)
			return nil, fmt.Errorf("rule pack entry %d: %w", i, err)
		}
		decoded = append(decoded, rule)
	}
	l.Pop(1)

	return decoded, nil
}

// decodeLuaRule reads one rule table at the top of the stack.
func decodeLuaRule(l *lua.State) (Rule, error) {
	rule := Rule{
		Domain:        luaStringField(l, "domain"),
		Name:          luaStringField(l, "name"),
		RequiredSkill: luaStringField(l, "required_skill"),
	}
	if rule.Domain == "" {
		return Rule{}, fmt.Errorf("missing domain")
	}
	if rule.Name == "" {
		return Rule{}, ErrEmptyRuleName
	}

	if value, ok := luaBoolField(l, "requires_weapon"); ok {
		rule.RequiresWeapon = &value
	}
	if value, ok := luaIntField(l, "minimum_level"); ok {
		rule.MinimumLevel = &value
	}
	if value, ok := luaIntField(l, "mana_cost"); ok {
		rule.ManaCost = &value
	}
	if value, ok := luaFloatField(l, "success_threshold"); ok {
		rule.SuccessThreshold = &value
	}
	if value, ok := luaFloatField(l, "critical_chance"); ok {
		rule.CriticalChance = &value
	}
	if value, ok := luaFloatField(l, "critical_multiplier"); ok {
		rule.CriticalMultiplier = &value
	}
	return rule, nil
}

func luaStringField(l *lua.State, name string) string {
	l.Field(-1, name)
	defer l.Pop(1)
	value, ok := l.ToString(-1)
	if !ok {
		return ""
	}
	return value
}

func luaIntField(l *lua.State, name string) (int, bool) {
	l.Field(-1, name)
	defer l.Pop(1)
	return l.ToInteger(-1)
}

func luaFloatField(l *lua.State, name string) (float64, bool) {
	l.Field(-1, name)
	defer l.Pop(1)
	return l.ToNumber(-1)
}

func luaBoolField(l *lua.State, name string) (bool, bool) {
	l.Field(-1, name)
	defer l.Pop(1)
	if l.TypeOf(-1) != lua.TypeBoolean {
		return false, false
	}
	return l.ToBoolean(-1), true
}
