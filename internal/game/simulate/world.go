package simulate

import (
	"sort"

	"github.com/louisbranch/emberfall/internal/game/state"
)

// Weather condition flags stored in snapshot world conditions.
const (
	WeatherClear = "weather_clear"
	WeatherRain  = "weather_rain"
	WeatherFog   = "weather_fog"
	WeatherStorm = "weather_storm"
)

var weatherStates = []string{WeatherClear, WeatherRain, WeatherFog, WeatherStorm}

// weatherPersistChance is the probability the current weather holds.
const weatherPersistChance = 0.7

// WeatherReport describes the projected weather and its gameplay impact.
type WeatherReport struct {
	Condition        string
	Changed          bool
	MovementImpaired bool
	ExtraClothing    bool
	HealthPenalty    int
}

// WorldEvent is one randomly drawn occurrence.
type WorldEvent struct {
	Type        string
	MonsterType string
}

// EconomyReport carries per-item price modifiers for the current market.
type EconomyReport struct {
	PriceModifiers map[string]float64
	DemandFactor   float64
	MarketEvent    string
}

// World event weights. Quest hooks are the most common draw.
var worldEventWeights = []struct {
	event  string
	weight float64
}{
	{"monster_spawn", 0.3},
	{"quest_event", 0.4},
	{"economic_event", 0.3},
}

// monsterPools keys spawnable monsters by location.
var monsterPools = map[string][]string{
	"forest":     {"wolf", "boar", "sprite"},
	"caves":      {"bat_swarm", "cave_troll", "slime"},
	"ruins":      {"revenant", "animated_armor"},
	"badlands":   {"dust_wraith", "razorbeak"},
	"deep_mines": {"deep_horror", "stone_golem"},
}

var defaultMonsterPool = []string{"bandit", "giant_rat"}

// Market price bands per item: [low, high] multiplier drawn uniformly.
var priceBands = map[string][2]float64{
	"bread":      {0.8, 1.2},
	"ale":        {0.9, 1.4},
	"iron_ingot": {0.7, 1.5},
	"potion":     {0.9, 1.8},
	"rope":       {0.8, 1.1},
	"torch":      {0.8, 1.1},
}

// marketEventChance is the independent probability of an additional market
// event in an economy update.
const marketEventChance = 0.10

// SimulateWeather draws the next weather state: 70% persistence, otherwise a
// uniform pick over all states. Adverse weather outside safe locations
// impairs movement and costs health.
func (s *Simulator) SimulateWeather(snap state.Snapshot) Result {
	current := currentWeather(snap.Conditions)
	next := current
	changed := false
	if s.rng.Float64() >= weatherPersistChance {
		next = weatherStates[s.rng.Intn(len(weatherStates))]
		changed = next != current
	}

	report := WeatherReport{Condition: next, Changed: changed}
	if next != WeatherClear && !s.isSafe(snap.Location) {
		report.MovementImpaired = true
		report.ExtraClothing = true
		report.HealthPenalty = 1
		if next == WeatherStorm {
			report.HealthPenalty = 3
		}
	}

	result := Result{
		Kind:         "weather_change",
		Effects:      map[string]bool{"weatherChanged": changed},
		NewTime:      snap.Time,
		HealthChange: -report.HealthPenalty,
		Weather:      &report,
	}
	s.record(result)
	return result
}

// SimulateWorldEvents draws one weighted world event. Monster spawns pick
// from the location pool, falling back to the default pool.
func (s *Simulator) SimulateWorldEvents(snap state.Snapshot) Result {
	draw := s.rng.Float64()
	cumulative := 0.0
	eventType := worldEventWeights[len(worldEventWeights)-1].event
	for _, candidate := range worldEventWeights {
		cumulative += candidate.weight
		if draw < cumulative {
			eventType = candidate.event
			break
		}
	}

	event := WorldEvent{Type: eventType}
	if eventType == "monster_spawn" {
		pool, ok := monsterPools[snap.Location]
		if !ok || len(pool) == 0 {
			pool = defaultMonsterPool
		}
		event.MonsterType = pool[s.rng.Intn(len(pool))]
	}

	result := Result{
		Kind:    "world_event",
		Effects: map[string]bool{eventType: true},
		NewTime: snap.Time,
		Event:   &event,
	}
	s.record(result)
	return result
}

// SimulateEconomy draws per-item price modifiers inside each item's band,
// scaled by a location/time demand factor, with a small chance of an extra
// market event.
func (s *Simulator) SimulateEconomy(snap state.Snapshot) Result {
	demand := 1.0
	switch {
	case s.isSafe(snap.Location) && IsDaytime(snap.Time):
		demand = 1.2
	case s.isDangerous(snap.Location):
		demand = 0.8
	}

	report := EconomyReport{
		PriceModifiers: make(map[string]float64, len(priceBands)),
		DemandFactor:   demand,
	}
	// Stable iteration keeps the rng draw sequence reproducible per seed.
	items := make([]string, 0, len(priceBands))
	for item := range priceBands {
		items = append(items, item)
	}
	sort.Strings(items)
	for _, item := range items {
		band := priceBands[item]
		modifier := band[0] + s.rng.Float64()*(band[1]-band[0])
		report.PriceModifiers[item] = modifier * demand
	}
	if s.rng.Float64() < marketEventChance {
		report.MarketEvent = "caravan_arrival"
	}

	result := Result{
		Kind:    "economy_update",
		Effects: map[string]bool{"marketEvent": report.MarketEvent != ""},
		NewTime: snap.Time,
		Economy: &report,
	}
	s.record(result)
	return result
}

func currentWeather(conditions map[string]bool) string {
	for _, condition := range weatherStates {
		if conditions[condition] {
			return condition
		}
	}
	return WeatherClear
}

func adverseWeather(conditions map[string]bool) bool {
	return conditions[WeatherRain] || conditions[WeatherFog] || conditions[WeatherStorm]
}
