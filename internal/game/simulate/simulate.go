// Package simulate computes deterministic and seeded-probabilistic
// projections of world state: time passage, weather, NPC behavior, world
// events, and the local economy.
//
// All randomness flows through the injected rand source, so any outcome is
// reproducible from a seed. Every simulation call is appended to a bounded
// history (oldest evicted first).
package simulate

import (
	"math"
	"math/rand"
	"time"

	"github.com/louisbranch/emberfall/internal/game/rules"
	"github.com/louisbranch/emberfall/internal/game/state"
)

// historyCapacity bounds the simulation call log.
const historyCapacity = 50

// minutesPerDay and minutesPerWeek convert world durations.
const (
	minutesPerDay  = 1440
	minutesPerWeek = 10080
)

// Usage classifies how actively a skill is exercised, which controls decay.
type Usage string

const (
	UsageLow    Usage = "low"
	UsageMedium Usage = "medium"
	UsageHigh   Usage = "high"
)

// Result is the outcome of one simulator call. It is produced once,
// returned, logged, and never mutated afterwards.
type Result struct {
	Kind             string
	Effects          map[string]bool
	HealthChange     int
	ManaChange       int
	ReputationChange int
	NewTime          int64
	NewAge           int
	SkillDecay       map[string]int
	NPC              *NPCReport
	Weather          *WeatherReport
	Event            *WorldEvent
	Economy          *EconomyReport
}

// Record is one entry in the bounded simulation history.
type Record struct {
	At     time.Time
	Kind   string
	Result Result
}

// Simulator projects world state. It is not safe for concurrent use; the
// pipeline serializes calls.
type Simulator struct {
	rng      *rand.Rand
	registry *rules.Registry
	usage    map[string]Usage
	history  []Record
	calls    uint64
	now      func() time.Time
}

// New returns a simulator drawing randomness from rng and location/time
// context from registry.
func New(rng *rand.Rand, registry *rules.Registry) *Simulator {
	return &Simulator{
		rng:      rng,
		registry: registry,
		usage:    map[string]Usage{},
		now:      time.Now,
	}
}

// SetSkillUsage records how actively a skill is used. Unlisted skills decay
// at the low-usage rate.
func (s *Simulator) SetSkillUsage(skill string, usage Usage) {
	s.usage[skill] = usage
}

// IsDaytime reports whether world minute t falls in the 06:00-18:00 window.
func IsDaytime(t int64) bool {
	hour := hourOf(t)
	return hour >= 6 && hour < 18
}

func hourOf(t int64) float64 {
	return float64(t%minutesPerDay) / 60
}

// isSafe reports whether the location has a zero danger level. Unknown
// locations are treated as unsafe.
func (s *Simulator) isSafe(location string) bool {
	rule, ok := s.registry.Location(location)
	return ok && rule.DangerLevel == 0
}

func (s *Simulator) isDangerous(location string) bool {
	rule, ok := s.registry.Location(location)
	return !ok || rule.DangerLevel >= 4
}

// SimulateTimePassage advances world time by duration minutes and computes
// aging, natural healing, skill decay, reputation drift, and the health
// effects of hunger, fatigue, shelter, and weather exposure.
func (s *Simulator) SimulateTimePassage(snap state.Snapshot, duration int64) Result {
	if duration < 0 {
		duration = 0
	}

	result := Result{
		Kind:       "time_passage",
		Effects:    map[string]bool{},
		NewTime:    snap.Time + duration,
		NewAge:     snap.Age + int(duration/minutesPerDay),
		SkillDecay: map[string]int{},
	}

	wasDay := IsDaytime(snap.Time)
	isDay := IsDaytime(result.NewTime)
	if wasDay != isDay {
		result.Effects["dayNightTransition"] = true
	}
	if !isDay {
		result.Effects["shopsClosed"] = true
	}

	decayRate := float64(duration) / minutesPerWeek
	for skill, level := range snap.Skills {
		var lost int
		switch s.usage[skill] {
		case UsageHigh:
			lost = 0
		case UsageMedium:
			lost = int(math.Floor(float64(level) * decayRate * 0.05))
		default:
			lost = int(math.Floor(float64(level) * decayRate * 0.10))
		}
		if lost > 0 {
			result.SkillDecay[skill] = lost
		}
	}

	safe := s.isSafe(snap.Location)
	reputationChange := -int(math.Floor(float64(snap.Reputation) * decayRate * 0.05))
	if safe {
		reputationChange += int(duration / minutesPerDay)
	}
	newReputation := state.ClampReputation(snap.Reputation + reputationChange)
	result.ReputationChange = newReputation - snap.Reputation

	healthChange := int(duration / 60) // natural healing
	healthChange -= int(math.Floor(0.5 * float64(duration) / 60))  // hunger
	healthChange -= int(math.Floor(0.3 * float64(duration) / 120)) // fatigue
	if safe {
		healthChange += int(duration / 60)
		result.Effects["sheltered"] = true
	} else if adverseWeather(snap.Conditions) {
		healthChange -= int(duration / 30)
		result.Effects["weatherExposure"] = true
	}
	newHealth := state.ClampHealth(snap.Health + healthChange)
	result.HealthChange = newHealth - snap.Health

	s.record(result)
	return result
}

// Validate rejects results whose deltas could not have come from a sane
// simulation: negative world time, or normalized delta checks falling
// outside 0..100. It fails closed.
func (s *Simulator) Validate(result Result) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()

	if result.NewTime < 0 {
		return false
	}
	if normalized := 100 + result.HealthChange; normalized < 0 || normalized > 100 {
		return false
	}
	if normalized := 50 + result.ReputationChange; normalized < 0 || normalized > 100 {
		return false
	}
	if normalized := 50 + result.ManaChange; normalized < 0 || normalized > 100 {
		return false
	}
	return true
}

// History returns a copy of the bounded simulation history.
func (s *Simulator) History() []Record {
	return append([]Record(nil), s.history...)
}

// Calls reports how many simulations have run.
func (s *Simulator) Calls() uint64 {
	return s.calls
}

// Report summarizes simulator activity for the system report.
type Report struct {
	Calls          uint64
	HistoryEntries int
	LastKind       string
}

// Summary returns the simulator's activity report.
func (s *Simulator) Summary() Report {
	report := Report{Calls: s.calls, HistoryEntries: len(s.history)}
	if len(s.history) > 0 {
		report.LastKind = s.history[len(s.history)-1].Kind
	}
	return report
}

func (s *Simulator) record(result Result) {
	s.calls++
	s.history = append(s.history, Record{At: s.now(), Kind: result.Kind, Result: result})
	if len(s.history) > historyCapacity {
		s.history = s.history[len(s.history)-historyCapacity:]
	}
}
