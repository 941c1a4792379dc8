// Package pipeline orchestrates the hybrid state transition flow: classify,
// gate on rules, snapshot, dispatch to simulation and/or the narrative
// generator, diff, validate, and log.
//
// A Manager owns one instance of every component and mutates its snapshots,
// metrics, and history in place. It is NOT safe for concurrent callers: two
// in-flight ProcessAction calls can interleave snapshot writes and corrupt
// diff and history ordering. Callers must keep at most one call in flight.
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/louisbranch/emberfall/internal/game/action"
	"github.com/louisbranch/emberfall/internal/game/classify"
	"github.com/louisbranch/emberfall/internal/game/consistency"
	"github.com/louisbranch/emberfall/internal/game/diff"
	"github.com/louisbranch/emberfall/internal/game/encode"
	"github.com/louisbranch/emberfall/internal/game/rules"
	"github.com/louisbranch/emberfall/internal/game/simulate"
	"github.com/louisbranch/emberfall/internal/game/state"
	"github.com/louisbranch/emberfall/internal/narrative"
	"github.com/louisbranch/emberfall/internal/progression"
)

// historyCapacity bounds the transition log.
const historyCapacity = 20

// Hybrid outcome odds per sub-kind.
const (
	skillCheckOdds = 0.70
	combatOdds     = 0.60
)

// ErrorCategory marks results produced by the top-level failure boundary.
const ErrorCategory classify.Category = "error"

// Metrics are the manager's append-only counters.
type Metrics struct {
	Processed        uint64 `json:"processed"`
	Succeeded        uint64 `json:"succeeded"`
	Failed           uint64 `json:"failed"`
	ValidationErrors uint64 `json:"validation_errors"`
}

// Outcome carries whichever sub-results the dispatch produced.
type Outcome struct {
	Narrative  *narrative.Response          `json:"narrative,omitempty"`
	Simulation *simulate.Result             `json:"simulation,omitempty"`
	Mechanical *narrative.MechanicalOutcome `json:"mechanical,omitempty"`
}

// Result is the composite outcome of one ProcessAction call.
type Result struct {
	Success        bool                    `json:"success"`
	FailureReason  string                  `json:"failure_reason,omitempty"`
	Classification classify.Classification `json:"classification"`
	Outcome        Outcome                 `json:"outcome"`
	Diff           diff.Result             `json:"diff"`
	Report         consistency.Report      `json:"report"`
	Metrics        Metrics                 `json:"metrics"`
}

// Transition is one bounded-history entry.
type Transition struct {
	At             time.Time               `json:"at"`
	Action         action.Action           `json:"action"`
	Success        bool                    `json:"success"`
	Classification classify.Classification `json:"classification"`
	Diff           diff.Result             `json:"diff"`
	Metrics        Metrics                 `json:"metrics"`
}

// Options wires a Manager's collaborators. Every component is injected; the
// composition root decides concrete instances.
type Options struct {
	Classifier *classify.Classifier
	Registry   *rules.Registry
	Simulator  *simulate.Simulator
	Validator  *consistency.Validator
	Generator  narrative.Generator
	Profile    PlayerProfile
	RNG        *rand.Rand
	Initial    state.Snapshot
	Now        func() time.Time
}

// Manager is the hybrid state manager. See the package comment for the
// concurrency contract.
type Manager struct {
	classifier *classify.Classifier
	registry   *rules.Registry
	simulator  *simulate.Simulator
	validator  *consistency.Validator
	generator  narrative.Generator
	profile    PlayerProfile
	rng        *rand.Rand
	now        func() time.Time
	tracer     trace.Tracer

	current  state.Snapshot
	previous state.Snapshot
	lastDiff diff.Result
	history  []Transition
	metrics  Metrics
}

// New builds a manager around the injected components.
func New(opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		classifier: opts.Classifier,
		registry:   opts.Registry,
		simulator:  opts.Simulator,
		validator:  opts.Validator,
		generator:  opts.Generator,
		profile:    opts.Profile,
		rng:        opts.RNG,
		now:        now,
		tracer:     otel.Tracer("emberfall/pipeline"),
		current:    opts.Initial.Clone(),
		previous:   opts.Initial.Clone(),
	}
}

// ProcessAction is the single entry point: it runs the full transition
// pipeline for one action. Unexpected failures never propagate; they are
// converted to a generic failure result with the error category. Counters
// updated before a failure stay updated.
func (m *Manager) ProcessAction(ctx context.Context, act action.Action, storyContext string) (result Result) {
	ctx, span := m.tracer.Start(ctx, "pipeline.process_action",
		trace.WithAttributes(attribute.String("action.kind", string(act.Kind))))
	defer span.End()

	defer func() {
		if recovered := recover(); recovered != nil {
			result = Result{
				Success:        false,
				FailureReason:  fmt.Sprintf("pipeline failure: %v", recovered),
				Classification: classify.Classification{Category: ErrorCategory},
				Metrics:        m.metrics,
			}
		}
	}()

	m.metrics.Processed++

	classification := m.classifier.Classify(act, m.current)
	span.SetAttributes(attribute.String("classification", string(classification.Category)))

	if !m.registry.ValidateAction(act, m.current) {
		return m.failure("action rejected by rule registry", classification)
	}

	previous := m.current.Clone()

	var outcome Outcome
	var dispatchErr error
	switch classification.Category {
	case classify.ActionDriven:
		outcome, dispatchErr = m.dispatchNarrative(ctx, act, storyContext, nil)
	case classify.EnvironmentDriven:
		outcome = m.dispatchSimulation(act)
	case classify.Hybrid:
		mechanical := m.resolveMechanical(act)
		outcome, dispatchErr = m.dispatchNarrative(ctx, act, storyContext, &mechanical)
		if dispatchErr == nil {
			m.applyMechanical(mechanical)
			outcome.Mechanical = &mechanical
		}
	default:
		return m.failure(fmt.Sprintf("unknown classification for %s", act.Kind), classification)
	}
	if dispatchErr != nil {
		return m.failure(dispatchErr.Error(), classification)
	}

	m.previous = previous
	transitionDiff := diff.Diff(previous, m.current)
	m.lastDiff = transitionDiff

	report := m.validator.Validate(m.current)
	if !report.Overall {
		m.metrics.ValidationErrors++
	}

	m.metrics.Succeeded++
	result = Result{
		Success:        true,
		Classification: classification,
		Outcome:        outcome,
		Diff:           transitionDiff,
		Report:         report,
		Metrics:        m.metrics,
	}
	m.appendHistory(Transition{
		At:             m.now(),
		Action:         act,
		Success:        true,
		Classification: classification,
		Diff:           transitionDiff,
		Metrics:        m.metrics,
	})
	return result
}

func (m *Manager) failure(reason string, classification classify.Classification) Result {
	m.metrics.Failed++
	result := Result{
		FailureReason:  reason,
		Classification: classification,
		Metrics:        m.metrics,
	}
	m.appendHistory(Transition{
		At:             m.now(),
		Classification: classification,
		Metrics:        m.metrics,
	})
	return result
}

// dispatchNarrative assembles the generator request and applies the narrow
// slice of mechanical effects the pipeline owns: currency and current-skill
// experience. Health and resource application is deferred to the external
// game-mechanics collaborator.
func (m *Manager) dispatchNarrative(ctx context.Context, act action.Action, storyContext string, mechanical *narrative.MechanicalOutcome) (Outcome, error) {
	ctx, span := m.tracer.Start(ctx, "pipeline.narrative_call")
	defer span.End()

	request := narrative.Request{
		Action:          act,
		EncodedState:    encode.ForNarrative(m.current),
		Rules:           m.registry.ExportForNarrative(),
		CharacterTraits: m.characterTraits(),
		StoryContext:    storyContext,
		Outcome:         mechanical,
	}

	response, err := m.generator.Generate(ctx, request)
	if err != nil {
		return Outcome{}, fmt.Errorf("narrative generation: %w", err)
	}

	m.applyNarrativeEffects(response)
	return Outcome{Narrative: &response}, nil
}

// applyNarrativeEffects trusts the generator's declared state changes for
// currency and current-skill experience only.
func (m *Manager) applyNarrativeEffects(response narrative.Response) {
	if delta, ok := response.StateChanges["coins"]; ok {
		coins := m.current.Coins + int(delta)
		if coins < 0 {
			coins = 0
		}
		m.current.Coins = coins
		if m.profile != nil {
			m.profile.SetCurrency(coins)
		}
	}
	if gained, ok := response.StateChanges["experience"]; ok && m.profile != nil {
		skill := m.profile.CurrentSkill()
		if entry, found := m.profile.Skill(skill); found {
			multiplier := 1.0
			if rule, known := m.registry.Location(m.current.Location); known {
				multiplier = rule.ExperienceMultiplier
			}
			award := progression.ExperienceGain(int(gained), multiplier, false)
			m.profile.SetSkillExperience(skill, entry.Experience+award)
		}
	}
}

// dispatchSimulation routes an environment action to the matching simulator
// projection and applies the deltas that have an apply hook. World-event and
// economy results are reported but not applied; their application belongs to
// the external game-mechanics collaborator.
func (m *Manager) dispatchSimulation(act action.Action) Outcome {
	var result simulate.Result
	switch act.Kind {
	case action.KindTimePassage:
		result = m.simulator.SimulateTimePassage(m.current, act.Duration)
		m.applyTimePassage(result)
	case action.KindWeatherChange:
		result = m.simulator.SimulateWeather(m.current)
		m.applyWeather(result)
	case action.KindNPCBehavior:
		result = m.simulator.SimulateNPCBehavior(m.current)
		m.applyNPC(result)
	case action.KindWorldEvent:
		result = m.simulator.SimulateWorldEvents(m.current)
	case action.KindEconomyUpdate:
		result = m.simulator.SimulateEconomy(m.current)
	default:
		// Unknown environment kinds are a no-op success.
		result = simulate.Result{Kind: string(act.Kind), NewTime: m.current.Time}
	}
	return Outcome{Simulation: &result}
}

func (m *Manager) applyTimePassage(result simulate.Result) {
	m.current.Time = result.NewTime
	m.current.Age = result.NewAge
	m.current.Health = state.ClampHealth(m.current.Health + result.HealthChange)
	m.current.Reputation = state.ClampReputation(m.current.Reputation + result.ReputationChange)
	for skill, lost := range result.SkillDecay {
		level := m.current.Skills[skill] - lost
		if level < 0 {
			level = 0
		}
		m.current.Skills[skill] = level
	}
	if m.profile != nil {
		m.profile.SetElapsedTime(result.NewTime)
	}
}

func (m *Manager) applyWeather(result simulate.Result) {
	if result.Weather == nil {
		return
	}
	for _, condition := range []string{
		simulate.WeatherClear, simulate.WeatherRain, simulate.WeatherFog, simulate.WeatherStorm,
	} {
		delete(m.current.Conditions, condition)
	}
	m.current.Conditions[result.Weather.Condition] = true
	m.current.Conditions["movement_impaired"] = result.Weather.MovementImpaired
	m.current.Health = state.ClampHealth(m.current.Health + result.HealthChange)
}

func (m *Manager) applyNPC(result simulate.Result) {
	if result.NPC == nil {
		return
	}
	m.current.Conditions["guards_patrolling"] = result.NPC.GuardsPatrolling
	m.current.Conditions["merchants_available"] = result.NPC.MerchantsAvailable
}

// resolveMechanical computes the deterministic outcome for a hybrid action
// before narration.
func (m *Manager) resolveMechanical(act action.Action) narrative.MechanicalOutcome {
	switch act.Kind {
	case action.KindSkillCheck:
		if m.rng.Float64() < skillCheckOdds {
			return narrative.MechanicalOutcome{Success: true, Detail: "skill check passed"}
		}
		return narrative.MechanicalOutcome{Success: false, Detail: "skill check failed"}
	case action.KindCombatEncounter:
		if m.rng.Float64() < combatOdds {
			return narrative.MechanicalOutcome{
				Success:     true,
				HealthDelta: -5,
				CoinsDelta:  15,
				Detail:      "enemy defeated",
			}
		}
		return narrative.MechanicalOutcome{
			Success:     false,
			HealthDelta: -20,
			Detail:      "forced to retreat",
		}
	default:
		return narrative.MechanicalOutcome{Success: true}
	}
}

func (m *Manager) applyMechanical(outcome narrative.MechanicalOutcome) {
	m.current.Health = state.ClampHealth(m.current.Health + outcome.HealthDelta)
	m.current.Mana = state.ClampMana(m.current.Mana + outcome.ManaDelta)
	coins := m.current.Coins + outcome.CoinsDelta
	if coins < 0 {
		coins = 0
	}
	m.current.Coins = coins
	if m.profile != nil {
		m.profile.SetCurrency(coins)
	}
}

// characterTraits derives the fixed narrative-facing projection of the
// player profile.
func (m *Manager) characterTraits() map[string]string {
	traits := map[string]string{}
	if m.profile == nil {
		return traits
	}
	switch alignment := m.profile.Alignment(); {
	case alignment > 30:
		traits["disposition"] = "virtuous"
	case alignment < -30:
		traits["disposition"] = "ruthless"
	default:
		traits["disposition"] = "pragmatic"
	}
	traits["focus"] = m.profile.CurrentSkill()
	switch coins := m.profile.Currency(); {
	case coins > 1000:
		traits["wealth"] = "wealthy"
	case coins < 50:
		traits["wealth"] = "destitute"
	default:
		traits["wealth"] = "comfortable"
	}
	return traits
}

func (m *Manager) appendHistory(entry Transition) {
	m.history = append(m.history, entry)
	if len(m.history) > historyCapacity {
		m.history = m.history[len(m.history)-historyCapacity:]
	}
}
