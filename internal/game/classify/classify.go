// Package classify decides how a proposed action should be processed:
// deterministically, narratively, or both.
package classify

import (
	"fmt"

	"github.com/louisbranch/emberfall/internal/game/action"
	"github.com/louisbranch/emberfall/internal/game/state"
)

// Category is the classifier's verdict on an action.
type Category string

const (
	// ActionDriven actions resolve through the narrative generator only.
	ActionDriven Category = "action-driven"
	// EnvironmentDriven actions resolve through deterministic simulation only.
	EnvironmentDriven Category = "environment-driven"
	// Hybrid actions need a deterministic outcome and a narrative rendering.
	Hybrid Category = "hybrid"
	// Unknown actions match no processing route. No fallback policy exists;
	// callers must treat unknown as a hard failure.
	Unknown Category = "unknown"
)

// Confidence levels reported per decision branch.
const (
	confidencePrimary = 0.9
	confidenceHybrid  = 0.8
)

// Classification reports the processing route for one action.
type Classification struct {
	Category           Category
	RequiresNarrative  bool
	RequiresSimulation bool
	Description        string
	Confidence         float64
}

// Classifier routes actions. It keeps a running count per resulting
// category; counts never reset automatically.
type Classifier struct {
	counts map[Category]uint64
}

// New returns a classifier with zeroed counters.
func New() *Classifier {
	return &Classifier{counts: map[Category]uint64{}}
}

// Classify categorizes a single action against current state.
//
// Decision order: explicit player choice first, then automatic environment
// changes, then hybrid actions, then unknown.
func (c *Classifier) Classify(act action.Action, snap state.Snapshot) Classification {
	result := c.decide(act, snap)
	c.counts[result.Category]++
	return result
}

// ClassifyComplex classifies each sub-step independently and reduces:
// all action-driven stays action-driven, all environment-driven stays
// environment-driven, any mix becomes hybrid.
func (c *Classifier) ClassifyComplex(steps []action.Action, snap state.Snapshot) Classification {
	if len(steps) == 0 {
		result := Classification{
			Category:    Unknown,
			Description: "composite action with no steps",
		}
		c.counts[result.Category]++
		return result
	}

	allAction := true
	allEnvironment := true
	minConfidence := 1.0
	for _, step := range steps {
		sub := c.Classify(step, snap)
		if sub.Category != ActionDriven {
			allAction = false
		}
		if sub.Category != EnvironmentDriven {
			allEnvironment = false
		}
		if sub.Confidence < minConfidence {
			minConfidence = sub.Confidence
		}
	}

	result := Classification{
		Category:           Hybrid,
		RequiresNarrative:  true,
		RequiresSimulation: true,
		Description:        fmt.Sprintf("composite of %d mixed steps", len(steps)),
		Confidence:         minConfidence,
	}
	switch {
	case allAction:
		result.Category = ActionDriven
		result.RequiresSimulation = false
		result.Description = fmt.Sprintf("composite of %d player steps", len(steps))
	case allEnvironment:
		result.Category = EnvironmentDriven
		result.RequiresNarrative = false
		result.Description = fmt.Sprintf("composite of %d environment steps", len(steps))
	}
	c.counts[result.Category]++
	return result
}

// Counts returns a copy of the running per-category counters.
func (c *Classifier) Counts() map[Category]uint64 {
	out := make(map[Category]uint64, len(c.counts))
	for category, count := range c.counts {
		out[category] = count
	}
	return out
}

func (c *Classifier) decide(act action.Action, _ state.Snapshot) Classification {
	switch {
	case action.IsPlayerKind(act.Kind) && act.PlayerChoice:
		return Classification{
			Category:          ActionDriven,
			RequiresNarrative: true,
			Description:       fmt.Sprintf("player chose %s", act.Kind),
			Confidence:        confidencePrimary,
		}
	case action.IsEnvironmentKind(act.Kind) && act.Automatic:
		return Classification{
			Category:           EnvironmentDriven,
			RequiresSimulation: true,
			Description:        fmt.Sprintf("automatic %s", act.Kind),
			Confidence:         confidencePrimary,
		}
	case action.IsHybridKind(act.Kind) && (act.PlayerChoice || act.SkillRequired != ""):
		return Classification{
			Category:           Hybrid,
			RequiresNarrative:  true,
			RequiresSimulation: true,
			Description:        fmt.Sprintf("%s needs mechanics and narrative", act.Kind),
			Confidence:         confidenceHybrid,
		}
	default:
		return Classification{
			Category:    Unknown,
			Description: fmt.Sprintf("no route for %s", act.Kind),
		}
	}
}
