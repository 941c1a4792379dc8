// Package narrative defines the contract with the external narrative
// generator.
//
// The generator is an opaque, non-deterministic collaborator: the pipeline
// hands it mechanical context and trusts the prose that comes back, then
// validates the prose for consistency. Transport, authorization, and prompt
// wording live in adapter subpackages.
package narrative

import (
	"context"
	"fmt"

	"github.com/louisbranch/emberfall/internal/game/action"
	"github.com/louisbranch/emberfall/internal/game/encode"
	"github.com/louisbranch/emberfall/internal/game/rules"
)

// MechanicalOutcome is a deterministic result computed before narration, so
// hybrid actions can be narrated without contradicting mechanics.
type MechanicalOutcome struct {
	Success     bool   `json:"success"`
	HealthDelta int    `json:"health_delta"`
	ManaDelta   int    `json:"mana_delta"`
	CoinsDelta  int    `json:"coins_delta"`
	Detail      string `json:"detail,omitempty"`
}

// Request carries everything the generator may consult.
type Request struct {
	Action          action.Action          `json:"action"`
	EncodedState    encode.NarrativeState  `json:"encoded_state"`
	Rules           rules.Export           `json:"rules"`
	CharacterTraits map[string]string      `json:"character_traits,omitempty"`
	StoryContext    string                 `json:"story_context,omitempty"`
	Outcome         *MechanicalOutcome     `json:"outcome,omitempty"`
}

// Response is the generator's verdict: prose, follow-up choices, proposed
// state changes, and the generator's own confidence.
type Response struct {
	Narrative    string             `json:"narrative"`
	Choices      []string           `json:"choices,omitempty"`
	StateChanges map[string]float64 `json:"state_changes,omitempty"`
	Confidence   float64            `json:"confidence"`
}

// Generator produces narrative for one action. Implementations may block
// indefinitely; callers bound the call through ctx.
type Generator interface {
	Generate(ctx context.Context, req Request) (Response, error)
}

// StaticGenerator is a deterministic in-process generator for offline play
// and tests. It renders a short formulaic narration from the request.
type StaticGenerator struct{}

// Generate implements Generator without external calls.
func (StaticGenerator) Generate(_ context.Context, req Request) (Response, error) {
	location := req.EncodedState.State.World.Location
	prose := fmt.Sprintf("In %s, the %s unfolds quietly.", location, req.Action.Kind)
	if req.Outcome != nil {
		if req.Outcome.Success {
			prose = fmt.Sprintf("In %s, the %s succeeds.", location, req.Action.Kind)
		} else {
			prose = fmt.Sprintf("In %s, the %s fails.", location, req.Action.Kind)
		}
	}
	return Response{
		Narrative:  prose,
		Choices:    []string{"continue"},
		Confidence: 1,
	}, nil
}
