package domain

import (
	"context"
	"math/rand"
	"testing"

	"github.com/louisbranch/emberfall/internal/game/classify"
	"github.com/louisbranch/emberfall/internal/game/consistency"
	"github.com/louisbranch/emberfall/internal/game/pipeline"
	"github.com/louisbranch/emberfall/internal/game/rules"
	"github.com/louisbranch/emberfall/internal/game/simulate"
	"github.com/louisbranch/emberfall/internal/game/state"
	"github.com/louisbranch/emberfall/internal/narrative"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	registry := rules.NewRegistry()
	manager := pipeline.New(pipeline.Options{
		Classifier: classify.New(),
		Registry:   registry,
		Simulator:  simulate.New(rand.New(rand.NewSource(11)), registry),
		Validator:  consistency.New(),
		Generator:  narrative.StaticGenerator{},
		Profile:    pipeline.NewMemoryProfile("swordsmanship"),
		RNG:        rand.New(rand.NewSource(11)),
		Initial:    state.New("village"),
	})
	return NewSession(manager)
}

func TestProcessActionHandler(t *testing.T) {
	session := newTestSession(t)
	handler := ProcessActionHandler(session)

	input := ProcessActionInput{
		Kind:         "dialogue",
		PlayerChoice: true,
		StoryContext: "at the gate",
	}
	_, out, err := handler(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !out.Success {
		t.Fatalf("unexpected failure: %s", out.FailureReason)
	}
	if out.Category != "action-driven" {
		t.Fatalf("category = %q", out.Category)
	}
	if out.Narrative == "" {
		t.Fatal("missing narrative")
	}
}

func TestProcessActionHandlerRequiresKind(t *testing.T) {
	session := newTestSession(t)
	handler := ProcessActionHandler(session)

	if _, _, err := handler(context.Background(), nil, ProcessActionInput{Kind: "  "}); err == nil {
		t.Fatal("expected error for blank kind")
	}
}

func TestProcessActionHandlerSimulationEffects(t *testing.T) {
	session := newTestSession(t)
	handler := ProcessActionHandler(session)

	input := ProcessActionInput{
		Kind:      "time_passage",
		Automatic: true,
		Duration:  720,
	}
	_, out, err := handler(context.Background(), nil, input)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !out.Success {
		t.Fatalf("unexpected failure: %s", out.FailureReason)
	}
	if out.Category != "environment-driven" {
		t.Fatalf("category = %q", out.Category)
	}
}

func TestCheckActionHandler(t *testing.T) {
	session := newTestSession(t)
	handler := CheckActionHandler(session)

	_, out, err := handler(context.Background(), nil, CheckActionInput{Kind: "dialogue"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if !out.Allowed || !out.RulesOK || !out.StateOK {
		t.Fatalf("check = %+v, want all true", out)
	}

	_, out, err = handler(context.Background(), nil, CheckActionInput{Kind: "combat", Name: "sword_attack"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if out.Allowed || out.RulesOK {
		t.Fatalf("weaponless combat = %+v, want rule rejection", out)
	}
}

func TestSystemReportHandler(t *testing.T) {
	session := newTestSession(t)

	process := ProcessActionHandler(session)
	if _, _, err := process(context.Background(), nil, ProcessActionInput{Kind: "dialogue", PlayerChoice: true}); err != nil {
		t.Fatalf("process: %v", err)
	}

	handler := SystemReportHandler(session)
	_, report, err := handler(context.Background(), nil, SystemReportInput{})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if report.Metrics.Processed != 1 || report.Metrics.Succeeded != 1 {
		t.Fatalf("metrics = %+v", report.Metrics)
	}
}

func TestRulesExportHandler(t *testing.T) {
	session := newTestSession(t)
	handler := RulesExportHandler(session)

	_, export, err := handler(context.Background(), nil, RulesExportInput{})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(export.Locations) == 0 {
		t.Fatal("expected location rules in export")
	}
}

func TestStateGetHandler(t *testing.T) {
	session := newTestSession(t)
	handler := StateGetHandler(session)

	_, encoded, err := handler(context.Background(), nil, StateGetInput{})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if encoded.State.World.Location != "village" {
		t.Fatalf("location = %q", encoded.State.World.Location)
	}
}
