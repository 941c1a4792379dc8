package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/emberfall/internal/game/action"
	"github.com/louisbranch/emberfall/internal/game/encode"
	"github.com/louisbranch/emberfall/internal/game/pipeline"
	"github.com/louisbranch/emberfall/internal/game/rules"
)

// Session serializes access to the pipeline manager. The manager allows only
// one in-flight call, so every handler takes the session lock.
type Session struct {
	mu      sync.Mutex
	manager *pipeline.Manager
}

// NewSession wraps a manager for MCP handlers.
func NewSession(manager *pipeline.Manager) *Session {
	return &Session{manager: manager}
}

// ProcessActionInput represents the MCP tool input for one transition.
type ProcessActionInput struct {
	Kind               string          `json:"kind" jsonschema:"action kind, e.g. combat or time_passage"`
	Name               string          `json:"name,omitempty" jsonschema:"specific action name, e.g. attack or lockpick"`
	PlayerChoice       bool            `json:"player_choice,omitempty" jsonschema:"whether the player chose this action"`
	Automatic          bool            `json:"automatic,omitempty" jsonschema:"whether the environment triggered this action"`
	Duration           int64           `json:"duration,omitempty" jsonschema:"duration in minutes for time passage"`
	SkillRequired      string          `json:"skill_required,omitempty" jsonschema:"skill gating this action"`
	MinimumLevel       int             `json:"minimum_level,omitempty" jsonschema:"minimum skill level required"`
	TimeRequired       int64           `json:"time_required,omitempty" jsonschema:"minimum elapsed game time required"`
	ReputationRequired int             `json:"reputation_required,omitempty" jsonschema:"minimum reputation required"`
	StoryContext       string          `json:"story_context,omitempty" jsonschema:"recent narrative context for the generator"`
	Payload            json.RawMessage `json:"payload,omitempty" jsonschema:"kind-specific payload, e.g. weapon or spell details"`
}

// ProcessActionResult represents the MCP tool output for one transition.
type ProcessActionResult struct {
	Success       bool               `json:"success" jsonschema:"whether the transition applied"`
	FailureReason string             `json:"failure_reason,omitempty" jsonschema:"why the transition was rejected"`
	Category      string             `json:"category" jsonschema:"classification category"`
	Confidence    float64            `json:"confidence" jsonschema:"classification confidence"`
	Narrative     string             `json:"narrative,omitempty" jsonschema:"generated prose, if any"`
	Choices       []string           `json:"choices,omitempty" jsonschema:"follow-up choices offered to the player"`
	Effects       []string           `json:"effects,omitempty" jsonschema:"simulation effect labels, if any"`
	StateChanges  map[string]float64 `json:"state_changes,omitempty" jsonschema:"narrative-declared state deltas"`
}

// CheckActionInput represents the MCP tool input for a dry-run check.
type CheckActionInput = ProcessActionInput

// CheckActionResult represents the MCP tool output for a dry-run check.
type CheckActionResult struct {
	Allowed bool `json:"allowed" jsonschema:"whether the action would pass all gates"`
	RulesOK bool `json:"rules_ok" jsonschema:"whether the rule registry allows the action"`
	StateOK bool `json:"state_ok" jsonschema:"whether the current state satisfies the action's requirements"`
}

// SystemReportInput represents the (empty) MCP tool input for a report.
type SystemReportInput struct{}

// RulesExportInput represents the (empty) MCP tool input for a rules export.
type RulesExportInput struct{}

// StateGetInput represents the (empty) MCP tool input for the encoded state.
type StateGetInput struct{}

// ProcessActionTool defines the MCP tool schema for running a transition.
func ProcessActionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "process_action",
		Description: "Runs one action through the hybrid transition pipeline",
	}
}

// CheckActionTool defines the MCP tool schema for a dry-run action check.
func CheckActionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "check_action",
		Description: "Checks whether an action would pass rule and state gates",
	}
}

// SystemReportTool defines the MCP tool schema for the system report.
func SystemReportTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "system_report",
		Description: "Reports pipeline metrics and component health",
	}
}

// RulesExportTool defines the MCP tool schema for exporting game rules.
func RulesExportTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "rules_export",
		Description: "Exports the full rule tables with narrative guidance",
	}
}

// StateGetTool defines the MCP tool schema for reading the encoded state.
func StateGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "state_get",
		Description: "Returns the current encoded game state with its schema",
	}
}

func actionFromInput(input ProcessActionInput) (action.Action, error) {
	kind := strings.TrimSpace(input.Kind)
	if kind == "" {
		return action.Action{}, fmt.Errorf("action kind is required")
	}
	return action.Action{
		Kind:               action.Kind(kind),
		Name:               strings.TrimSpace(input.Name),
		PlayerChoice:       input.PlayerChoice,
		Automatic:          input.Automatic,
		Duration:           input.Duration,
		SkillRequired:      strings.TrimSpace(input.SkillRequired),
		MinimumLevel:       input.MinimumLevel,
		TimeRequired:       input.TimeRequired,
		ReputationRequired: input.ReputationRequired,
		PayloadJSON:        input.Payload,
	}, nil
}

// effectLabels flattens the active effect flags into a sorted label list.
func effectLabels(effects map[string]bool) []string {
	if len(effects) == 0 {
		return nil
	}
	labels := make([]string, 0, len(effects))
	for name, active := range effects {
		if active {
			labels = append(labels, name)
		}
	}
	sort.Strings(labels)
	return labels
}

// ProcessActionHandler executes one transition through the pipeline.
func ProcessActionHandler(session *Session) mcp.ToolHandlerFor[ProcessActionInput, ProcessActionResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ProcessActionInput) (*mcp.CallToolResult, ProcessActionResult, error) {
		act, err := actionFromInput(input)
		if err != nil {
			return nil, ProcessActionResult{}, err
		}

		session.mu.Lock()
		result := session.manager.ProcessAction(ctx, act, input.StoryContext)
		session.mu.Unlock()

		out := ProcessActionResult{
			Success:       result.Success,
			FailureReason: result.FailureReason,
			Category:      string(result.Classification.Category),
			Confidence:    result.Classification.Confidence,
		}
		if narrative := result.Outcome.Narrative; narrative != nil {
			out.Narrative = narrative.Narrative
			out.Choices = narrative.Choices
			out.StateChanges = narrative.StateChanges
		}
		if simulation := result.Outcome.Simulation; simulation != nil {
			out.Effects = effectLabels(simulation.Effects)
		}
		return nil, out, nil
	}
}

// CheckActionHandler runs the gating checks without mutating state.
func CheckActionHandler(session *Session) mcp.ToolHandlerFor[CheckActionInput, CheckActionResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input CheckActionInput) (*mcp.CallToolResult, CheckActionResult, error) {
		act, err := actionFromInput(input)
		if err != nil {
			return nil, CheckActionResult{}, err
		}

		session.mu.Lock()
		rulesOK, stateOK := session.manager.CheckAction(act)
		session.mu.Unlock()

		return nil, CheckActionResult{
			Allowed: rulesOK && stateOK,
			RulesOK: rulesOK,
			StateOK: stateOK,
		}, nil
	}
}

// SystemReportHandler returns the aggregated pipeline report.
func SystemReportHandler(session *Session) mcp.ToolHandlerFor[SystemReportInput, pipeline.SystemReport] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ SystemReportInput) (*mcp.CallToolResult, pipeline.SystemReport, error) {
		session.mu.Lock()
		report := session.manager.Report()
		session.mu.Unlock()
		return nil, report, nil
	}
}

// RulesExportHandler returns the rule tables with guidance and examples.
func RulesExportHandler(session *Session) mcp.ToolHandlerFor[RulesExportInput, rules.Export] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ RulesExportInput) (*mcp.CallToolResult, rules.Export, error) {
		session.mu.Lock()
		export := session.manager.Rules().ExportForNarrative()
		session.mu.Unlock()
		return nil, export, nil
	}
}

// StateGetHandler returns the generator-facing encoding of the current state.
func StateGetHandler(session *Session) mcp.ToolHandlerFor[StateGetInput, encode.NarrativeState] {
	return func(_ context.Context, _ *mcp.CallToolRequest, _ StateGetInput) (*mcp.CallToolResult, encode.NarrativeState, error) {
		session.mu.Lock()
		narrativeState := session.manager.StateForNarrative()
		session.mu.Unlock()
		return nil, narrativeState, nil
	}
}
