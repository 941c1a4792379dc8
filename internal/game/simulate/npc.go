package simulate

import "github.com/louisbranch/emberfall/internal/game/state"

// NPCReport describes guard and merchant behavior for the current tick.
type NPCReport struct {
	GuardsPatrolling   bool
	GuardDisposition   string // "hostile", "friendly", "neutral"
	Safety             string // "low", "medium", "high"
	MerchantsAvailable bool
	PricesDiscounted   bool
}

// Guard disposition thresholds. High reputation draws hostile attention;
// unknowns are treated kindly.
const (
	guardHostileAbove  = 70
	guardFriendlyBelow = 30
	merchantDiscount   = 60
)

// SimulateNPCBehavior projects guard patrols, dispositions, and merchant
// availability from location, time of day, and reputation.
func (s *Simulator) SimulateNPCBehavior(snap state.Snapshot) Result {
	report := NPCReport{
		GuardDisposition: "neutral",
		Safety:           "medium",
	}

	day := IsDaytime(snap.Time)
	safe := s.isSafe(snap.Location)

	if !day && safe {
		report.GuardsPatrolling = true
		report.Safety = "high"
	}

	switch {
	case snap.Reputation > guardHostileAbove:
		report.GuardDisposition = "hostile"
		report.Safety = "low"
	case snap.Reputation < guardFriendlyBelow:
		report.GuardDisposition = "friendly"
		report.Safety = "high"
	}

	report.MerchantsAvailable = safe && day
	report.PricesDiscounted = report.MerchantsAvailable && snap.Reputation > merchantDiscount

	result := Result{
		Kind:    "npc_behavior",
		Effects: map[string]bool{"merchantsAvailable": report.MerchantsAvailable},
		NewTime: snap.Time,
		NPC:     &report,
	}
	s.record(result)
	return result
}
