// Package diff computes, applies, merges, and summarizes property-level
// differences between two snapshots.
package diff

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/louisbranch/emberfall/internal/game/state"
)

var (
	// ErrChangeMissingEndpoints indicates a change without both endpoints.
	ErrChangeMissingEndpoints = errors.New("change must carry from and to")
)

// Change records one property moving between two values. Delta is set for
// numeric properties only.
type Change struct {
	From  any      `json:"from"`
	To    any      `json:"to"`
	Delta *float64 `json:"delta,omitempty"`
}

// ChangeSet groups scalar, skill, and inventory-delta changes. The
// inventory map holds signed quantity deltas and is only populated by
// external producers (the modifications bucket).
type ChangeSet struct {
	Scalars   map[string]Change `json:"scalars,omitempty"`
	Skills    map[string]Change `json:"skills,omitempty"`
	Inventory map[string]int    `json:"inventory,omitempty"`
}

// ItemSet records per-item quantity movement for additions or removals.
type ItemSet struct {
	Inventory map[string]int `json:"inventory,omitempty"`
}

// Result is the full difference between two snapshots.
//
// The Modifications bucket is never populated by Diff itself; it exists for
// diffs assembled by other producers (narrative effects, scripted events)
// and is honored by Apply and Merge.
type Result struct {
	Changes       ChangeSet `json:"changes"`
	Additions     ItemSet   `json:"additions"`
	Removals      ItemSet   `json:"removals"`
	Modifications ChangeSet `json:"modifications"`
}

// Metrics summarizes a diff's shape and complexity.
type Metrics struct {
	Changes       int    `json:"changes"`
	Additions     int    `json:"additions"`
	Removals      int    `json:"removals"`
	Modifications int    `json:"modifications"`
	Complexity    string `json:"complexity"` // "low", "medium", "high"
}

// Diff computes the property-level differences between prev and curr.
func Diff(prev, curr state.Snapshot) Result {
	result := Result{}

	scalars := map[string]Change{}
	addScalar(scalars, "health", prev.Health, curr.Health)
	addScalar(scalars, "mana", prev.Mana, curr.Mana)
	addScalar(scalars, "coins", prev.Coins, curr.Coins)
	addScalar(scalars, "reputation", prev.Reputation, curr.Reputation)
	if prev.Time != curr.Time {
		delta := float64(curr.Time - prev.Time)
		scalars["time"] = Change{From: prev.Time, To: curr.Time, Delta: &delta}
	}
	if prev.Location != curr.Location {
		scalars["location"] = Change{From: prev.Location, To: curr.Location}
	}
	if len(scalars) > 0 {
		result.Changes.Scalars = scalars
	}

	skills := map[string]Change{}
	for _, name := range unionKeysInt(prev.Skills, curr.Skills) {
		before := prev.Skills[name]
		after := curr.Skills[name]
		if before != after {
			delta := float64(after - before)
			skills[name] = Change{From: before, To: after, Delta: &delta}
		}
	}
	if len(skills) > 0 {
		result.Changes.Skills = skills
	}

	additions := map[string]int{}
	removals := map[string]int{}
	for _, item := range unionKeysInt(prev.Inventory, curr.Inventory) {
		before := prev.Inventory[item]
		after := curr.Inventory[item]
		switch {
		case after > before:
			additions[item] = after - before
		case after < before:
			removals[item] = before - after
		}
	}
	if len(additions) > 0 {
		result.Additions.Inventory = additions
	}
	if len(removals) > 0 {
		result.Removals.Inventory = removals
	}

	return result
}

// Apply overlays a diff onto a snapshot: scalar overrides first, then skill
// changes from both the changes and modifications buckets, then inventory
// additions as increases and inventory modifications as signed deltas.
func Apply(snap state.Snapshot, result Result) state.Snapshot {
	out := snap.Clone()

	for name, change := range result.Changes.Scalars {
		applyScalar(&out, name, change.To)
	}
	for name, change := range result.Changes.Skills {
		if level, ok := toInt(change.To); ok {
			out.Skills[name] = level
		}
	}
	for name, change := range result.Modifications.Skills {
		if level, ok := toInt(change.To); ok {
			out.Skills[name] = level
		}
	}
	for item, qty := range result.Additions.Inventory {
		out.Inventory[item] += qty
	}
	for item, delta := range result.Modifications.Inventory {
		out.Inventory[item] += delta
	}

	return out
}

// Validate structurally checks a diff: every change must carry both
// endpoints, and a present delta must be numeric (guaranteed by type here,
// so only endpoints are checked).
func Validate(result Result) error {
	for _, bucket := range []map[string]Change{
		result.Changes.Scalars,
		result.Changes.Skills,
		result.Modifications.Scalars,
		result.Modifications.Skills,
	} {
		for name, change := range bucket {
			if change.From == nil || change.To == nil {
				return fmt.Errorf("%w: %s", ErrChangeMissingEndpoints, name)
			}
		}
	}
	return nil
}

// Measure counts bucket sizes and grades complexity.
func Measure(result Result) Metrics {
	metrics := Metrics{
		Changes:       len(result.Changes.Scalars) + len(result.Changes.Skills),
		Additions:     len(result.Additions.Inventory),
		Removals:      len(result.Removals.Inventory),
		Modifications: len(result.Modifications.Scalars) + len(result.Modifications.Skills) + len(result.Modifications.Inventory),
	}
	switch {
	case metrics.Changes > 5 || metrics.Additions > 3 || metrics.Modifications > 3:
		metrics.Complexity = "high"
	case metrics.Changes > 2 || metrics.Additions > 1 || metrics.Modifications > 1:
		metrics.Complexity = "medium"
	default:
		metrics.Complexity = "low"
	}
	return metrics
}

// Merge folds diffs left to right with a right-biased shallow merge: later
// diffs overwrite earlier ones for colliding keys in every bucket.
func Merge(results []Result) Result {
	merged := Result{}
	for _, result := range results {
		merged.Changes.Scalars = mergeChanges(merged.Changes.Scalars, result.Changes.Scalars)
		merged.Changes.Skills = mergeChanges(merged.Changes.Skills, result.Changes.Skills)
		merged.Changes.Inventory = mergeInts(merged.Changes.Inventory, result.Changes.Inventory)
		merged.Additions.Inventory = mergeInts(merged.Additions.Inventory, result.Additions.Inventory)
		merged.Removals.Inventory = mergeInts(merged.Removals.Inventory, result.Removals.Inventory)
		merged.Modifications.Scalars = mergeChanges(merged.Modifications.Scalars, result.Modifications.Scalars)
		merged.Modifications.Skills = mergeChanges(merged.Modifications.Skills, result.Modifications.Skills)
		merged.Modifications.Inventory = mergeInts(merged.Modifications.Inventory, result.Modifications.Inventory)
	}
	return merged
}

func addScalar(bucket map[string]Change, name string, before, after int) {
	if before == after {
		return
	}
	delta := float64(after - before)
	bucket[name] = Change{From: before, To: after, Delta: &delta}
}

func applyScalar(snap *state.Snapshot, name string, to any) {
	switch name {
	case "health":
		if value, ok := toInt(to); ok {
			snap.Health = value
		}
	case "mana":
		if value, ok := toInt(to); ok {
			snap.Mana = value
		}
	case "coins":
		if value, ok := toInt(to); ok {
			snap.Coins = value
		}
	case "reputation":
		if value, ok := toInt(to); ok {
			snap.Reputation = value
		}
	case "time":
		if value, ok := toInt64(to); ok {
			snap.Time = value
		}
	case "location":
		if value, ok := to.(string); ok {
			snap.Location = value
		}
	}
}

func toInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	}
	return 0, false
}

func mergeChanges(dst, src map[string]Change) map[string]Change {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = map[string]Change{}
	}
	for name, change := range src {
		dst[name] = change
	}
	return dst
}

func mergeInts(dst, src map[string]int) map[string]int {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = map[string]int{}
	}
	for name, value := range src {
		dst[name] = value
	}
	return dst
}

func unionKeysInt(a, b map[string]int) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for key := range a {
		seen[key] = struct{}{}
	}
	for key := range b {
		seen[key] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for key := range seen {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Summary bundles the diff with a human-readable clause list for the
// narrative generator.
type Summary struct {
	Summary       string    `json:"summary"`
	Changes       ChangeSet `json:"changes"`
	Additions     ItemSet   `json:"additions"`
	Removals      ItemSet   `json:"removals"`
	Modifications ChangeSet `json:"modifications"`
	Instructions  string    `json:"instructions"`
}

const summaryInstructions = `Weave these mechanical changes into the story.
Mention what the character would notice; never contradict the numbers.`

const noChanges = "no significant changes"

// ForNarrative builds a clause-per-change summary, comma-joined, for the
// narrative generator.
func ForNarrative(result Result) Summary {
	var clauses []string

	if change, ok := result.Changes.Scalars["health"]; ok && change.Delta != nil {
		if *change.Delta < 0 {
			clauses = append(clauses, fmt.Sprintf("health fell by %d", int(-*change.Delta)))
		} else {
			clauses = append(clauses, fmt.Sprintf("health rose by %d", int(*change.Delta)))
		}
	}
	if change, ok := result.Changes.Scalars["location"]; ok {
		clauses = append(clauses, fmt.Sprintf("moved from %v to %v", change.From, change.To))
	}
	for _, name := range sortedChangeKeys(result.Changes.Skills) {
		change := result.Changes.Skills[name]
		if change.Delta != nil && *change.Delta > 0 {
			clauses = append(clauses, fmt.Sprintf("%s improved by %d", name, int(*change.Delta)))
		} else if change.Delta != nil {
			clauses = append(clauses, fmt.Sprintf("%s weakened by %d", name, int(-*change.Delta)))
		}
	}
	for _, item := range sortedIntKeys(result.Additions.Inventory) {
		clauses = append(clauses, fmt.Sprintf("gained %d %s", result.Additions.Inventory[item], item))
	}
	for _, item := range sortedIntKeys(result.Removals.Inventory) {
		clauses = append(clauses, fmt.Sprintf("lost %d %s", result.Removals.Inventory[item], item))
	}

	summary := noChanges
	if len(clauses) > 0 {
		summary = strings.Join(clauses, ", ")
	}
	return Summary{
		Summary:       summary,
		Changes:       result.Changes,
		Additions:     result.Additions,
		Removals:      result.Removals,
		Modifications: result.Modifications,
		Instructions:  summaryInstructions,
	}
}

func sortedChangeKeys(bucket map[string]Change) []string {
	keys := make([]string, 0, len(bucket))
	for key := range bucket {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedIntKeys(bucket map[string]int) []string {
	keys := make([]string, 0, len(bucket))
	for key := range bucket {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
