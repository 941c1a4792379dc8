// Package progression holds the idle-progression arithmetic: experience
// curves, level thresholds, and reward scaling.
package progression

import "math"

// MaxLevel caps every skill curve.
const MaxLevel = 100

// ExperienceForLevel returns the cumulative experience required to reach a
// level. The curve is quadratic: each level costs 50*level more than the
// previous one.
func ExperienceForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return 25 * level * (level + 1)
}

// LevelForExperience inverts the curve: the highest level whose threshold
// the experience total meets.
func LevelForExperience(experience int) int {
	if experience <= 0 {
		return 0
	}
	level := int(math.Floor((math.Sqrt(1+float64(experience)*4.0/25.0) - 1) / 2))
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// ScaleReward multiplies a base reward by a location experience multiplier,
// flooring the result. Negative bases are not scaled.
func ScaleReward(base int, multiplier float64) int {
	if base <= 0 || multiplier <= 0 {
		return base
	}
	return int(math.Floor(float64(base) * multiplier))
}

// ExperienceGain scales a base experience award. Synergistic skills earn a
// flat 20% bonus on the scaled amount.
func ExperienceGain(base int, multiplier float64, synergy bool) int {
	gain := ScaleReward(base, multiplier)
	if synergy {
		gain += gain / 5
	}
	return gain
}
