/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package rules holds the fixed tables and percentage nudges used to shape a
// training week: intensity patterns, block distributions and the RPE scale.
package rules

import (
	"strings"
)

// Intensity is the session-level effort label.
type Intensity string

const (
	Low    Intensity = "Low"
	Medium Intensity = "Medium"
	High   Intensity = "High"
)

// Category is an internal block category.
type Category string

const (
	Warmup       Category = "warmup"
	BallHandling Category = "ball_handling"
	Shooting     Category = "shooting"
	Defense      Category = "defense"
	Conditioning Category = "conditioning"
	Mobility     Category = "mobility"
)

// Categories lists block categories in session order. Minute reconciliation
// cycles through this order.
var Categories = []Category{Warmup, BallHandling, Shooting, Defense, Conditioning, Mobility}

// Level tags.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Distribution maps block categories to their share of a session.
type Distribution map[Category]float64

// Clone returns an independent copy.
func (d Distribution) Clone() Distribution {
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Sum adds all shares.
func (d Distribution) Sum() float64 {
	var s float64
	for _, v := range d {
		s += v
	}
	return s
}

func (d Distribution) normalized() Distribution {
	s := d.Sum()
	if s == 0 {
		return nil
	}
	out := make(Distribution, len(d))
	for k, v := range d {
		out[k] = v / s
	}
	return out
}

var patterns = map[int][]Intensity{
	3: {High, Medium, Low},
	4: {High, Medium, High, Low},
	5: {High, Medium, High, Medium, Low},
	6: {High, Medium, High, Medium, Low, Low},
}

// Pattern returns the weekly intensity pattern for the number of training
// days, clamped to 3..6. The last day is always Low.
func Pattern(days int) []Intensity {
	if days < 3 {
		days = 3
	}
	if days > 6 {
		days = 6
	}
	pattern := append([]Intensity(nil), patterns[days]...)
	if pattern[len(pattern)-1] != Low {
		pattern[len(pattern)-1] = Low
	}
	return pattern
}

// Baseline returns the default block distribution.
func Baseline() Distribution {
	return Distribution{
		Warmup:       0.10,
		BallHandling: 0.25,
		Shooting:     0.30,
		Defense:      0.15,
		Conditioning: 0.15,
		Mobility:     0.05,
	}
}

type nudge struct {
	keywords []string
	raise    Category
	raiseBy  float64
	ceiling  float64
	lower    Category
	lowerBy  float64
	floor    float64
}

// Objective keywords are matched as lowercase substrings; Spanish forms are
// kept so payloads from the legacy web form keep working.
var objectiveNudges = []nudge{
	{keywords: []string{"shoot", "tiro"}, raise: Shooting, raiseBy: 0.10, ceiling: 0.60, lower: Conditioning, lowerBy: 0.05, floor: 0.05},
	{keywords: []string{"handling", "dribbl", "manejo", "balon"}, raise: BallHandling, raiseBy: 0.10, ceiling: 0.60, lower: Shooting, lowerBy: 0.05, floor: 0.05},
	{keywords: []string{"endurance", "acceler", "resistencia", "aceler"}, raise: Conditioning, raiseBy: 0.10, ceiling: 0.60, lower: BallHandling, lowerBy: 0.05, floor: 0.05},
	{keywords: []string{"defense", "defensa"}, raise: Defense, raiseBy: 0.10, ceiling: 0.50, lower: Shooting, lowerBy: 0.05, floor: 0.05},
}

func (n nudge) matches(objective string) bool {
	for _, kw := range n.keywords {
		if strings.Contains(objective, kw) {
			return true
		}
	}
	return false
}

// AdjustForObjectives applies keyword nudges for every objective and
// renormalizes. A zero-sum result returns base untouched.
func AdjustForObjectives(base Distribution, objectives []string) Distribution {
	d := base.Clone()
	for _, o := range objectives {
		lo := strings.ToLower(o)
		for _, n := range objectiveNudges {
			if !n.matches(lo) {
				continue
			}
			d[n.raise] = min(n.ceiling, d[n.raise]+n.raiseBy)
			d[n.lower] = max(n.floor, d[n.lower]-n.lowerBy)
		}
	}
	out := d.normalized()
	if out == nil {
		return base
	}
	return out
}

// AdjustForLevel shifts the distribution for beginner and advanced players
// and renormalizes.
func AdjustForLevel(pct Distribution, level string) Distribution {
	d := pct.Clone()
	switch NormalizeLevel(level) {
	case LevelBeginner:
		d[BallHandling] = min(0.60, d[BallHandling]+0.05)
		d[Shooting] = max(0.10, d[Shooting]-0.03)
		d[Conditioning] = max(0.05, d[Conditioning]-0.02)
	case LevelAdvanced:
		d[Conditioning] = min(0.60, d[Conditioning]+0.03)
		d[Shooting] = min(0.60, d[Shooting]+0.03)
	}
	out := d.normalized()
	if out == nil {
		return pct
	}
	return out
}

// NormalizeLevel maps level tags (including the Spanish aliases) to the
// canonical English tag. Unknown values are returned lowercased.
func NormalizeLevel(level string) string {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case LevelBeginner, "principiante":
		return LevelBeginner
	case LevelIntermediate, "intermedio":
		return LevelIntermediate
	case LevelAdvanced, "avanzado":
		return LevelAdvanced
	default:
		return l
	}
}

// KnownLevel reports whether level maps to one of the canonical tags.
func KnownLevel(level string) bool {
	switch NormalizeLevel(level) {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

var intensityRPE = map[Intensity]int{
	Low:    3,
	Medium: 5,
	High:   7,
}

// MinRPE is the lowest RPE a session may be scaled down to.
const MinRPE = 3

// RPE returns the session RPE for an intensity, 5 when unknown.
func RPE(i Intensity) int {
	if v, ok := intensityRPE[i]; ok {
		return v
	}
	return 5
}
