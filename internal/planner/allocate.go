/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"math"

	"github.com/friendsincode/courtcycle/internal/rules"
)

// BeginnerConditioningCap bounds the conditioning share for beginners.
const BeginnerConditioningCap = 0.15

// Allocation maps block categories to minutes.
type Allocation map[rules.Category]int

// Sum adds all allocated minutes.
func (a Allocation) Sum() int {
	total := 0
	for _, v := range a {
		total += v
	}
	return total
}

// Percentages derives the block distribution for objectives and level. The
// beginner conditioning cap is applied after normalization, so the result
// may sum to slightly less than 1 for beginners.
func Percentages(objectives []string, level string) rules.Distribution {
	pct := rules.AdjustForObjectives(rules.Baseline(), objectives)
	pct = rules.AdjustForLevel(pct, level)
	if rules.NormalizeLevel(level) == rules.LevelBeginner {
		pct[rules.Conditioning] = min(pct[rules.Conditioning], BeginnerConditioningCap)
	}
	return pct
}

func roundTo5(x float64) int {
	return int(5 * math.RoundToEven(x/5))
}

// orderedCategories returns the categories present in pct, in session order.
func orderedCategories(pct rules.Distribution) []rules.Category {
	keys := make([]rules.Category, 0, len(pct))
	for _, c := range rules.Categories {
		if _, ok := pct[c]; ok {
			keys = append(keys, c)
		}
	}
	return keys
}

// Allocate splits total minutes across categories in 5-minute steps so that
// the allocations add up to total exactly.
//
// Each share is rounded to the nearest 5 minutes and the residual is spread
// round-robin in ±5 steps. A category is never taken below zero. When total
// is not a multiple of 5 the leftover (1-4 minutes) goes to the largest block.
func Allocate(total int, pct rules.Distribution) Allocation {
	keys := orderedCategories(pct)
	alloc := make(Allocation, len(keys))
	if len(keys) == 0 {
		return alloc
	}

	sum := 0
	for _, k := range keys {
		alloc[k] = roundTo5(float64(total) * pct[k])
		sum += alloc[k]
	}

	diff := total - sum
	for i := 0; diff >= 5 || diff <= -5; i++ {
		k := keys[i%len(keys)]
		switch {
		case diff > 0:
			alloc[k] += 5
			diff -= 5
		case alloc[k] >= 5:
			alloc[k] -= 5
			diff += 5
		}
	}

	if diff != 0 {
		largest := keys[0]
		for _, k := range keys[1:] {
			if alloc[k] > alloc[largest] {
				largest = k
			}
		}
		alloc[largest] += diff
	}
	return alloc
}
