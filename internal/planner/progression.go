/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"math"
	"sort"

	"github.com/friendsincode/courtcycle/internal/rules"
)

const (
	// MaxLoadGrowth caps week-over-week load growth.
	MaxLoadGrowth = 1.15
	// MaxScalingRounds bounds the proportional RPE scaling phase.
	MaxScalingRounds = 5
)

// latestRecord returns the record with the highest week number. Ties go to
// the record listed last.
func latestRecord(history []LoadRecord) LoadRecord {
	last := history[0]
	for _, h := range history[1:] {
		if h.Week >= last.Week {
			last = h
		}
	}
	return last
}

// capProgression lowers session RPEs in place until the week's load is at
// most MaxLoadGrowth times the latest historical week. It returns nil when
// the history carries no usable load.
//
// Two phases run in order: up to MaxScalingRounds proportional rounds, then
// one pass over sessions by descending load taking a single RPE point off
// each. Flooring in the first phase can stall just above target; the second
// phase exists for that case. The result may still exceed the target when
// every session is already at the RPE floor.
func capProgression(sessions []Session, history []LoadRecord) *Progression {
	last := latestRecord(history)
	if last.TotalLoad <= 0 {
		return nil
	}

	target := last.TotalLoad * MaxLoadGrowth
	current := totalLoad(sessions)
	p := &Progression{
		PreviousWeek: last.Week,
		PreviousLoad: last.TotalLoad,
		Target:       target,
		InitialLoad:  current,
	}

	for float64(current) > target && p.ScalingRounds < MaxScalingRounds {
		reduction := target / float64(current)
		for i := range sessions {
			old := sessions[i].Indicators.RPE
			next := max(rules.MinRPE, int(math.Floor(float64(old)*reduction)))
			if next < old {
				sessions[i].setRPE(next)
			}
		}
		current = totalLoad(sessions)
		p.ScalingRounds++
	}

	if float64(current) > target {
		order := make([]int, len(sessions))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return sessions[order[a]].Indicators.Load > sessions[order[b]].Indicators.Load
		})

		for _, i := range order {
			s := &sessions[i]
			if s.Indicators.RPE <= rules.MinRPE {
				continue
			}
			s.setRPE(s.Indicators.RPE - 1)
			p.Decrements++
			current = totalLoad(sessions)
			if float64(current) <= target {
				break
			}
		}
	}

	p.FinalLoad = current
	p.WithinTarget = float64(current) <= target
	return p
}
