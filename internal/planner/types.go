/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"github.com/friendsincode/courtcycle/internal/rules"
)

// LoadRecord is one week of historical training load.
type LoadRecord struct {
	Week      int     `json:"week"`
	TotalLoad float64 `json:"total_load"`
}

// Request describes a microcycle to build.
type Request struct {
	Availability   []string
	SessionMinutes int
	Level          string
	Objectives     []string
	Equipment      []string
	History        []LoadRecord
	// Seed drives drill ordering. Zero picks a time-based seed.
	Seed int64
}

// Block is a time-boxed segment of a session.
type Block struct {
	Type        rules.Category `json:"type"`
	Minutes     int            `json:"minutes"`
	Description string         `json:"description"`
	Drills      []string       `json:"drills,omitempty"`
}

// Indicators carries the session effort figures.
type Indicators struct {
	RPE  int `json:"rpe"`
	Load int `json:"session_load"`
}

// Session is one training day.
type Session struct {
	Day         string          `json:"day"`
	Intensity   rules.Intensity `json:"intensity"`
	DurationMin int             `json:"duration_min"`
	Blocks      []Block         `json:"blocks"`
	Indicators  Indicators      `json:"indicators"`
}

func (s *Session) setRPE(rpe int) {
	s.Indicators.RPE = rpe
	s.Indicators.Load = rpe * s.DurationMin
}

// Progression reports what the load cap did to the week.
type Progression struct {
	PreviousWeek  int     `json:"previous_week"`
	PreviousLoad  float64 `json:"previous_load"`
	Target        float64 `json:"target"`
	InitialLoad   int     `json:"initial_load"`
	FinalLoad     int     `json:"final_load"`
	ScalingRounds int     `json:"scaling_rounds"`
	Decrements    int     `json:"decrements"`
	WithinTarget  bool    `json:"within_target"`
}

// WeekPlan is the engine output.
type WeekPlan struct {
	Weeks        int                `json:"weeks"`
	Sessions     []Session          `json:"sessions"`
	Distribution rules.Distribution `json:"distribution"`
	Progression  *Progression       `json:"progression,omitempty"`
	Seed         int64              `json:"seed"`
}

// TotalLoad sums session loads.
func (w *WeekPlan) TotalLoad() int {
	return totalLoad(w.Sessions)
}

func totalLoad(sessions []Session) int {
	total := 0
	for _, s := range sessions {
		total += s.Indicators.Load
	}
	return total
}
