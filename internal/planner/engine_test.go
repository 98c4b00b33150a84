/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package planner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/courtcycle/internal/drills"
	"github.com/friendsincode/courtcycle/internal/rules"
)

var weekDays = []string{"mon", "tue", "wed", "thu", "fri", "sat", "sun", "mon2", "tue2", "wed2"}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	catalog, err := drills.Default()
	if err != nil {
		t.Fatalf("load default catalog: %v", err)
	}
	return NewEngine(catalog, zerolog.Nop())
}

func mustBuild(t *testing.T, e *Engine, req Request) *WeekPlan {
	t.Helper()
	plan, err := e.Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return plan
}

func TestBuildConservesMinutes(t *testing.T) {
	e := newTestEngine(t)
	levels := []string{rules.LevelBeginner, rules.LevelIntermediate, rules.LevelAdvanced}
	objectiveSets := [][]string{nil, {"shooting"}, {"ball handling", "defense"}, {"endurance", "acceleration", "shooting"}}
	equipmentSets := [][]string{nil, {"ball"}, {"ball", "hoop", "cones", "rope", "bands"}}

	for days := 1; days <= 10; days++ {
		for _, minutes := range []int{30, 45, 60, 90, 120} {
			for _, level := range levels {
				for oi, objectives := range objectiveSets {
					for ei, equipment := range equipmentSets {
						plan := mustBuild(t, e, Request{
							Availability:   weekDays[:days],
							SessionMinutes: minutes,
							Level:          level,
							Objectives:     objectives,
							Equipment:      equipment,
							Seed:           int64(days*1000 + minutes + oi*10 + ei),
						})
						if len(plan.Sessions) != days {
							t.Fatalf("days=%d got %d sessions", days, len(plan.Sessions))
						}
						for _, s := range plan.Sessions {
							total := 0
							for _, b := range s.Blocks {
								if b.Minutes <= 0 {
									t.Fatalf("non-positive block %+v", b)
								}
								total += b.Minutes
							}
							if total != s.DurationMin || s.DurationMin != minutes {
								t.Fatalf("days=%d minutes=%d level=%s objectives=%v: blocks sum %d, session %d",
									days, minutes, level, objectives, total, s.DurationMin)
							}
						}
					}
				}
			}
		}
	}
}

func TestBuildKeepsAvailabilityOrder(t *testing.T) {
	e := newTestEngine(t)
	days := []string{"sat", "mon", "wed"}
	plan := mustBuild(t, e, Request{Availability: days, SessionMinutes: 60, Level: "intermediate", Seed: 3})

	var got []string
	for _, s := range plan.Sessions {
		got = append(got, s.Day)
	}
	if !reflect.DeepEqual(got, days) {
		t.Fatalf("days = %v, want %v", got, days)
	}
	if plan.Weeks != 1 {
		t.Fatalf("weeks = %d, want 1", plan.Weeks)
	}
}

func TestBuildNoConsecutiveHighIntensity(t *testing.T) {
	e := newTestEngine(t)
	for days := 1; days <= 10; days++ {
		plan := mustBuild(t, e, Request{Availability: weekDays[:days], SessionMinutes: 60, Level: "intermediate", Equipment: []string{"ball"}, Seed: 1})
		for i := 1; i < len(plan.Sessions); i++ {
			if plan.Sessions[i].Intensity == rules.High && plan.Sessions[i-1].Intensity == rules.High {
				t.Fatalf("days=%d: sessions %d and %d are both High", days, i-1, i)
			}
		}
	}
}

func TestBuildHasLowIntensityDay(t *testing.T) {
	e := newTestEngine(t)
	for days := 3; days <= 10; days++ {
		plan := mustBuild(t, e, Request{Availability: weekDays[:days], SessionMinutes: 60, Level: "intermediate", Equipment: []string{"ball"}, Seed: 1})
		found := false
		for _, s := range plan.Sessions {
			if s.Intensity == rules.Low {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("days=%d: no Low session", days)
		}
	}
}

func TestWeekIntensities(t *testing.T) {
	tests := []struct {
		days int
		want []rules.Intensity
	}{
		{1, []rules.Intensity{rules.High}},
		{2, []rules.Intensity{rules.High, rules.Medium}},
		{4, []rules.Intensity{rules.High, rules.Medium, rules.High, rules.Low}},
		{7, []rules.Intensity{rules.High, rules.Medium, rules.High, rules.Medium, rules.Low, rules.Low, rules.High}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d days", tt.days), func(t *testing.T) {
			if got := weekIntensities(tt.days); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("weekIntensities(%d) = %v, want %v", tt.days, got, tt.want)
			}
		})
	}
}

func TestBuildEquipmentExclusion(t *testing.T) {
	e := newTestEngine(t)
	terms := e.Catalog().Equipment()
	if len(terms) == 0 {
		t.Fatal("catalog declares no equipment")
	}

	for seed := int64(1); seed <= 25; seed++ {
		plan := mustBuild(t, e, Request{
			Availability:   []string{"mon", "tue", "wed", "thu", "fri"},
			SessionMinutes: 60,
			Level:          "intermediate",
			Seed:           seed,
		})
		for _, s := range plan.Sessions {
			for _, b := range s.Blocks {
				desc := strings.ToLower(b.Description)
				for _, term := range terms {
					if strings.Contains(desc, strings.ToLower(term)) {
						t.Fatalf("seed %d: %s block mentions %q: %s", seed, b.Type, term, b.Description)
					}
				}
				if strings.Contains(desc, "balon") {
					t.Fatalf("seed %d: description mentions balon: %s", seed, b.Description)
				}
			}
		}
	}
}

func TestBuildSingleDayWithoutEquipment(t *testing.T) {
	e := newTestEngine(t)
	plan := mustBuild(t, e, Request{Availability: []string{"mon"}, SessionMinutes: 60, Level: "intermediate", Seed: 11})
	for _, b := range plan.Sessions[0].Blocks {
		for _, id := range b.Drills {
			for _, d := range e.Catalog().All() {
				if d.ID == id && len(d.Equipment) > 0 {
					t.Fatalf("block %s selected %s which needs %v", b.Type, id, d.Equipment)
				}
			}
		}
	}
}

func TestBuildEmptyCatalogFallsBack(t *testing.T) {
	e := NewEngine(drills.New(nil), zerolog.Nop())
	plan := mustBuild(t, e, Request{Availability: []string{"mon", "wed", "fri"}, SessionMinutes: 45, Level: "advanced", Equipment: []string{"ball"}, Seed: 5})
	for _, s := range plan.Sessions {
		total := 0
		for _, b := range s.Blocks {
			total += b.Minutes
			if b.Description != fallbackDescription(b.Minutes) {
				t.Fatalf("description = %q, want fallback", b.Description)
			}
			if len(b.Drills) != 0 {
				t.Fatalf("drills = %v, want none", b.Drills)
			}
		}
		if total != 45 {
			t.Fatalf("blocks sum %d, want 45", total)
		}
	}
}

func TestBuildProgressionCap(t *testing.T) {
	e := newTestEngine(t)
	plan := mustBuild(t, e, Request{
		Availability:   []string{"mon", "tue", "thu"},
		SessionMinutes: 90,
		Level:          "intermediate",
		Equipment:      []string{"ball"},
		History:        []LoadRecord{{Week: 1, TotalLoad: 1000}},
		Seed:           42,
	})

	if total := plan.TotalLoad(); float64(total) > 1000*1.15 {
		t.Fatalf("total load %d exceeds 1150", total)
	}
	p := plan.Progression
	if p == nil {
		t.Fatal("expected progression details")
	}
	if p.InitialLoad != 1350 {
		t.Errorf("initial load = %d, want 1350", p.InitialLoad)
	}
	if p.FinalLoad != 1080 || p.ScalingRounds != 1 || p.Decrements != 0 || !p.WithinTarget {
		t.Errorf("progression = %+v", p)
	}
	for _, s := range plan.Sessions {
		if s.Indicators.Load != s.Indicators.RPE*s.DurationMin {
			t.Errorf("%s: load %d != rpe %d * %d", s.Day, s.Indicators.Load, s.Indicators.RPE, s.DurationMin)
		}
		if s.Indicators.RPE < rules.MinRPE {
			t.Errorf("%s: rpe %d below floor", s.Day, s.Indicators.RPE)
		}
	}
}

func TestBuildWithoutHistorySkipsProgression(t *testing.T) {
	e := newTestEngine(t)
	plan := mustBuild(t, e, Request{Availability: []string{"mon", "tue", "thu"}, SessionMinutes: 90, Level: "intermediate", Seed: 42})
	if plan.Progression != nil {
		t.Fatalf("progression = %+v, want nil", plan.Progression)
	}
	if plan.TotalLoad() != 1350 {
		t.Fatalf("total load = %d, want 1350", plan.TotalLoad())
	}
}

func TestBuildIsDeterministicForSeed(t *testing.T) {
	e := newTestEngine(t)
	req := Request{
		Availability:   []string{"mon", "wed", "fri", "sat"},
		SessionMinutes: 75,
		Level:          "advanced",
		Objectives:     []string{"shooting"},
		Equipment:      []string{"ball", "hoop", "cones"},
		Seed:           99,
	}
	a := mustBuild(t, e, req)
	b := mustBuild(t, e, req)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different plans")
	}
}

func TestBuildAssignsSeed(t *testing.T) {
	e := newTestEngine(t)
	plan := mustBuild(t, e, Request{Availability: []string{"mon"}, SessionMinutes: 30, Level: "beginner"})
	if plan.Seed == 0 {
		t.Fatal("expected a generated seed")
	}
}

func TestBuildRejectsInvalidRequests(t *testing.T) {
	e := newTestEngine(t)
	tests := []struct {
		name string
		req  Request
	}{
		{"no availability", Request{SessionMinutes: 60}},
		{"blank day", Request{Availability: []string{"mon", " "}, SessionMinutes: 60}},
		{"zero minutes", Request{Availability: []string{"mon"}}},
		{"negative history", Request{Availability: []string{"mon"}, SessionMinutes: 60, History: []LoadRecord{{Week: 1, TotalLoad: -5}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Build(context.Background(), tt.req)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("Build() error = %v, want ErrInvalidRequest", err)
			}
		})
	}
}

func TestDrillIntensity(t *testing.T) {
	tests := []struct {
		session  rules.Intensity
		category rules.Category
		want     string
	}{
		{rules.Low, rules.Conditioning, drills.IntensityLow},
		{rules.Low, rules.Shooting, drills.IntensityLow},
		{rules.High, rules.Conditioning, drills.IntensityHigh},
		{rules.High, rules.Defense, drills.IntensityMedium},
		{rules.Medium, rules.Conditioning, drills.IntensityMedium},
	}
	for _, tt := range tests {
		if got := drillIntensity(tt.session, tt.category); got != tt.want {
			t.Errorf("drillIntensity(%s, %s) = %s, want %s", tt.session, tt.category, got, tt.want)
		}
	}
}
