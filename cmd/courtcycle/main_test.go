/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/courtcycle/internal/config"
	"github.com/friendsincode/courtcycle/internal/drills"
	"github.com/friendsincode/courtcycle/internal/planner"
	"github.com/friendsincode/courtcycle/internal/plans"
)

func TestParseHistory(t *testing.T) {
	got, err := parseHistory([]string{"1:1000", " 2:1100.5"})
	if err != nil {
		t.Fatalf("parseHistory() error = %v", err)
	}
	want := []planner.LoadRecord{{Week: 1, TotalLoad: 1000}, {Week: 2, TotalLoad: 1100.5}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("parseHistory() = %+v, want %+v", got, want)
	}

	for _, bad := range []string{"1000", "one:1000", "1:lots"} {
		if _, err := parseHistory([]string{bad}); err == nil {
			t.Errorf("parseHistory(%q) expected error", bad)
		}
	}
}

func TestConfirmReset(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"yes\n", true},
		{" YES \n", true},
		{"y\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got, err := confirmReset(strings.NewReader(tt.input), &out)
		if err != nil {
			t.Fatalf("confirmReset(%q) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("confirmReset(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestFlushCache(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{"cache disabled", &config.Config{}},
		{"redis unreachable", &config.Config{CacheEnabled: true, RedisAddr: "127.0.0.1:1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := flushCache(context.Background(), tt.cfg, zerolog.Nop()); err != nil {
				t.Fatalf("flushCache() error = %v", err)
			}
		})
	}
}

func TestDrillsQuery(t *testing.T) {
	drillsCategory, drillsIntensity = "defense", "low"
	drillsEquipment = []string{"none"}
	t.Cleanup(func() {
		drillsCategory, drillsIntensity, drillsEquipment = "", "", nil
	})

	q := drillsQuery(true)
	if !q.RestrictEquipment || len(q.Equipment) != 0 || q.Category != "defense" || q.Intensity != "low" {
		t.Fatalf("drillsQuery(true) = %+v", q)
	}
	if q := drillsQuery(false); q.RestrictEquipment {
		t.Fatalf("drillsQuery(false) = %+v", q)
	}
}

func TestBuildPlan(t *testing.T) {
	catalog, err := drills.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	engine := planner.NewEngine(catalog, zerolog.Nop())

	plan, err := buildPlan(context.Background(), engine, plans.GenerateInput{
		Availability:   []string{"mon", "tue", "thu"},
		SessionMinutes: 90,
		Level:          "intermedio",
		Equipment:      []string{"balon"},
		History:        []planner.LoadRecord{{Week: 1, TotalLoad: 1000}},
		Seed:           3,
	})
	if err != nil {
		t.Fatalf("buildPlan() error = %v", err)
	}
	if float64(plan.TotalLoad()) > 1150 {
		t.Fatalf("total load %d exceeds cap", plan.TotalLoad())
	}

	var out bytes.Buffer
	if err := printJSON(&out, plan); err != nil {
		t.Fatalf("printJSON() error = %v", err)
	}
	if !strings.Contains(out.String(), `"sessions"`) {
		t.Fatalf("output missing sessions: %s", out.String())
	}

	_, err = buildPlan(context.Background(), engine, plans.GenerateInput{Availability: []string{"mon"}, SessionMinutes: 60, Level: "pro"})
	if !errors.Is(err, planner.ErrInvalidRequest) {
		t.Fatalf("buildPlan() error = %v, want ErrInvalidRequest", err)
	}
}

func TestPrintDrillTable(t *testing.T) {
	var out bytes.Buffer
	err := printDrillTable(&out, []drills.Drill{
		{ID: "warmup-1", Category: "warmup", Intensity: "low", Minutes: 5, Description: "Jog"},
		{ID: "shoot-1", Category: "shooting_in_motion", Intensity: "medium", Minutes: 10, Equipment: []string{"ball", "hoop"}, Description: "Catch and shoot"},
	})
	if err != nil {
		t.Fatalf("printDrillTable() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 || !strings.HasPrefix(lines[0], "ID") {
		t.Fatalf("table = %q", out.String())
	}
	if !strings.Contains(lines[1], " - ") || !strings.Contains(lines[2], "ball,hoop") {
		t.Fatalf("table = %q", out.String())
	}
}
