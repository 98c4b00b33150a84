/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package rules

import (
	"math"
	"reflect"
	"testing"
)

const tolerance = 1e-9

func TestPattern(t *testing.T) {
	tests := []struct {
		name string
		days int
		want []Intensity
	}{
		{"clamps below three", 1, []Intensity{High, Medium, Low}},
		{"three days", 3, []Intensity{High, Medium, Low}},
		{"four days", 4, []Intensity{High, Medium, High, Low}},
		{"five days", 5, []Intensity{High, Medium, High, Medium, Low}},
		{"six days", 6, []Intensity{High, Medium, High, Medium, Low, Low}},
		{"clamps above six", 9, []Intensity{High, Medium, High, Medium, Low, Low}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Pattern(tt.days)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Pattern(%d) = %v, want %v", tt.days, got, tt.want)
			}
			if got[len(got)-1] != Low {
				t.Errorf("Pattern(%d) ends with %s, want Low", tt.days, got[len(got)-1])
			}
		})
	}
}

func TestPatternReturnsFreshSlice(t *testing.T) {
	p := Pattern(3)
	p[0] = Low
	if Pattern(3)[0] != High {
		t.Fatal("mutating a returned pattern changed the table")
	}
}

func TestBaselineSumsToOne(t *testing.T) {
	if s := Baseline().Sum(); math.Abs(s-1.0) > tolerance {
		t.Fatalf("baseline sum = %v, want 1.0", s)
	}
}

func TestAdjustForObjectives(t *testing.T) {
	tests := []struct {
		name       string
		objectives []string
		check      func(t *testing.T, d Distribution)
	}{
		{
			name:       "no objectives keeps baseline",
			objectives: nil,
			check: func(t *testing.T, d Distribution) {
				base := Baseline()
				for k, v := range base {
					if math.Abs(d[k]-v) > tolerance {
						t.Errorf("%s = %v, want %v", k, d[k], v)
					}
				}
			},
		},
		{
			name:       "shooting raises shooting share",
			objectives: []string{"Improve SHOOTING"},
			check: func(t *testing.T, d Distribution) {
				if d[Shooting] <= Baseline()[Shooting] {
					t.Errorf("shooting = %v, want above baseline", d[Shooting])
				}
				if d[Conditioning] >= Baseline()[Conditioning] {
					t.Errorf("conditioning = %v, want below baseline", d[Conditioning])
				}
			},
		},
		{
			name:       "spanish keyword",
			objectives: []string{"mejorar tiro"},
			check: func(t *testing.T, d Distribution) {
				if d[Shooting] <= Baseline()[Shooting] {
					t.Errorf("shooting = %v, want above baseline", d[Shooting])
				}
			},
		},
		{
			name:       "defense is capped at half",
			objectives: []string{"defense", "defense", "defense", "defense", "defense"},
			check: func(t *testing.T, d Distribution) {
				if d[Shooting] < 0 {
					t.Errorf("shooting went negative: %v", d[Shooting])
				}
				if d[Defense] <= Baseline()[Defense] {
					t.Errorf("defense = %v, want above baseline", d[Defense])
				}
			},
		},
		{
			name:       "unrecognized objective is ignored",
			objectives: []string{"have fun"},
			check: func(t *testing.T, d Distribution) {
				if math.Abs(d[Shooting]-0.30) > tolerance {
					t.Errorf("shooting = %v, want 0.30", d[Shooting])
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := AdjustForObjectives(Baseline(), tt.objectives)
			if s := d.Sum(); math.Abs(s-1.0) > tolerance {
				t.Fatalf("sum = %v, want 1.0", s)
			}
			tt.check(t, d)
		})
	}
}

func TestAdjustForObjectivesZeroSumReturnsBase(t *testing.T) {
	base := Distribution{}
	got := AdjustForObjectives(base, []string{"anything"})
	if len(got) != 0 {
		t.Fatalf("expected empty base back, got %v", got)
	}
}

func TestAdjustForObjectivesDoesNotMutateInput(t *testing.T) {
	base := Baseline()
	_ = AdjustForObjectives(base, []string{"shooting", "defense"})
	if base[Shooting] != 0.30 {
		t.Fatalf("input mutated: shooting = %v", base[Shooting])
	}
}

func TestDistributionNormalizedForAllCombinations(t *testing.T) {
	objectiveSets := [][]string{
		{},
		{"shooting"},
		{"ball handling"},
		{"endurance", "acceleration"},
		{"defense"},
		{"shooting", "ball handling", "endurance", "defense"},
		{"shooting", "shooting", "shooting", "shooting", "shooting", "shooting"},
	}
	levels := []string{LevelBeginner, LevelIntermediate, LevelAdvanced, "unknown"}

	for _, objectives := range objectiveSets {
		for _, level := range levels {
			d := AdjustForLevel(AdjustForObjectives(Baseline(), objectives), level)
			if s := d.Sum(); math.Abs(s-1.0) > 1e-6 {
				t.Errorf("objectives=%v level=%s sum=%v", objectives, level, s)
			}
			for k, v := range d {
				if v < 0 {
					t.Errorf("objectives=%v level=%s %s=%v negative", objectives, level, k, v)
				}
			}
		}
	}
}

func TestAdjustForLevel(t *testing.T) {
	base := Baseline()

	beginner := AdjustForLevel(base, "principiante")
	if beginner[BallHandling] <= base[BallHandling] {
		t.Errorf("beginner ball handling = %v, want above %v", beginner[BallHandling], base[BallHandling])
	}
	if beginner[Conditioning] >= base[Conditioning] {
		t.Errorf("beginner conditioning = %v, want below %v", beginner[Conditioning], base[Conditioning])
	}

	advanced := AdjustForLevel(base, LevelAdvanced)
	if advanced[Conditioning] <= base[Conditioning] {
		t.Errorf("advanced conditioning = %v, want above %v", advanced[Conditioning], base[Conditioning])
	}

	intermediate := AdjustForLevel(base, LevelIntermediate)
	for k, v := range base {
		if math.Abs(intermediate[k]-v) > tolerance {
			t.Errorf("intermediate %s = %v, want %v", k, intermediate[k], v)
		}
	}
}

func TestNormalizeLevel(t *testing.T) {
	tests := map[string]string{
		"Beginner":     LevelBeginner,
		"principiante": LevelBeginner,
		"intermedio":   LevelIntermediate,
		" AVANZADO ":   LevelAdvanced,
		"pro":          "pro",
	}
	for in, want := range tests {
		if got := NormalizeLevel(in); got != want {
			t.Errorf("NormalizeLevel(%q) = %q, want %q", in, got, want)
		}
	}
	if KnownLevel("pro") {
		t.Error("KnownLevel(pro) = true, want false")
	}
}

func TestRPE(t *testing.T) {
	tests := []struct {
		in   Intensity
		want int
	}{
		{Low, 3},
		{Medium, 5},
		{High, 7},
		{Intensity("Extreme"), 5},
	}
	for _, tt := range tests {
		if got := RPE(tt.in); got != tt.want {
			t.Errorf("RPE(%s) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
