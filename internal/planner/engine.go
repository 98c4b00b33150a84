/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package planner turns availability, level, objectives and equipment into a
// one-week training microcycle.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/courtcycle/internal/drills"
	"github.com/friendsincode/courtcycle/internal/rules"
	"github.com/friendsincode/courtcycle/internal/telemetry"
)

// ErrInvalidRequest indicates the caller passed a malformed request.
var ErrInvalidRequest = errors.New("invalid plan request")

// Drill categories differ from block categories for these two blocks.
var catalogCategory = map[rules.Category]string{
	rules.Mobility: "cooldown",
	rules.Shooting: "shooting_in_motion",
}

// Engine builds week plans against an immutable drill catalog. It holds no
// per-call state and is safe for concurrent use.
type Engine struct {
	catalog *drills.Catalog
	logger  zerolog.Logger
}

// NewEngine creates a plan engine.
func NewEngine(catalog *drills.Catalog, logger zerolog.Logger) *Engine {
	if catalog == nil {
		catalog = drills.New(nil)
	}
	return &Engine{
		catalog: catalog,
		logger:  logger.With().Str("component", "planner").Logger(),
	}
}

// Catalog returns the drill catalog the engine selects from.
func (e *Engine) Catalog() *drills.Catalog {
	return e.catalog
}

// Validate checks the parts of a request the engine cannot work around.
func Validate(req Request) error {
	if len(req.Availability) == 0 {
		return fmt.Errorf("%w: availability must list at least one day", ErrInvalidRequest)
	}
	for i, day := range req.Availability {
		if strings.TrimSpace(day) == "" {
			return fmt.Errorf("%w: availability[%d] is empty", ErrInvalidRequest, i)
		}
	}
	if req.SessionMinutes <= 0 {
		return fmt.Errorf("%w: session minutes must be positive, got %d", ErrInvalidRequest, req.SessionMinutes)
	}
	for i, h := range req.History {
		if h.TotalLoad < 0 {
			return fmt.Errorf("%w: history[%d] has negative load", ErrInvalidRequest, i)
		}
	}
	return nil
}

// Build generates the microcycle for req.
func (e *Engine) Build(ctx context.Context, req Request) (*WeekPlan, error) {
	_, span := telemetry.StartSpan(ctx, "planner", "planner.Build")
	defer span.End()

	if err := Validate(req); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	pct := Percentages(req.Objectives, req.Level)
	alloc := Allocate(req.SessionMinutes, pct)
	intensities := weekIntensities(len(req.Availability))

	sessions := make([]Session, 0, len(req.Availability))
	for idx, day := range req.Availability {
		intensity := intensities[idx]
		s := Session{
			Day:         day,
			Intensity:   intensity,
			DurationMin: req.SessionMinutes,
			Blocks:      e.buildBlocks(rng, intensity, alloc, req.Equipment),
		}
		s.setRPE(rules.RPE(intensity))
		sessions = append(sessions, s)
	}

	plan := &WeekPlan{
		Weeks:        1,
		Sessions:     sessions,
		Distribution: pct,
		Seed:         seed,
	}

	if len(req.History) > 0 {
		plan.Progression = capProgression(plan.Sessions, req.History)
		if p := plan.Progression; p != nil {
			e.logger.Debug().
				Float64("target", p.Target).
				Int("initial_load", p.InitialLoad).
				Int("final_load", p.FinalLoad).
				Int("scaling_rounds", p.ScalingRounds).
				Int("decrements", p.Decrements).
				Bool("within_target", p.WithinTarget).
				Msg("load progression applied")
			if p.ScalingRounds > 0 {
				telemetry.ProgressionAdjustments.WithLabelValues("scaling").Inc()
			}
			if p.Decrements > 0 {
				telemetry.ProgressionAdjustments.WithLabelValues("descending").Inc()
			}
		}
	}

	telemetry.AddSpanAttributes(span, map[string]any{
		"plan.days":       len(sessions),
		"plan.level":      rules.NormalizeLevel(req.Level),
		"plan.total_load": plan.TotalLoad(),
		"plan.seed":       seed,
	})
	return plan, nil
}

// weekIntensities picks each day's intensity from the pattern and downgrades
// a High that directly follows another High.
func weekIntensities(days int) []rules.Intensity {
	pattern := rules.Pattern(days)
	out := make([]rules.Intensity, days)
	var prev rules.Intensity
	for i := 0; i < days; i++ {
		intensity := pattern[i%len(pattern)]
		if intensity == rules.High && prev == rules.High {
			intensity = rules.Medium
		}
		out[i] = intensity
		prev = intensity
	}
	return out
}

// drillIntensity maps a session intensity onto the drill intensity tag used
// for a block.
func drillIntensity(session rules.Intensity, category rules.Category) string {
	switch {
	case session == rules.Low:
		return drills.IntensityLow
	case session == rules.High && category == rules.Conditioning:
		return drills.IntensityHigh
	default:
		return drills.IntensityMedium
	}
}

func (e *Engine) buildBlocks(rng *rand.Rand, intensity rules.Intensity, alloc Allocation, equipment []string) []Block {
	blocks := make([]Block, 0, len(alloc))
	for _, category := range rules.Categories {
		minutes := alloc[category]
		if minutes <= 0 {
			continue
		}

		drillCategory, ok := catalogCategory[category]
		if !ok {
			drillCategory = string(category)
		}

		selected := e.catalog.PickForBlock(rng, drillCategory, drillIntensity(intensity, category), equipment, minutes)

		block := Block{Type: category, Minutes: minutes}
		if len(selected) == 0 {
			block.Description = fallbackDescription(minutes)
			telemetry.BlockFallbacks.WithLabelValues(string(category)).Inc()
			e.logger.Debug().Str("category", string(category)).Str("intensity", string(intensity)).Msg("no drills matched, using generic block")
		} else {
			descriptions := make([]string, len(selected))
			block.Drills = make([]string, len(selected))
			for i, d := range selected {
				descriptions[i] = d.Description
				block.Drills[i] = d.ID
			}
			block.Description = strings.Join(descriptions, "; ")
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// fallbackDescription names only the block length. It must not hint at
// which equipment was missing.
func fallbackDescription(minutes int) string {
	return fmt.Sprintf("Generic block (%d min): coach-guided work on this focus.", minutes)
}
