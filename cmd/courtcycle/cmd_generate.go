/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/friendsincode/courtcycle/internal/db"
	"github.com/friendsincode/courtcycle/internal/drills"
	"github.com/friendsincode/courtcycle/internal/planner"
	"github.com/friendsincode/courtcycle/internal/plans"
	"github.com/friendsincode/courtcycle/internal/rules"
)

var (
	genDays       []string
	genMinutes    int
	genLevel      string
	genObjectives []string
	genEquipment  []string
	genHistory    []string
	genSeed       int64
	genWeeks      int
	genUser       string
	genStartDate  string
	genPersist    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a weekly plan and print it as JSON",
	Long: `Generate a one-week microcycle and print it as JSON.

Examples:
  # Three sessions of an hour with a ball
  courtcycle generate --days mon,tue,thu --minutes 60 --level intermediate --equipment ball

  # Cap load growth against last week's total
  courtcycle generate --days mon,wed,fri --minutes 90 --history 1:1000

  # Store the plan so it can be exported later
  courtcycle generate --days mon,thu --minutes 45 --persist --user player-1
`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringSliceVar(&genDays, "days", nil, "Available days in session order (required)")
	generateCmd.Flags().IntVar(&genMinutes, "minutes", 60, "Session duration in minutes")
	generateCmd.Flags().StringVar(&genLevel, "level", rules.LevelIntermediate, "Player level (beginner, intermediate, advanced)")
	generateCmd.Flags().StringSliceVar(&genObjectives, "objectives", nil, "Free-text training objectives")
	generateCmd.Flags().StringSliceVar(&genEquipment, "equipment", nil, "Available equipment (ball, hoop, cones, rope, bands)")
	generateCmd.Flags().StringSliceVar(&genHistory, "history", nil, "Past weekly loads as week:load pairs")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "Drill selection seed (0 = random)")
	generateCmd.Flags().IntVar(&genWeeks, "weeks", 0, "Planned weeks stored with a persisted plan")
	generateCmd.Flags().StringVar(&genUser, "user", "", "User ID for a persisted plan")
	generateCmd.Flags().StringVar(&genStartDate, "start", "", "Start date (YYYY-MM-DD) for a persisted plan")
	generateCmd.Flags().BoolVar(&genPersist, "persist", false, "Store the plan in the database")
	_ = generateCmd.MarkFlagRequired("days")
	rootCmd.AddCommand(generateCmd)
}

// parseHistory reads week:load pairs.
func parseHistory(pairs []string) ([]planner.LoadRecord, error) {
	out := make([]planner.LoadRecord, 0, len(pairs))
	for _, pair := range pairs {
		weekStr, loadStr, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok {
			return nil, fmt.Errorf("history entry %q: want week:load", pair)
		}
		week, err := strconv.Atoi(weekStr)
		if err != nil {
			return nil, fmt.Errorf("history entry %q: bad week: %w", pair, err)
		}
		load, err := strconv.ParseFloat(loadStr, 64)
		if err != nil {
			return nil, fmt.Errorf("history entry %q: bad load: %w", pair, err)
		}
		out = append(out, planner.LoadRecord{Week: week, TotalLoad: load})
	}
	return out, nil
}

func generateInput() (plans.GenerateInput, error) {
	history, err := parseHistory(genHistory)
	if err != nil {
		return plans.GenerateInput{}, err
	}
	return plans.GenerateInput{
		Availability:   genDays,
		SessionMinutes: genMinutes,
		Level:          genLevel,
		Objectives:     genObjectives,
		Equipment:      genEquipment,
		History:        history,
		Weeks:          genWeeks,
		UserID:         genUser,
		StartDate:      genStartDate,
		Seed:           genSeed,
	}, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	in, err := generateInput()
	if err != nil {
		return err
	}
	catalog, err := loadCatalog()
	if err != nil {
		return fmt.Errorf("load drill catalog: %w", err)
	}
	engine := planner.NewEngine(catalog, logger)
	ctx := context.Background()

	if !genPersist {
		plan, err := buildPlan(ctx, engine, in)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), plan)
	}

	database, err := db.Connect(cfg, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close(database)
	if err := db.Migrate(database); err != nil {
		return err
	}

	svc := plans.NewService(database, engine, nil, nil, cfg.DefaultWeeks, logger)
	res, err := svc.Generate(ctx, in)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

// buildPlan runs the engine without storing anything.
func buildPlan(ctx context.Context, engine *planner.Engine, in plans.GenerateInput) (*planner.WeekPlan, error) {
	if err := plans.Validate(in); err != nil {
		return nil, err
	}
	return engine.Build(ctx, planner.Request{
		Availability:   in.Availability,
		SessionMinutes: in.SessionMinutes,
		Level:          rules.NormalizeLevel(in.Level),
		Objectives:     in.Objectives,
		Equipment:      drills.NormalizeEquipment(in.Equipment),
		History:        in.History,
		Seed:           in.Seed,
	})
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
