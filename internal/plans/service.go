/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package plans stores generated microcycles and the feedback recorded
// against them.
package plans

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/courtcycle/internal/cache"
	"github.com/friendsincode/courtcycle/internal/drills"
	"github.com/friendsincode/courtcycle/internal/events"
	"github.com/friendsincode/courtcycle/internal/models"
	"github.com/friendsincode/courtcycle/internal/planner"
	"github.com/friendsincode/courtcycle/internal/rules"
	"github.com/friendsincode/courtcycle/internal/telemetry"
)

// Request limits.
const (
	MinSessionMinutes = 15
	MaxSessionMinutes = 240
	MaxWeeks          = 52
)

var (
	// ErrNotFound is returned for unknown plan IDs.
	ErrNotFound = errors.New("plan not found")
	// ErrInvalidFeedback indicates out-of-range feedback values.
	ErrInvalidFeedback = errors.New("invalid feedback")
)

// GenerateInput is a plan request plus the metadata stored with it.
type GenerateInput struct {
	Availability   []string             `json:"availability"`
	SessionMinutes int                  `json:"session_minutes"`
	Level          string               `json:"level"`
	Objectives     []string             `json:"objectives"`
	Equipment      []string             `json:"equipment"`
	History        []planner.LoadRecord `json:"history,omitempty"`
	Weeks          int                  `json:"weeks,omitempty"`
	UserID         string               `json:"user_id,omitempty"`
	StartDate      string               `json:"start_date,omitempty"`
	Seed           int64                `json:"seed,omitempty"`
}

// Result pairs the stored plan ID with the generated plan.
type Result struct {
	PlanID string            `json:"plan_id"`
	Plan   *planner.WeekPlan `json:"plan"`
}

// FeedbackInput records how a planned week went.
type FeedbackInput struct {
	PlanID        string `json:"plan_id"`
	WeekIdx       int    `json:"week_idx"`
	CompliancePct int    `json:"compliance_pct"`
	AvgRPE        int    `json:"avg_rpe"`
	Notes         string `json:"notes,omitempty"`
}

// Service generates, stores and reads plans.
type Service struct {
	db           *gorm.DB
	engine       *planner.Engine
	cache        *cache.Cache
	bus          events.Publisher
	defaultWeeks int
	logger       zerolog.Logger
}

// NewService wires the plan service. A nil cache disables caching.
func NewService(db *gorm.DB, engine *planner.Engine, c *cache.Cache, bus events.Publisher, defaultWeeks int, logger zerolog.Logger) *Service {
	if c == nil {
		c = cache.Disabled(logger)
	}
	if defaultWeeks < 1 {
		defaultWeeks = 4
	}
	return &Service{
		db:           db,
		engine:       engine,
		cache:        c,
		bus:          bus,
		defaultWeeks: defaultWeeks,
		logger:       logger.With().Str("component", "plans").Logger(),
	}
}

// Engine returns the plan engine.
func (s *Service) Engine() *planner.Engine {
	return s.engine
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", planner.ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// Validate checks request-level limits on top of what the engine enforces.
func Validate(in GenerateInput) error {
	if !rules.KnownLevel(in.Level) {
		return invalid("unknown level %q", in.Level)
	}
	if len(in.Availability) == 0 {
		return invalid("availability must list at least one day")
	}
	if in.SessionMinutes < MinSessionMinutes || in.SessionMinutes > MaxSessionMinutes {
		return invalid("session minutes must be between %d and %d", MinSessionMinutes, MaxSessionMinutes)
	}
	if in.Weeks < 0 || in.Weeks > MaxWeeks {
		return invalid("weeks must be between 1 and %d", MaxWeeks)
	}
	if in.StartDate != "" {
		if _, err := time.Parse(time.DateOnly, in.StartDate); err != nil {
			return invalid("start date must be YYYY-MM-DD")
		}
	}
	return nil
}

// Generate builds a plan and stores it with its sessions and blocks in one
// transaction. When the input names a user but carries no history, the
// user's stored plans supply it.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*Result, error) {
	start := time.Now()
	if err := Validate(in); err != nil {
		return nil, err
	}

	level := rules.NormalizeLevel(in.Level)
	weeks := in.Weeks
	if weeks == 0 {
		weeks = s.defaultWeeks
	}
	userID := strings.TrimSpace(in.UserID)

	history := in.History
	if len(history) == 0 && userID != "" {
		derived, err := s.HistoryForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		history = derived
	}

	plan, err := s.engine.Build(ctx, planner.Request{
		Availability:   in.Availability,
		SessionMinutes: in.SessionMinutes,
		Level:          level,
		Objectives:     in.Objectives,
		Equipment:      drills.NormalizeEquipment(in.Equipment),
		History:        history,
		Seed:           in.Seed,
	})
	if err != nil {
		return nil, err
	}

	record := toRecord(plan, in, level, weeks)
	if userID != "" {
		record.UserID = &userID
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if userID != "" {
			user := models.User{ID: userID}
			if err := tx.Where("id = ?", userID).FirstOrCreate(&user).Error; err != nil {
				return fmt.Errorf("ensure user: %w", err)
			}
		}
		if err := tx.Create(&record).Error; err != nil {
			return fmt.Errorf("insert plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if userID != "" {
		_ = s.cache.InvalidateHistory(ctx, userID)
	}

	telemetry.PlansGenerated.WithLabelValues(level).Inc()
	telemetry.PlanBuildDuration.Observe(time.Since(start).Seconds())

	s.logger.Info().
		Str("plan_id", record.ID).
		Str("level", level).
		Int("days", len(plan.Sessions)).
		Int("total_load", record.TotalLoad).
		Msg("plan generated")

	if s.bus != nil {
		s.bus.Publish(events.EventPlanGenerated, events.Payload{
			"plan_id":    record.ID,
			"user_id":    userID,
			"level":      level,
			"days":       len(plan.Sessions),
			"total_load": record.TotalLoad,
		})
	}

	return &Result{PlanID: record.ID, Plan: plan}, nil
}

func toRecord(plan *planner.WeekPlan, in GenerateInput, level string, weeks int) models.Plan {
	record := models.Plan{
		ID:             uuid.NewString(),
		StartDate:      in.StartDate,
		Weeks:          weeks,
		Level:          level,
		DaysPerWeek:    len(in.Availability),
		SessionMinutes: in.SessionMinutes,
		Objectives:     nonNil(in.Objectives),
		Equipment:      drills.NormalizeEquipment(in.Equipment),
		Seed:           plan.Seed,
		TotalLoad:      plan.TotalLoad(),
		Sessions:       make([]models.Session, 0, len(plan.Sessions)),
	}

	for i, ps := range plan.Sessions {
		session := models.Session{
			ID:          uuid.NewString(),
			Position:    i,
			WeekIdx:     0,
			Day:         ps.Day,
			Intensity:   string(ps.Intensity),
			DurationMin: ps.DurationMin,
			RPE:         ps.Indicators.RPE,
			Load:        ps.Indicators.Load,
			Blocks:      make([]models.Block, 0, len(ps.Blocks)),
		}
		for j, pb := range ps.Blocks {
			session.Blocks = append(session.Blocks, models.Block{
				ID:          uuid.NewString(),
				Position:    j,
				Type:        string(pb.Type),
				Minutes:     pb.Minutes,
				Description: pb.Description,
				Drills:      pb.Drills,
			})
		}
		record.Sessions = append(record.Sessions, session)
	}
	return record
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

func byPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// Get returns a stored plan with sessions and blocks in generation order.
func (s *Service) Get(ctx context.Context, planID string) (*models.Plan, error) {
	var plan models.Plan
	if s.cache.GetPlan(ctx, planID, &plan) {
		return &plan, nil
	}

	err := s.db.WithContext(ctx).
		Preload("Sessions", byPosition).
		Preload("Sessions.Blocks", byPosition).
		First(&plan, "id = ?", planID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, planID)
	}
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}

	if err := s.cache.SetPlan(ctx, planID, &plan); err != nil {
		s.logger.Debug().Err(err).Str("plan_id", planID).Msg("cache plan")
	}
	return &plan, nil
}

// RecordFeedback stores feedback for one week of a plan.
func (s *Service) RecordFeedback(ctx context.Context, in FeedbackInput) (*models.Feedback, error) {
	if in.CompliancePct < 0 || in.CompliancePct > 100 {
		return nil, fmt.Errorf("%w: compliance must be between 0 and 100", ErrInvalidFeedback)
	}
	if in.AvgRPE < 1 || in.AvgRPE > 10 {
		return nil, fmt.Errorf("%w: average RPE must be between 1 and 10", ErrInvalidFeedback)
	}
	if in.WeekIdx < 0 {
		return nil, fmt.Errorf("%w: week index must not be negative", ErrInvalidFeedback)
	}

	var plan models.Plan
	err := s.db.WithContext(ctx).Select("id", "weeks").First(&plan, "id = ?", in.PlanID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, in.PlanID)
	}
	if err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if in.WeekIdx >= plan.Weeks {
		return nil, fmt.Errorf("%w: week index %d outside a %d week plan", ErrInvalidFeedback, in.WeekIdx, plan.Weeks)
	}

	fb := models.Feedback{
		PlanID:        in.PlanID,
		WeekIdx:       in.WeekIdx,
		CompliancePct: in.CompliancePct,
		AvgRPE:        in.AvgRPE,
		Notes:         strings.TrimSpace(in.Notes),
	}
	if err := s.db.WithContext(ctx).Create(&fb).Error; err != nil {
		return nil, fmt.Errorf("insert feedback: %w", err)
	}

	telemetry.FeedbackRecorded.Inc()
	if s.bus != nil {
		s.bus.Publish(events.EventFeedbackRecorded, events.Payload{
			"plan_id":        fb.PlanID,
			"week_idx":       fb.WeekIdx,
			"compliance_pct": fb.CompliancePct,
			"avg_rpe":        fb.AvgRPE,
		})
	}
	return &fb, nil
}

// Feedback lists feedback for a plan, oldest first.
func (s *Service) Feedback(ctx context.Context, planID string) ([]models.Feedback, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Plan{}).Where("id = ?", planID).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, planID)
	}

	var out []models.Feedback
	if err := s.db.WithContext(ctx).Where("plan_id = ?", planID).Order("created_at, week_idx").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return out, nil
}

// HistoryForUser turns a user's stored plans into load records, numbering
// weeks from 1 in creation order.
func (s *Service) HistoryForUser(ctx context.Context, userID string) ([]planner.LoadRecord, error) {
	var history []planner.LoadRecord
	if s.cache.GetHistory(ctx, userID, &history) {
		return history, nil
	}

	var rows []models.Plan
	err := s.db.WithContext(ctx).
		Select("id", "total_load", "created_at").
		Where("user_id = ?", userID).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load user history: %w", err)
	}

	history = make([]planner.LoadRecord, 0, len(rows))
	for i, p := range rows {
		history = append(history, planner.LoadRecord{Week: i + 1, TotalLoad: float64(p.TotalLoad)})
	}
	_ = s.cache.SetHistory(ctx, userID, history)
	return history, nil
}
