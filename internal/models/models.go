/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User owns plans so load history can be derived across weeks.
type User struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(128)" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Plan is a stored microcycle with the request that produced it.
type Plan struct {
	ID             string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID         *string   `gorm:"type:varchar(36);index" json:"user_id,omitempty"`
	StartDate      string    `gorm:"type:varchar(10)" json:"start_date,omitempty"`
	Weeks          int       `json:"weeks"`
	Level          string    `gorm:"type:varchar(16)" json:"level"`
	DaysPerWeek    int       `json:"days_per_week"`
	SessionMinutes int       `json:"session_minutes"`
	Objectives     []string  `gorm:"serializer:json" json:"objectives"`
	Equipment      []string  `gorm:"serializer:json" json:"equipment"`
	Seed           int64     `json:"seed"`
	TotalLoad      int       `json:"total_load"`
	CreatedAt      time.Time `gorm:"index" json:"created_at"`

	Sessions []Session `gorm:"constraint:OnDelete:CASCADE" json:"sessions"`
}

// Session is one stored training day.
type Session struct {
	ID          string `gorm:"type:varchar(36);primaryKey" json:"-"`
	PlanID      string `gorm:"type:varchar(36);index" json:"-"`
	Position    int    `json:"-"`
	WeekIdx     int    `json:"week_idx"`
	Day         string `gorm:"type:varchar(32)" json:"day"`
	Intensity   string `gorm:"type:varchar(16)" json:"intensity"`
	DurationMin int    `json:"duration_min"`
	RPE         int    `gorm:"column:rpe" json:"rpe"`
	Load        int    `gorm:"column:session_load" json:"load"`

	Blocks []Block `gorm:"constraint:OnDelete:CASCADE" json:"blocks"`
}

// Block is a stored session segment.
type Block struct {
	ID          string   `gorm:"type:varchar(36);primaryKey" json:"-"`
	SessionID   string   `gorm:"type:varchar(36);index" json:"-"`
	Position    int      `json:"-"`
	Type        string   `gorm:"column:block_type;type:varchar(32)" json:"type"`
	Minutes     int      `json:"minutes"`
	Description string   `gorm:"type:text" json:"description"`
	Drills      []string `gorm:"serializer:json" json:"drills,omitempty"`
}

// Feedback records how a planned week actually went.
type Feedback struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	PlanID        string    `gorm:"type:varchar(36);index" json:"plan_id"`
	WeekIdx       int       `json:"week_idx"`
	CompliancePct int       `json:"compliance_pct"`
	AvgRPE        int       `gorm:"column:avg_rpe" json:"avg_rpe"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName keeps the singular table name used by existing databases.
func (Feedback) TableName() string {
	return "feedback"
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error     { newID(&u.ID); return nil }
func (p *Plan) BeforeCreate(*gorm.DB) error     { newID(&p.ID); return nil }
func (s *Session) BeforeCreate(*gorm.DB) error  { newID(&s.ID); return nil }
func (b *Block) BeforeCreate(*gorm.DB) error    { newID(&b.ID); return nil }
func (f *Feedback) BeforeCreate(*gorm.DB) error { newID(&f.ID); return nil }
