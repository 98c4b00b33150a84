/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/friendsincode/courtcycle/internal/config"
	"github.com/friendsincode/courtcycle/internal/models"
	"github.com/friendsincode/courtcycle/internal/telemetry"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Environment: "production",
		DBBackend:   config.DatabaseSQLite,
		DBDSN:       filepath.Join(t.TempDir(), "nested", "courtcycle.db"),
	}
}

func TestConnectMigrateAndReset(t *testing.T) {
	cfg := testConfig(t)
	database, err := Connect(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = Close(database) })

	if err := Migrate(database); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	for _, table := range []string{"users", "plans", "sessions", "blocks", "feedback"} {
		if !database.Migrator().HasTable(table) {
			t.Fatalf("table %s missing after migrate", table)
		}
	}

	plan := models.Plan{Level: "beginner", Weeks: 4}
	if err := database.Create(&plan).Error; err != nil {
		t.Fatalf("create plan: %v", err)
	}
	if plan.ID == "" {
		t.Fatal("expected generated plan id")
	}

	if err := Reset(database); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	var count int64
	if err := database.Model(&models.Plan{}).Count(&count).Error; err != nil {
		t.Fatalf("count plans: %v", err)
	}
	if count != 0 {
		t.Fatalf("plans after reset = %d, want 0", count)
	}
}

func TestCallbacksRecordErrors(t *testing.T) {
	database, err := Connect(testConfig(t), zerolog.Nop())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { _ = Close(database) })

	before := testutil.ToFloat64(telemetry.DatabaseErrorsTotal.WithLabelValues("query", "plans"))
	var plans []models.Plan
	if err := database.Find(&plans).Error; err == nil {
		t.Fatal("expected query on missing table to fail")
	}
	after := testutil.ToFloat64(telemetry.DatabaseErrorsTotal.WithLabelValues("query", "plans"))
	if after-before != 1 {
		t.Fatalf("error counter grew by %v, want 1", after-before)
	}
}

func TestConnectRejectsUnknownBackend(t *testing.T) {
	if _, err := Connect(&config.Config{DBBackend: "oracle"}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
