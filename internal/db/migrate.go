/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/friendsincode/courtcycle/internal/models"
)

// Tables in dependency order, children last.
func schema() []any {
	return []any{
		&models.User{},
		&models.Plan{},
		&models.Session{},
		&models.Block{},
		&models.Feedback{},
	}
}

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	if err := database.AutoMigrate(schema()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

// Reset drops every table and recreates the schema.
func Reset(database *gorm.DB) error {
	tables := schema()
	for i := len(tables) - 1; i >= 0; i-- {
		if err := database.Migrator().DropTable(tables[i]); err != nil {
			return fmt.Errorf("drop table: %w", err)
		}
	}
	return Migrate(database)
}
