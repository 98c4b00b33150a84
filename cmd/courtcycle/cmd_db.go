/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/friendsincode/courtcycle/internal/cache"
	"github.com/friendsincode/courtcycle/internal/config"
	"github.com/friendsincode/courtcycle/internal/db"
)

var resetForce bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE:  runMigrate,
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and re-create all tables",
	Long: `Reset the database to a fresh state.

All users, plans, sessions, blocks and feedback are deleted. When the
Redis cache is enabled its plan and history entries are flushed too.

WARNING: This action is irreversible! All data will be lost.

Examples:
  # Interactive reset (will prompt for confirmation)
  courtcycle reset

  # Force reset without confirmation
  courtcycle reset --force
`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetForce, "force", "f", false, "Skip confirmation prompt")
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(resetCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	database, err := db.Connect(cfg, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close(database)

	if err := db.Migrate(database); err != nil {
		return err
	}
	logger.Info().Str("backend", string(cfg.DBBackend)).Msg("database migrated")
	return nil
}

// confirmReset reads a "yes" from in.
func confirmReset(in io.Reader, out io.Writer) (bool, error) {
	fmt.Fprintln(out, "This will DELETE ALL plans, sessions, feedback and users.")
	fmt.Fprint(out, "Type 'yes' to confirm reset: ")
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(strings.ToLower(response)) == "yes", nil
}

func runReset(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	if !resetForce {
		ok, err := confirmReset(os.Stdin, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Reset cancelled.")
			return nil
		}
	}

	database, err := db.Connect(cfg, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close(database)

	if err := db.Reset(database); err != nil {
		return fmt.Errorf("reset database: %w", err)
	}
	logger.Info().Msg("database reset complete")

	if err := flushCache(cmd.Context(), cfg, logger); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	return nil
}

// flushCache drops cached plans and history that would otherwise outlive a
// reset. An unreachable Redis is not an error.
func flushCache(ctx context.Context, c *config.Config, logger zerolog.Logger) error {
	if !c.CacheEnabled {
		return nil
	}
	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisAddr = c.RedisAddr
	cacheCfg.RedisPassword = c.RedisPassword
	cacheCfg.RedisDB = c.RedisDB
	planCache, err := cache.New(cacheCfg, logger)
	if err != nil {
		return err
	}
	defer planCache.Close()

	if !planCache.IsAvailable() {
		logger.Warn().Str("addr", c.RedisAddr).Msg("cache unavailable, skipping flush")
		return nil
	}
	return planCache.FlushAll(ctx)
}
