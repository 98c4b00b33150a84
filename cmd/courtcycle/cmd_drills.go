/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/friendsincode/courtcycle/internal/drills"
)

var (
	drillsCategory  string
	drillsIntensity string
	drillsEquipment []string
	drillsJSON      bool
)

var drillsCmd = &cobra.Command{
	Use:   "drills",
	Short: "List drills in the catalog",
	Long: `List drills in the catalog, optionally filtered.

Passing --equipment restricts the list to drills that need only the given
items; --equipment none lists drills that need nothing.

Examples:
  courtcycle drills --category defense
  courtcycle drills --intensity low --equipment ball,hoop
`,
	RunE: runDrills,
}

func init() {
	drillsCmd.Flags().StringVar(&drillsCategory, "category", "", "Drill category")
	drillsCmd.Flags().StringVar(&drillsIntensity, "intensity", "", "Drill intensity (low, medium, high)")
	drillsCmd.Flags().StringSliceVar(&drillsEquipment, "equipment", nil, "Available equipment")
	drillsCmd.Flags().BoolVar(&drillsJSON, "json", false, "Print JSON instead of a table")
	rootCmd.AddCommand(drillsCmd)
}

func drillsQuery(equipmentSet bool) drills.Query {
	q := drills.Query{Category: drillsCategory, Intensity: drillsIntensity}
	if equipmentSet {
		q.RestrictEquipment = true
		for _, item := range drillsEquipment {
			if item != "none" {
				q.Equipment = append(q.Equipment, item)
			}
		}
	}
	return q
}

func runDrills(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}
	catalog, err := loadCatalog()
	if err != nil {
		return fmt.Errorf("load drill catalog: %w", err)
	}

	found := catalog.Filter(drillsQuery(cmd.Flags().Changed("equipment")))
	if drillsJSON {
		if found == nil {
			found = []drills.Drill{}
		}
		return printJSON(cmd.OutOrStdout(), found)
	}
	return printDrillTable(cmd.OutOrStdout(), found)
}

func printDrillTable(out io.Writer, list []drills.Drill) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCATEGORY\tINTENSITY\tMIN\tEQUIPMENT\tDESCRIPTION")
	for _, d := range list {
		equipment := strings.Join(d.Equipment, ",")
		if equipment == "" {
			equipment = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", d.ID, d.Category, d.Intensity, d.Minutes, equipment, d.Description)
	}
	return w.Flush()
}
