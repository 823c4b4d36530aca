// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/rnmigrate/cmd/rnmigrate/config"
	"github.com/AleutianAI/rnmigrate/pkg/logging"
	"github.com/AleutianAI/rnmigrate/pkg/ux"
)

// --- Global Command Variables ---
var (
	projectPath string // path to the React Native project being migrated
	outputMode  string // CLI override for output style (rich/plain)
	logLevel    string // CLI override for log.level
	jsonOutput  bool   // emit machine-readable JSON instead of styled text

	applyAll    bool // apply every planned change without prompting
	dryRun      bool // simulate apply without writing files
	keepBackups bool // keep .backup siblings after a successful apply

	rootCmd = &cobra.Command{
		Use:   "rnmigrate",
		Short: "A cli to plan and apply React Native release upgrades",
		Long: `rnmigrate reads the release diff between two React Native versions,
				classifies every changed file, and turns the delta into an ordered,
				risk-scored migration plan you can review and apply.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize output mode from flag or environment
			if outputMode != "" {
				ux.SetMode(ux.ParseMode(outputMode))
			} else {
				ux.InitMode()
			}

			if err := config.Load(); err != nil {
				ux.Error("Failed to load configuration: " + err.Error())
				os.Exit(1)
			}

			level := config.Global.Log.Level
			if logLevel != "" {
				level = logLevel
			}
			appLogger.Close()
			appLogger = logging.New(logging.Config{
				Level:   logging.ParseLevel(level),
				LogDir:  config.Global.Log.Dir,
				Service: "cli",
				JSON:    config.Global.Log.JSON,
				Quiet:   true, // CLI output goes through ux; the file gets the detail
			})
		},
	}

	// --- Planning ---
	planCmd = &cobra.Command{
		Use:   "plan [from-version] [to-version]",
		Short: "Build a migration plan between two React Native releases",
		Args:  cobra.ExactArgs(2),
		Run:   runPlan, // Defined in cmd_plan.go
	}

	// --- Applying ---
	applyCmd = &cobra.Command{
		Use:   "apply [from-version] [to-version]",
		Short: "Apply planned changes to the project, backing up every touched file",
		Args:  cobra.ExactArgs(2),
		Run:   runApply, // Defined in cmd_apply.go
	}

	// --- Rollback ---
	rollbackCmd = &cobra.Command{
		Use:   "rollback",
		Short: "Restore the project from the most recent backup set",
		Run:   runRollback, // Defined in cmd_rollback.go
	}

	backupsCmd = &cobra.Command{
		Use:   "backups",
		Short: "List persisted backup sets for the project",
		Run:   runListBackups, // Defined in cmd_rollback.go
	}
)

// init runs when the Go program starts
func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&projectPath, "project", "p", ".",
		"Path to the React Native project root")
	rootCmd.PersistentFlags().StringVar(&outputMode, "output", "",
		"Output style: rich (default on a terminal) or plain (scripting)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(planCmd)
	planCmd.Flags().BoolVar(&jsonOutput, "json", false,
		"Print the full plan as JSON instead of the styled report")

	rootCmd.AddCommand(applyCmd)
	applyCmd.Flags().BoolVar(&applyAll, "all", false,
		"Apply every automatic change without the interactive picker")
	applyCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Resolve and validate every change but write nothing")
	applyCmd.Flags().BoolVar(&keepBackups, "keep-backups", true,
		"Keep per-file .backup snapshots after a successful apply")

	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(backupsCmd)
}
