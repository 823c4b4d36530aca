// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/rnmigrate/cmd/rnmigrate/config"
	"github.com/AleutianAI/rnmigrate/pkg/ux"
	"github.com/AleutianAI/rnmigrate/services/migrator/backup"
)

// runRollback implements the rollback command.
func runRollback(cmd *cobra.Command, args []string) {
	absProject, err := filepath.Abs(projectPath)
	if err != nil {
		ux.Error("Cannot resolve project path: " + err.Error())
		os.Exit(1)
	}

	set, err := backup.LoadLatestSet(absProject)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ux.Error("No backup sets found for " + absProject)
		} else {
			ux.Error("Cannot read backup sets: " + err.Error())
		}
		os.Exit(1)
	}

	ux.Info(fmt.Sprintf("Restoring %d file(s) from set %s (target %s, taken %s)",
		len(set.Records), set.ID, set.TargetVersion,
		set.CreatedAt.Format("2006-01-02 15:04:05")))

	backups := backup.NewManager(
		backup.Config{Suffix: config.Global.Backup.Suffix}, appLogger.Slog())
	result := backups.RestoreAll(set)

	for _, path := range result.Succeeded {
		ux.ChangeStatus(path, ux.IconSuccess, "restored")
	}
	for path, reason := range result.Failed {
		ux.ChangeStatus(path, ux.IconError, reason)
	}
	ux.Summary(len(result.Succeeded), len(result.Failed), len(set.Records))

	if !result.OK() {
		os.Exit(1)
	}
	ux.Success("Project restored")
}

// runListBackups implements the backups command.
func runListBackups(cmd *cobra.Command, args []string) {
	absProject, err := filepath.Abs(projectPath)
	if err != nil {
		ux.Error("Cannot resolve project path: " + err.Error())
		os.Exit(1)
	}

	sets, err := backup.ListSets(absProject)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			ux.Muted("No backup sets found")
			return
		}
		ux.Error("Cannot read backup sets: " + err.Error())
		os.Exit(1)
	}
	if len(sets) == 0 {
		ux.Muted("No backup sets found")
		return
	}

	ux.Title(fmt.Sprintf("Backup sets (%d)", len(sets)))
	for _, set := range sets {
		ux.Info(fmt.Sprintf("%s  %s  %d file(s)  target %s",
			set.CreatedAt.Format("2006-01-02 15:04:05"), set.ID,
			len(set.Records), set.TargetVersion))
	}
}
