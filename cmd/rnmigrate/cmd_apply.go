// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/rnmigrate/cmd/rnmigrate/config"
	"github.com/AleutianAI/rnmigrate/pkg/ux"
	"github.com/AleutianAI/rnmigrate/services/migrator/analyze"
	"github.com/AleutianAI/rnmigrate/services/migrator/apply"
	"github.com/AleutianAI/rnmigrate/services/migrator/backup"
	"github.com/AleutianAI/rnmigrate/services/migrator/diff"
	"github.com/AleutianAI/rnmigrate/services/migrator/packages"
	"github.com/AleutianAI/rnmigrate/services/migrator/plan"
)

// runApply implements the apply command.
func runApply(cmd *cobra.Command, args []string) {
	fromVersion, toVersion := args[0], args[1]
	ctx := cmd.Context()
	logger := appLogger.Slog()

	absProject, err := filepath.Abs(projectPath)
	if err != nil {
		ux.Error("Cannot resolve project path: " + err.Error())
		os.Exit(1)
	}

	migrationPlan, records, err := buildMigrationPlan(ctx, fromVersion, toVersion)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	auto, manual := splitChanges(migrationPlan)
	updates := migrationPlan.SelectedUpdates()
	if len(auto) == 0 && len(manual) == 0 && len(updates) == 0 {
		ux.Success("Nothing to apply: the project already matches " + toVersion)
		return
	}

	selected := auto
	if !applyAll && ux.IsInteractive() {
		selected, err = pickChanges(auto, manual)
		if err != nil {
			ux.Error("Selection aborted: " + err.Error())
			os.Exit(1)
		}
	}

	if dryRun {
		ux.Warning("Dry run: no files will be written")
	}

	set := backup.NewSet(absProject, toVersion)
	backups := backup.NewManager(backup.Config{Suffix: config.Global.Backup.Suffix}, logger)

	fetcher := newFetchClient()
	applier, err := apply.NewApplier(absProject, backups, fetcher,
		apply.Options{DryRun: dryRun, BinaryConcurrency: 4}, logger)
	if err != nil {
		ux.Error("Cannot initialize applier: " + err.Error())
		os.Exit(1)
	}

	// Snapshot every existing target up front. If a file cannot be
	// backed up it must not be written.
	if !dryRun {
		targets := make(map[string]string, len(selected))
		for _, c := range selected {
			target := filepath.Join(absProject,
				filepath.FromSlash(diff.StripTemplateRoot(c.FilePath)))
			if _, err := os.Stat(target); err == nil {
				targets[target] = string(c.Type)
			}
		}
		if batch := backups.BackupAll(set, targets); !batch.OK() {
			for path, reason := range batch.Failed {
				ux.ChangeStatus(path, ux.IconError, reason)
			}
			ux.Error("Backup failed; nothing was modified")
			os.Exit(1)
		}
	}

	req := &apply.Request{
		Changes:   selected,
		Records:   records,
		ToVersion: toVersion,
		Set:       set,
	}

	bumped := 0
	if len(updates) > 0 {
		bumped, err = applier.ApplyPackageUpdates(ctx, updates, req)
		if err != nil {
			ux.Error("Package update failed: " + err.Error())
			os.Exit(1)
		}
		if bumped > 0 {
			ux.Success(fmt.Sprintf("Updated %d package version(s) in package.json", bumped))
		}
	}

	spin := ux.NewSpinner(fmt.Sprintf("Applying %d change(s)", len(selected)))
	spin.Start()
	result := applier.Apply(ctx, req)
	spin.Stop()
	reportApply(result, migrationPlan)

	if !dryRun && len(set.Records) > 0 {
		if path, err := backup.SaveSet(set); err != nil {
			ux.Warning("Could not persist the backup set: " + err.Error())
		} else {
			ux.Muted("Backup set saved to " + path)
		}
		if err := backup.PruneSets(absProject, config.Global.Backup.KeepSets); err != nil {
			ux.Warning("Could not prune old backup sets: " + err.Error())
		}
		if !keepBackups && result.Success {
			if batch := backups.CleanupAll(set); !batch.OK() {
				ux.Warning(fmt.Sprintf("Left %d backup file(s) behind", len(batch.Failed)))
			}
		}
	}

	if !result.Success {
		ux.Error("Some changes failed; run 'rnmigrate rollback' to restore the project")
		os.Exit(1)
	}
}

// splitChanges partitions the plan into automatically applicable changes
// and manual-step targets, both in plan order. The dependency manifest
// belongs to neither; it is owned by the package step, not the textual
// patcher.
func splitChanges(p *plan.MigrationPlan) (auto, manual []*analyze.ComplexChange) {
	manualPaths := make(map[string]bool)
	for _, s := range p.ManualSteps() {
		if s.FilePath != "" {
			manualPaths[s.FilePath] = true
		}
	}
	for _, c := range p.ComplexChanges {
		if diff.StripTemplateRoot(c.FilePath) == packages.ManifestName {
			continue
		}
		if manualPaths[c.FilePath] {
			manual = append(manual, c)
			continue
		}
		auto = append(auto, c)
	}
	return auto, manual
}

// applicableChanges is the non-interactive selection: manual steps stay
// in the report and are applied only when the user opts in through the
// picker.
func applicableChanges(p *plan.MigrationPlan) []*analyze.ComplexChange {
	auto, _ := splitChanges(p)
	return auto
}

// pickChanges shows an interactive multi-select over the plan's changes.
// Automatic candidates start selected; manual-step targets start
// deselected so a user can opt in to the best-effort textual patch
// instead of merging by hand.
func pickChanges(auto, manual []*analyze.ComplexChange) ([]*analyze.ComplexChange, error) {
	candidates := make([]*analyze.ComplexChange, 0, len(auto)+len(manual))
	candidates = append(candidates, auto...)
	candidates = append(candidates, manual...)

	preselected := make(map[string]bool, len(auto))
	for _, c := range auto {
		preselected[c.ID] = true
	}

	options := make([]huh.Option[string], 0, len(candidates))
	for _, c := range candidates {
		label := fmt.Sprintf("[%s] %s", c.Type, diff.StripTemplateRoot(c.FilePath))
		if !preselected[c.ID] {
			label += " (manual)"
		}
		options = append(options, huh.NewOption(label, c.ID).Selected(preselected[c.ID]))
	}

	var picked []string
	form := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title("Changes to apply").
			Description("Deselect anything you want to merge manually").
			Options(options...).
			Value(&picked),
	))
	if err := form.Run(); err != nil {
		return nil, err
	}

	// Preserve plan order regardless of selection order.
	selected := make([]*analyze.ComplexChange, 0, len(picked))
	keep := make(map[string]bool, len(picked))
	for _, id := range picked {
		keep[id] = true
	}
	for _, c := range candidates {
		if keep[c.ID] {
			selected = append(selected, c)
		}
	}
	return selected, nil
}

// reportApply prints per-change outcomes and the closing summary.
func reportApply(result *apply.Result, p *plan.MigrationPlan) {
	failed := 0
	for _, cr := range result.Applied {
		if cr.Success {
			ux.ChangeStatus(diff.StripTemplateRoot(cr.FilePath), ux.IconSuccess, "")
			continue
		}
		failed++
		ux.ChangeStatus(diff.StripTemplateRoot(cr.FilePath), ux.IconError, cr.Error)
	}
	ux.Summary(len(result.Applied)-failed, failed, len(result.Applied))

	if manual := p.ManualSteps(); len(manual) > 0 {
		ux.WarningBox("Manual work remains", fmt.Sprintf(
			"%d step(s) were not applied automatically; review the plan output.", len(manual)))
	}
}
