// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/rnmigrate/cmd/rnmigrate/config"
	"github.com/AleutianAI/rnmigrate/pkg/ux"
	"github.com/AleutianAI/rnmigrate/services/migrator/analyze"
	"github.com/AleutianAI/rnmigrate/services/migrator/diff"
	"github.com/AleutianAI/rnmigrate/services/migrator/fetch"
	"github.com/AleutianAI/rnmigrate/services/migrator/packages"
	"github.com/AleutianAI/rnmigrate/services/migrator/plan"
)

// newFetchClient assembles the release fetcher from the loaded config.
func newFetchClient() *fetch.Client {
	timeout := time.Duration(config.Global.Sources.TimeoutSeconds) * time.Second
	return fetch.NewClient(appLogger.Slog()).
		WithBases(config.Global.Sources.DiffBaseURL, config.Global.Sources.AssetBaseURL).
		WithHTTPClient(&http.Client{Timeout: timeout})
}

// buildMigrationPlan runs the full pipeline: fetch, parse, analyze,
// extract, plan. Both plan and apply start here.
func buildMigrationPlan(ctx context.Context, fromVersion, toVersion string) (*plan.MigrationPlan, diff.RecordSet, error) {
	logger := appLogger.Slog()
	client := newFetchClient()

	spin := ux.NewSpinner(fmt.Sprintf("Fetching release diff %s..%s", fromVersion, toVersion))
	spin.Start()
	raw, err := client.FetchDiff(ctx, fromVersion, toVersion)
	spin.Stop()
	if err != nil {
		if fetch.IsNotFound(err) {
			return nil, nil, fmt.Errorf("no published diff for %s..%s: %w", fromVersion, toVersion, err)
		}
		return nil, nil, fmt.Errorf("fetching release diff: %w", err)
	}

	parser := diff.NewParser(toVersion, logger).
		WithAssetBase(config.Global.Sources.AssetBaseURL)
	records := parser.Parse(raw)
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("release diff %s..%s contained no file changes", fromVersion, toVersion)
	}

	analysis := analyze.NewAnalyzer(logger).Analyze(records)

	// The manifest is optional: without one the plan still reports
	// complex changes, just no package bumps.
	var manifest *packages.Manifest
	manifestPath := filepath.Join(projectPath, packages.ManifestName)
	if m, err := packages.LoadManifest(manifestPath); err == nil {
		manifest = m
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("reading %s: %w", manifestPath, err)
	}

	extractor := packages.NewExtractor(packages.DefaultEcosystem(), logger)
	updates := extractor.Extract(raw, manifest)

	migrationPlan := plan.NewPlanner(logger).Build(fromVersion, toVersion, updates, analysis)
	return migrationPlan, diff.NewRecordSet(records), nil
}

// runPlan implements the plan command.
func runPlan(cmd *cobra.Command, args []string) {
	fromVersion, toVersion := args[0], args[1]

	migrationPlan, _, err := buildMigrationPlan(cmd.Context(), fromVersion, toVersion)
	if err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}

	if jsonOutput {
		data, err := json.MarshalIndent(migrationPlan, "", "  ")
		if err != nil {
			ux.Error("Failed to encode plan: " + err.Error())
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	renderPlan(migrationPlan)
}

// renderPlan prints the styled human-readable plan report.
func renderPlan(p *plan.MigrationPlan) {
	ux.Title(fmt.Sprintf("Migration plan %s %s %s", p.FromVersion, ux.IconArrow, p.ToVersion))
	ux.Muted("run " + p.RunID)
	fmt.Println()

	ux.Info(fmt.Sprintf("Estimated risk: %s (score %d)", ux.RiskBadge(string(p.EstimatedRisk)), p.RiskScore))
	if p.BreakingChangesCount > 0 {
		ux.Warning(fmt.Sprintf("%d breaking change note(s)", p.BreakingChangesCount))
	}
	if p.RequiresManualReview {
		ux.Warning("Manual review required before applying")
	}
	fmt.Println()

	if len(p.PackageUpdates) > 0 {
		ux.Title("Package updates")
		for _, u := range p.PackageUpdates {
			ux.Info(fmt.Sprintf("%s %s %s %s (%s)",
				u.Name, u.CurrentVersion, ux.IconArrow, u.TargetVersion, u.Class))
		}
		fmt.Println()
	}

	ux.Title(fmt.Sprintf("Steps (%d)", len(p.Steps)))
	for _, s := range p.Steps {
		icon := ux.IconPending
		if s.Mode == plan.ModeManual {
			icon = ux.IconWarning
		}
		ux.ChangeStatus(s.Description, icon, string(s.Mode))
	}

	if manual := p.ManualSteps(); len(manual) > 0 {
		fmt.Println()
		ux.WarningBox("Manual work", fmt.Sprintf(
			"%d step(s) need hand-merging; rnmigrate will not touch those files.", len(manual)))
	}

	if len(p.SkippedPaths) > 0 {
		fmt.Println()
		ux.Muted(fmt.Sprintf("Skipped %d unrecognized path(s):", len(p.SkippedPaths)))
		for _, path := range p.SkippedPaths {
			ux.Muted("  " + path)
		}
	}
}
