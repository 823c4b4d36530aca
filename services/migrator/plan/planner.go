// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package plan

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/AleutianAI/rnmigrate/services/migrator/analyze"
	"github.com/AleutianAI/rnmigrate/services/migrator/classify"
	"github.com/AleutianAI/rnmigrate/services/migrator/packages"
)

// stepGroupOrder fixes the category sequence steps are emitted in. The
// package step always precedes the first group.
var stepGroupOrder = []classify.Category{
	classify.CategoryConfiguration,
	classify.CategoryBuildSystem,
	classify.CategoryNativeCode,
	classify.CategorySourceCode,
	classify.CategoryBinary,
}

// Planner builds migration plans from analyzer and extractor output.
//
// # Thread Safety
//
// Planner is stateless and safe for concurrent use.
type Planner struct {
	logger *slog.Logger
}

// NewPlanner creates a planner.
//
// # Inputs
//
//   - logger: Structured logger. May be nil for a no-op logger.
func NewPlanner(logger *slog.Logger) *Planner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Planner{logger: logger}
}

// Build assembles the ordered plan and computes risk.
//
// # Description
//
// Steps are grouped by kind in a fixed sequence (packages, configuration,
// build system, native code, source code, binary); every step in a group
// is ordered before any step of the next group and depends on the
// previous group's steps. Risk is an additive score over change count,
// breaking changes, manual steps, and severity flags, seeded by a coarse
// low/medium/high estimate.
//
// # Inputs
//
//   - fromVersion, toVersion: Release tags bounding the delta.
//   - updates: Proposed package bumps.
//   - analysis: Analyzer output. Nil is treated as empty.
//
// # Outputs
//
//   - *MigrationPlan: Complete plan; never nil.
func (p *Planner) Build(fromVersion, toVersion string, updates []*packages.Update, analysis *analyze.Analysis) *MigrationPlan {
	if analysis == nil {
		analysis = &analyze.Analysis{}
	}

	mp := &MigrationPlan{
		RunID:          uuid.NewString(),
		FromVersion:    fromVersion,
		ToVersion:      toVersion,
		PackageUpdates: updates,
		ComplexChanges: analysis.Changes,
		SkippedPaths:   analysis.Skipped,
	}

	mp.Steps = p.buildSteps(updates, analysis.Changes)
	mp.BreakingChangesCount = analysis.BreakingCount()
	mp.RequiresManualReview = requiresManualReview(analysis.Changes)

	seed := seedRisk(analysis.Changes, mp.BreakingChangesCount)
	mp.RiskScore = riskScore(analysis.Changes, mp.Steps, mp.BreakingChangesCount, seed)
	mp.EstimatedRisk = riskLevelFor(mp.RiskScore)

	p.logger.Info("migration plan built",
		"run_id", mp.RunID,
		"from", fromVersion,
		"to", toVersion,
		"packages", len(updates),
		"changes", len(analysis.Changes),
		"steps", len(mp.Steps),
		"risk", mp.EstimatedRisk,
		"score", mp.RiskScore)
	return mp
}

// buildSteps emits the ordered step list in fixed group sequence.
func (p *Planner) buildSteps(updates []*packages.Update, changes []*analyze.ComplexChange) []*Step {
	steps := make([]*Step, 0, len(changes)+1)
	order := 1
	var prevGroup []string

	if len(updates) > 0 {
		step := &Step{
			ID:          "step-packages",
			Description: fmt.Sprintf("Update %d ecosystem package(s) in %s", len(updates), packages.ManifestName),
			Mode:        ModeAutomatic,
			FilePath:    packages.ManifestName,
			Order:       order,
		}
		steps = append(steps, step)
		prevGroup = []string{step.ID}
		order++
	}

	byCategory := make(map[classify.Category][]*analyze.ComplexChange)
	for _, c := range changes {
		byCategory[c.Type] = append(byCategory[c.Type], c)
	}

	for _, category := range stepGroupOrder {
		group := byCategory[category]
		if len(group) == 0 {
			continue
		}
		groupIDs := make([]string, 0, len(group))
		for _, change := range group {
			step := &Step{
				ID:           "step-" + change.ID,
				Description:  fmt.Sprintf("%s (%s)", change.Description, change.FilePath),
				Mode:         stepMode(change),
				FilePath:     change.FilePath,
				Dependencies: prevGroup,
				Order:        order,
			}
			steps = append(steps, step)
			groupIDs = append(groupIDs, step.ID)
			order++
		}
		prevGroup = groupIDs
	}

	return steps
}

// stepMode maps a change onto its automation mode.
func stepMode(change *analyze.ComplexChange) Mode {
	switch change.Type {
	case classify.CategoryConfiguration:
		if !change.RequiresMigration {
			return ModeAutomatic
		}
		return ModeSemiAutomatic
	case classify.CategoryBuildSystem:
		return ModeSemiAutomatic
	case classify.CategoryNativeCode, classify.CategorySourceCode:
		return ModeManual
	case classify.CategoryBinary:
		return ModeAutomatic
	}
	return ModeManual
}

// requiresManualReview is true iff any change is critical or
// migration-significant.
func requiresManualReview(changes []*analyze.ComplexChange) bool {
	for _, c := range changes {
		if c.Severity == analyze.SeverityCritical || c.RequiresMigration {
			return true
		}
	}
	return false
}

// seedRisk derives the coarse initial estimate.
func seedRisk(changes []*analyze.ComplexChange, breakingCount int) RiskLevel {
	var anyCritical, anyHigh, anyNative bool
	nativeCount := 0
	for _, c := range changes {
		switch c.Severity {
		case analyze.SeverityCritical:
			anyCritical = true
		case analyze.SeverityHigh:
			anyHigh = true
		}
		if c.Type == classify.CategoryNativeCode {
			anyNative = true
			nativeCount++
		}
	}

	switch {
	case anyCritical || breakingCount > 2 || nativeCount > 1:
		return RiskHigh
	case anyHigh || breakingCount > 0 || anyNative:
		return RiskMedium
	}
	return RiskLow
}

// riskScore is the additive score: 1 per change, 2 per breaking change,
// 2 per manual step, 3 if any critical change, 2 if any native change,
// plus the seed bonus (3/1/0 for high/medium/low).
func riskScore(changes []*analyze.ComplexChange, steps []*Step, breakingCount int, seed RiskLevel) int {
	score := len(changes) + 2*breakingCount

	for _, s := range steps {
		if s.Mode == ModeManual {
			score += 2
		}
	}

	anyCritical, anyNative := false, false
	for _, c := range changes {
		if c.Severity == analyze.SeverityCritical {
			anyCritical = true
		}
		if c.Type == classify.CategoryNativeCode {
			anyNative = true
		}
	}
	if anyCritical {
		score += 3
	}
	if anyNative {
		score += 2
	}

	switch seed {
	case RiskHigh:
		score += 3
	case RiskMedium:
		score++
	}

	return score
}

// riskLevelFor maps the raw score back onto the coarse scale.
func riskLevelFor(score int) RiskLevel {
	switch {
	case score >= 7:
		return RiskHigh
	case score >= 3:
		return RiskMedium
	}
	return RiskLow
}
