// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package plan aggregates package deltas and complex changes into an
// ordered, risk-scored migration plan.
//
// # Description
//
// Planning is pure aggregation with no I/O: the planner consumes analyzer
// and extractor output and emits ordered steps tagged by how much
// automation they support, plus an overall risk assessment. Execution and
// user selection are the caller's concern.
package plan

import (
	"github.com/AleutianAI/rnmigrate/services/migrator/analyze"
	"github.com/AleutianAI/rnmigrate/services/migrator/packages"
)

// Mode describes how much automation a step supports.
type Mode string

const (
	// ModeAutomatic steps apply without review and are idempotent on
	// retry.
	ModeAutomatic Mode = "automatic"

	// ModeSemiAutomatic steps apply mechanically but want a human glance.
	ModeSemiAutomatic Mode = "semi_automatic"

	// ModeManual steps require hand-merging.
	ModeManual Mode = "manual"
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	return string(m)
}

// RiskLevel grades the whole migration.
type RiskLevel string

const (
	// RiskLow migrations are routine version bumps.
	RiskLow RiskLevel = "low"

	// RiskMedium migrations touch files that commonly conflict.
	RiskMedium RiskLevel = "medium"

	// RiskHigh migrations include critical or native changes and need
	// careful review.
	RiskHigh RiskLevel = "high"
)

// String returns the string representation of the risk level.
func (r RiskLevel) String() string {
	return string(r)
}

// Step is one ordered unit of migration work.
type Step struct {
	// ID uniquely identifies the step within the plan.
	ID string `json:"id"`

	// Description summarizes the work.
	Description string `json:"description"`

	// Mode tags how much automation the step supports.
	Mode Mode `json:"mode"`

	// FilePath is the affected file, when the step maps to one.
	FilePath string `json:"filePath,omitempty"`

	// Dependencies lists step IDs that must complete first.
	Dependencies []string `json:"dependencies,omitempty"`

	// Order is the strictly increasing execution sequence number.
	Order int `json:"order"`
}

// MigrationPlan is the full caller-facing migration plan.
type MigrationPlan struct {
	// RunID uniquely identifies this planning run.
	RunID string `json:"runId"`

	// FromVersion and ToVersion bound the release delta.
	FromVersion string `json:"fromVersion"`
	ToVersion   string `json:"toVersion"`

	// PackageUpdates are the proposed dependency bumps.
	PackageUpdates []*packages.Update `json:"packageUpdates"`

	// ComplexChanges are the classified non-manifest changes.
	ComplexChanges []*analyze.ComplexChange `json:"complexChanges"`

	// Steps is the ordered work list.
	Steps []*Step `json:"migrationSteps"`

	// EstimatedRisk grades the whole migration.
	EstimatedRisk RiskLevel `json:"estimatedRisk"`

	// RiskScore is the raw additive score behind EstimatedRisk.
	RiskScore int `json:"riskScore"`

	// RequiresManualReview is true when any change is critical or
	// migration-significant.
	RequiresManualReview bool `json:"requiresManualReview"`

	// BreakingChangesCount totals breaking-change notes across changes.
	BreakingChangesCount int `json:"breakingChangesCount"`

	// SkippedPaths lists diff paths that matched no classifier rule.
	SkippedPaths []string `json:"skippedPaths,omitempty"`
}

// SelectedUpdates returns the package updates still marked for
// application.
func (p *MigrationPlan) SelectedUpdates() []*packages.Update {
	selected := make([]*packages.Update, 0, len(p.PackageUpdates))
	for _, u := range p.PackageUpdates {
		if u.Selected {
			selected = append(selected, u)
		}
	}
	return selected
}

// ManualSteps returns the steps that need hand-merging.
func (p *MigrationPlan) ManualSteps() []*Step {
	manual := make([]*Step, 0)
	for _, s := range p.Steps {
		if s.Mode == ModeManual {
			manual = append(manual, s)
		}
	}
	return manual
}
