// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package analyze derives migration significance from classified file
// records.
//
// # Description
//
// For every classified file touched by the release diff, the analyzer
// produces exactly one ComplexChange: a human-readable description, a
// severity level, whether the change requires manual migration work, and
// any known breaking-change notes. Descriptions come from a small pattern
// table checked against the file name and hunk content; files with no
// specific match fall back to category defaults.
package analyze

import (
	"github.com/AleutianAI/rnmigrate/services/migrator/classify"
)

// Severity grades how risky a single change is.
type Severity string

const (
	// SeverityLow indicates routine template churn.
	SeverityLow Severity = "low"

	// SeverityMedium indicates changes that usually merge cleanly.
	SeverityMedium Severity = "medium"

	// SeverityHigh indicates changes that commonly conflict with local
	// modifications.
	SeverityHigh Severity = "high"

	// SeverityCritical indicates changes to bootstrap or initialization
	// paths that break the app when merged incorrectly.
	SeverityCritical Severity = "critical"
)

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// rank orders severities for comparisons.
func (s Severity) rank() int {
	switch s {
	case SeverityLow:
		return 0
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	}
	return 0
}

// AtLeast reports whether s is at least as severe as other.
func (s Severity) AtLeast(other Severity) bool {
	return s.rank() >= other.rank()
}

// ComplexChange is one migration-relevant file change.
//
// # Description
//
// Every ComplexChange maps to exactly one diff FileRecord; changes never
// merge across files. The ID is derived deterministically from the
// category and path so repeated analysis of the same diff yields stable
// identifiers.
type ComplexChange struct {
	// ID uniquely identifies the change within a run.
	ID string `json:"id"`

	// Type is the semantic category assigned by the classifier.
	Type classify.Category `json:"type"`

	// FilePath is the diff path, including the template root.
	FilePath string `json:"filePath"`

	// Description summarizes the change for the plan report.
	Description string `json:"description"`

	// Severity grades the risk of applying or merging this change.
	Severity Severity `json:"severity"`

	// RequiresMigration is true when the change is migration-significant
	// and needs review or manual work.
	RequiresMigration bool `json:"requiresMigration"`

	// BreakingChanges lists known breaking consequences, if any.
	BreakingChanges []string `json:"breakingChanges,omitempty"`
}

// ChangeID derives the deterministic identifier for a category/path pair.
func ChangeID(category classify.Category, path string) string {
	return string(category) + ":" + path
}

// Analysis aggregates analyzer output for one release diff.
type Analysis struct {
	// Changes holds one entry per classified file record, in diff order.
	Changes []*ComplexChange `json:"changes"`

	// Skipped lists paths that matched no classifier rule. They carry no
	// plan entry but are surfaced so the caller can report them.
	Skipped []string `json:"skipped,omitempty"`
}

// BreakingCount returns the total number of breaking-change notes.
func (a *Analysis) BreakingCount() int {
	n := 0
	for _, c := range a.Changes {
		n += len(c.BreakingChanges)
	}
	return n
}
