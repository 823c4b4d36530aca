// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analyze

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/AleutianAI/rnmigrate/services/migrator/classify"
	"github.com/AleutianAI/rnmigrate/services/migrator/diff"
)

// Analyzer turns classified file records into ComplexChanges.
//
// # Thread Safety
//
// Analyzer is safe for concurrent use; the pattern table is read-only.
type Analyzer struct {
	patterns []pattern
	logger   *slog.Logger
}

// NewAnalyzer creates an analyzer with the built-in pattern table.
//
// # Inputs
//
//   - logger: Structured logger. May be nil for a no-op logger.
func NewAnalyzer(logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{
		patterns: defaultPatterns,
		logger:   logger,
	}
}

// Analyze produces one ComplexChange per classifiable record.
//
// # Description
//
// Records are classified first; paths matching no classifier rule are
// collected in Analysis.Skipped instead of producing a change. For each
// classified record the pattern table is consulted in order, and the
// first matching row supplies description, severity, and breaking-change
// notes. Unmatched records get the generic per-category record.
//
// # Inputs
//
//   - records: Parsed file records, in diff order.
//
// # Outputs
//
//   - *Analysis: Changes in diff order plus skipped paths. Never nil.
func (a *Analyzer) Analyze(records []*diff.FileRecord) *Analysis {
	analysis := &Analysis{
		Changes: make([]*ComplexChange, 0, len(records)),
	}

	for _, rec := range records {
		category, ok := classify.Classify(rec.Path, rec.IsBinary)
		if !ok {
			a.logger.Debug("skipping unclassified path", "path", rec.Path)
			analysis.Skipped = append(analysis.Skipped, rec.Path)
			continue
		}
		analysis.Changes = append(analysis.Changes, a.analyzeRecord(category, rec))
	}

	return analysis
}

// analyzeRecord builds the ComplexChange for one classified record.
func (a *Analyzer) analyzeRecord(category classify.Category, rec *diff.FileRecord) *ComplexChange {
	change := &ComplexChange{
		ID:       ChangeID(category, rec.Path),
		Type:     category,
		FilePath: rec.Path,
	}

	for i := range a.patterns {
		p := &a.patterns[i]
		if !p.matches(category, rec) {
			continue
		}
		change.Description = p.description
		change.Severity = p.severity
		change.RequiresMigration = p.requiresMigration
		if len(p.breakingChanges) > 0 {
			change.BreakingChanges = append([]string(nil), p.breakingChanges...)
		}
		a.logger.Debug("pattern matched",
			"pattern", p.name, "path", rec.Path, "severity", p.severity)
		return change
	}

	def := categoryDefaults[category]
	change.Description = fmt.Sprintf("%s file updated", category)
	change.Severity = def.severity
	change.RequiresMigration = def.requiresMigration
	return change
}
