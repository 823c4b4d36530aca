// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package packages

import (
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// Class identifies which dependency map a package lives in.
type Class string

const (
	// ClassPrimary is the runtime dependency map.
	ClassPrimary Class = "primary"

	// ClassDev is the development dependency map.
	ClassDev Class = "dev"

	// ClassPeer is reserved for peer dependencies; the extractor does not
	// currently reconcile against it.
	ClassPeer Class = "peer"
)

// String returns the string representation of the class.
func (c Class) String() string {
	return string(c)
}

// Update is one proposed dependency-version change.
//
// # Description
//
// An Update is only emitted when the package appears both in the release
// diff and in the project manifest, with differing versions after range
// prefixes are stripped. A package declared in both dependency classes is
// emitted once per class in which it differs.
type Update struct {
	// Name is the package name.
	Name string `json:"name"`

	// CurrentVersion is the project's declared version, range prefix
	// stripped.
	CurrentVersion string `json:"currentVersion"`

	// TargetVersion is the version the release diff moves to.
	TargetVersion string `json:"targetVersion"`

	// Class is the dependency class the update applies to.
	Class Class `json:"dependencyClass"`

	// Selected marks the update for application; defaults to true and is
	// mutable by the caller.
	Selected bool `json:"selected"`
}

// manifestLine matches an added or removed manifest entry inside a diff,
// tolerating indentation and a trailing comma.
var manifestLine = regexp.MustCompile(`^([+-])\s*"([^"]+)"\s*:\s*"([^"]+)",?\s*$`)

// Extractor scans diff text for ecosystem package version changes.
//
// # Thread Safety
//
// Extractor is safe for concurrent use; the ecosystem table is read-only
// after construction.
type Extractor struct {
	table  *EcosystemTable
	logger *slog.Logger
}

// NewExtractor creates an extractor over the given ecosystem table.
//
// # Inputs
//
//   - table: Allow-list of recognized package names. Nil uses the default
//     React Native table.
//   - logger: Structured logger. May be nil for a no-op logger.
func NewExtractor(table *EcosystemTable, logger *slog.Logger) *Extractor {
	if table == nil {
		table = DefaultEcosystem()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{table: table, logger: logger}
}

// Extract derives package updates from diff text and the project manifest.
//
// # Description
//
// Only +/- prefixed lines shaped like manifest entries are considered, and
// only names in the ecosystem table are retained. Target versions come
// from added lines; current versions come from the manifest, not the diff,
// so the result reflects the project as it actually is. Malformed input
// degrades to an empty result.
//
// The extraction is idempotent: running it twice over the same inputs
// yields the same set, and packages already at the target version are not
// emitted.
//
// # Inputs
//
//   - diffText: Raw diff text, or just the manifest record's hunk content.
//   - manifest: The project's current manifest. Nil yields no updates.
//
// # Outputs
//
//   - []*Update: Sorted by name then class; empty (never nil) if nothing
//     qualifies.
func (e *Extractor) Extract(diffText string, manifest *Manifest) []*Update {
	updates := make([]*Update, 0)
	if manifest == nil || diffText == "" {
		return updates
	}

	targets := e.scanTargets(diffText)
	if len(targets) == 0 {
		return updates
	}

	for name, target := range targets {
		for _, class := range []Class{ClassPrimary, ClassDev} {
			declared, ok := manifest.VersionFor(name, class)
			if !ok {
				continue
			}
			current := StripRange(declared)
			if !versionsDiffer(current, target) {
				continue
			}
			updates = append(updates, &Update{
				Name:           name,
				CurrentVersion: current,
				TargetVersion:  target,
				Class:          class,
				Selected:       true,
			})
		}
	}

	sort.Slice(updates, func(i, j int) bool {
		if updates[i].Name != updates[j].Name {
			return updates[i].Name < updates[j].Name
		}
		return updates[i].Class < updates[j].Class
	})

	e.logger.Debug("package extraction complete",
		"ecosystem", e.table.Version,
		"candidates", len(targets),
		"updates", len(updates))
	return updates
}

// scanTargets collects target versions for ecosystem packages from added
// diff lines.
func (e *Extractor) scanTargets(diffText string) map[string]string {
	targets := make(map[string]string)
	for _, line := range strings.Split(diffText, "\n") {
		m := manifestLine.FindStringSubmatch(line)
		if m == nil || m[1] != "+" {
			continue
		}
		name := m[2]
		if !e.table.Matches(name) {
			continue
		}
		targets[name] = StripRange(m[3])
	}
	return targets
}

// StripRange removes a leading caret or tilde range operator from a
// version string.
func StripRange(version string) string {
	return strings.TrimLeft(version, "^~")
}

// versionsDiffer compares two versions, semantically when both are valid
// semver and textually otherwise.
func versionsDiffer(current, target string) bool {
	cv, tv := "v"+current, "v"+target
	if semver.IsValid(cv) && semver.IsValid(tv) {
		return semver.Compare(cv, tv) != 0
	}
	return current != target
}
