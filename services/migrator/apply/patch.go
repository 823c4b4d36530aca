// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package apply

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"github.com/AleutianAI/rnmigrate/services/migrator/diff"
)

// ErrContentMismatch reports that a file has diverged from the release
// baseline the diff was computed against.
var ErrContentMismatch = errors.New("file content does not match release baseline")

// PatchStrategy transforms current file content using a parsed record.
//
// # Description
//
// The default implementation is a deliberate simplification: it replays
// each hunk into an old/new text pair and performs a literal substring
// replacement. The interface exists so a context-aware or three-way
// algorithm can replace it without touching callers.
type PatchStrategy interface {
	// Patch returns the new content, or ErrContentMismatch when the old
	// content cannot be located verbatim.
	Patch(current []byte, rec *diff.FileRecord) ([]byte, error)
}

// SubstringPatcher is the literal old-for-new substring strategy.
type SubstringPatcher struct{}

// Patch implements PatchStrategy.
//
// # Description
//
// For added files the hunk's added lines become the whole file. For
// modifications, each hunk is replayed into an old block (context +
// removed lines) and a new block (context + added lines); the old block
// is located verbatim in the current content and replaced once. A hunk
// whose new block is already present counts as applied, keeping retries
// side-effect free.
func (SubstringPatcher) Patch(current []byte, rec *diff.FileRecord) ([]byte, error) {
	if rec.Status == diff.StatusAdded {
		var parts []string
		noFinalNewline := false
		for _, hunk := range rec.Hunks() {
			_, added := replayHunk(hunk)
			parts = append(parts, added)
			noFinalNewline = strings.Contains(string(hunk.Body), "\\ No newline at end of file")
		}
		content := strings.Join(parts, "\n")
		// Created files keep the template's trailing newline unless the
		// diff marks its absence.
		if content != "" && !noFinalNewline {
			content += "\n"
		}
		return []byte(content), nil
	}

	content := string(current)
	for _, hunk := range rec.Hunks() {
		old, updated := replayHunk(hunk)
		if old == "" {
			continue
		}
		if !strings.Contains(content, old) {
			if updated != "" && strings.Contains(content, updated) {
				// Already applied.
				continue
			}
			return nil, fmt.Errorf("%w: %s (hunk at line %d)",
				ErrContentMismatch, rec.ProjectPath(), hunk.OrigStartLine)
		}
		content = strings.Replace(content, old, updated, 1)
	}
	return []byte(content), nil
}

// replayHunk splits a hunk body into its old and new renditions: context
// lines appear in both, removed lines only in old, added lines only in
// new.
func replayHunk(hunk *godiff.Hunk) (old, updated string) {
	var oldLines, newLines []string
	for _, line := range strings.Split(string(hunk.Body), "\n") {
		if line == "" {
			continue
		}
		switch line[0] {
		case '+':
			newLines = append(newLines, line[1:])
		case '-':
			oldLines = append(oldLines, line[1:])
		case ' ':
			oldLines = append(oldLines, line[1:])
			newLines = append(newLines, line[1:])
		case '\\':
			// "\ No newline at end of file" marker.
		default:
			oldLines = append(oldLines, line)
			newLines = append(newLines, line)
		}
	}
	return strings.Join(oldLines, "\n"), strings.Join(newLines, "\n")
}

// GradleLinePatcher applies key-based line substitutions for build files.
//
// # Description
//
// Gradle files drift more than template sources (local SDK versions,
// added dependencies), so whole-block substring matching fails often.
// Instead, removed/added hunk lines are paired by their leading key
// (left-hand side of an assignment, or the first tokens of a plugin or
// dependency line), and matching lines in the current file are replaced
// individually.
type GradleLinePatcher struct{}

// Patch implements PatchStrategy.
func (GradleLinePatcher) Patch(current []byte, rec *diff.FileRecord) ([]byte, error) {
	subs := lineSubstitutions(rec.Hunks())
	if len(subs) == 0 {
		// Nothing line-addressable; fall back to the literal strategy.
		return SubstringPatcher{}.Patch(current, rec)
	}

	lines := strings.Split(string(current), "\n")
	replaced := 0
	alreadyApplied := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		for _, sub := range subs {
			if trimmed == strings.TrimSpace(sub.oldLine) {
				lines[i] = sub.newLine
				replaced++
			} else if trimmed == strings.TrimSpace(sub.newLine) {
				alreadyApplied++
			}
		}
	}

	if replaced == 0 {
		if alreadyApplied > 0 {
			return current, nil
		}
		return nil, fmt.Errorf("%w: %s (no build lines matched)",
			ErrContentMismatch, rec.ProjectPath())
	}
	return []byte(strings.Join(lines, "\n")), nil
}

// substitution pairs one removed build line with its replacement.
type substitution struct {
	oldLine string
	newLine string
}

// lineSubstitutions pairs removed and added hunk lines by key.
func lineSubstitutions(hunks []*godiff.Hunk) []substitution {
	var removed, added []string
	for _, hunk := range hunks {
		for _, line := range strings.Split(string(hunk.Body), "\n") {
			if len(line) < 2 {
				continue
			}
			switch line[0] {
			case '-':
				removed = append(removed, line[1:])
			case '+':
				added = append(added, line[1:])
			}
		}
	}

	var subs []substitution
	for _, r := range removed {
		key := gradleKey(r)
		if key == "" {
			continue
		}
		for _, a := range added {
			if gradleKey(a) == key && strings.TrimSpace(a) != strings.TrimSpace(r) {
				subs = append(subs, substitution{oldLine: r, newLine: a})
				break
			}
		}
	}
	return subs
}

// depCoordinate matches plugin and dependency declarations, capturing the
// declaring keyword and the quoted coordinate.
var depCoordinate = regexp.MustCompile(`^(classpath|implementation|api|compileOnly|id)\s*\(?\s*["']([^"']+)["']`)

// gradleKey extracts the stable left-hand side of a build line: the
// assignment target for key=value lines, or the keyword plus the
// version-stripped coordinate for plugin/dependency lines.
func gradleKey(line string) string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "//") || strings.HasPrefix(trimmed, "#") {
		return ""
	}
	if idx := strings.Index(trimmed, "="); idx > 0 {
		return strings.TrimSpace(trimmed[:idx])
	}
	if m := depCoordinate.FindStringSubmatch(trimmed); m != nil {
		coord := m[2]
		// Drop a trailing version segment so bumps pair up.
		if i := strings.LastIndex(coord, ":"); i > 0 && strings.ContainsAny(coord[i+1:], "0123456789") {
			coord = coord[:i]
		}
		return m[1] + " " + coord
	}
	return strings.Fields(trimmed)[0]
}
