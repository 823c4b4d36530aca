// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diff parses release-to-release unified diffs into typed,
// per-file change records.
//
// # Description
//
// This package wraps unified diff parsing for the upgrade workflow. A raw
// multi-file diff between two framework release baselines is turned into an
// ordered sequence of FileRecord values, one per touched file. Downstream
// components classify, analyze, and apply these records; this package only
// establishes what changed, not what it means.
//
// # Thread Safety
//
// FileRecord values are immutable after creation and safe for concurrent
// reads. Parser is safe for concurrent use.
package diff

import (
	"path"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// NullDevice is the sentinel path unified diffs use for file creation
// and deletion.
const NullDevice = "/dev/null"

// TemplateRoot is the synthetic top-level directory the release diffs
// prefix every path with. It must be stripped before resolving a path
// inside a real project tree.
const TemplateRoot = "RnDiffApp/"

// DefaultAssetBase is the base URL binary release assets are served from.
// Asset URLs are formed as <base>/<target-version>/<diff-path>.
const DefaultAssetBase = "https://raw.githubusercontent.com/react-native-community/rn-diff-purge/release"

// =============================================================================
// File Status
// =============================================================================

// FileStatus describes how a file was changed between the two baselines.
type FileStatus string

const (
	// StatusAdded indicates the file exists only in the target release.
	StatusAdded FileStatus = "added"

	// StatusDeleted indicates the file exists only in the source release.
	StatusDeleted FileStatus = "deleted"

	// StatusModified indicates the file changed between releases.
	StatusModified FileStatus = "modified"

	// StatusBinary indicates the file cannot be patched textually and must
	// be replaced wholesale from the release asset store.
	StatusBinary FileStatus = "binary"
)

// String returns the string representation of the status.
func (s FileStatus) String() string {
	return string(s)
}

// =============================================================================
// Binary Extensions
// =============================================================================

// binaryExtensions lists extensions that are always treated as binary
// replacements regardless of how the diff represents them. Covers archives,
// native libraries, images, fonts, keystores, and databases.
var binaryExtensions = map[string]bool{
	".jar":      true,
	".keystore": true,
	".png":      true,
	".jpg":      true,
	".jpeg":     true,
	".gif":      true,
	".webp":     true,
	".ttf":      true,
	".otf":      true,
	".zip":      true,
	".tar":      true,
	".gz":       true,
	".so":       true,
	".a":        true,
	".db":       true,
	".realm":    true,
}

// IsBinaryPath reports whether a path's extension marks it as a binary
// asset.
func IsBinaryPath(p string) bool {
	return binaryExtensions[strings.ToLower(path.Ext(p))]
}

// =============================================================================
// File Record
// =============================================================================

// FileRecord is one file touched by the release diff.
//
// # Description
//
// A FileRecord captures the effective path, the change status, and (for
// text files) the verbatim hunk content including the +/-/space markers.
// Binary files carry a deterministic DownloadURL instead of content.
//
// Records are uniquely keyed by Path and immutable after parsing.
type FileRecord struct {
	// Path is the effective path as it appears in the diff, including the
	// synthetic template root.
	Path string

	// Status is the change status (added, deleted, modified, binary).
	Status FileStatus

	// Content is the raw hunk body for text files, empty for binary files
	// and hunk-less records such as pure mode changes.
	Content string

	// IsBinary mirrors Status == StatusBinary for callers that only care
	// about the binary/text split.
	IsBinary bool

	// DownloadURL is the release asset URL for binary files, empty
	// otherwise.
	DownloadURL string

	fileDiff *godiff.FileDiff
}

// Hunks returns the parsed hunks for replay during apply.
//
// Binary records and hunk-less records return nil.
func (r *FileRecord) Hunks() []*godiff.Hunk {
	if r.fileDiff == nil {
		return nil
	}
	return r.fileDiff.Hunks
}

// ProjectPath returns the path with the synthetic template root stripped,
// suitable for resolution against a real project tree.
func (r *FileRecord) ProjectPath() string {
	return StripTemplateRoot(r.Path)
}

// StripTemplateRoot removes the synthetic diff-root prefix from a path.
func StripTemplateRoot(p string) string {
	return strings.TrimPrefix(p, TemplateRoot)
}

// RecordSet indexes records by path for downstream lookups.
type RecordSet map[string]*FileRecord

// NewRecordSet builds a path-keyed index over parsed records.
func NewRecordSet(records []*FileRecord) RecordSet {
	set := make(RecordSet, len(records))
	for _, r := range records {
		set[r.Path] = r
	}
	return set
}

// ByProjectPath looks up a record by its project-relative path.
func (s RecordSet) ByProjectPath(p string) (*FileRecord, bool) {
	r, ok := s[TemplateRoot+p]
	if ok {
		return r, true
	}
	r, ok = s[p]
	return r, ok
}
