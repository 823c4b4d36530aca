// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diff

import (
	"io"
	"log/slog"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// Parser turns raw multi-file unified diff text into FileRecords.
//
// # Description
//
// Parsing is deliberately forgiving: malformed input degrades to an empty
// record sequence rather than an error, so callers can present "no changes
// detected" instead of crashing. A diff with no file headers is valid and
// yields no records. A file header without any hunks (pure rename or mode
// change) yields a record with empty content.
//
// # Thread Safety
//
// Parser is safe for concurrent use; it holds no mutable state.
type Parser struct {
	assetBase     string
	targetVersion string
	logger        *slog.Logger
}

// NewParser creates a parser that derives binary asset URLs for the given
// target release version.
//
// # Inputs
//
//   - targetVersion: Release tag asset URLs are keyed by (e.g. "0.80.0").
//   - logger: Structured logger. May be nil for a no-op logger.
//
// # Outputs
//
//   - *Parser: Ready-to-use parser.
func NewParser(targetVersion string, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Parser{
		assetBase:     DefaultAssetBase,
		targetVersion: targetVersion,
		logger:        logger,
	}
}

// WithAssetBase overrides the release asset base URL. Returns the parser
// for chaining.
func (p *Parser) WithAssetBase(base string) *Parser {
	p.assetBase = strings.TrimSuffix(base, "/")
	return p
}

// Parse parses a multi-file unified diff into ordered FileRecords.
//
// # Description
//
// One record is produced per "diff --git" header. The effective path is
// the new path unless the new side is /dev/null (deletion), in which case
// the old path is used. Status is derived from the null-device sentinel
// and overridden to binary when the extension is in the binary set or the
// diff itself marks the file as binary.
//
// # Inputs
//
//   - raw: Raw unified diff text.
//
// # Outputs
//
//   - []*FileRecord: Ordered records; empty (never nil) on malformed input.
func (p *Parser) Parse(raw string) []*FileRecord {
	records := make([]*FileRecord, 0)
	if strings.TrimSpace(raw) == "" {
		return records
	}

	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(raw))
	if err != nil {
		p.logger.Debug("diff parse failed, degrading to empty change set",
			"error", err)
		return records
	}

	for _, fd := range fileDiffs {
		records = append(records, p.toRecord(fd))
	}

	return records
}

// toRecord converts one parsed file diff into a FileRecord.
func (p *Parser) toRecord(fd *godiff.FileDiff) *FileRecord {
	oldPath := stripSidePrefix(fd.OrigName)
	newPath := stripSidePrefix(fd.NewName)

	effective := newPath
	status := StatusModified
	switch {
	case oldPath == NullDevice:
		status = StatusAdded
	case newPath == NullDevice:
		status = StatusDeleted
		effective = oldPath
	}

	rec := &FileRecord{
		Path:     effective,
		Status:   status,
		fileDiff: fd,
	}

	if IsBinaryPath(effective) || isBinaryDiff(fd) {
		rec.Status = StatusBinary
		rec.IsBinary = true
		rec.DownloadURL = p.assetBase + "/" + p.targetVersion + "/" + effective
		rec.fileDiff = nil
		return rec
	}

	if len(fd.Hunks) > 0 {
		body, err := godiff.PrintHunks(fd.Hunks)
		if err != nil {
			p.logger.Debug("hunk render failed", "path", effective, "error", err)
		} else {
			rec.Content = string(body)
		}
	}

	return rec
}

// stripSidePrefix removes the a/ or b/ side marker a unified diff places
// before each path. The null-device sentinel is passed through untouched.
func stripSidePrefix(name string) string {
	if name == NullDevice || name == "" {
		return name
	}
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}

// isBinaryDiff reports whether the diff marks this file as binary rather
// than carrying text hunks.
func isBinaryDiff(fd *godiff.FileDiff) bool {
	if len(fd.Hunks) > 0 {
		return false
	}
	for _, line := range fd.Extended {
		if strings.HasPrefix(line, "Binary files ") ||
			strings.HasPrefix(line, "GIT binary patch") {
			return true
		}
	}
	return false
}
