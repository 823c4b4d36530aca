// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package backup snapshots files before mutation and restores or discards
// those snapshots afterwards.
//
// # Description
//
// The snapshot-before-write discipline is the engine's sole safety
// mechanism against destructive applies: a Record must exist for a path
// before the change applier is permitted to overwrite it. Backups are
// sibling files (path + ".backup"), or timestamped siblings for manifest
// pre-update snapshots, so a future content-addressed store can replace
// the convention behind the same Record handle.
package backup

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// DefaultSuffix is appended to the original path for plain snapshots.
const DefaultSuffix = ".backup"

// DefaultTimeFormat names timestamped snapshots.
const DefaultTimeFormat = "2006-01-02_150405"

// Record is the resource handle for one snapshot.
//
// # Description
//
// A Record pairs the original path with its backup sibling. Callers hold
// Records for the duration of a migration run and decide afterwards
// whether to restore (rollback) or clean up (commit).
type Record struct {
	// OriginalPath is the file that was snapshotted.
	OriginalPath string `json:"originalPath"`

	// BackupPath is where the snapshot bytes live.
	BackupPath string `json:"backupPath"`

	// Category is the migration category of the original file.
	Category string `json:"fileCategory,omitempty"`

	// Timestamp is when the snapshot was taken.
	Timestamp time.Time `json:"timestamp"`

	// SizeBytes is the snapshot size.
	SizeBytes int64 `json:"sizeBytes"`
}

// Config controls snapshot naming.
type Config struct {
	// Suffix is appended to the original path (default ".backup").
	Suffix string

	// TimeFormat names timestamped manifest snapshots.
	TimeFormat string
}

// DefaultConfig returns the sibling-file convention defaults.
func DefaultConfig() Config {
	return Config{
		Suffix:     DefaultSuffix,
		TimeFormat: DefaultTimeFormat,
	}
}

// Manager creates, restores, and discards snapshots.
//
// # Thread Safety
//
// Manager is safe for concurrent use; all state lives on the filesystem.
type Manager struct {
	config Config
	logger *slog.Logger
}

// NewManager creates a backup manager.
//
// # Inputs
//
//   - config: Naming configuration; zero values fall back to defaults.
//   - logger: Structured logger. May be nil for a no-op logger.
func NewManager(config Config, logger *slog.Logger) *Manager {
	if config.Suffix == "" {
		config.Suffix = DefaultSuffix
	}
	if config.TimeFormat == "" {
		config.TimeFormat = DefaultTimeFormat
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{config: config, logger: logger}
}

// Backup snapshots a file to its sibling backup path.
//
// # Inputs
//
//   - path: File to snapshot. Must exist and be readable.
//   - category: Migration category recorded on the handle.
//
// # Outputs
//
//   - Record: Handle for restore/cleanup.
//   - error: Non-nil if the source is unreadable or the snapshot cannot
//     be written.
func (m *Manager) Backup(path, category string) (Record, error) {
	return m.snapshot(path, path+m.config.Suffix, category)
}

// BackupTimestamped snapshots a file to a timestamped sibling. Used for
// manifest pre-update snapshots so successive runs do not clobber each
// other's backups.
func (m *Manager) BackupTimestamped(path, category string) (Record, error) {
	stamp := time.Now().Format(m.config.TimeFormat)
	return m.snapshot(path, path+m.config.Suffix+"."+stamp, category)
}

// snapshot copies current bytes to backupPath and returns the handle.
func (m *Manager) snapshot(path, backupPath, category string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, fmt.Errorf("reading %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Record{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if err := os.WriteFile(backupPath, data, info.Mode()); err != nil {
		return Record{}, fmt.Errorf("writing backup %s: %w", backupPath, err)
	}

	rec := Record{
		OriginalPath: path,
		BackupPath:   backupPath,
		Category:     category,
		Timestamp:    time.Now(),
		SizeBytes:    int64(len(data)),
	}
	m.logger.Debug("snapshot created",
		"path", path, "backup", backupPath, "bytes", rec.SizeBytes)
	return rec, nil
}

// Restore overwrites the original path from its snapshot.
//
// # Outputs
//
//   - error: Non-nil if the snapshot is unreadable or the original cannot
//     be written.
func (m *Manager) Restore(rec Record) error {
	data, err := os.ReadFile(rec.BackupPath)
	if err != nil {
		return fmt.Errorf("reading backup %s: %w", rec.BackupPath, err)
	}
	if err := os.WriteFile(rec.OriginalPath, data, 0644); err != nil {
		return fmt.Errorf("restoring %s: %w", rec.OriginalPath, err)
	}
	m.logger.Info("restored from backup",
		"path", rec.OriginalPath, "backup", rec.BackupPath)
	return nil
}

// Cleanup removes the snapshot file. Missing snapshots are not an error;
// cleanup is idempotent.
func (m *Manager) Cleanup(rec Record) error {
	if err := os.Remove(rec.BackupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing backup %s: %w", rec.BackupPath, err)
	}
	return nil
}
