// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Set is the comprehensive backup collection for one migration run.
//
// # Description
//
// A Set keys Records by original path and carries enough metadata
// (project path, target version, timestamp) to identify the run it
// belongs to. Sets serialize to JSON so a later invocation can roll the
// run back.
type Set struct {
	// ID uniquely identifies the set.
	ID string `json:"id"`

	// ProjectPath is the project root the run mutated.
	ProjectPath string `json:"projectPath"`

	// TargetVersion is the release the run migrated toward.
	TargetVersion string `json:"targetVersion"`

	// CreatedAt is when the set was opened.
	CreatedAt time.Time `json:"createdAt"`

	// Records maps original paths to their snapshot handles.
	Records map[string]Record `json:"records"`
}

// NewSet opens an empty backup set for one run.
func NewSet(projectPath, targetVersion string) *Set {
	return &Set{
		ID:            uuid.NewString(),
		ProjectPath:   projectPath,
		TargetVersion: targetVersion,
		CreatedAt:     time.Now(),
		Records:       make(map[string]Record),
	}
}

// Key identifies the run: project path + target version + timestamp.
func (s *Set) Key() string {
	return fmt.Sprintf("%s@%s@%s", s.ProjectPath, s.TargetVersion,
		s.CreatedAt.Format(DefaultTimeFormat))
}

// Has reports whether a path already has a snapshot in this set.
func (s *Set) Has(path string) bool {
	_, ok := s.Records[path]
	return ok
}

// Paths returns the snapshotted paths in sorted order.
func (s *Set) Paths() []string {
	paths := make([]string, 0, len(s.Records))
	for p := range s.Records {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// BatchResult reports the per-path outcome of a batch operation.
type BatchResult struct {
	// Succeeded lists paths the operation completed for.
	Succeeded []string

	// Failed maps paths to failure descriptions.
	Failed map[string]string
}

// OK is true when no path failed.
func (r *BatchResult) OK() bool {
	return len(r.Failed) == 0
}

// BackupAll snapshots every distinct path before any mutation begins.
//
// # Description
//
// Paths are de-duplicated; a path already present in the set is not
// snapshotted again (the first snapshot is the pre-run baseline).
// Failures are collected per path and do not stop the batch. A path that
// failed to back up must not be mutated by the applier.
//
// # Inputs
//
//   - set: The run's backup set, mutated in place.
//   - paths: Files to snapshot, keyed to their migration category.
//
// # Outputs
//
//   - *BatchResult: Per-path outcome; never nil.
func (m *Manager) BackupAll(set *Set, paths map[string]string) *BatchResult {
	result := &BatchResult{Failed: make(map[string]string)}

	ordered := make([]string, 0, len(paths))
	for p := range paths {
		ordered = append(ordered, p)
	}
	sort.Strings(ordered)

	for _, path := range ordered {
		if set.Has(path) {
			result.Succeeded = append(result.Succeeded, path)
			continue
		}
		rec, err := m.Backup(path, paths[path])
		if err != nil {
			result.Failed[path] = err.Error()
			continue
		}
		set.Records[path] = rec
		result.Succeeded = append(result.Succeeded, path)
	}

	m.logger.Info("comprehensive backup complete",
		"set_id", set.ID,
		"succeeded", len(result.Succeeded),
		"failed", len(result.Failed))
	return result
}

// RestoreAll restores every record in the set, continuing past individual
// failures.
func (m *Manager) RestoreAll(set *Set) *BatchResult {
	result := &BatchResult{Failed: make(map[string]string)}
	for _, path := range set.Paths() {
		if err := m.Restore(set.Records[path]); err != nil {
			result.Failed[path] = err.Error()
			continue
		}
		result.Succeeded = append(result.Succeeded, path)
	}
	return result
}

// CleanupAll removes every snapshot in the set, continuing past
// individual failures.
func (m *Manager) CleanupAll(set *Set) *BatchResult {
	result := &BatchResult{Failed: make(map[string]string)}
	for _, path := range set.Paths() {
		if err := m.Cleanup(set.Records[path]); err != nil {
			result.Failed[path] = err.Error()
			continue
		}
		result.Succeeded = append(result.Succeeded, path)
	}
	return result
}

// setDirName is where run manifests live under the project root.
const setDirName = ".rnmigrate"

// SaveSet persists the set manifest under the project root so a later
// invocation can roll the run back.
func SaveSet(set *Set) (string, error) {
	dir := filepath.Join(set.ProjectPath, setDirName, "backups")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating backup dir: %w", err)
	}

	data, err := json.MarshalIndent(set, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding backup set: %w", err)
	}

	path := filepath.Join(dir, set.ID+".json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing backup set: %w", err)
	}
	return path, nil
}

// ListSets reads every set manifest for a project, newest first.
// Unreadable or malformed manifests are skipped.
func ListSets(projectPath string) ([]*Set, error) {
	dir := filepath.Join(projectPath, setDirName, "backups")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	sets := make([]*Set, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var set Set
		if err := json.Unmarshal(data, &set); err != nil {
			continue
		}
		sets = append(sets, &set)
	}

	sort.Slice(sets, func(i, j int) bool {
		return sets[i].CreatedAt.After(sets[j].CreatedAt)
	})
	return sets, nil
}

// LoadLatestSet reads the most recent set manifest for a project, or
// returns os.ErrNotExist when none exists.
func LoadLatestSet(projectPath string) (*Set, error) {
	sets, err := ListSets(projectPath)
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, os.ErrNotExist
	}
	return sets[0], nil
}

// PruneSets deletes set manifests beyond the newest keep entries. The
// snapshot files a pruned manifest points at are left alone; Cleanup
// owns those.
func PruneSets(projectPath string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	sets, err := ListSets(projectPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	dir := filepath.Join(projectPath, setDirName, "backups")
	for _, set := range sets[min(keep, len(sets)):] {
		if err := os.Remove(filepath.Join(dir, set.ID+".json")); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
