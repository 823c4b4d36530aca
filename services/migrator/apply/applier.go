// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package apply executes the user-selected subset of migration changes
// against a real project tree.
//
// # Description
//
// The applier dispatches each selected change by kind: manifest rewrites,
// binary fetch-and-replace, build-file line substitutions, and best-effort
// textual patches. Every destination file is snapshotted before mutation;
// a failed backup blocks mutation of that path only. Failures are
// collected per change and never abort siblings, so the caller always
// receives a complete report.
//
// # Thread Safety
//
// Applier is safe for concurrent use. Within one Apply call, text changes
// run sequentially in the given order; binary replacements run through a
// bounded worker group because each one is independently retryable.
package apply

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/rnmigrate/services/migrator/analyze"
	"github.com/AleutianAI/rnmigrate/services/migrator/backup"
	"github.com/AleutianAI/rnmigrate/services/migrator/classify"
	"github.com/AleutianAI/rnmigrate/services/migrator/diff"
	"github.com/AleutianAI/rnmigrate/services/migrator/packages"
)

// AssetFetcher downloads binary release assets. fetch.Client implements
// it; tests substitute fakes.
type AssetFetcher interface {
	FetchAsset(ctx context.Context, path, toVersion string) ([]byte, error)
}

// Options configures apply behavior.
type Options struct {
	// DryRun simulates application without writing files.
	DryRun bool

	// BinaryConcurrency bounds parallel asset downloads (default 4).
	BinaryConcurrency int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{BinaryConcurrency: 4}
}

// =============================================================================
// Results
// =============================================================================

// ChangeResult is the per-change outcome record.
type ChangeResult struct {
	// Type is the change category.
	Type classify.Category `json:"type"`

	// FilePath is the diff path of the change.
	FilePath string `json:"filePath"`

	// Success indicates the change applied (or would, under dry run).
	Success bool `json:"success"`

	// Error describes the failure, empty on success.
	Error string `json:"error,omitempty"`
}

// Result aggregates one apply batch.
type Result struct {
	// Success is true only if every selected change succeeded.
	Success bool `json:"success"`

	// Applied holds one entry per selected change, in completion order.
	Applied []ChangeResult `json:"appliedChanges"`

	// Errors collects failure descriptions for quick display.
	Errors []string `json:"errors,omitempty"`
}

// record appends a per-change outcome.
func (r *Result) record(cr ChangeResult) {
	r.Applied = append(r.Applied, cr)
	if !cr.Success {
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %s", cr.FilePath, cr.Error))
	}
}

// Request is one apply batch: the caller-selected changes plus the parsed
// records they came from.
type Request struct {
	// Changes is the selected subset, in plan order.
	Changes []*analyze.ComplexChange

	// Records indexes the parsed diff by path.
	Records diff.RecordSet

	// ToVersion is the target release tag for asset URLs.
	ToVersion string

	// Set is the run's backup set; snapshots taken during apply are
	// recorded here.
	Set *backup.Set
}

// =============================================================================
// Applier
// =============================================================================

// handlerFunc applies one change kind.
type handlerFunc func(ctx context.Context, change *analyze.ComplexChange, rec *diff.FileRecord, req *Request) error

// Applier applies selected migration changes to a project tree.
type Applier struct {
	projectRoot string
	backups     *backup.Manager
	fetcher     AssetFetcher
	patcher     PatchStrategy
	options     Options
	handlers    map[classify.Category]handlerFunc
	logger      *slog.Logger

	// mu serializes backup-set mutation from binary workers.
	mu sync.Mutex
}

// NewApplier creates an applier rooted at the project directory.
//
// # Inputs
//
//   - projectRoot: Absolute path to the project tree. Must be an existing
//     directory.
//   - backups: Snapshot manager; required.
//   - fetcher: Binary asset source; required.
//   - options: Apply options.
//   - logger: Structured logger. May be nil for a no-op logger.
//
// # Outputs
//
//   - *Applier: Ready-to-use applier.
//   - error: Non-nil if projectRoot is invalid.
func NewApplier(projectRoot string, backups *backup.Manager, fetcher AssetFetcher, options Options, logger *slog.Logger) (*Applier, error) {
	if !filepath.IsAbs(projectRoot) {
		return nil, fmt.Errorf("projectRoot must be absolute: %s", projectRoot)
	}
	info, err := os.Stat(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("stat projectRoot: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("projectRoot is not a directory: %s", projectRoot)
	}
	if options.BinaryConcurrency <= 0 {
		options.BinaryConcurrency = DefaultOptions().BinaryConcurrency
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	a := &Applier{
		projectRoot: projectRoot,
		backups:     backups,
		fetcher:     fetcher,
		patcher:     SubstringPatcher{},
		options:     options,
		logger:      logger,
	}
	a.handlers = map[classify.Category]handlerFunc{
		classify.CategoryConfiguration: a.applyTextual,
		classify.CategorySourceCode:    a.applyTextual,
		classify.CategoryNativeCode:    a.applyTextual,
		classify.CategoryBuildSystem:   a.applyBuildSystem,
		classify.CategoryBinary:        a.applyBinary,
	}
	return a, nil
}

// WithPatcher overrides the textual patch strategy. Returns the applier
// for chaining.
func (a *Applier) WithPatcher(p PatchStrategy) *Applier {
	a.patcher = p
	return a
}

// Apply executes the selected changes and reports per-change outcomes.
//
// # Description
//
// Text-based changes run sequentially in request order so a failure on
// one file never races a write to another. Binary replacements are
// collected and dispatched to a bounded worker group afterwards; each is
// independently retryable and a cancelled download never touches the
// target file. The batch never returns an error for individual change
// failures; those live in the Result.
//
// # Inputs
//
//   - ctx: Context for cancellation; checked between changes.
//   - req: The selected changes and supporting data.
//
// # Outputs
//
//   - *Result: Complete report; Success is true only if every change
//     succeeded. Never nil.
func (a *Applier) Apply(ctx context.Context, req *Request) *Result {
	result := &Result{}
	if req.Set == nil {
		req.Set = backup.NewSet(a.projectRoot, req.ToVersion)
	}

	var binaries []*analyze.ComplexChange
	for _, change := range req.Changes {
		if err := ctx.Err(); err != nil {
			result.record(ChangeResult{
				Type: change.Type, FilePath: change.FilePath,
				Error: err.Error(),
			})
			continue
		}

		if a.isBinaryChange(change) {
			binaries = append(binaries, change)
			continue
		}
		result.record(a.applyOne(ctx, change, req))
	}

	a.applyBinaries(ctx, binaries, req, result)

	result.Success = true
	for _, cr := range result.Applied {
		if !cr.Success {
			result.Success = false
			break
		}
	}

	a.logger.Info("apply batch complete",
		"changes", len(req.Changes),
		"succeeded", len(result.Applied)-len(result.Errors),
		"failed", len(result.Errors),
		"dry_run", a.options.DryRun)
	return result
}

// isBinaryChange reports whether a change applies as a wholesale binary
// replacement, including wrapper jars planned as build-system work.
func (a *Applier) isBinaryChange(change *analyze.ComplexChange) bool {
	return change.Type == classify.CategoryBinary || diff.IsBinaryPath(change.FilePath)
}

// applyOne dispatches a single change through the handler table.
func (a *Applier) applyOne(ctx context.Context, change *analyze.ComplexChange, req *Request) ChangeResult {
	cr := ChangeResult{Type: change.Type, FilePath: change.FilePath}

	handler, ok := a.handlers[change.Type]
	if a.isBinaryChange(change) {
		// A binary path is always a wholesale replacement, whatever its
		// planned category; the wrapper jar arrives as build_system.
		handler, ok = a.applyBinary, true
	}
	if !ok {
		cr.Error = fmt.Sprintf("no handler for change type %q", change.Type)
		return cr
	}

	rec, ok := req.Records[change.FilePath]
	if !ok {
		cr.Error = "no diff record for path"
		return cr
	}

	if err := handler(ctx, change, rec, req); err != nil {
		cr.Error = err.Error()
		a.logger.Warn("change failed",
			"path", change.FilePath, "type", change.Type, "error", err)
		return cr
	}

	cr.Success = true
	return cr
}

// applyBinaries runs binary replacements through a bounded worker group.
func (a *Applier) applyBinaries(ctx context.Context, changes []*analyze.ComplexChange, req *Request, result *Result) {
	if len(changes) == 0 {
		return
	}

	var resultMu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.options.BinaryConcurrency)

	for _, change := range changes {
		change := change
		g.Go(func() error {
			cr := a.applyOne(gctx, change, req)
			resultMu.Lock()
			result.record(cr)
			resultMu.Unlock()
			// Individual failures are reported, not propagated; returning
			// an error here would cancel unrelated downloads.
			return nil
		})
	}
	g.Wait()
}

// resolvePath maps a diff path into the project tree, stripping the
// synthetic template root.
func (a *Applier) resolvePath(diffPath string) string {
	return filepath.Join(a.projectRoot, filepath.FromSlash(diff.StripTemplateRoot(diffPath)))
}

// ensureBackup snapshots a path into the run's set before mutation. A
// path that fails to back up must not be mutated.
func (a *Applier) ensureBackup(path string, category classify.Category, req *Request) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if req.Set.Has(path) {
		return nil
	}
	rec, err := a.backups.Backup(path, string(category))
	if err != nil {
		return fmt.Errorf("backup required before overwrite: %w", err)
	}
	req.Set.Records[path] = rec
	return nil
}

// =============================================================================
// Handlers
// =============================================================================

// applyTextual handles configuration, source, and native code changes via
// the patch strategy.
func (a *Applier) applyTextual(_ context.Context, change *analyze.ComplexChange, rec *diff.FileRecord, req *Request) error {
	target := a.resolvePath(change.FilePath)

	current, err := os.ReadFile(target)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading %s: %w", target, err)
	}
	if !exists && rec.Status != diff.StatusAdded {
		return fmt.Errorf("%w: %s does not exist", ErrContentMismatch, rec.ProjectPath())
	}

	patched, err := a.patcher.Patch(current, rec)
	if err != nil {
		return err
	}

	if a.options.DryRun {
		return nil
	}

	if exists {
		if err := a.ensureBackup(target, change.Type, req); err != nil {
			return err
		}
	} else if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}

	if err := os.WriteFile(target, patched, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}

// applyBuildSystem handles text build files with line substitutions.
// Binary build assets (the wrapper jar) are routed to the binary handler
// before dispatch reaches here.
func (a *Applier) applyBuildSystem(_ context.Context, change *analyze.ComplexChange, rec *diff.FileRecord, req *Request) error {
	target := a.resolvePath(change.FilePath)

	current, err := os.ReadFile(target)
	if err != nil {
		return fmt.Errorf("reading %s: %w", target, err)
	}

	patched, err := GradleLinePatcher{}.Patch(current, rec)
	if err != nil {
		return err
	}

	if a.options.DryRun {
		return nil
	}

	if err := a.ensureBackup(target, change.Type, req); err != nil {
		return err
	}
	if err := os.WriteFile(target, patched, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}

// applyBinary fetches the release asset and replaces the target file. The
// payload is fully buffered before any write, so cancellation mid-fetch
// never corrupts the target.
func (a *Applier) applyBinary(ctx context.Context, change *analyze.ComplexChange, rec *diff.FileRecord, req *Request) error {
	target := a.resolvePath(change.FilePath)

	data, err := a.fetcher.FetchAsset(ctx, change.FilePath, req.ToVersion)
	if err != nil {
		return fmt.Errorf("downloading asset: %w", err)
	}

	if a.options.DryRun {
		return nil
	}

	// A fresh binary write needs no backup, but a pre-existing file must
	// still be snapshotted first.
	if _, err := os.Stat(target); err == nil {
		if err := a.ensureBackup(target, change.Type, req); err != nil {
			return err
		}
	} else if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("creating directories: %w", err)
	}

	if err := os.WriteFile(target, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}
	return nil
}

// =============================================================================
// Manifest Updates
// =============================================================================

// ApplyPackageUpdates rewrites selected dependency versions in the
// project manifest.
//
// # Description
//
// The manifest gets a timestamped pre-update snapshot (not the plain
// sibling, so successive runs keep their baselines). Each selected
// update's declared version is replaced in place, preserving any caret or
// tilde range prefix the project used. The rewrite is idempotent: a
// package already at the target version is left untouched.
//
// # Inputs
//
//   - ctx: Context; honored before any write.
//   - updates: Proposed updates; unselected entries are skipped.
//
// # Outputs
//
//   - int: Number of entries rewritten.
//   - error: Non-nil on read, snapshot, or write failure.
func (a *Applier) ApplyPackageUpdates(ctx context.Context, updates []*packages.Update, req *Request) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	manifestPath := filepath.Join(a.projectRoot, packages.ManifestName)
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return 0, fmt.Errorf("reading manifest: %w", err)
	}

	content := string(data)
	rewritten := 0
	for _, u := range updates {
		if !u.Selected {
			continue
		}
		entry := regexp.MustCompile(`"` + regexp.QuoteMeta(u.Name) + `"\s*:\s*"([\^~]?)[^"]*"`)
		m := entry.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		replacement := fmt.Sprintf(`"%s": "%s%s"`, u.Name, m[1], u.TargetVersion)
		updated := entry.ReplaceAllLiteralString(content, replacement)
		if updated != content {
			content = updated
			rewritten++
		}
	}

	if rewritten == 0 || a.options.DryRun {
		return rewritten, nil
	}

	rec, err := a.backups.BackupTimestamped(manifestPath, string(classify.CategoryConfiguration))
	if err != nil {
		return 0, fmt.Errorf("backup required before overwrite: %w", err)
	}
	if req != nil && req.Set != nil && !req.Set.Has(manifestPath) {
		req.Set.Records[manifestPath] = rec
	}

	if err := os.WriteFile(manifestPath, []byte(content), 0644); err != nil {
		return 0, fmt.Errorf("writing manifest: %w", err)
	}

	a.logger.Info("manifest updated",
		"path", manifestPath, "packages", rewritten)
	return rewritten, nil
}
