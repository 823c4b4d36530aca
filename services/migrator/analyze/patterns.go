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
	"path"
	"strings"

	"github.com/AleutianAI/rnmigrate/services/migrator/classify"
	"github.com/AleutianAI/rnmigrate/services/migrator/diff"
)

// pattern is one row of the change-description table.
//
// A pattern matches when the file name check passes and, if set, the
// content marker appears in the hunk body. First match wins; order in the
// table is precedence.
type pattern struct {
	// name identifies the pattern for logging.
	name string

	// category restricts the pattern to one classifier category, or ""
	// for any.
	category classify.Category

	// fileMatch checks the base filename or full path.
	fileMatch func(fullPath, base string) bool

	// contentMarker must appear in the record content (empty matches any).
	contentMarker string

	description       string
	severity          Severity
	requiresMigration bool
	breakingChanges   []string
}

// matches reports whether this pattern applies to the record.
func (p *pattern) matches(category classify.Category, rec *diff.FileRecord) bool {
	if p.category != "" && p.category != category {
		return false
	}
	if !p.fileMatch(rec.Path, path.Base(rec.Path)) {
		return false
	}
	if p.contentMarker != "" && !strings.Contains(rec.Content, p.contentMarker) {
		return false
	}
	return true
}

// baseIs matches on exact base filenames.
func baseIs(names ...string) func(string, string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(_, base string) bool { return set[base] }
}

// pathHasSuffix matches on a full-path suffix.
func pathHasSuffix(suffix string) func(string, string) bool {
	return func(full, _ string) bool { return strings.HasSuffix(full, suffix) }
}

// defaultPatterns is the built-in description table.
//
// The table is ordered from most to least specific; the native bootstrap
// rows sit first because their severity dominates everything else in a
// release diff.
var defaultPatterns = []pattern{
	{
		name:              "native-bootstrap-updated",
		category:          classify.CategoryNativeCode,
		fileMatch:         baseIs("MainApplication.java", "MainApplication.kt"),
		contentMarker:     "loadReactNative",
		description:       "Native application bootstrap rewritten for the updated initialization sequence",
		severity:          SeverityCritical,
		requiresMigration: true,
		breakingChanges:   []string{
			"React Native initialization sequence changed; custom MainApplication logic must be re-applied on the new bootstrap",
			"Third-party packages hooking application startup may need updated integration steps",
		},
	},
	{
		name:              "native-bootstrap-touched",
		category:          classify.CategoryNativeCode,
		fileMatch:         baseIs("MainApplication.java", "MainApplication.kt", "AppDelegate.swift", "AppDelegate.mm", "AppDelegate.m"),
		description:       "Native application bootstrap updated",
		severity:          SeverityHigh,
		requiresMigration: true,
		breakingChanges:   []string{
			"Application bootstrap changed; verify custom startup code after merging",
		},
	},
	{
		name:              "native-activity-updated",
		category:          classify.CategoryNativeCode,
		fileMatch:         baseIs("MainActivity.java", "MainActivity.kt"),
		description:       "Main activity updated for the new release template",
		severity:          SeverityHigh,
		requiresMigration: true,
	},
	{
		name:              "app-entry-restructured",
		category:          classify.CategorySourceCode,
		fileMatch:         baseIs("App.tsx", "App.js"),
		contentMarker:     "NewAppScreen",
		description:       "Application entry point restructured by the new template",
		severity:          SeverityHigh,
		requiresMigration: true,
		breakingChanges:   []string{
			"Root component was rewritten by the upgrade template; local App code must be merged manually",
		},
	},
	{
		name:              "kotlin-version-changed",
		category:          classify.CategoryBuildSystem,
		fileMatch:         baseIs("build.gradle"),
		contentMarker:     "kotlinVersion",
		description:       "Gradle build updated with a new Kotlin version",
		severity:          SeverityHigh,
		requiresMigration: true,
		breakingChanges:   []string{
			"Kotlin version changed; Gradle plugins and native modules must be compatible with the new Kotlin release",
		},
	},
	{
		name:              "gradle-distribution-updated",
		category:          classify.CategoryBuildSystem,
		fileMatch:         baseIs("gradle-wrapper.properties"),
		contentMarker:     "distributionUrl",
		description:       "Gradle wrapper distribution updated",
		severity:          SeverityMedium,
		requiresMigration: true,
	},
	{
		name:              "pods-updated",
		category:          classify.CategoryBuildSystem,
		fileMatch:         baseIs("Podfile", "Podfile.lock"),
		description:       "CocoaPods configuration updated; run pod install after applying",
		severity:          SeverityMedium,
		requiresMigration: true,
	},
	{
		name:              "gradle-settings-updated",
		category:          classify.CategoryBuildSystem,
		fileMatch:         baseIs("settings.gradle"),
		contentMarker:     "pluginManagement",
		description:       "Gradle settings restructured for the plugin management block",
		severity:          SeverityHigh,
		requiresMigration: true,
		breakingChanges:   []string{
			"settings.gradle layout changed; locally registered modules must move into the new structure",
		},
	},
	{
		name:              "metro-config-updated",
		category:          classify.CategoryConfiguration,
		fileMatch:         baseIs("metro.config.js"),
		description:       "Metro bundler configuration updated",
		severity:          SeverityMedium,
		requiresMigration: true,
	},
	{
		name:              "babel-config-updated",
		category:          classify.CategoryConfiguration,
		fileMatch:         baseIs("babel.config.js", ".babelrc"),
		description:       "Babel configuration updated",
		severity:          SeverityMedium,
		requiresMigration: true,
	},
	{
		name:              "manifest-updated",
		category:          classify.CategoryConfiguration,
		fileMatch:         baseIs("package.json"),
		description:       "Dependency manifest updated; versions handled by the package step",
		severity:          SeverityLow,
		requiresMigration: false,
	},
	{
		name:              "wrapper-binary-replaced",
		category:          classify.CategoryBuildSystem,
		fileMatch:         pathHasSuffix("gradle-wrapper.jar"),
		description:       "Gradle wrapper binary replaced from release assets",
		severity:          SeverityLow,
		requiresMigration: false,
	},
}

// categoryDefault is the fallback row applied when no pattern matched.
type categoryDefault struct {
	severity          Severity
	requiresMigration bool
}

// categoryDefaults define the generic record per category.
var categoryDefaults = map[classify.Category]categoryDefault{
	classify.CategoryConfiguration: {SeverityLow, false},
	classify.CategorySourceCode:    {SeverityMedium, true},
	classify.CategoryNativeCode:    {SeverityMedium, true},
	classify.CategoryBuildSystem:   {SeverityMedium, true},
	classify.CategoryBinary:        {SeverityLow, false},
}
