// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify assigns a semantic change category to project paths.
//
// # Description
//
// Classification is heuristic and path-based: a small rule chain maps each
// file touched by the release diff onto one of the migration categories
// (build system, native code, configuration, source code, binary). Rule
// precedence matters; the build-system check runs before the native check
// so wrapper jars under android/ are not misclassified as native sources.
//
// Paths matching no rule are an intentional filter result, not an error.
package classify

import (
	"path"
	"strings"
)

// Category is the closed set of migration change kinds.
type Category string

const (
	// CategoryConfiguration covers tooling and app configuration files.
	CategoryConfiguration Category = "configuration"

	// CategorySourceCode covers JavaScript/TypeScript application sources.
	CategorySourceCode Category = "source_code"

	// CategoryNativeCode covers platform-native iOS/Android sources.
	CategoryNativeCode Category = "native_code"

	// CategoryBuildSystem covers Gradle, CocoaPods, and wrapper files.
	CategoryBuildSystem Category = "build_system"

	// CategoryBinary covers assets replaced wholesale rather than patched.
	CategoryBinary Category = "binary"
)

// String returns the string representation of the category.
func (c Category) String() string {
	return string(c)
}

// Categories returns all categories in plan-group order.
func Categories() []Category {
	return []Category{
		CategoryConfiguration,
		CategoryBuildSystem,
		CategoryNativeCode,
		CategorySourceCode,
		CategoryBinary,
	}
}

// =============================================================================
// Rule Tables
// =============================================================================

// buildSystemFiles are exact filenames that always classify as build system.
var buildSystemFiles = map[string]bool{
	"build.gradle":              true,
	"settings.gradle":           true,
	"gradle.properties":         true,
	"gradle-wrapper.properties": true,
	"gradle-wrapper.jar":        true,
	"gradlew":                   true,
	"gradlew.bat":               true,
	"Podfile":                   true,
	"Podfile.lock":              true,
}

// nativeDirs are directory markers for platform-native sources.
var nativeDirs = []string{
	"ios/",
	"android/",
	"src/main/java",
	"src/main/kotlin",
}

// nativeExtensions are source extensions treated as native code when the
// path sits under a native directory.
var nativeExtensions = map[string]bool{
	".kt":    true,
	".java":  true,
	".swift": true,
	".m":     true,
	".mm":    true,
	".h":     true,
	".cpp":   true,
	".c":     true,
}

// configExtensions classify as configuration regardless of location.
var configExtensions = map[string]bool{
	".json": true,
	".js":   true,
	".ts":   true,
	".yaml": true,
	".yml":  true,
	".toml": true,
	".ini":  true,
}

// configFiles are well-known tooling config filenames without a telling
// extension.
var configFiles = map[string]bool{
	".babelrc":               true,
	"babel.config.js":        true,
	"metro.config.js":        true,
	"react-native.config.js": true,
	"tsconfig.json":          true,
	".eslintrc":              true,
	".prettierrc":            true,
	".watchmanconfig":        true,
	".flowconfig":            true,
	".ruby-version":          true,
	"app.json":               true,
	"package.json":           true,
	"Gemfile":                true,
}

// sourceExtensions classify as application source code when no earlier
// rule claimed the path.
var sourceExtensions = map[string]bool{
	".tsx": true,
	".ts":  true,
	".jsx": true,
	".js":  true,
}

// =============================================================================
// Classification
// =============================================================================

// Classify maps a path onto its migration category.
//
// # Description
//
// Rules are checked in precedence order: build system, native code,
// configuration, source code, then binary (as flagged by the diff parser).
// The boolean result is false when no rule matched; such paths carry no
// migration significance and are dropped from the plan.
//
// # Inputs
//
//   - p: Path as it appears in the diff (template root is irrelevant).
//   - isBinary: Whether the diff parser flagged the file as binary.
//
// # Outputs
//
//   - Category: The matched category (zero value when unmatched).
//   - bool: True if a rule matched.
func Classify(p string, isBinary bool) (Category, bool) {
	name := path.Base(p)
	ext := strings.ToLower(path.Ext(p))

	// Wrapper jars apply as binary replacements but plan as build-system
	// work, so this check must run before the native and binary rules.
	if buildSystemFiles[name] || strings.Contains(p, "gradle/") || ext == ".gradle" {
		return CategoryBuildSystem, true
	}

	if underNativeDir(p) && nativeExtensions[ext] {
		return CategoryNativeCode, true
	}

	if configExtensions[ext] && isConfigPath(p, name) {
		return CategoryConfiguration, true
	}
	if configFiles[name] {
		return CategoryConfiguration, true
	}

	if sourceExtensions[ext] {
		return CategorySourceCode, true
	}

	if isBinary {
		return CategoryBinary, true
	}

	return "", false
}

// underNativeDir reports whether the path sits under a platform-native
// directory.
func underNativeDir(p string) bool {
	for _, dir := range nativeDirs {
		if strings.Contains(p, dir) {
			return true
		}
	}
	return false
}

// isConfigPath distinguishes configuration files from application sources
// that share an extension. Known tooling filenames and non-source
// extensions are configuration; a plain .js/.ts file elsewhere is source.
func isConfigPath(p, name string) bool {
	ext := strings.ToLower(path.Ext(p))
	switch ext {
	case ".json", ".yaml", ".yml", ".toml", ".ini":
		return true
	}
	// .js/.ts count as configuration only for known tooling files.
	return configFiles[name]
}
