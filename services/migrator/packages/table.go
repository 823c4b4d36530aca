// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package packages extracts dependency-version deltas from release diffs
// and reconciles them against a project's manifest.
package packages

import "strings"

// EcosystemTable is the versioned allow-list of package names considered
// part of the framework ecosystem.
//
// # Description
//
// The table separates recognition policy from extraction mechanics so
// additional ecosystems can be supported without touching the parser.
// Exact entries match whole names; prefix entries match scoped namespaces.
type EcosystemTable struct {
	// Version identifies the table revision for logs and reports.
	Version string

	// Exact lists full package names.
	Exact []string

	// Prefixes lists scoped-namespace prefixes, each ending in "/".
	Prefixes []string
}

// DefaultEcosystem returns the React Native ecosystem table.
func DefaultEcosystem() *EcosystemTable {
	return &EcosystemTable{
		Version: "react-native/1",
		Exact: []string{
			"react",
			"react-native",
			"react-test-renderer",
			"metro",
			"metro-react-native-babel-preset",
			"hermes-engine",
			"jest",
			"babel-jest",
			"typescript",
		},
		Prefixes: []string{
			"@react-native/",
			"@react-native-community/",
			"@types/react",
		},
	}
}

// Matches reports whether a package name belongs to the ecosystem.
func (t *EcosystemTable) Matches(name string) bool {
	for _, exact := range t.Exact {
		if name == exact {
			return true
		}
	}
	for _, prefix := range t.Prefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
