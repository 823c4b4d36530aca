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
	"encoding/json"
	"fmt"
	"os"
)

// ManifestName is the dependency manifest filename.
const ManifestName = "package.json"

// Manifest is the subset of a dependency manifest this engine consumes:
// the two dependency-class maps plus identifying metadata. The engine does
// not own full manifest parsing.
type Manifest struct {
	Name            string            `json:"name,omitempty"`
	Version         string            `json:"version,omitempty"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// LoadManifest reads and decodes a manifest file.
//
// # Inputs
//
//   - path: Path to a package.json file.
//
// # Outputs
//
//   - *Manifest: Decoded manifest with non-nil dependency maps.
//   - error: Non-nil if the file is unreadable or not valid JSON.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	if m.Dependencies == nil {
		m.Dependencies = make(map[string]string)
	}
	if m.DevDependencies == nil {
		m.DevDependencies = make(map[string]string)
	}
	return &m, nil
}

// VersionFor returns the declared version of a package in the given
// dependency class.
func (m *Manifest) VersionFor(name string, class Class) (string, bool) {
	switch class {
	case ClassPrimary:
		v, ok := m.Dependencies[name]
		return v, ok
	case ClassDev:
		v, ok := m.DevDependencies[name]
		return v, ok
	}
	return "", false
}
