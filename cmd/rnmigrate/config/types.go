// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"github.com/go-playground/validator/v10"

	"github.com/AleutianAI/rnmigrate/services/migrator/backup"
	"github.com/AleutianAI/rnmigrate/services/migrator/diff"
	"github.com/AleutianAI/rnmigrate/services/migrator/fetch"
)

// RnmigrateConfig is the persisted CLI configuration.
type RnmigrateConfig struct {
	// Sources: where release diffs and binary assets are fetched from
	Sources SourcesConfig `yaml:"sources"`

	// Backup: snapshot behavior for files touched during apply
	Backup BackupConfig `yaml:"backup"`

	// Log: structured logging destination and level
	Log LogConfig `yaml:"log"`
}

type SourcesConfig struct {
	DiffBaseURL    string `yaml:"diff_base_url" validate:"required,url"`
	AssetBaseURL   string `yaml:"asset_base_url" validate:"required,url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gte=1,lte=600"`
}

type BackupConfig struct {
	// Suffix is appended to snapshot filenames, e.g. ".backup".
	Suffix string `yaml:"suffix" validate:"required,startswith=."`

	// KeepSets is how many persisted backup sets to retain per project.
	KeepSets int `yaml:"keep_sets" validate:"gte=1,lte=100"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	Dir   string `yaml:"dir"`
	JSON  bool   `yaml:"json"`
}

var configValidate = validator.New()

// Validate checks the config against its field constraints.
func (c *RnmigrateConfig) Validate() error {
	return configValidate.Struct(c)
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() RnmigrateConfig {
	return RnmigrateConfig{
		Sources: SourcesConfig{
			DiffBaseURL:    fetch.DefaultDiffBase,
			AssetBaseURL:   diff.DefaultAssetBase,
			TimeoutSeconds: 60,
		},
		Backup: BackupConfig{
			Suffix:   backup.DefaultSuffix,
			KeepSets: 10,
		},
		Log: LogConfig{
			Level: "info",
			Dir:   "~/.rnmigrate/logs",
			JSON:  false,
		},
	}
}
