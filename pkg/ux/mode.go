// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import (
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// OutputMode defines the richness of CLI output.
type OutputMode string

const (
	// ModeRich enables colors, icons, and boxed sections.
	ModeRich OutputMode = "rich"

	// ModePlain outputs unstyled text suitable for scripting and CI logs.
	ModePlain OutputMode = "plain"
)

var (
	currentMode = ModeRich
	modeMu      sync.RWMutex
)

// GetMode returns the current output mode.
func GetMode() OutputMode {
	modeMu.RLock()
	defer modeMu.RUnlock()
	return currentMode
}

// SetMode updates the current output mode.
func SetMode(mode OutputMode) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentMode = mode
}

// ParseMode converts a string to an OutputMode, defaulting to rich.
func ParseMode(s string) OutputMode {
	switch strings.ToLower(s) {
	case "plain", "machine", "p":
		return ModePlain
	default:
		return ModeRich
	}
}

// InitMode initializes the output mode from environment and terminal state.
//
// Precedence: RNMIGRATE_OUTPUT env var, then TTY detection. Piped output
// always degrades to plain so downstream tools get parseable text.
func InitMode() {
	if env := os.Getenv("RNMIGRATE_OUTPUT"); env != "" {
		SetMode(ParseMode(env))
		return
	}
	if !stdoutIsTerminal() {
		SetMode(ModePlain)
		return
	}
	SetMode(ModeRich)
}

// stdoutIsTerminal checks whether stdout is an interactive terminal.
func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive returns true when interactive prompts should be shown.
// Prompts need a terminal on both ends of the pipe.
func IsInteractive() bool {
	if GetMode() == ModePlain {
		return false
	}
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
