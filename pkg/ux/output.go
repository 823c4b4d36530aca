// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides styled terminal output for the rnmigrate CLI.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// rnmigrate color palette - cool blues with semantic accents
var (
	ColorBlueBright  = lipgloss.Color("#61DAFB") // Bright cyan-blue - highlights
	ColorBluePrimary = lipgloss.Color("#3B9EDC") // Primary blue - main accent
	ColorBlueDeep    = lipgloss.Color("#2A6F9E") // Deep blue - borders
	ColorSlate       = lipgloss.Color("#5C6A72") // Slate - muted text

	// Semantic colors
	ColorSuccess = lipgloss.Color("#4CC38A") // Green for success
	ColorWarning = lipgloss.Color("#F4D03F") // Gold/amber for warnings
	ColorError   = lipgloss.Color("#E74C3C") // Red for errors
)

// Styles provides pre-configured lipgloss styles
var Styles = struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Bold      lipgloss.Style
	Muted     lipgloss.Style
	Success   lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style

	Box        lipgloss.Style
	WarningBox lipgloss.Style

	RiskLow    lipgloss.Style
	RiskMedium lipgloss.Style
	RiskHigh   lipgloss.Style
}{
	Title:     lipgloss.NewStyle().Bold(true).Foreground(ColorBlueBright),
	Subtitle:  lipgloss.NewStyle().Foreground(ColorBluePrimary),
	Bold:      lipgloss.NewStyle().Bold(true),
	Muted:     lipgloss.NewStyle().Foreground(ColorSlate),
	Success:   lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning:   lipgloss.NewStyle().Foreground(ColorWarning),
	Error:     lipgloss.NewStyle().Foreground(ColorError),
	Highlight: lipgloss.NewStyle().Foreground(ColorBlueBright).Bold(true),

	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBlueDeep).
		Padding(0, 1),
	WarningBox: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorWarning).
		Padding(0, 1),

	RiskLow:    lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess),
	RiskMedium: lipgloss.NewStyle().Bold(true).Foreground(ColorWarning),
	RiskHigh:   lipgloss.NewStyle().Bold(true).Foreground(ColorError),
}

// Icon provides themed status icons
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
	IconPending Icon = "○"
	IconArrow   Icon = "→"
	IconBullet  Icon = "•"
)

// Render returns the icon with appropriate styling
func (i Icon) Render() string {
	if GetMode() == ModePlain {
		return string(i)
	}
	switch i {
	case IconSuccess:
		return Styles.Success.Render(string(i))
	case IconWarning:
		return Styles.Warning.Render(string(i))
	case IconError:
		return Styles.Error.Render(string(i))
	case IconPending:
		return Styles.Muted.Render(string(i))
	default:
		return string(i)
	}
}

// Print helpers that respect the output mode

// Title prints a styled title
func Title(text string) {
	if GetMode() == ModePlain {
		fmt.Println(text)
		return
	}
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success message with checkmark
func Success(text string) {
	if GetMode() == ModePlain {
		fmt.Fprintf(os.Stdout, "OK: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconSuccess.Render(), Styles.Success.Render(text))
}

// Warning prints a warning message
func Warning(text string) {
	if GetMode() == ModePlain {
		fmt.Fprintf(os.Stderr, "WARN: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconWarning.Render(), Styles.Warning.Render(text))
}

// Error prints an error message
func Error(text string) {
	if GetMode() == ModePlain {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", IconError.Render(), Styles.Error.Render(text))
}

// Info prints an informational message
func Info(text string) {
	if GetMode() == ModePlain {
		fmt.Println(text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints muted/secondary text
func Muted(text string) {
	if GetMode() == ModePlain {
		fmt.Println(text)
		return
	}
	fmt.Println(Styles.Muted.Render(text))
}

// Box prints titled content in a rounded box
func Box(title, content string) {
	if GetMode() == ModePlain {
		fmt.Printf("%s: %s\n", title, content)
		return
	}
	boxStyle := Styles.Box.Width(64)
	titleLine := Styles.Title.Render(title)
	fmt.Println(boxStyle.Render(titleLine + "\n" + content))
}

// WarningBox prints content in a warning-styled box
func WarningBox(title, content string) {
	if GetMode() == ModePlain {
		fmt.Fprintf(os.Stderr, "WARN %s: %s\n", title, content)
		return
	}
	boxStyle := Styles.WarningBox.Width(64)
	titleLine := Styles.Warning.Bold(true).Render(title)
	fmt.Println(boxStyle.Render(titleLine + "\n" + content))
}

// RiskBadge renders a risk level with its semantic color.
func RiskBadge(level string) string {
	if GetMode() == ModePlain {
		return level
	}
	switch level {
	case "low":
		return Styles.RiskLow.Render("LOW")
	case "medium":
		return Styles.RiskMedium.Render("MEDIUM")
	case "high":
		return Styles.RiskHigh.Render("HIGH")
	default:
		return level
	}
}

// ChangeStatus prints a file path with its apply status
func ChangeStatus(path string, status Icon, reason string) {
	if GetMode() == ModePlain {
		fmt.Printf("%s\t%s\t%s\n", status, path, reason)
		return
	}
	if reason != "" {
		fmt.Printf("%s %s %s\n", status.Render(), path, Styles.Muted.Render("("+reason+")"))
		return
	}
	fmt.Printf("%s %s\n", status.Render(), path)
}

// Summary prints an apply summary line with counts
func Summary(applied, failed, total int) {
	if GetMode() == ModePlain {
		fmt.Printf("SUMMARY: applied=%d failed=%d total=%d\n", applied, failed, total)
		return
	}
	fmt.Printf("\n%s %s  %s %s  %s %s\n",
		Styles.Success.Render(fmt.Sprintf("%d", applied)), Styles.Muted.Render("applied"),
		Styles.Error.Render(fmt.Sprintf("%d", failed)), Styles.Muted.Render("failed"),
		Styles.Bold.Render(fmt.Sprintf("%d", total)), Styles.Muted.Render("total"),
	)
}
