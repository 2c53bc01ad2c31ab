// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import "github.com/fatih/color"

var (
	headerColor  = color.New(color.Bold, color.Underline)
	dimColor     = color.New(color.Faint)
	successColor = color.New(color.FgGreen)
)

// InitColors toggles colorized output for the process; pass noColor to
// force plain text regardless of whether stdout is a terminal.
func InitColors(noColor bool) {
	color.NoColor = noColor
}

// Header prints a section title.
func Header(s string) {
	headerColor.Println(s)
}

// DimText formats secondary, low-emphasis text.
func DimText(s string) string {
	return dimColor.Sprint(s)
}

// Success prints a success message.
func Success(s string) {
	successColor.Println(s)
}
