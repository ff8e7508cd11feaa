// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package posix holds helpers for process-level details that differ between
// [POSIX] systems and Windows.
//
// [POSIX]: https://grokipedia.com/page/POSIX
package posix

import (
	"os"
	"strings"
)

// ExecutableName returns the base name of os.Args[0] without a ".exe" suffix,
// for command usage lines. Both slash and backslash separate path components,
// so a Windows path yields the same name on every platform.
//
// Parameters:
//   - fallback: Name returned when os.Args[0] is missing or empty
func ExecutableName(fallback string) string {
	if len(os.Args) == 0 || os.Args[0] == "" {
		return fallback
	}
	return baseName(os.Args[0], fallback)
}

func baseName(path, fallback string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	if len(parts) == 0 {
		return fallback
	}

	name := strings.TrimSuffix(parts[len(parts)-1], ".exe")
	if name == "" {
		return fallback
	}
	return name
}
