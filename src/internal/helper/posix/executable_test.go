// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package posix

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

const fallback = "x509-chain-verifier"

func TestExecutableName(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{name: "Relative Path", args: []string{"./myapp"}, expected: "myapp"},
		{name: "Just Filename", args: []string{"myapp"}, expected: "myapp"},
		{name: "Unix Absolute Path", args: []string{"/usr/local/bin/myapp"}, expected: "myapp"},
		{name: "Windows Path With Exe", args: []string{`C:\Program Files\myapp.exe`}, expected: "myapp"},
		{name: "Mixed Separators", args: []string{`C:\tools/bin\verifier.exe`}, expected: "verifier"},
		{name: "Other Extensions Kept", args: []string{"/opt/verifier.sh"}, expected: "verifier.sh"},
		{name: "Only Separators", args: []string{"///"}, expected: fallback},
		{name: "Bare Exe Suffix", args: []string{"/bin/.exe"}, expected: fallback},
		{name: "Empty First Arg", args: []string{""}, expected: fallback},
		{name: "No Args", args: []string{}, expected: fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orig := os.Args
			os.Args = tt.args
			defer func() { os.Args = orig }()

			assert.Equal(t, tt.expected, ExecutableName(fallback))
		})
	}
}
