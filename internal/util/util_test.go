// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mattn/go-runewidth"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	if err := AtomicWriteFile(path, []byte("first"), 0o600); err != nil {
		t.Fatalf("AtomicWriteFile() error = %v", err)
	}
	if err := AtomicWriteFile(path, []byte("second"), 0o600); err != nil {
		t.Fatalf("AtomicWriteFile() overwrite error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "second" {
		t.Errorf("content = %q, want %q", data, "second")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1 (temp files must be cleaned up)", len(entries))
	}
}

// =============================================================================
// WIDTH TESTS
// =============================================================================

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		in       string
		width    int
		want     string
		maxWidth int
	}{
		{"tinyllama:latest", 40, "tinyllama:latest", 40},
		{"tinyllama:latest", 8, "tinylla…", 8},
		{"hello", 0, "", 0},
	}
	for _, tc := range tests {
		got := TruncateWidth(tc.in, tc.width)
		if got != tc.want {
			t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
		if w := runewidth.StringWidth(got); w > tc.maxWidth {
			t.Errorf("TruncateWidth(%q, %d) width = %d", tc.in, tc.width, w)
		}
	}
}

func TestTruncateWidth_WideRunes(t *testing.T) {
	got := TruncateWidth("模型模型模型", 5)
	if w := runewidth.StringWidth(got); w > 5 {
		t.Errorf("width = %d, want <= 5 (%q)", w, got)
	}
}

func TestPadWidth(t *testing.T) {
	got := PadWidth("ab", 5)
	if got != "ab   " {
		t.Errorf("PadWidth = %q, want %q", got, "ab   ")
	}
}
