// SPDX-License-Identifier: AGPL-3.0-or-later
package projection

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAtomicWrite(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "out", "DASHBOARD.md")
	content := []byte("# Governance Dashboard\n")

	if err := AtomicWrite(target, content); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if string(got) != string(content) {
		t.Errorf("got %q, want %q", got, content)
	}
}

func TestAtomicWriteOverwrites(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "COST_DASHBOARD.md")

	if err := AtomicWrite(target, []byte("old")); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := AtomicWrite(target, []byte("new")); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("got %q, want %q", got, "new")
	}
}

func TestSectionDivider(t *testing.T) {
	out := SectionDivider("Health Score")
	if !strings.Contains(out, "## Health Score") {
		t.Errorf("divider missing title: %q", out)
	}
}
