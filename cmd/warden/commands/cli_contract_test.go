package commands

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootHelpListsAllCommands(t *testing.T) {
	cmd := NewRootCmd()
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("root command failed: %v", err)
	}

	out := b.String()

	requiredCommands := []string{
		"adr-coverage",
		"completion",
		"contract",
		"cost-dashboard",
		"dashboard",
		"drift",
		"health",
		"help",
		"inherits",
		"productivity",
		"quality",
		"scan-insights",
		"security-review",
		"tokens",
		"update-check",
		"version",
	}

	for _, c := range requiredCommands {
		if !strings.Contains(out, c) {
			t.Errorf("expected top-level command %q in root help", c)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	b := bytes.NewBufferString("")
	cmd.SetOut(b)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version command failed: %v", err)
	}
	if !strings.Contains(b.String(), "warden version ") {
		t.Errorf("unexpected version output: %q", b.String())
	}
}
