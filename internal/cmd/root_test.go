package cmd

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	if cmd == nil {
		t.Fatal("Root command should not be nil")
	}

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	if err != nil {
		t.Fatalf("help execution failed: %v", err)
	}

	output := buf.String()
	if !strings.Contains(strings.ToLower(output), "archtree") {
		t.Errorf("Help text should contain 'archtree', got: %s", output)
	}
	if !strings.Contains(output, "7-Zip") {
		t.Errorf("Help text should mention 7-Zip, got: %s", output)
	}
}

func TestRootCommandHasSubcommands(t *testing.T) {
	cmd := NewRootCommand()

	if cmd.Use != "archtree" {
		t.Errorf("Expected Use to be 'archtree', got '%s'", cmd.Use)
	}

	want := map[string]bool{"backup": false, "verify": false, "history": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}
}

func TestVersionFlag(t *testing.T) {
	cmd := NewRootCommand()

	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version execution failed: %v", err)
	}
	if !strings.Contains(buf.String(), Version) {
		t.Errorf("version output %q does not contain %q", buf.String(), Version)
	}
}
