package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"vetter/internal/inspect"
	"vetter/internal/rendezvous"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "neighborhood watch", "Neighborhood Watch"},
		{"separators", "crafting__talk--2024", "Crafting Talk 2024"},
		{"whitespace", "  spaced   out  ", "Spaced Out"},
		{"empty", "   ", ""},
		{"symbols", "!!!", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeTitle(tc.input); got != tc.want {
				t.Fatalf("normalizeTitle(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1", " 42 ", "7"})
	if err != nil {
		t.Fatalf("parseIDs: %v", err)
	}
	if len(ids) != 3 || ids[1] != 42 {
		t.Fatalf("ids = %v", ids)
	}
	if _, err := parseIDs([]string{"abc"}); err == nil {
		t.Fatal("expected error for non-numeric id")
	}
}

func TestRenderStatusLine(t *testing.T) {
	line := renderStatusLine("Join", statusOK, "", false)
	if !strings.Contains(line, "Join:") || !strings.Contains(line, "[OK]") {
		t.Fatalf("line = %q", line)
	}
	colored := renderStatusLine("Join", statusError, "boom", true)
	if !strings.Contains(colored, ansiRed) || !strings.Contains(colored, "boom") {
		t.Fatalf("colored = %q", colored)
	}
}

func TestFormatSweepTime(t *testing.T) {
	if got := formatSweepTime(""); got != "never" {
		t.Fatalf("empty = %q", got)
	}
	stamp := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Format(time.RFC3339)
	if got := formatSweepTime(stamp); got == "never" || got == "" {
		t.Fatalf("stamp = %q", got)
	}
	if got := formatSweepTime("not-a-time"); got != "not-a-time" {
		t.Fatalf("passthrough = %q", got)
	}
}

func newBufferedCommand() (*cobra.Command, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	return cmd, buf
}

func TestPrintOutcomeTimeout(t *testing.T) {
	cmd, buf := newBufferedCommand()
	ctx := newCommandContext(nil, nil, nil)

	outcome := rendezvous.Outcome{TimedOut: true, Elapsed: 90 * time.Second, Attempts: 12}
	if err := printOutcome(cmd, ctx, 555, outcome); err != nil {
		t.Fatalf("printOutcome: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "No deep result for subject 555") {
		t.Fatalf("output = %q", output)
	}
	if !strings.Contains(output, "12 polls") {
		t.Fatalf("output missing attempts: %q", output)
	}
}

func TestPrintOutcomeReport(t *testing.T) {
	cmd, buf := newBufferedCommand()
	ctx := newCommandContext(nil, nil, nil)

	report := inspect.Report{
		SubjectID:        777,
		Title:            "Garden Club",
		JoinSuccess:      true,
		GeoGroup:         true,
		GeoReasons:       []string{"location pin in description"},
		GroupType:        "supergroup",
		ParticipantCount: 54,
	}
	payload, err := report.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if err := printOutcome(cmd, ctx, 777, rendezvous.Outcome{Report: payload}); err != nil {
		t.Fatalf("printOutcome: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Garden Club") {
		t.Fatalf("output missing title: %q", output)
	}
	if !strings.Contains(output, "location pin in description") {
		t.Fatalf("output missing geo reason: %q", output)
	}
}

func TestPrintOutcomeJSONMode(t *testing.T) {
	cmd, buf := newBufferedCommand()
	jsonMode := true
	ctx := newCommandContext(nil, nil, &jsonMode)

	payload := []byte(`{"subject_id": 9, "join_success": true}`)
	if err := printOutcome(cmd, ctx, 9, rendezvous.Outcome{Report: payload}); err != nil {
		t.Fatalf("printOutcome: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if decoded["subject_id"].(float64) != 9 {
		t.Fatalf("decoded = %v", decoded)
	}
}

func TestRootCommandWiring(t *testing.T) {
	root := newRootCommand()
	want := []string{"check", "enqueue", "wait", "queue", "leave", "results", "status", "stop", "config"}
	for _, name := range want {
		found := false
		for _, sub := range root.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("root command missing %q", name)
		}
	}
}
