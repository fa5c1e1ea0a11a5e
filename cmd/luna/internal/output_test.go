package internal

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewFormatter(t *testing.T) {
	buf := &bytes.Buffer{}

	if _, ok := NewFormatter(FormatText, buf).(*TextFormatter); !ok {
		t.Error("expected TextFormatter for text format")
	}
	if _, ok := NewFormatter(FormatJSON, buf).(*JSONFormatter); !ok {
		t.Error("expected JSONFormatter for json format")
	}
	if _, ok := NewFormatter(OutputFormat("bogus"), buf).(*TextFormatter); !ok {
		t.Error("expected TextFormatter fallback for unknown format")
	}
}

func TestTextFormatterPrefixes(t *testing.T) {
	buf := &bytes.Buffer{}
	f := NewTextFormatter(buf)

	if err := f.PrintSuccess("all good"); err != nil {
		t.Fatalf("PrintSuccess failed: %v", err)
	}
	if err := f.PrintError("not good"); err != nil {
		t.Fatalf("PrintError failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "✓ all good") {
		t.Errorf("expected checkmark prefix, got %q", out)
	}
	if !strings.Contains(out, "✗ not good") {
		t.Errorf("expected cross prefix, got %q", out)
	}
}

func TestTextFormatterPrintTable(t *testing.T) {
	buf := &bytes.Buffer{}
	f := NewTextFormatter(buf)

	err := f.PrintTable([]string{"Component", "Status"}, [][]string{
		{"store", "connected"},
		{"automation", "reachable"},
	})
	if err != nil {
		t.Fatalf("PrintTable failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Component", "Status", "store", "connected", "automation"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected table to contain %q, got %q", want, out)
		}
	}
	if len(strings.Split(strings.TrimSpace(out), "\n")) != 3 {
		t.Errorf("expected header plus two rows, got %q", out)
	}
}

func TestJSONFormatterEnvelopes(t *testing.T) {
	buf := &bytes.Buffer{}
	f := NewJSONFormatter(buf)

	if err := f.PrintSuccess("done"); err != nil {
		t.Fatalf("PrintSuccess failed: %v", err)
	}

	var envelope map[string]string
	if err := json.Unmarshal(buf.Bytes(), &envelope); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if envelope["status"] != "ok" || envelope["message"] != "done" {
		t.Errorf("unexpected envelope: %v", envelope)
	}
}

func TestJSONFormatterPrintTable(t *testing.T) {
	buf := &bytes.Buffer{}
	f := NewJSONFormatter(buf)

	err := f.PrintTable([]string{"Name", "State"}, [][]string{
		{"poller", "running"},
	})
	if err != nil {
		t.Fatalf("PrintTable failed: %v", err)
	}

	var rows []map[string]string
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "poller" || rows[0]["state"] != "running" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestNilWriterDefaultsToStdout(t *testing.T) {
	if NewFormatter(FormatText, nil) == nil {
		t.Error("NewFormatter with nil writer returned nil")
	}
}
