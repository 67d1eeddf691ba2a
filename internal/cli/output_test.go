package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/ratewave/featuregate/internal/engine"
	"github.com/ratewave/featuregate/internal/schema"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := Stdout
	Stdout = &buf
	t.Cleanup(func() { Stdout = old })
	return &buf
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{" yaml ", FormatYAML, false},
		{"xml", "", true},
		{"", "", true},
	}
	for _, tc := range cases {
		got, err := ParseFormat(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseFormat(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormat(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseFormat(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestPrintFeatures_JSON(t *testing.T) {
	buf := captureOutput(t)

	features := []schema.Feature{
		{Name: "a", Enabled: true},
		{Name: "b", Enabled: false, Rules: []schema.Rule{{Action: schema.ActionEnable}}},
	}
	if err := PrintFeatures(features, FormatJSON); err != nil {
		t.Fatalf("PrintFeatures: %v", err)
	}

	var decoded map[string][]schema.Feature
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(decoded["features"]) != 2 {
		t.Errorf("got %d features, want 2", len(decoded["features"]))
	}
}

func TestPrintFeatures_Table(t *testing.T) {
	buf := captureOutput(t)

	features := []schema.Feature{
		{Name: "dark_mode", Enabled: true},
		{Name: "old_sync", Enabled: false},
		{Name: "beta", Enabled: true, Rules: []schema.Rule{{Action: schema.ActionEnable}}},
	}
	if err := PrintFeatures(features, FormatTable); err != nil {
		t.Fatalf("PrintFeatures: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"dark_mode", "open", "kill-switch", "whitelist"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintDecision_Table(t *testing.T) {
	buf := captureOutput(t)

	d := engine.Decision{
		Feature:     "beta",
		Enabled:     false,
		Reason:      engine.ReasonImplicitDeny,
		MatchedRule: -1,
		DeniedBy:    "platform",
	}
	if err := PrintDecision(d, FormatTable); err != nil {
		t.Fatalf("PrintDecision: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"beta", "IMPLICIT_DENY", "platform"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintUnsupportedFormat(t *testing.T) {
	if err := PrintFeatures(nil, "csv"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
