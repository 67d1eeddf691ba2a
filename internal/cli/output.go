package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/ratewave/featuregate/internal/engine"
	"github.com/ratewave/featuregate/internal/schema"
	"github.com/ratewave/featuregate/internal/validation"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// Stdout is swappable in tests.
var Stdout io.Writer = os.Stdout

// PrintFeatures outputs the features of a config document in the specified format
func PrintFeatures(features []schema.Feature, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(map[string][]schema.Feature{"features": features})
	case FormatYAML:
		return printYAML(map[string][]schema.Feature{"features": features})
	case FormatTable:
		return printFeatureTable(features)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintDecision outputs a single evaluation decision
func PrintDecision(d engine.Decision, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(d)
	case FormatYAML:
		return printYAML(d)
	case FormatTable:
		return printDecisionTable(d)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintValidation outputs a lint result. Table format lists one row per
// finding, sorted by field path so output is stable.
func PrintValidation(result *validation.Result, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(result)
	case FormatYAML:
		return printYAML(result)
	case FormatTable:
		return printValidationTable(result)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data any) error {
	encoder := json.NewEncoder(Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data any) error {
	encoder := yaml.NewEncoder(Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printFeatureTable(features []schema.Feature) error {
	table := tablewriter.NewWriter(Stdout)
	table.Header("Name", "Enabled", "Rules", "Mode")

	for _, f := range features {
		mode := "open"
		switch {
		case !f.Enabled:
			mode = "kill-switch"
		case len(f.Rules) > 0:
			mode = "whitelist"
		}
		table.Append(
			f.Name,
			fmt.Sprintf("%t", f.Enabled),
			fmt.Sprintf("%d", len(f.Rules)),
			mode,
		)
	}

	return table.Render()
}

func printDecisionTable(d engine.Decision) error {
	table := tablewriter.NewWriter(Stdout)
	table.Header("Feature", "Enabled", "Reason", "Matched Rule", "Denied By")

	matched := "-"
	if d.MatchedRule >= 0 {
		matched = fmt.Sprintf("%d", d.MatchedRule)
	}
	deniedBy := d.DeniedBy
	if deniedBy == "" {
		deniedBy = "-"
	}
	table.Append(d.Feature, fmt.Sprintf("%t", d.Enabled), string(d.Reason), matched, deniedBy)

	return table.Render()
}

func printValidationTable(result *validation.Result) error {
	table := tablewriter.NewWriter(Stdout)
	table.Header("Severity", "Field", "Message")

	for _, field := range sortedKeys(result.Errors) {
		table.Append("error", field, result.Errors[field])
	}
	for _, field := range sortedKeys(result.Warnings) {
		table.Append("warning", field, result.Warnings[field])
	}

	if err := table.Render(); err != nil {
		return err
	}
	if result.Valid {
		fmt.Fprintln(Stdout, "document is valid")
	}
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseFormat normalizes a --format flag value.
func ParseFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (use table, json, or yaml)", s)
	}
}
