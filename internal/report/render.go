package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/psantana5/factbench/pkg/hostinfo"
)

// Format selects how a Result is rendered
type Format string

const (
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// ParseFormat validates an output format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected text, json, yaml or table)", s)
	}
}

// Streams reports whether intermediates are printed live during the
// recursion rather than rendered with the result.
func (f Format) Streams() bool {
	return f == FormatText
}

// FormatMillis formats milliseconds with exactly five fractional digits
func FormatMillis(ms float64) string {
	return strconv.FormatFloat(ms, 'f', 5, 64)
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

// Write renders r to w in the given format
func Write(w io.Writer, r *Result, format Format) error {
	switch format {
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)

	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(r); err != nil {
			return err
		}
		return encoder.Close()

	case FormatTable:
		return writeTable(w, r)

	default:
		return WriteText(w, r)
	}
}

// WriteText writes the final result and execution time lines
func WriteText(w io.Writer, r *Result) error {
	if _, err := fmt.Fprintf(w, "Final result: %d\n", r.Value); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Execution time: %s milliseconds\n", FormatMillis(r.ExecutionMillis))
	return err
}

func writeTable(w io.Writer, r *Result) error {
	table := tablewriter.NewWriter(w)
	table.Header("Field", "Value")

	rows := [][]string{
		{"Run ID", r.RunID},
		{"Input", formatInt(r.Input)},
		{"Result", formatInt(r.Value)},
	}
	if len(r.Intermediates) > 0 {
		rows = append(rows, []string{"Intermediates", joinInts(r.Intermediates)})
	}
	rows = append(rows,
		[]string{"Execution Time", FormatMillis(r.ExecutionMillis) + " ms"},
		[]string{"Started At", r.StartTime.Format(time.RFC3339Nano)},
	)
	if r.Host != nil {
		rows = append(rows,
			[]string{"Host", r.Host.OS + "/" + r.Host.Architecture},
			[]string{"CPU", fmt.Sprintf("%s (%d threads)", r.Host.CPUModel, r.Host.CPUThreads)},
			[]string{"RAM", hostinfo.FormatRAM(r.Host.RAMBytes)},
		)
	}

	for _, row := range rows {
		if err := table.Append(row[0], row[1]); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteHistory renders stored runs, newest first, as a table
func WriteHistory(w io.Writer, results []*Result) error {
	table := tablewriter.NewWriter(w)
	table.Header("Run ID", "Result", "Execution Time", "Started At")

	for _, r := range results {
		if err := table.Append(
			r.RunID,
			formatInt(r.Value),
			FormatMillis(r.ExecutionMillis)+" ms",
			r.StartTime.Format(time.RFC3339),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

func joinInts(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatInt(v)
	}
	return strings.Join(parts, " ")
}
