// This file contains the plain-text table renderer shared by the report and
// the --plain summary.

package logging

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// MissingValue is the placeholder for unavailable values
const MissingValue = "-"

// Table formats aligned text columns.
// The first column is left-aligned (labels, file names); every other
// column is right-aligned so numbers line up on their last digit.
type Table struct {
	Headers []string
	Rows    [][]string
	// LeftAlign forces additional columns (by index) to be left-aligned,
	// e.g. a free-text details column.
	LeftAlign map[int]bool
}

// NewTable creates a table with the given column headers.
func NewTable(headers ...string) *Table {
	return &Table{Headers: headers}
}

// AddRow appends a row. Missing trailing cells render as MissingValue.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// String renders the table with a dashed rule under the header.
func (t *Table) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	widths := make([]int, len(t.Headers))
	for i, h := range t.Headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.Rows {
		for i := range widths {
			if n := utf8.RuneCountInString(cell(row, i)); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var sb strings.Builder
	t.writeLine(&sb, t.Headers, widths)
	rule := make([]string, len(widths))
	for i, w := range widths {
		rule[i] = strings.Repeat("-", w)
	}
	t.writeLine(&sb, rule, widths)
	for _, row := range t.Rows {
		cells := make([]string, len(widths))
		for i := range widths {
			cells[i] = cell(row, i)
		}
		t.writeLine(&sb, cells, widths)
	}
	return sb.String()
}

func (t *Table) writeLine(sb *strings.Builder, cells []string, widths []int) {
	parts := make([]string, len(widths))
	for i, w := range widths {
		pad := strings.Repeat(" ", w-utf8.RuneCountInString(cells[i]))
		if i == 0 || t.LeftAlign[i] {
			parts[i] = cells[i] + pad
		} else {
			parts[i] = pad + cells[i]
		}
	}
	sb.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
	sb.WriteString("\n")
}

func cell(row []string, i int) string {
	if i < len(row) && row[i] != "" {
		return row[i]
	}
	return MissingValue
}

// =============================================================================
// Value Formatting Helpers
// =============================================================================

// formatMetric formats a value with the given decimals; NaN and Inf render as MissingValue.
func formatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// formatSeconds formats a timestamp or duration as "3.80s".
func formatSeconds(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%.2fs", value)
}

// formatHz formats a frequency rounded to whole hertz.
func formatHz(value float64) string {
	if value <= 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%.0f Hz", value)
}

// formatPercent formats a 0..1 fraction as a whole percentage.
func formatPercent(fraction float64) string {
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%d%%", confidencePercent(fraction))
}

// confidencePercent converts a 0..1 confidence to an integer percentage.
func confidencePercent(fraction float64) int {
	return int(math.Round(fraction * 100))
}
