package rules

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// TableString renders the rule table with one row per kind. Columns are
// aligned by display width, since the rules use lattice symbols.
func TableString() string {
	header := []string{"Kind", "Inputs", "Outputs", "Rationale"}
	rows := [][]string{header}
	for _, k := range Kinds() {
		r := ruleOf(k)
		rows = append(rows, []string{k.Name(), r.inputs, r.outputs, r.rationale})
	}

	widths := make([]int, len(header))
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	for i, row := range rows {
		for j, cell := range row {
			if j == len(row)-1 {
				sb.WriteString(cell)
			} else {
				sb.WriteString(runewidth.FillRight(cell, widths[j]) + "  ")
			}
		}
		sb.WriteString("\n")
		if i == 0 {
			for j, w := range widths {
				sb.WriteString(strings.Repeat("-", w))
				if j < len(widths)-1 {
					sb.WriteString("  ")
				}
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
