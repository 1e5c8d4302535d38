package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Filename != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Filename))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", r.Columns))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.ColumnTypes {
		b.WriteString(fmt.Sprintf("- %s: %s\n", safeName(c.Name), c.Type))
	}

	if len(r.Totals) > 0 {
		b.WriteString("\n[TOTALS]\n")
		for _, t := range r.Totals {
			b.WriteString(fmt.Sprintf("- %s: sum=%s, mean=%s, median=%s", t.Column, formatAmount(t.Sum), formatAmount(t.Mean), formatAmount(t.Median)))
			if t.Fallbacks > 0 {
				b.WriteString(fmt.Sprintf(" (%d unparseable)", t.Fallbacks))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n[DIMENSIONS]\n")
	if !r.HasDimensions() {
		b.WriteString("No analysis available: none of the known dimension columns were found.\n")
	}
	for _, d := range r.DimensionOrder {
		groups := r.Dimensions[d.Name]
		cols := d.Column
		if d.OtherColumn != "" {
			cols += " + " + d.OtherColumn
		}
		b.WriteString(fmt.Sprintf("- %s (column %s, %d groups)\n", d.Name, cols, len(groups)))
		for _, g := range groups {
			b.WriteString(fmt.Sprintf("  • %s: n=%d", safeVal(g.Label), g.Count))
			if g.Sum != nil {
				b.WriteString(fmt.Sprintf(", sum=%s", formatAmount(*g.Sum)))
			}
			if g.Distinct != nil {
				b.WriteString(fmt.Sprintf(", distinct %s=%d", d.DistinctColumn, *g.Distinct))
			}
			b.WriteString("\n")
		}
	}

	if len(r.Preview) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.ColumnNames {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c))
		}
		b.WriteString(" |\n")
		b.WriteString("| ")
		for i := range r.ColumnNames {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Preview {
			b.WriteString("| ")
			for i, v := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if v != nil {
					val = fmt.Sprint(v)
				}
				if len([]rune(val)) > 80 {
					val = string([]rune(val)[:77]) + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func formatAmount(f float64) string { return fmt.Sprintf("%.2f", f) }

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
