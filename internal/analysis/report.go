// Package analysis detects business dimensions in a loaded table and
// assembles grouped count/sum aggregates into a report.
package analysis

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/KaramelBytes/tierlens-cli/internal/table"
)

// DefaultPreviewRows is the number of leading rows copied into a report.
const DefaultPreviewRows = 10

// DefaultMissingLabel labels the group of blank keys.
const DefaultMissingLabel = "未知"

// Options controls report assembly.
type Options struct {
	// PreviewRows limits the preview; values <= 0 use DefaultPreviewRows.
	PreviewRows int
	// Rules is the detection table.
	Rules RuleSet
	// Policy decides what unparseable amounts become.
	Policy Policy
	// MissingLabel labels blank-key groups; "" uses DefaultMissingLabel.
	MissingLabel string
}

// DefaultOptions returns the built-in rules, zero fallback and a 10 row preview.
func DefaultOptions() Options {
	return Options{
		PreviewRows:  DefaultPreviewRows,
		Rules:        DefaultRules(),
		Policy:       DefaultPolicy(),
		MissingLabel: DefaultMissingLabel,
	}
}

// Report is the immutable result of one analysis run.
type Report struct {
	Filename    string       `json:"filename"`
	Rows        int          `json:"num_rows"`
	Columns     int          `json:"num_cols"`
	ColumnNames []string     `json:"columns"`
	ColumnTypes []ColumnType `json:"column_types"`
	Preview     [][]any      `json:"preview"`
	// Dimensions maps a dimension name to its groups. Never nil; empty when
	// no known column was found.
	Dimensions     map[string][]Group `json:"dimensions"`
	DimensionOrder []Dimension        `json:"dimension_order"`
	Totals         []Total            `json:"totals,omitempty"`
	Warnings       []string           `json:"warnings,omitempty"`
}

// ColumnType is the inferred type label of one column.
type ColumnType struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Total summarizes one normalized amount column over the whole table.
// Fallback values take part in every statistic.
type Total struct {
	Column    string  `json:"column"`
	Sum       float64 `json:"sum"`
	Mean      float64 `json:"mean"`
	Median    float64 `json:"median"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Fallbacks int     `json:"fallbacks"`
}

func amountTotal(col string, vals []float64, fallbacks int) Total {
	t := Total{Column: col, Fallbacks: fallbacks}
	if len(vals) == 0 {
		return t
	}
	data := stats.Float64Data(vals)
	t.Sum, _ = data.Sum()
	t.Mean, _ = data.Mean()
	t.Median, _ = data.Median()
	t.Min, _ = data.Min()
	t.Max, _ = data.Max()
	return t
}

func (t Total) finite() bool {
	for _, f := range []float64{t.Sum, t.Mean, t.Median, t.Min, t.Max} {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return false
		}
	}
	return true
}

// HasDimensions reports whether any dimension was detected.
func (r *Report) HasDimensions() bool { return len(r.Dimensions) > 0 }

// Analyze runs detection and aggregation over t and assembles the report.
// It does not modify t and has no side effects.
func Analyze(t *table.Table, opt Options) *Report {
	preview := opt.PreviewRows
	if preview <= 0 {
		preview = DefaultPreviewRows
	}
	missingLabel := opt.MissingLabel
	if missingLabel == "" {
		missingLabel = DefaultMissingLabel
	}
	norm := NewNormalizer(opt.Policy)

	rep := &Report{
		Filename:       t.Name,
		Rows:           len(t.Rows),
		Columns:        len(t.Columns),
		ColumnNames:    append([]string{}, t.Columns...),
		ColumnTypes:    make([]ColumnType, len(t.Columns)),
		Preview:        make([][]any, 0, min(preview, len(t.Rows))),
		Dimensions:     map[string][]Group{},
		DimensionOrder: []Dimension{},
	}
	for i, c := range t.Columns {
		rep.ColumnTypes[i] = ColumnType{Name: c, Type: t.ColumnType(i)}
	}
	for _, row := range t.Rows[:min(preview, len(t.Rows))] {
		out := make([]any, len(row))
		for j, v := range row {
			out[j] = v.Primitive()
		}
		rep.Preview = append(rep.Preview, out)
	}

	for _, col := range AmountColumns(t.Columns, opt.Rules) {
		vals, fallbacks, err := norm.Column(t.Column(col))
		if err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: total skipped: %v", col, err))
			continue
		}
		total := amountTotal(col, vals, fallbacks)
		if !total.finite() {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: total skipped: %v", col, ErrOverflow))
			continue
		}
		rep.Totals = append(rep.Totals, total)
		if fallbacks > 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %d unparseable value(s) counted as %g", col, fallbacks, opt.Policy.Fallback))
		}
	}

	dims := Detect(t.Columns, opt.Rules)
	for _, d := range dims {
		groups, err := Aggregate(t, d, norm, missingLabel)
		if err != nil {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("skipped %v", err))
			continue
		}
		rep.Dimensions[d.Name] = groups
		rep.DimensionOrder = append(rep.DimensionOrder, d)
	}
	if len(dims) == 0 {
		rep.Warnings = append(rep.Warnings, "no known dimension columns detected; no analysis available")
	}
	return rep
}
