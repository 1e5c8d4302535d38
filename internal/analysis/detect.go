package analysis

import "strings"

// Dimension is one detected grouping: a key column plus the aggregates to
// compute for it.
type Dimension struct {
	Name   string   `json:"name"`
	Rule   string   `json:"rule"`
	Kind   RuleKind `json:"kind"`
	Column string   `json:"column"`
	// SumColumn, when set, is normalized and summed per group.
	SumColumn string `json:"sum_column,omitempty"`
	// DistinctColumn, when set, is counted distinctly per group.
	DistinctColumn string `json:"distinct_column,omitempty"`
	// OtherColumn is the second key column of match and period dimensions.
	OtherColumn   string `json:"other_column,omitempty"`
	MatchLabel    string `json:"match_label,omitempty"`
	MismatchLabel string `json:"mismatch_label,omitempty"`
}

// Detect applies rules to a header. Output follows rule order, then column
// order. No match yields an empty, non-nil slice.
func Detect(columns []string, rules RuleSet) []Dimension {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	distinct := func(r Rule) string {
		if r.DistinctColumn != "" && present[r.DistinctColumn] {
			return r.DistinctColumn
		}
		return ""
	}
	sum := func(r Rule) string {
		if r.SumColumn != "" && present[r.SumColumn] {
			return r.SumColumn
		}
		return ""
	}

	dims := []Dimension{}
	taken := map[string]bool{}
	add := func(d Dimension) {
		if taken[d.Name] {
			return
		}
		taken[d.Name] = true
		dims = append(dims, d)
	}
	for _, r := range rules.Rules {
		switch r.Kind {
		case RuleExact:
			if present[r.Column] {
				add(Dimension{Name: r.Name, Rule: r.Name, Kind: r.Kind, Column: r.Column, SumColumn: sum(r), DistinctColumn: distinct(r)})
			}
		case RuleMatch, RulePeriod:
			if present[r.Column] && present[r.OtherColumn] {
				add(Dimension{
					Name: r.Name, Rule: r.Name, Kind: r.Kind,
					Column: r.Column, OtherColumn: r.OtherColumn,
					MatchLabel: r.MatchLabel, MismatchLabel: r.MismatchLabel,
					SumColumn: sum(r), DistinctColumn: distinct(r),
				})
			}
		case RuleContains:
			for _, c := range columns {
				if strings.Contains(c, r.Pattern) {
					add(Dimension{Name: r.Name + ":" + c, Rule: r.Name, Kind: r.Kind, Column: c, DistinctColumn: distinct(r)})
				}
			}
		case RuleAmount:
			if !present[r.Column] {
				continue
			}
			for _, c := range columns {
				if c != r.Column && strings.Contains(c, r.PairPattern) {
					add(Dimension{Name: r.Name + ":" + c, Rule: r.Name, Kind: r.Kind, Column: c, SumColumn: r.Column, DistinctColumn: distinct(r)})
				}
			}
		}
	}
	return dims
}

// AmountColumns lists the amount columns present in the header, in rule
// order: the Column of amount rules and the SumColumn of every other rule.
func AmountColumns(columns []string, rules RuleSet) []string {
	present := make(map[string]bool, len(columns))
	for _, c := range columns {
		present[c] = true
	}
	var out []string
	seen := map[string]bool{}
	for _, r := range rules.Rules {
		col := r.SumColumn
		if r.Kind == RuleAmount {
			col = r.Column
		}
		if col != "" && present[col] && !seen[col] {
			seen[col] = true
			out = append(out, col)
		}
	}
	return out
}
