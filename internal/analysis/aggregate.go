package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/KaramelBytes/tierlens-cli/internal/table"
)

// Group is the aggregate for one distinct key of a dimension column.
type Group struct {
	// Key is the primitive key value; nil for the missing-value group.
	Key     any    `json:"key"`
	Label   string `json:"label"`
	Missing bool   `json:"missing,omitempty"`
	Count   int    `json:"count"`
	// Sum is set for dimensions with a SumColumn.
	Sum *float64 `json:"sum,omitempty"`
	// Distinct is set for dimensions with a DistinctColumn.
	Distinct *int `json:"distinct,omitempty"`
}

// ErrOverflow reports a sum that left the float64 range.
var ErrOverflow = errors.New("sum overflows float64")

// Aggregate groups the table's rows by the dimension key. Keys compare by
// value, so 2 and 2.0 share a group; blank keys form their own group labelled
// missingLabel. Groups are sorted ascending by key with ties kept in
// first-appearance order.
func Aggregate(t *table.Table, d Dimension, n Normalizer, missingLabel string) ([]Group, error) {
	keyOf, err := d.keyFunc(t)
	if err != nil {
		return nil, err
	}
	var amounts []float64
	if d.SumColumn != "" {
		vals := t.Column(d.SumColumn)
		if vals == nil {
			return nil, fmt.Errorf("dimension %s: sum column %q not found", d.Name, d.SumColumn)
		}
		if amounts, _, err = n.Column(vals); err != nil {
			return nil, fmt.Errorf("dimension %s: %w", d.Name, err)
		}
	}
	distIdx := -1
	distKey := func(v table.Value) table.Value { return v }
	if d.DistinctColumn != "" {
		if i, ok := t.Index(d.DistinctColumn); ok {
			distIdx = i
			distKey = numericKey(t, i)
		}
	}

	type acc struct {
		key      table.Value
		count    int
		sum      float64
		distinct map[table.Value]struct{}
	}
	var order []*acc
	byKey := make(map[table.Value]*acc)
	for r, row := range t.Rows {
		k := keyOf(row)
		a := byKey[k]
		if a == nil {
			a = &acc{key: k}
			if distIdx >= 0 {
				a.distinct = make(map[table.Value]struct{})
			}
			byKey[k] = a
			order = append(order, a)
		}
		a.count++
		if amounts != nil {
			a.sum += amounts[r]
		}
		if distIdx >= 0 && !row[distIdx].IsMissing() {
			a.distinct[distKey(row[distIdx])] = struct{}{}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return table.Compare(order[i].key, order[j].key) < 0
	})

	groups := make([]Group, 0, len(order))
	for _, a := range order {
		g := Group{Key: a.key.Primitive(), Label: a.key.String(), Count: a.count}
		if a.key.IsMissing() {
			g.Missing = true
			g.Label = missingLabel
		}
		if d.SumColumn != "" {
			if math.IsInf(a.sum, 0) || math.IsNaN(a.sum) {
				return nil, fmt.Errorf("dimension %s: group %s: %w", d.Name, g.Label, ErrOverflow)
			}
			sum := a.sum
			g.Sum = &sum
		}
		if distIdx >= 0 {
			nd := len(a.distinct)
			g.Distinct = &nd
		}
		groups = append(groups, g)
	}
	return groups, nil
}

// keyFunc returns the row-to-key mapping of the dimension.
func (d Dimension) keyFunc(t *table.Table) (func(row []table.Value) table.Value, error) {
	idx, ok := t.Index(d.Column)
	if !ok {
		return nil, fmt.Errorf("dimension %s: column %q not found", d.Name, d.Column)
	}
	switch d.Kind {
	case RuleMatch, RulePeriod:
		other, ok := t.Index(d.OtherColumn)
		if !ok {
			return nil, fmt.Errorf("dimension %s: column %q not found", d.Name, d.OtherColumn)
		}
		if d.Kind == RulePeriod {
			return func(row []table.Value) table.Value {
				y, m := row[idx], row[other]
				if y.IsMissing() || m.IsMissing() {
					return table.MissingValue()
				}
				return table.TextValue(periodPart(y, 0) + "-" + periodPart(m, 2))
			}, nil
		}
		return func(row []table.Value) table.Value {
			if table.Compare(row[idx], row[other]) == 0 {
				return table.TextValue(d.MatchLabel)
			}
			return table.TextValue(d.MismatchLabel)
		}, nil
	}
	key := numericKey(t, idx)
	return func(row []table.Value) table.Value { return key(row[idx]) }, nil
}

// numericKey promotes Integer cells to Float when column idx holds any Float
// cell, so numerically equal keys are the same map key.
func numericKey(t *table.Table, idx int) func(table.Value) table.Value {
	for _, row := range t.Rows {
		if row[idx].Kind == table.Float {
			return func(v table.Value) table.Value {
				if v.Kind == table.Integer {
					return table.FloatValue(float64(v.I))
				}
				return v
			}
		}
	}
	return func(v table.Value) table.Value { return v }
}

// periodPart renders a year or month cell, zero-padding whole numbers to
// width digits.
func periodPart(v table.Value, width int) string {
	if f, ok := v.Number(); ok && f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return fmt.Sprintf("%0*d", width, int64(f))
	}
	return v.String()
}
