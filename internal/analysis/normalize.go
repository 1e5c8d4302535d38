package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tierlens-cli/internal/table"
	"golang.org/x/text/width"
)

// thousandsSeparators are stripped before parsing amounts: ASCII comma and
// full-width comma (U+FF0C).
var thousandsSeparators = []string{",", "，"}

// Policy decides what an unparseable amount becomes.
type Policy struct {
	// Fallback replaces any amount that does not parse.
	Fallback float64 `yaml:"fallback" json:"fallback"`
	// Strict turns unparseable non-blank amounts into a NormalizationError
	// instead of substituting Fallback.
	Strict bool `yaml:"strict" json:"strict"`
}

// DefaultPolicy substitutes 0 for anything that does not parse.
func DefaultPolicy() Policy { return Policy{} }

// NormalizationError is returned in strict mode for the first bad amount.
type NormalizationError struct {
	Row int
	Raw string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("row %d: cannot parse amount %q", e.Row+1, e.Raw)
}

// Normalizer converts loosely formatted amount cells into float64 values.
type Normalizer struct {
	Policy Policy
}

func NewNormalizer(p Policy) Normalizer { return Normalizer{Policy: p} }

// Normalize returns the numeric value of a cell and whether it parsed.
// Cells that do not parse yield the policy fallback.
func (n Normalizer) Normalize(v table.Value) (float64, bool) {
	if f, ok := v.Number(); ok {
		return f, true
	}
	if v.IsMissing() {
		return n.Policy.Fallback, false
	}
	if f, ok := parseAmount(v.String()); ok {
		return f, true
	}
	return n.Policy.Fallback, false
}

// Column normalizes a whole column. fallbacks counts non-blank cells that
// did not parse; blank cells take the fallback silently.
func (n Normalizer) Column(values []table.Value) (out []float64, fallbacks int, err error) {
	out = make([]float64, len(values))
	for i, v := range values {
		f, ok := n.Normalize(v)
		if !ok && !v.IsMissing() {
			if n.Policy.Strict {
				return nil, fallbacks, &NormalizationError{Row: i, Raw: v.String()}
			}
			fallbacks++
		}
		out[i] = f
	}
	return out, fallbacks, nil
}

// parseAmount folds full-width forms to ASCII, strips thousands separators
// and parses what is left as a plain decimal literal.
func parseAmount(s string) (float64, bool) {
	s = width.Narrow.String(s)
	for _, sep := range thousandsSeparators {
		s = strings.ReplaceAll(s, sep, "")
	}
	return table.Infer(s).Number()
}
