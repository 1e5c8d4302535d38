package table

import (
	"strconv"
	"strings"
)

// Kind tags the dynamic type of a cell.
type Kind uint8

const (
	Missing Kind = iota
	Text
	Integer
	Float
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Integer:
		return "integer"
	case Float:
		return "float"
	default:
		return "missing"
	}
}

// Value is a typed cell produced once at load time. Integer and Float cells
// of equal magnitude are different Values; grouping code promotes a column's
// integers before using cells as map keys.
type Value struct {
	Kind Kind
	S    string
	I    int64
	F    float64
}

func TextValue(s string) Value   { return Value{Kind: Text, S: s} }
func IntValue(i int64) Value     { return Value{Kind: Integer, I: i} }
func FloatValue(f float64) Value { return Value{Kind: Float, F: f} }
func MissingValue() Value        { return Value{} }

func (v Value) IsMissing() bool { return v.Kind == Missing }
func (v Value) IsNumeric() bool { return v.Kind == Integer || v.Kind == Float }

// Number returns the numeric payload of Integer and Float cells.
func (v Value) Number() (float64, bool) {
	switch v.Kind {
	case Integer:
		return float64(v.I), true
	case Float:
		return v.F, true
	}
	return 0, false
}

// Primitive converts the cell to a plain scalar: nil, string, int64 or float64.
func (v Value) Primitive() any {
	switch v.Kind {
	case Text:
		return v.S
	case Integer:
		return v.I
	case Float:
		return v.F
	default:
		return nil
	}
}

// String renders the cell as text; Missing renders as "".
func (v Value) String() string {
	switch v.Kind {
	case Text:
		return v.S
	case Integer:
		return strconv.FormatInt(v.I, 10)
	case Float:
		return strconv.FormatFloat(v.F, 'f', -1, 64)
	default:
		return ""
	}
}

// Infer classifies a raw cell. Blank cells are Missing, plain decimal literals
// are Integer or Float, everything else is Text.
func Infer(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return MissingValue()
	}
	if !isDecimalLiteral(s) {
		return TextValue(s)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return IntValue(i)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return FloatValue(f)
	}
	return TextValue(s)
}

// isDecimalLiteral accepts [+-]digits[.digits][e[+-]digits]. It keeps
// strconv's extras (inf, nan, hex floats, underscores) out of the numeric kinds.
func isDecimalLiteral(s string) bool {
	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

// Compare orders values for grouped output: numbers first (by value), then
// text (byte order), then Missing. Equal-ranked values return 0.
func Compare(a, b Value) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 0:
		if a.Kind == Integer && b.Kind == Integer {
			switch {
			case a.I < b.I:
				return -1
			case a.I > b.I:
				return 1
			}
			return 0
		}
		x, _ := a.Number()
		y, _ := b.Number()
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	case 1:
		return strings.Compare(a.S, b.S)
	}
	return 0
}

func rank(v Value) int {
	switch v.Kind {
	case Integer, Float:
		return 0
	case Text:
		return 1
	default:
		return 2
	}
}
