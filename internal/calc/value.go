// Package calc holds the derived-metric formulas shared by every entry form:
// stocking, fish sampling, harvest and feeding. All functions are pure and
// recompute from their inputs on every call.
package calc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// NotApplicable is rendered in place of a value that cannot be computed.
const NotApplicable = "N/A"

// Value is a quantity that is either a finite number or "not computable".
// The zero Value is not computable.
type Value struct {
	v  float64
	ok bool
}

// NotComputable is the explicit not-computable marker.
var NotComputable = Value{}

// Of wraps a float. NaN and infinities become NotComputable.
func Of(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotComputable
	}
	return Value{v: v, ok: true}
}

// OfInt wraps an integer count.
func OfInt(n int) Value {
	return Value{v: float64(n), ok: true}
}

// Computable reports whether the value holds a usable number.
func (x Value) Computable() bool { return x.ok }

// Float64 returns the number and whether it is computable.
func (x Value) Float64() (float64, bool) { return x.v, x.ok }

// Or returns the number, or fallback when not computable.
func (x Value) Or(fallback float64) float64 {
	if !x.ok {
		return fallback
	}
	return x.v
}

// Int returns the value truncated to an int when it is computable.
func (x Value) Int() (int, bool) {
	if !x.ok {
		return 0, false
	}
	return int(x.v), true
}

func (x Value) positive() bool    { return x.ok && x.v > 0 }
func (x Value) nonNegative() bool { return x.ok && x.v >= 0 }

// Format renders the value with a fixed number of decimals, or N/A.
func (x Value) Format(places int) string {
	if !x.ok {
		return NotApplicable
	}
	return strconv.FormatFloat(x.v, 'f', places, 64)
}

// String implements fmt.Stringer.
func (x Value) String() string {
	if !x.ok {
		return NotApplicable
	}
	return strconv.FormatFloat(x.v, 'f', -1, 64)
}

// Decimal rounds the value half away from zero to the given places. A
// not-computable value yields nil so that payload fields using it are omitted.
func (x Value) Decimal(places int32) *decimal.Decimal {
	if !x.ok {
		return nil
	}
	d := decimal.NewFromFloat(x.v).Round(places)
	return &d
}

// Equal compares two values; two not-computable values are equal.
func (x Value) Equal(other Value) bool {
	if x.ok != other.ok {
		return false
	}
	return !x.ok || x.v == other.v
}

// MarshalJSON encodes a number or null.
func (x Value) MarshalJSON() ([]byte, error) {
	if !x.ok {
		return []byte("null"), nil
	}
	return json.Marshal(x.v)
}

// UnmarshalJSON accepts numbers, numeric strings (as sent for decimal columns),
// empty strings and null. Anything unparseable decodes as not computable.
func (x *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*x = NotComputable
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode numeric string: %w", err)
		}
		*x = ParseNumber(s)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*x = NotComputable
		return nil
	}
	*x = Of(f)
	return nil
}

// ParseNumber converts form text into a Value. Empty or malformed text is not
// computable rather than an error.
func ParseNumber(text string) Value {
	s := strings.TrimSpace(text)
	if s == "" {
		return NotComputable
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NotComputable
	}
	return Of(f)
}

// ParseCount converts form text holding a whole number of fish or pieces.
func ParseCount(text string) Value {
	s := strings.TrimSpace(text)
	if s == "" {
		return NotComputable
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return NotComputable
	}
	return OfInt(n)
}
