// Package filters evaluates structured attribute predicates against buildings.
package filters

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Attribute names a filterable building field.
type Attribute string

const (
	HeightM  Attribute = "height_m"
	HeightFt Attribute = "height_ft"
	Zoning   Attribute = "zoning"
	Address  Attribute = "address"
)

// AssessedValue was dropped from the building schema. Filters naming it are skipped.
const AssessedValue Attribute = "assessed_value"

// Attributes lists every filterable attribute in prompt order.
var Attributes = []Attribute{HeightM, HeightFt, Zoning, Address}

// Valid reports whether a is a filterable attribute.
func (a Attribute) Valid() bool {
	for _, v := range Attributes {
		if a == v {
			return true
		}
	}
	return false
}

// Operator is a comparison applied between a building attribute and a filter value.
type Operator string

const (
	GreaterThan    Operator = ">"
	GreaterOrEqual Operator = ">="
	LessThan       Operator = "<"
	LessOrEqual    Operator = "<="
	Equal          Operator = "="
	NotEqual       Operator = "!="
	Contains       Operator = "contains"
)

// Operators lists every supported operator in prompt order.
var Operators = []Operator{GreaterThan, LessThan, GreaterOrEqual, LessOrEqual, Equal, NotEqual, Contains}

// ParseOperator maps s onto an Operator. "==" is accepted as Equal.
func ParseOperator(s string) (Operator, bool) {
	s = strings.TrimSpace(s)
	if s == "==" {
		return Equal, true
	}
	op := Operator(strings.ToLower(s))
	return op, op.Valid()
}

// Valid reports whether op is supported.
func (op Operator) Valid() bool {
	for _, v := range Operators {
		if op == v {
			return true
		}
	}
	return false
}

// Filter is one predicate. Value is nil, a string, a bool, an int64 or a float64.
type Filter struct {
	Attribute Attribute `json:"attribute"`
	Operator  Operator  `json:"operator"`
	Value     any       `json:"value"`
}

// Valid reports whether f names a known attribute and operator.
func (f Filter) Valid() bool {
	return f.Attribute.Valid() && f.Operator.Valid()
}

// UnmarshalJSON keeps unknown attributes and operators as given so Apply can skip them,
// normalizes "==", and decodes integer values as int64.
func (f *Filter) UnmarshalJSON(data []byte) error {
	var raw struct {
		Attribute *string         `json:"attribute"`
		Operator  *string         `json:"operator"`
		Value     json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = Filter{}
	if raw.Attribute != nil {
		f.Attribute = Attribute(*raw.Attribute)
	}
	if raw.Operator != nil {
		if op, ok := ParseOperator(*raw.Operator); ok {
			f.Operator = op
		} else {
			f.Operator = Operator(*raw.Operator)
		}
	}
	v, err := decodeValue(raw.Value)
	if err != nil {
		return err
	}
	f.Value = v
	return nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return NormalizeValue(v), nil
}

// NormalizeValue turns a json.Number into an int64 or float64. Other values pass through.
func NormalizeValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if num, ok := parseNumber(n.String()); ok {
		return num
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
