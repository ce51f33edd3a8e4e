package filters

import (
	"strconv"
	"strings"

	"github.com/EmpoweredVote/EV-CityMap/internal/buildings"
	"github.com/EmpoweredVote/EV-CityMap/internal/metrics"
	"golang.org/x/text/cases"
)

// Apply narrows bs by each filter in turn. Filters with an unknown or retired attribute
// or an unknown operator are skipped. The result keeps the input order.
func Apply(bs []buildings.Building, fs []Filter) []buildings.Building {
	out := make([]buildings.Building, len(bs))
	copy(out, bs)

	for _, f := range fs {
		if !f.Valid() {
			metrics.FilterStepsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		metrics.FilterStepsTotal.WithLabelValues("applied").Inc()

		kept := out[:0]
		for _, b := range out {
			if Match(b, f) {
				kept = append(kept, b)
			}
		}
		out = kept
	}
	return out
}

// Match evaluates a single filter against b. An invalid filter matches everything.
func Match(b buildings.Building, f Filter) bool {
	if !f.Valid() {
		return true
	}
	return compare(attributeValue(b, f.Attribute), f.Operator, f.Value)
}

// attributeValue returns nil, a float64 or a string.
func attributeValue(b buildings.Building, a Attribute) any {
	switch a {
	case HeightM:
		if b.HeightM != nil {
			return *b.HeightM
		}
	case HeightFt:
		if b.HeightFt != nil {
			return *b.HeightFt
		}
	case Zoning:
		if b.Zoning != nil {
			return *b.Zoning
		}
	case Address:
		return b.Address
	}
	return nil
}

func compare(val any, op Operator, want any) bool {
	if val == nil {
		switch op {
		case Equal:
			return want == nil
		case NotEqual:
			return want != nil
		}
		return false
	}

	if _, numeric := val.(float64); numeric {
		if s, ok := want.(string); ok {
			if n, ok := parseNumber(s); ok {
				want = n
			}
		}
	}

	if op == Contains {
		have, ok := display(val)
		if !ok {
			return false
		}
		sub, ok := display(want)
		if !ok {
			return false
		}
		fold := cases.Fold()
		return strings.Contains(fold.String(have), fold.String(sub))
	}

	c, ok := order(val, want)
	switch op {
	case Equal:
		return ok && c == 0
	case NotEqual:
		return !ok || c != 0
	case GreaterThan:
		return ok && c > 0
	case GreaterOrEqual:
		return ok && c >= 0
	case LessThan:
		return ok && c < 0
	case LessOrEqual:
		return ok && c <= 0
	}
	return false
}

// order compares two numbers or two strings. ok is false for any other pairing.
func order(a, b any) (int, bool) {
	if x, ok := toFloat(a); ok {
		y, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	}
	x, ok := a.(string)
	if !ok {
		return 0, false
	}
	y, ok := b.(string)
	if !ok {
		return 0, false
	}
	return strings.Compare(x, y), true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

// parseNumber reads s as a float when it carries a decimal point or exponent and as an
// integer otherwise.
func parseNumber(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, ".eE") {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	i, err := strconv.ParseInt(s, 10, 64)
	return i, err == nil
}

// display renders a scalar as text. ok is false for nil, maps and slices.
func display(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case int:
		return strconv.Itoa(v), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}
