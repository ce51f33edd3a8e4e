package nlquery

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/EmpoweredVote/EV-CityMap/internal/filters"
)

var (
	fenceOpen  = regexp.MustCompile("^```\\w*\\n?")
	fenceClose = regexp.MustCompile("\\n?```\\s*$")
)

var attributeSynonyms = map[string]filters.Attribute{
	"feet":          filters.HeightFt,
	"height_feet":   filters.HeightFt,
	"meters":        filters.HeightM,
	"height_meters": filters.HeightM,
}

// cleanJSON strips markdown fences and returns the first brace-balanced object in s.
// An unbalanced object is returned from its opening brace to the end of s. Text without
// any brace is returned trimmed.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = fenceOpen.ReplaceAllString(s, "")
		s = fenceClose.ReplaceAllString(s, "")
	}
	s = strings.TrimSpace(s)

	start := strings.IndexByte(s, '{')
	if start == -1 {
		return s
	}
	depth := 0
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}

// ParseModelOutput reads a filter out of model text. ok is false when the text holds no
// JSON object or the object has no attribute-like or no operator-like key.
func ParseModelOutput(text string) (filters.Filter, bool) {
	if strings.TrimSpace(text) == "" {
		return filters.Filter{}, false
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(cleanJSON(text))))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return filters.Filter{}, false
	}

	attr, ok := obj["attribute"]
	if !ok || attr == nil {
		attr = firstTruthy(obj, "field", "key")
	}
	op := firstTruthy(obj, "operator", "op")
	if attr == nil || op == nil {
		return filters.Filter{}, false
	}

	return filters.Filter{
		Attribute: NormalizeAttribute(fmt.Sprint(filters.NormalizeValue(attr))),
		Operator:  NormalizeOperator(op),
		Value:     filters.NormalizeValue(obj["value"]),
	}, true
}

// NormalizeAttribute maps free-form attribute text onto the closed attribute set,
// defaulting to height in feet.
func NormalizeAttribute(s string) filters.Attribute {
	s = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
	if a, ok := attributeSynonyms[s]; ok {
		return a
	}
	if a := filters.Attribute(s); a.Valid() {
		return a
	}
	switch {
	case strings.Contains(s, "height"):
		if strings.Contains(s, "ft") || strings.Contains(s, "feet") {
			return filters.HeightFt
		}
		return filters.HeightM
	case strings.Contains(s, "zoning"):
		return filters.Zoning
	case strings.Contains(s, "address"):
		return filters.Address
	}
	return filters.HeightFt
}

// NormalizeOperator maps v onto the closed operator set, defaulting to ">".
func NormalizeOperator(v any) filters.Operator {
	s, ok := v.(string)
	if !ok {
		return filters.GreaterThan
	}
	if op, ok := filters.ParseOperator(s); ok {
		return op
	}
	return filters.GreaterThan
}

func firstTruthy(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case nil:
			continue
		case string:
			if v == "" {
				continue
			}
		case bool:
			if !v {
				continue
			}
		case json.Number:
			if f, err := v.Float64(); err == nil && f == 0 {
				continue
			}
		}
		return obj[k]
	}
	return nil
}
