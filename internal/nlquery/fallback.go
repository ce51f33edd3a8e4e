package nlquery

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/EV-CityMap/internal/filters"
)

type heightPattern struct {
	re        *regexp.Regexp
	attribute filters.Attribute
	operator  filters.Operator
}

// Tried in order; the first pattern whose number parses wins.
var heightPatterns = []heightPattern{
	{regexp.MustCompile(`over\s+([\d.]+)\s*(?:feet|ft|')`), filters.HeightFt, filters.GreaterThan},
	{regexp.MustCompile(`over\s+([\d.]+)\s*(?:meters?|m)\b`), filters.HeightM, filters.GreaterThan},
	{regexp.MustCompile(`(?:under|less than|below)\s+([\d.]+)\s*(?:feet|ft|')`), filters.HeightFt, filters.LessThan},
	{regexp.MustCompile(`(?:under|less than|below)\s+([\d.]+)\s*(?:meters?|m)\b`), filters.HeightM, filters.LessThan},
}

var zoningKeywords = []string{"commercial", "rc-g", "zoning"}

// Fallback interprets common English phrasings without a model. ok is false when
// nothing matches.
func Fallback(query string) (filters.Filter, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return filters.Filter{}, false
	}

	for _, p := range heightPatterns {
		m := p.re.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		return filters.Filter{Attribute: p.attribute, Operator: p.operator, Value: v}, true
	}

	for _, kw := range zoningKeywords {
		if strings.Contains(q, kw) {
			words := strings.Fields(q)
			return filters.Filter{Attribute: filters.Zoning, Operator: filters.Contains, Value: words[len(words)-1]}, true
		}
	}
	return filters.Filter{}, false
}
