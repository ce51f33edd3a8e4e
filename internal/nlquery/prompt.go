package nlquery

import "fmt"

const promptTemplate = `Extract exactly one filter from this map query. Return ONLY a JSON object with keys "attribute", "operator", "value". No other text.

Query: %s

Valid attributes: height_ft, height_m, zoning, address.
Valid operators: >, >=, <, <=, =, contains.

Examples:
- "buildings over 100 feet" -> {"attribute": "height_ft", "operator": ">", "value": 100}
- "commercial buildings" -> {"attribute": "zoning", "operator": "contains", "value": "commercial"}
- "show buildings in RC-G zoning" -> {"attribute": "zoning", "operator": "contains", "value": "RC-G"}

JSON:`

// BuildPrompt embeds query in the fixed extraction prompt.
func BuildPrompt(query string) string {
	return fmt.Sprintf(promptTemplate, query)
}
