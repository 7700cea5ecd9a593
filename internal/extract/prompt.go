package extract

import (
	"bytes"
	"fmt"
	"text/template"
)

var promptTemplate = template.Must(template.New("prompt").Parse(`
Extract flower names and locations (into a structured JSON) using the following website html code (originating from a flowering report website which is in hebrew):

{{.Markup}}

The JSON must be an array of objects, one object per report, with the following fields:
- flowers: The names of the flowers.
- locations: The locations where the flowers were found.
- maps_query_locations: location names formatted for Google Maps queries (e.g. ignoring "near", "between" etc. so more likely to return a valid result when querying Google Maps), one per location.
- date: The date of the observation, formatted as DD/MM/YYYY.
- original_report: The original report text.
- observer: The name of the person who reported the observation.

The "flowers", "locations" and "maps_query_locations" fields must be arrays of strings (even if only one flower or location is mentioned).

If a report doesn't have flower or location information, leave the corresponding field empty.

Return only the JSON array.
`))

// BuildPrompt embeds page markup into the fixed extraction instruction.
func BuildPrompt(markup string) (string, error) {
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, struct{ Markup string }{markup}); err != nil {
		return "", fmt.Errorf("build prompt: %w", err)
	}
	return buf.String(), nil
}
