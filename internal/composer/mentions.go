package composer

import (
	"regexp"
	"strings"
)

// shipmentIDPattern matches shipment ids like SHP_1023 in free text,
// case-insensitively.
var shipmentIDPattern = regexp.MustCompile(`(?i)\bSHP_\d+\b`)

// ShipmentMentions extracts shipment ids from text, normalized to upper
// case and deduplicated in first-occurrence order.
func ShipmentMentions(text string) []string {
	matches := shipmentIDPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(matches))
	var ids []string
	for _, m := range matches {
		id := strings.ToUpper(m)
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}
