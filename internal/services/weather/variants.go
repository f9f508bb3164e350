package weather

import "strings"

// locationVariants lists the spellings tried against each adapter, most
// specific first: the query as given, then with a trailing comma clause
// dropped ("Springfield, IL" becomes "Springfield"), then with the last word
// dropped. Duplicates collapse while keeping first-occurrence order.
func locationVariants(location string) []string {
	trimmed := strings.TrimSpace(location)
	candidates := []string{trimmed}

	if idx := strings.LastIndex(trimmed, ","); idx > 0 {
		candidates = append(candidates, strings.TrimSpace(trimmed[:idx]))
	}

	if fields := strings.Fields(trimmed); len(fields) > 1 {
		// Strip punctuation left dangling by the removed word so
		// "Springfield, IL" collapses into the comma-clause variant.
		stripped := strings.TrimRight(strings.Join(fields[:len(fields)-1], " "), ", ")
		candidates = append(candidates, stripped)
	}

	seen := make(map[string]struct{}, len(candidates))
	variants := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		variants = append(variants, c)
	}
	return variants
}
