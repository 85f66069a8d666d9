package search

import (
	"strings"

	"github.com/seenimoa/onepager/pkg/models"
)

// Match returns the catalog entries whose symbol or name contains query,
// case-insensitively with Unicode case folding. The query is matched as
// typed, surrounding spaces included. Results keep catalog order, duplicate
// symbols collapse to their first occurrence, and max > 0 caps the result
// count. A blank query matches nothing.
func Match(query string, catalog []models.Company, max int) []models.Company {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	q := strings.ToLower(query)
	out := make([]models.Company, 0)
	seen := make(map[string]bool)
	for _, c := range catalog {
		if seen[c.Symbol] {
			continue
		}
		if !strings.Contains(strings.ToLower(c.Symbol), q) && !strings.Contains(strings.ToLower(c.Name), q) {
			continue
		}
		seen[c.Symbol] = true
		out = append(out, c)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// dedupe collapses repeated symbols in provider output and applies the cap.
func dedupe(results []models.Company, max int) []models.Company {
	out := make([]models.Company, 0, len(results))
	seen := make(map[string]bool, len(results))
	for _, c := range results {
		if seen[c.Symbol] {
			continue
		}
		seen[c.Symbol] = true
		out = append(out, c)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}
