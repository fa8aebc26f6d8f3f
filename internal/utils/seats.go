package utils

import "strings"

// NormalizeSeatNumbers trims seat labels and drops blanks and duplicates,
// keeping first-seen order and spelling. Labels that differ only in case
// count as duplicates; the seat map decides the final spelling.
func NormalizeSeatNumbers(labels []string) []string {
	seen := make(map[string]bool, len(labels))
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		key := strings.ToUpper(l)
		if l == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}
