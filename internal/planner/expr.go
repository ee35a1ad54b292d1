package planner

import (
	"sort"
	"strconv"
	"strings"
)

// ParseExpression evaluates a comma-separated page selection like
// "1, 3, 5-8" against a document of pageCount pages. Tokens are 1-based
// single pages or inclusive spans. Malformed tokens, descending spans and
// out-of-range pages are skipped rather than failing the whole expression.
// The result is zero-based, deduplicated and ascending.
func ParseExpression(expr string, pageCount int) []int {
	seen := make(map[int]struct{})

	for _, token := range strings.Split(expr, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if strings.Contains(token, "-") {
			parts := strings.SplitN(token, "-", 2)
			lo, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
			hi, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
			if err1 != nil || err2 != nil || lo > hi {
				continue
			}
			for p := lo; p <= hi; p++ {
				seen[p-1] = struct{}{}
			}
			continue
		}

		p, err := strconv.Atoi(token)
		if err != nil {
			continue
		}
		seen[p-1] = struct{}{}
	}

	pages := make([]int, 0, len(seen))
	for p := range seen {
		if p >= 0 && p < pageCount {
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages
}
