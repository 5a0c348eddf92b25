package news

import "sort"

// SelectTopN walks the items by descending score and accepts one only while
// its category is under maxPerCategory, until n items are chosen. Ties keep
// input order. maxPerCategory <= 0 disables the quota.
func SelectTopN(items []Item, n, maxPerCategory int) []Item {
	if n <= 0 || len(items) == 0 {
		return nil
	}

	ranked := make([]Item, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	out := make([]Item, 0, min(n, len(ranked)))
	counts := make(map[string]int)
	for _, it := range ranked {
		if len(out) >= n {
			break
		}
		if maxPerCategory > 0 && counts[it.Category] >= maxPerCategory {
			continue
		}
		counts[it.Category]++
		out = append(out, it)
	}
	return out
}
