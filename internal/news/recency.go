package news

import "time"

// FilterRecent drops items published more than window before now. Items
// without a parsed publication time are kept. A non-positive window keeps
// everything.
func FilterRecent(items []Item, window time.Duration, now time.Time) []Item {
	if window <= 0 {
		return items
	}
	cutoff := now.Add(-window)

	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.PublishedAt != nil && it.PublishedAt.Before(cutoff) {
			continue
		}
		out = append(out, it)
	}
	return out
}
