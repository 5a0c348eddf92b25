package news

// Dedup keeps one item per fingerprint key in a single pass. The surviving
// item sits at the position where its key was first seen and is the highest
// scored member of the group; ties keep the earlier one. Items with an empty
// key always pass through.
func Dedup(items []Item, key KeyFunc) []Item {
	out := make([]Item, 0, len(items))
	slot := make(map[string]int, len(items))

	for _, it := range items {
		k := key(it)
		if k == "" {
			out = append(out, it)
			continue
		}
		if i, ok := slot[k]; ok {
			if it.Score > out[i].Score {
				out[i] = it
			}
			continue
		}
		slot[k] = len(out)
		out = append(out, it)
	}
	return out
}

// DedupAll runs Dedup once per key function, in order. Nil keys are skipped.
func DedupAll(items []Item, keys ...KeyFunc) []Item {
	for _, k := range keys {
		if k == nil {
			continue
		}
		items = Dedup(items, k)
	}
	return items
}
