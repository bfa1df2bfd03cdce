package evaluation

// RecallAtK is the share of relevant names found in the first k retrieved names.
// Duplicates on either side count once. Empty relevant or k <= 0 yields 0.
func RecallAtK(relevant, retrieved []string, k int) float64 {
	rel := toSet(relevant)
	if len(rel) == 0 || k <= 0 {
		return 0
	}

	found := make(map[string]struct{}, len(rel))
	for _, name := range top(retrieved, k) {
		if _, ok := rel[name]; ok {
			found[name] = struct{}{}
		}
	}
	return float64(len(found)) / float64(len(rel))
}

// MAPAtK is the average precision over the first k retrieved names, normalised by
// min(|relevant|, k). A relevant name contributes only at its first position.
func MAPAtK(relevant, retrieved []string, k int) float64 {
	rel := toSet(relevant)
	if len(rel) == 0 || k <= 0 {
		return 0
	}

	seen := make(map[string]struct{}, len(rel))
	var sum float64
	for i, name := range top(retrieved, k) {
		if _, ok := rel[name]; !ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		sum += float64(len(seen)) / float64(i+1)
	}
	if len(seen) == 0 {
		return 0
	}
	return sum / float64(min(len(rel), k))
}

func top(names []string, k int) []string {
	if len(names) > k {
		return names[:k]
	}
	return names
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}
