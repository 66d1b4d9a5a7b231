package intelligence

// JaccardSimilarity returns |a ∩ b| / |a ∪ b| over the sets of the two
// action lists. Order and repetition are ignored. Two empty lists have
// similarity 0.
func JaccardSimilarity(a, b []string) float64 {
	setA := toSet(a)
	setB := toSet(b)

	union := len(setA)
	intersection := 0
	for k := range setB {
		if _, ok := setA[k]; ok {
			intersection++
		} else {
			union++
		}
	}

	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
