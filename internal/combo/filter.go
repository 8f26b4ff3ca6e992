package combo

import (
	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// FilterSubsets keeps only maximal combinations for one candle: A is
// discarded when its type-set is a proper subset of another surviving
// combination's type-set. Identical type-sets are not redundant: two
// differently evaluated instances of the same types both survive. The
// all-pairs comparison is fine since the generator caps input at
// MaxPerCandle.
func FilterSubsets(combos []models.Combination) []models.Combination {
	if len(combos) < 2 {
		return combos
	}

	sets := make([]map[string]struct{}, len(combos))
	for i, c := range combos {
		sets[i] = typeSet(c)
	}

	kept := combos[:0:0]
	for i := range combos {
		dominated := false
		for j := range combos {
			if i == j {
				continue
			}
			if isProperSubset(sets[i], sets[j]) {
				dominated = true
				break
			}
		}
		if !dominated {
			kept = append(kept, combos[i])
		}
	}

	return kept
}

// isProperSubset reports whether a is strictly contained in b: fewer
// distinct types, all of them present in b.
func isProperSubset(a, b map[string]struct{}) bool {
	if len(a) >= len(b) {
		return false
	}
	for t := range a {
		if _, ok := b[t]; !ok {
			return false
		}
	}
	return true
}
