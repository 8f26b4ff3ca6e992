package combo

import (
	"sort"
	"strings"

	"github.com/dvirmail/cryptonew-sub003/internal/models"
)

// Signature builds the canonical type-set identity for a set of member
// signals: sorted member types joined by the shared separator. The
// qualitative value and direction are deliberately not part of the
// identity, so a bullish and a bearish firing of the same indicator set
// group under one signature.
func Signature(signals []models.Signal) string {
	types := make([]string, len(signals))
	for i, sig := range signals {
		types[i] = sig.Type
	}
	sort.Strings(types)
	return strings.Join(types, models.SignatureSeparator)
}

// typeSet returns the distinct member types of a combination.
func typeSet(c models.Combination) map[string]struct{} {
	set := make(map[string]struct{}, len(c.Signals))
	for _, sig := range c.Signals {
		set[sig.Type] = struct{}{}
	}
	return set
}
