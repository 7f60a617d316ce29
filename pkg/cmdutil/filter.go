package cmdutil

import (
	"sort"
	"strings"
)

// SelectorSet is a set of trimmed, non-empty selectors.
type SelectorSet map[string]struct{}

// BuildSelectorSet returns a set of selectors for quick membership checks.
// Entries may themselves be comma-separated lists.
func BuildSelectorSet(selectors []string) SelectorSet {
	set := make(SelectorSet, len(selectors))
	for _, s := range selectors {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				set[p] = struct{}{}
			}
		}
	}
	return set
}

func (s SelectorSet) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// FilterItems filters items by matching any of the provided key functions against the selector set.
// When selectors is empty or all selectors are blank, the original slice is returned.
func FilterItems[T any](items []T, selectors []string, keyFuncs ...func(T) string) []T {
	if len(items) == 0 {
		return items
	}
	set := BuildSelectorSet(selectors)
	if len(set) == 0 || len(keyFuncs) == 0 {
		return items
	}
	result := make([]T, 0, len(items))
outer:
	for _, item := range items {
		for _, keyFn := range keyFuncs {
			if keyFn == nil {
				continue
			}
			if key := keyFn(item); key != "" && set.Has(key) {
				result = append(result, item)
				continue outer
			}
		}
	}
	return result
}

// Unknown returns the selectors that match none of the given keys, in sorted order.
func Unknown(selectors []string, keys []string) []string {
	known := BuildSelectorSet(keys)
	var out []string
	for s := range BuildSelectorSet(selectors) {
		if !known.Has(s) {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
