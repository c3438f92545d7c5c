package model

import "slices"

// Id-set helpers. Reference sets are stored as ordered slices with set
// semantics: membership checks before append, order preserved on removal.

// AddID appends id unless it is already present.
func AddID(ids []string, id string) []string {
	if slices.Contains(ids, id) {
		return ids
	}
	return append(ids, id)
}

// RemoveID removes every occurrence of id.
func RemoveID(ids []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(ids), func(s string) bool { return s == id })
}

// ContainsID reports membership.
func ContainsID(ids []string, id string) bool {
	return slices.Contains(ids, id)
}

// UnionIDs merges id sets preserving first-seen order.
func UnionIDs(sets ...[]string) []string {
	var out []string
	for _, set := range sets {
		for _, id := range set {
			out = AddID(out, id)
		}
	}
	return out
}
