// Package sliceutil holds small generic slice helpers.
package sliceutil

// DistinctBy keeps the first item for every key, in input order.
func DistinctBy[T any, K comparable](items []T, key func(T) K) []T {
	seen := make(map[K]struct{}, len(items))
	out := items[:0:0]
	for _, item := range items {
		k := key(item)
		if _, dup := seen[k]; !dup {
			seen[k] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// Distinct is DistinctBy with the value as its own key.
func Distinct[T comparable](items []T) []T {
	return DistinctBy(items, func(v T) T { return v })
}

// Map applies fn to every item.
func Map[T, U any](items []T, fn func(T) U) []U {
	out := make([]U, len(items))
	for i, item := range items {
		out[i] = fn(item)
	}
	return out
}
