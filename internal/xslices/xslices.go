// Package xslices contains slice helpers that the standard slices
// package lacks.
package xslices

// Filter returns a new slice containing the elements of s for which f
// returns true, in order.
func Filter[T any, S ~[]T](s S, f func(T) bool) (r S) {
	r = make(S, 0, len(s))
	for _, v := range s {
		if f(v) {
			r = append(r, v)
		}
	}
	return r
}

// Unique returns the elements of s with later duplicates removed,
// preserving the order of first occurrence.
func Unique[T comparable, S ~[]T](s S) (r S) {
	seen := make(map[T]struct{}, len(s))
	r = make(S, 0, len(s))
	for _, v := range s {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		r = append(r, v)
	}
	return r
}
