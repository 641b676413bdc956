package xslices

import (
	"testing"

	"golang.org/x/exp/slices"
)

func TestFilter(t *testing.T) {
	s := []int{1, 2, 3, 4, 5, 6}
	even := Filter(s, func(v int) bool { return v%2 == 0 })
	if !slices.Equal(even, []int{2, 4, 6}) {
		t.Errorf("Filter() = %v", even)
	}
	if !slices.Equal(s, []int{1, 2, 3, 4, 5, 6}) {
		t.Errorf("Filter modified its input: %v", s)
	}
}

func TestUnique(t *testing.T) {
	got := Unique([]string{"a", "b", "a", "c", "b"})
	if !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Unique() = %v", got)
	}
}
