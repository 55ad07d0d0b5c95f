package util

import (
	"math/rand/v2"
	"slices"
	"testing"
)

func TestShufflePermutes(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	s := make([]int, 100)
	for i := range s {
		s[i] = i
	}

	Shuffle(s, rng)

	sorted := slices.Clone(s)
	slices.Sort(sorted)
	for i, v := range sorted {
		if v != i {
			t.Fatalf("Shuffle lost or duplicated elements: sorted[%d] = %d", i, v)
		}
	}

	if slices.IsSorted(s) {
		t.Error("Shuffle left 100 elements in order")
	}
}

func TestShuffleDeterministic(t *testing.T) {
	a := []string{"a", "b", "c", "d", "e", "f", "g", "h"}
	b := slices.Clone(a)

	Shuffle(a, rand.New(rand.NewPCG(42, 7)))
	Shuffle(b, rand.New(rand.NewPCG(42, 7)))

	if !slices.Equal(a, b) {
		t.Errorf("same source produced different orders: %v vs %v", a, b)
	}
}

func TestShuffleSmall(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 3))

	var empty []int
	Shuffle(empty, rng)

	one := []int{9}
	Shuffle(one, rng)
	if one[0] != 9 {
		t.Errorf("single element changed: %v", one)
	}
}
