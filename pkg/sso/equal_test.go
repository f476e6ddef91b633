package sso

import (
	"math"
	"strings"
	"testing"
)

//go:noinline
func makeAdder(n int) func(int) int {
	return func(x int) int { return x + n }
}

type point struct {
	X, Y int
}

type node struct {
	V    int
	Next *node
}

func TestEqual(t *testing.T) {
	shared := []int{1, 2}
	x, y := 3, 3

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs zero", nil, 0, false},
		{"equal ints", 1, 1, true},
		{"different ints", 1, 2, false},
		{"int vs int64", 1, int64(1), false},
		{"strings", "a", "a", true},
		{"NaN", math.NaN(), math.NaN(), false},
		{"equal slices", []int{1, 2}, []int{1, 2}, true},
		{"same backing slice", shared, shared, true},
		{"different lengths", []int{1}, []int{1, 2}, false},
		{"different elements", []int{1, 2}, []int{2, 1}, false},
		{"slice vs any slice", []int{1, 2}, []any{1, 2}, true},
		{"slice vs array", []int{1}, [1]int{1}, true},
		{"nil slice vs empty", []int(nil), []int{}, true},
		{"nested maps", map[string]any{"a": 1, "b": []int{1}}, map[string]any{"a": 1, "b": []int{1}}, true},
		{"map value differs", map[string]any{"a": 1}, map[string]any{"a": 2}, false},
		{"map extra key", map[string]any{"a": 1}, map[string]any{"a": 1, "b": 2}, false},
		{"map key differs", map[string]any{"a": 1}, map[string]any{"b": 1}, false},
		{"map typed values", map[string]int{"a": 1}, map[string]any{"a": 1}, true},
		{"map key types differ", map[string]int{"1": 1}, map[int]int{1: 1}, false},
		{"equal structs", point{1, 2}, point{1, 2}, true},
		{"different structs", point{1, 2}, point{2, 1}, false},
		{"struct vs map", point{1, 2}, map[string]int{"X": 1, "Y": 2}, false},
		{"sequence vs record", []int{1}, map[string]int{"0": 1}, false},
		{"pointers to equal values", &x, &y, true},
		{"same named func", strings.ToUpper, strings.ToUpper, true},
		{"different named funcs", strings.ToUpper, strings.ToLower, false},
		{"closures from one literal", makeAdder(1), makeAdder(2), true},
		{"separate literals with the same text", func() int { return 1 }, func() int { return 1 }, false},
		{"func vs value", strings.ToUpper, "ToUpper", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Equal(tt.b, tt.a); got != tt.want {
				t.Errorf("Equal(%v, %v) (swapped) = %v, want %v", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestEqualCyclic(t *testing.T) {
	a := &node{V: 1}
	a.Next = a
	b := &node{V: 1}
	b.Next = b

	if !Equal(a, b) {
		t.Error("cyclic lists with equal values should be equal")
	}

	c := &node{V: 2}
	c.Next = c
	if Equal(a, c) {
		t.Error("cyclic lists with different values should differ")
	}

	m := map[string]any{}
	m["self"] = m
	n := map[string]any{}
	n["self"] = n
	if !Equal(m, n) {
		t.Error("self-referencing maps should be equal")
	}
}

func TestEqualUnexportedFields(t *testing.T) {
	type secret struct {
		name  string
		inner []int
	}
	if !Equal(secret{"a", []int{1}}, secret{"a", []int{1}}) {
		t.Error("structs with equal unexported fields should be equal")
	}
	if Equal(secret{"a", []int{1}}, secret{"a", []int{2}}) {
		t.Error("structs with different unexported fields should differ")
	}
}
