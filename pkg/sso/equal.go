package sso

import (
	"reflect"
	"runtime"
)

// Equal reports whether a and b are structurally equal.
//
// Equal is the oracle that gates every field write:
//   - Slices and arrays are equal when they have the same length and pairwise
//     equal elements.
//   - Maps are equal when their key types match, they have the same number of
//     keys, and every key maps to an equal value in both.
//   - Structs are equal when they share a type and all fields are equal.
//   - Funcs are equal when they resolve to the same runtime symbol. Two
//     closures created from the same literal compare equal even if they
//     capture different variables. Two literals with the same source text
//     are distinct symbols and compare unequal.
//   - Pointers are equal when they are identical or point to equal values.
//   - Everything else must have the same type and compare equal with ==.
//     NaN is never equal to itself.
//
// Operands of different shapes are never equal.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return equalValues(reflect.ValueOf(a), reflect.ValueOf(b), make(map[visit]bool))
}

// visit records a pair of references already under comparison, so cyclic
// values terminate.
type visit struct {
	a, b uintptr
	typ  reflect.Type
}

func equalValues(a, b reflect.Value, visited map[visit]bool) bool {
	for a.Kind() == reflect.Interface {
		a = a.Elem()
	}
	for b.Kind() == reflect.Interface {
		b = b.Elem()
	}
	if !a.IsValid() || !b.IsValid() {
		return a.IsValid() == b.IsValid()
	}

	ak, bk := a.Kind(), b.Kind()
	switch {
	case isSequence(ak) && isSequence(bk):
		return equalSequences(a, b, visited)

	case ak == reflect.Map && bk == reflect.Map:
		return equalMaps(a, b, visited)

	case ak == reflect.Struct && bk == reflect.Struct:
		if a.Type() != b.Type() {
			return false
		}
		for i := 0; i < a.NumField(); i++ {
			if !equalValues(a.Field(i), b.Field(i), visited) {
				return false
			}
		}
		return true

	case ak == reflect.Func && bk == reflect.Func:
		return funcName(a) == funcName(b)

	case ak == reflect.Pointer && bk == reflect.Pointer:
		if a.Type() != b.Type() {
			return false
		}
		if a.Pointer() == b.Pointer() {
			return true
		}
		if a.IsNil() || b.IsNil() {
			return false
		}
		if seen(a, b, visited) {
			return true
		}
		return equalValues(a.Elem(), b.Elem(), visited)

	case ak != bk:
		return false
	}

	return strictEqual(a, b)
}

func isSequence(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array
}

func equalSequences(a, b reflect.Value, visited map[visit]bool) bool {
	n := a.Len()
	if n != b.Len() {
		return false
	}
	if n == 0 {
		return true
	}
	if a.Kind() == reflect.Slice && b.Kind() == reflect.Slice {
		if a.Type() == b.Type() && a.Pointer() == b.Pointer() {
			return true
		}
		if seen(a, b, visited) {
			return true
		}
	}
	for i := 0; i < n; i++ {
		if !equalValues(a.Index(i), b.Index(i), visited) {
			return false
		}
	}
	return true
}

func equalMaps(a, b reflect.Value, visited map[visit]bool) bool {
	if a.Type().Key() != b.Type().Key() {
		return false
	}
	if a.Len() != b.Len() {
		return false
	}
	if a.Len() == 0 {
		return true
	}
	if a.Pointer() == b.Pointer() {
		return true
	}
	if seen(a, b, visited) {
		return true
	}
	iter := a.MapRange()
	for iter.Next() {
		bv := b.MapIndex(iter.Key())
		if !bv.IsValid() {
			return false
		}
		if !equalValues(iter.Value(), bv, visited) {
			return false
		}
	}
	return true
}

// seen marks the pair as visited and reports whether it already was.
func seen(a, b reflect.Value, visited map[visit]bool) bool {
	v := visit{a: a.Pointer(), b: b.Pointer(), typ: a.Type()}
	if visited[v] {
		return true
	}
	visited[v] = true
	return false
}

// funcName returns the runtime symbol of a func value, or "" for nil.
func funcName(v reflect.Value) string {
	if v.IsNil() {
		return ""
	}
	fn := runtime.FuncForPC(v.Pointer())
	if fn == nil {
		return ""
	}
	return fn.Name()
}

func strictEqual(a, b reflect.Value) bool {
	if a.Type() != b.Type() {
		return false
	}
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return a.Float() == b.Float()
	case reflect.Complex64, reflect.Complex128:
		return a.Complex() == b.Complex()
	case reflect.String:
		return a.String() == b.String()
	case reflect.Chan, reflect.UnsafePointer:
		return a.Pointer() == b.Pointer()
	default:
		return false
	}
}
