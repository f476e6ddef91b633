package scenario

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/vango-dev/sso/internal/config"
	"github.com/vango-dev/sso/pkg/sso"
)

// compileComputed turns scenario expressions into computed properties.
// Expressions are validated when the scenario is loaded; an invalid one here
// compiles to a derivation that returns nil.
func compileComputed(src map[string]string) map[string]sso.Computed {
	computed := make(map[string]sso.Computed, len(src))
	for name, s := range src {
		expr, err := config.ParseExpr(s)
		if err != nil {
			computed[name] = func(*sso.Store) any { return nil }
			continue
		}
		computed[name] = compile(expr)
	}
	return computed
}

func compile(expr config.Expr) sso.Computed {
	return func(s *sso.Store) any {
		vals := make([]any, len(expr.Args))
		for i, key := range expr.Args {
			vals[i], _ = s.Get(key)
		}

		switch expr.Op {
		case config.ExprSum:
			total := 0.0
			for _, v := range vals {
				total += number(v)
			}
			return total
		case config.ExprProduct:
			total := 1.0
			for _, v := range vals {
				total *= number(v)
			}
			return total
		case config.ExprConcat:
			var b strings.Builder
			for _, v := range vals {
				if v != nil {
					fmt.Fprint(&b, v)
				}
			}
			return b.String()
		case config.ExprLen:
			return float64(length(vals[0]))
		case config.ExprNot:
			return !truthy(vals[0])
		}
		return nil
	}
}

// number converts v to float64. Non-numeric values count as zero.
func number(v any) float64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Bool:
		if rv.Bool() {
			return 1
		}
	}
	return 0
}

// length returns the length of strings, sequences and records, and zero
// for anything else.
func length(v any) int {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	}
	return 0
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return number(v) != 0
	}
	return true
}
