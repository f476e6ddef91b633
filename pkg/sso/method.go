package sso

import (
	"context"
	"fmt"
	"reflect"
)

// Method is the canonical signature of a store method. Any other func value
// in a descriptor is also a method; it is called through reflection.
//
// A method whose first parameter is *Store receives the store it belongs to.
// A context.Context parameter right after it (or first, if there is no
// *Store) receives the context passed to InvokeContext.
type Method func(s *Store, args ...any) (any, error)

// MethodFunc is the callable returned when reading a method key. Calling it
// runs the method with field subscription suppressed.
type MethodFunc func(args ...any) (any, error)

var (
	methodType  = reflect.TypeOf(Method(nil))
	storeType   = reflect.TypeOf((*Store)(nil))
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// method is a classified store method.
type method struct {
	key string
	fn  reflect.Value

	// fast is set when fn has the Method signature and can skip reflection.
	fast Method

	bindStore bool
	bindCtx   bool
}

func newMethod(key string, fn reflect.Value) *method {
	m := &method{key: key, fn: fn}

	t := fn.Type()
	if t.ConvertibleTo(methodType) {
		m.fast = fn.Convert(methodType).Interface().(Method)
		return m
	}

	i := 0
	if t.NumIn() > i && t.In(i) == storeType {
		m.bindStore = true
		i++
	}
	if t.NumIn() > i && t.In(i) == contextType {
		m.bindCtx = true
	}
	return m
}

// call runs the method body. It does not touch the reentrancy depth; the
// store does that around it.
func (m *method) call(ctx context.Context, s *Store, args []any) (any, error) {
	if m.fast != nil {
		return m.fast(s, args...)
	}

	t := m.fn.Type()
	in := make([]reflect.Value, 0, len(args)+2)
	if m.bindStore {
		in = append(in, reflect.ValueOf(s))
	}
	if m.bindCtx {
		in = append(in, reflect.ValueOf(&ctx).Elem())
	}

	offset := len(in)
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
	}
	if offset+len(args) < fixed || (!t.IsVariadic() && offset+len(args) > fixed) {
		return nil, errMethodArgs(m.key, fmt.Sprintf("got %d arguments, want %d", len(args), fixed-offset))
	}

	for j, arg := range args {
		idx := offset + j
		var pt reflect.Type
		if t.IsVariadic() && idx >= fixed {
			pt = t.In(t.NumIn() - 1).Elem()
		} else {
			pt = t.In(idx)
		}
		av, err := argValue(arg, pt)
		if err != nil {
			return nil, errMethodArgs(m.key, fmt.Sprintf("argument %d: %v", j, err))
		}
		in = append(in, av)
	}

	return unpackResults(m.fn.Call(in))
}

// argValue converts arg for a parameter of type t. Numeric values convert
// between numeric kinds; everything else must be assignable.
func argValue(arg any, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch t.Kind() {
		case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use nil as %s", t)
	}

	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumeric(v.Kind()) && isNumeric(t.Kind()) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s as %s", v.Type(), t)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// unpackResults maps a method's results to (value, error): a trailing error
// result becomes the error, the first remaining result the value.
func unpackResults(out []reflect.Value) (any, error) {
	var err error
	if n := len(out); n > 0 && out[n-1].Type() == errorType {
		if e, ok := out[n-1].Interface().(error); ok {
			err = e
		}
		out = out[:n-1]
	}
	if len(out) == 0 {
		return nil, err
	}
	return out[0].Interface(), err
}
