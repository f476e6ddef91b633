package sso

import (
	"fmt"
	"reflect"
)

// Value reads key and asserts it to T. A nil value or an unknown key yields
// the zero T.
//
//	count, err := sso.Value[int](store, "count")
func Value[T any](s *Store, key string) (T, error) {
	var zero T
	v, err := s.Get(key)
	if err != nil || v == nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, errTypeMismatch(key, fmt.Sprintf("%T", v), typeName[T]())
	}
	return t, nil
}

// Modify is the typed form of Store.Update. The update is skipped and
// ErrTypeMismatch returned when the current value is not a T.
//
//	err := sso.Modify(store, "count", func(n int) int { return n + 1 })
func Modify[T any](s *Store, key string, fn func(T) T) error {
	var mismatch error
	err := s.Update(key, func(current any) any {
		var t T
		if current != nil {
			var ok bool
			if t, ok = current.(T); !ok {
				mismatch = errTypeMismatch(key, fmt.Sprintf("%T", current), typeName[T]())
				return current
			}
		}
		return fn(t)
	})
	if err != nil {
		return err
	}
	return mismatch
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
