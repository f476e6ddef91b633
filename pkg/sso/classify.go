package sso

import (
	"reflect"
	"sort"
)

// Computed derives a read-only value from the store. It runs on every read
// of its key with subscription suppressed.
type Computed func(s *Store) any

// classification is the partition of a descriptor into fields, methods and
// computed properties. The three key sets are disjoint.
type classification struct {
	values   map[string]any
	methods  map[string]*method
	computed map[string]Computed
}

// classify partitions desc and computed, failing fast when desc is not a
// keyed record or a computed key collides with a descriptor key.
func classify(desc any, computed map[string]Computed) (*classification, error) {
	entries, err := recordEntries(desc)
	if err != nil {
		return nil, err
	}

	c := &classification{
		values:   make(map[string]any, len(entries)),
		methods:  make(map[string]*method),
		computed: make(map[string]Computed, len(computed)),
	}

	for key, v := range entries {
		if isCallable(v) {
			c.methods[key] = newMethod(key, reflect.ValueOf(v))
		} else {
			c.values[key] = v
		}
	}

	keys := make([]string, 0, len(computed))
	for key := range computed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		fn := computed[key]
		if fn == nil {
			return nil, errComputedConflict(key, "has no derivation")
		}
		if _, ok := entries[key]; ok {
			return nil, errComputedConflict(key, "collides with a store key")
		}
		c.computed[key] = fn
	}

	return c, nil
}

// recordEntries flattens a keyed record into a map.
// Accepted shapes are maps with string keys and structs (or pointers to
// structs), whose exported fields are keyed by name or by an `sso` tag.
func recordEntries(desc any) (map[string]any, error) {
	if desc == nil {
		return nil, errNotRecord("nil")
	}

	rv := reflect.ValueOf(desc)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, errNotRecord("nil " + rv.Type().String())
		}
		if rv.Elem().Kind() == reflect.Struct {
			rv = rv.Elem()
		}
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, errNotRecord(rv.Type().String())
		}
		entries := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			entries[iter.Key().String()] = iter.Value().Interface()
		}
		return entries, nil

	case reflect.Struct:
		t := rv.Type()
		entries := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name := f.Name
			if tag, ok := f.Tag.Lookup("sso"); ok {
				if tag == "-" {
					continue
				}
				if tag != "" {
					name = tag
				}
			}
			entries[name] = rv.Field(i).Interface()
		}
		return entries, nil
	}

	return nil, errNotRecord(rv.Kind().String())
}

// isCallable reports whether v is a non-nil func.
func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Func && !rv.IsNil()
}
