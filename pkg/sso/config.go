package sso

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"
)

// NextFunc decides how and when a batch of listener notifications runs.
//
// iterate invokes every listener of the changed field. key names the field
// that changed and state is a copy of all field values right after the write,
// so a hook can schedule selectively:
//
//	sso.Configure(sso.Config{Next: func(iterate func(), key string, state map[string]any) {
//	    if key == "cursor" {
//	        frameQueue.Push(iterate) // coalesce high-frequency fields
//	        return
//	    }
//	    iterate()
//	}})
type NextFunc func(iterate func(), key string, state map[string]any)

// Config holds the notification settings of a store.
// A nil field in an override means "leave unchanged".
type Config struct {
	// Next dispatches listener notifications. Default: run them immediately.
	Next NextFunc
}

// DefaultConfig returns the built-in configuration: synchronous notification.
func DefaultConfig() Config {
	return Config{Next: immediate}
}

func immediate(iterate func(), _ string, _ map[string]any) {
	iterate()
}

// merge returns c with the non-nil items of o applied.
func (c Config) merge(o Config) Config {
	if o.Next != nil {
		c.Next = o.Next
	}
	return c
}

// configItems lists the recognized configuration items and their types.
var configItems = map[string]reflect.Type{
	"next": reflect.TypeOf(NextFunc(nil)),
}

// globalConfig is the process-wide default copied into each new store.
// Readers load the pointer; writers build a new Config and swap it in.
var (
	globalConfig   atomic.Pointer[Config]
	globalConfigMu sync.Mutex
)

func init() {
	cfg := DefaultConfig()
	globalConfig.Store(&cfg)
}

// GlobalConfig returns the current process-wide default configuration.
func GlobalConfig() Config {
	return *globalConfig.Load()
}

// Configure validates partial and merges it into the process-wide default.
// Stores that already exist keep the configuration they were created with.
//
// partial may be a Config, a *Config, or a keyed record such as
// map[string]any{"next": fn}.
func Configure(partial any) error {
	override, err := validateConfiguration(partial)
	if err != nil {
		return err
	}

	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()

	next := globalConfig.Load().merge(override)
	globalConfig.Store(&next)
	return nil
}

// resetGlobalConfig restores the built-in default. Used by tests.
func resetGlobalConfig() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	cfg := DefaultConfig()
	globalConfig.Store(&cfg)
}

// validateConfiguration checks partial against the recognized items and
// returns it as a Config override.
func validateConfiguration(partial any) (Config, error) {
	switch p := partial.(type) {
	case Config:
		return p, nil
	case *Config:
		if p == nil {
			return Config{}, errIllegalConfig()
		}
		return *p, nil
	}

	if partial == nil {
		return Config{}, errIllegalConfig()
	}
	rv := reflect.ValueOf(partial)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return Config{}, errIllegalConfig()
	}

	keys := make([]string, 0, rv.Len())
	values := make(map[string]reflect.Value, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().String()
		keys = append(keys, k)
		values[k] = iter.Value()
	}
	sort.Strings(keys)

	var override Config
	for _, key := range keys {
		want, ok := configItems[key]
		if !ok {
			return Config{}, errUnsupportedConfig(key)
		}

		v := values[key]
		for v.Kind() == reflect.Interface {
			v = v.Elem()
		}
		if !v.IsValid() {
			return Config{}, errConfigType(key, "nil", want.Kind().String())
		}
		if v.Kind() != want.Kind() {
			return Config{}, errConfigType(key, v.Kind().String(), want.Kind().String())
		}
		if !v.Type().ConvertibleTo(want) {
			return Config{}, errConfigType(key, v.Type().String(), want.String())
		}

		switch key {
		case "next":
			override.Next = v.Convert(want).Interface().(NextFunc)
		}
	}
	return override, nil
}

// produceConfig invokes a configuration producer (a func taking no arguments)
// and validates what it returns.
func produceConfig(producer any) (Config, error) {
	rv := reflect.ValueOf(producer)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return Config{}, errIllegalConfig()
	}
	t := rv.Type()
	if t.NumIn() != 0 || t.NumOut() == 0 {
		return Config{}, errIllegalConfig()
	}
	out := rv.Call(nil)
	return validateConfiguration(out[0].Interface())
}
