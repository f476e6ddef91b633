package sso

import (
	"errors"

	serrors "github.com/vango-dev/sso/internal/errors"
)

// Error is the structured error returned by every store operation.
// Use errors.Is with the sentinels below to classify it.
type Error = serrors.Error

// =============================================================================
// Sentinel Errors
// =============================================================================

var (
	// ErrNotRecord is returned by New when the descriptor is not a keyed
	// record (a map with string keys or a struct).
	ErrNotRecord = errors.New("sso: input parameter must be an object")

	// ErrComputedConflict is returned by New when a computed key collides
	// with a descriptor key, or a computed entry is nil.
	ErrComputedConflict = errors.New("sso: computed property conflicts with a store key")

	// ErrUnknownField is returned when writing a key that is neither a field
	// nor a method of the store.
	ErrUnknownField = errors.New("sso: field has not been initialized in the store")

	// ErrMethodWrite is returned when writing a method key.
	ErrMethodWrite = errors.New("sso: method cannot be updated")

	// ErrComputedWrite is returned when writing a computed key.
	ErrComputedWrite = errors.New("sso: computed property cannot be updated")

	// ErrUpdaterNotFunc is returned by Call when the updater is not a function.
	ErrUpdaterNotFunc = errors.New("sso: the update program should be a function")

	// ErrIllegalConfig is returned when a configuration override is not a
	// keyed record.
	ErrIllegalConfig = errors.New("sso: illegal configuration")

	// ErrUnsupportedConfig is returned when a configuration override names an
	// unknown item.
	ErrUnsupportedConfig = errors.New("sso: configuration item is not supported")

	// ErrConfigType is returned when a configuration item has the wrong type.
	ErrConfigType = errors.New("sso: configuration item has the wrong type")

	// ErrRevoked is returned by every operation on a revoked store, including
	// a second revocation.
	ErrRevoked = errors.New("sso: store has been revoked")

	// ErrMethodArgs is returned when method arguments cannot be passed to the
	// underlying function.
	ErrMethodArgs = errors.New("sso: method arguments do not match its signature")

	// ErrNotMethod is returned by Invoke and Method for keys that are not
	// methods of the store.
	ErrNotMethod = errors.New("sso: key is not a method")

	// ErrTypeMismatch is returned by the typed accessors when a value does not
	// have the requested type.
	ErrTypeMismatch = errors.New("sso: value has an unexpected type")
)

func errNotRecord(kind string) error {
	return serrors.Newf("S001", "The input parameter must be an Object, got %s", kind).
		Wrap(ErrNotRecord)
}

func errComputedConflict(key, reason string) error {
	return serrors.Newf("S002", "Computed property %q %s", key, reason).
		WithKey(key).
		Wrap(ErrComputedConflict)
}

func errUnknownField(key string) error {
	return serrors.Newf("S003", "%q has not been initialized in the store", key).
		WithKey(key).
		Wrap(ErrUnknownField)
}

func errMethodWrite(key string) error {
	return serrors.Newf("S004", "%q is a method and cannot be updated", key).
		WithKey(key).
		Wrap(ErrMethodWrite)
}

func errComputedWrite(key string) error {
	return serrors.Newf("S005", "%q is a computed property and cannot be updated", key).
		WithKey(key).
		Wrap(ErrComputedWrite)
}

func errUpdaterNotFunc(key string) error {
	return serrors.Newf("S006", "The update program for %q should be a function", key).
		WithKey(key).
		Wrap(ErrUpdaterNotFunc)
}

func errIllegalConfig() error {
	return serrors.Newf("S007", "Illegal configuration").Wrap(ErrIllegalConfig)
}

func errUnsupportedConfig(key string) error {
	return serrors.Newf("S008", "The %q configuration item is currently not supported", key).
		WithKey(key).
		Wrap(ErrUnsupportedConfig)
}

func errConfigType(key, actual, expected string) error {
	return serrors.Newf("S009", "%s does not support %s type, it should be a %s", key, actual, expected).
		WithKey(key).
		Wrap(ErrConfigType)
}

func errRevoked(key string) error {
	if key == "" {
		return serrors.New("S010").Wrap(ErrRevoked)
	}
	return serrors.Newf("S010", "Cannot access %q on a revoked store", key).
		WithKey(key).
		Wrap(ErrRevoked)
}

func errMethodArgs(key, reason string) error {
	return serrors.Newf("S011", "Method %q: %s", key, reason).
		WithKey(key).
		Wrap(ErrMethodArgs)
}

func errNotMethod(key string) error {
	return serrors.Newf("S013", "%q is not a method of the store", key).
		WithKey(key).
		Wrap(ErrNotMethod)
}

func errTypeMismatch(key, got, want string) error {
	return serrors.Newf("S012", "%q holds %s, not %s", key, got, want).
		WithKey(key).
		Wrap(ErrTypeMismatch)
}
