// Package errors provides the coded error type shared by the sso packages.
//
// Every failure reported by a store carries a stable code (e.g., "S005")
// that maps to:
//   - A category (construction, write, config, lifecycle, ...)
//   - A short message and a longer explanation
//   - A documentation URL
//
// The store fills in the message with the offending key and wraps a sentinel
// error, so callers can match with errors.Is:
//
//	err := errors.Newf("S005", "%q is a computed property and cannot be updated", "total").
//	    Wrap(sso.ErrComputedWrite)
//
//	fmt.Println(err.Format())
//	// Output:
//	// ERROR S005: "total" is a computed property and cannot be updated
//	//
//	//   Computed properties are derived on every read and have no backing field.
//	//
//	//   Hint: Write to the fields the computed property reads instead.
//	//
//	//   Learn more: https://sso.vango.dev/errors/S005
package errors
