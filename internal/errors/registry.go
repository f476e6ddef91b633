package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Construction Errors (S001-S002)
	// ============================================

	"S001": {
		Category:   CategoryConstruction,
		Message:    "The input parameter must be an object",
		Detail:     "A store is built from a keyed record: a map with string keys or a struct.",
		Suggestion: "Pass a map[string]any or a struct value to sso.New.",
		DocURL:     "https://sso.vango.dev/errors/S001",
	},
	"S002": {
		Category:   CategoryClassification,
		Message:    "Computed property conflicts with a store key",
		Detail:     "Computed keys must not overlap the keys of the store descriptor.",
		Suggestion: "Rename the computed property or remove the field it shadows.",
		DocURL:     "https://sso.vango.dev/errors/S002",
	},

	// ============================================
	// Write Errors (S003-S006)
	// ============================================

	"S003": {
		Category:   CategoryWrite,
		Message:    "Field has not been initialized in the store",
		Detail:     "Stores have a fixed set of fields decided at construction time.",
		Suggestion: "Add the field with an initial value to the store descriptor.",
		DocURL:     "https://sso.vango.dev/errors/S003",
	},
	"S004": {
		Category: CategoryWrite,
		Message:  "Method cannot be updated",
		Detail:   "Callable values in the descriptor become methods and are read-only.",
		DocURL:   "https://sso.vango.dev/errors/S004",
	},
	"S005": {
		Category:   CategoryWrite,
		Message:    "Computed property cannot be updated",
		Detail:     "Computed properties are derived on every read and have no backing field.",
		Suggestion: "Write to the fields the computed property reads instead.",
		DocURL:     "https://sso.vango.dev/errors/S005",
	},
	"S006": {
		Category:   CategoryUpdate,
		Message:    "The update program should be a function",
		Detail:     "The functional update form takes a key and a function of the current value.",
		Suggestion: "Use store.Call(\"key\", func(v any) any { ... }) or store.Update.",
		DocURL:     "https://sso.vango.dev/errors/S006",
	},

	// ============================================
	// Configuration Errors (S007-S009)
	// ============================================

	"S007": {
		Category: CategoryConfig,
		Message:  "Illegal configuration",
		Detail:   "A configuration override must be a keyed record or an sso.Config.",
		DocURL:   "https://sso.vango.dev/errors/S007",
	},
	"S008": {
		Category: CategoryConfig,
		Message:  "Configuration item is not supported",
		Detail:   "The only recognized configuration item is \"next\".",
		DocURL:   "https://sso.vango.dev/errors/S008",
	},
	"S009": {
		Category: CategoryConfig,
		Message:  "Configuration item has the wrong type",
		Detail:   "Each configuration item must have the same type as its default.",
		DocURL:   "https://sso.vango.dev/errors/S009",
	},

	// ============================================
	// Lifecycle & Invocation Errors (S010-S013)
	// ============================================

	"S010": {
		Category:   CategoryLifecycle,
		Message:    "Store has been revoked",
		Detail:     "A revoked store rejects every read, write, and call.",
		Suggestion: "Create a new store instead of reusing a revoked one.",
		DocURL:     "https://sso.vango.dev/errors/S010",
	},
	"S011": {
		Category: CategoryInvoke,
		Message:  "Method arguments do not match its signature",
		Detail:   "Method arguments must be assignable to the parameters of the underlying function.",
		DocURL:   "https://sso.vango.dev/errors/S011",
	},
	"S012": {
		Category: CategoryInvoke,
		Message:  "Value has an unexpected type",
		Detail:   "A typed accessor found a value that cannot be converted to the requested type.",
		DocURL:   "https://sso.vango.dev/errors/S012",
	},
	"S013": {
		Category: CategoryInvoke,
		Message:  "Key is not a method",
		Detail:   "Only callable values of the store descriptor can be invoked.",
		DocURL:   "https://sso.vango.dev/errors/S013",
	},

	// ============================================
	// CLI Errors (S100-S109)
	// ============================================

	"S100": {
		Category: CategoryCLI,
		Message:  "Scenario file not found",
		Detail:   "The scenario file passed to `sso run` does not exist.",
		DocURL:   "https://sso.vango.dev/errors/S100",
	},
	"S101": {
		Category: CategoryCLI,
		Message:  "Invalid scenario file",
		Detail:   "The scenario file could not be parsed or failed validation.",
		DocURL:   "https://sso.vango.dev/errors/S101",
	},
	"S102": {
		Category: CategoryCLI,
		Message:  "Scenario expectations failed",
		Detail:   "One or more steps did not produce the expected value or error.",
		DocURL:   "https://sso.vango.dev/errors/S102",
	},
	"S103": {
		Category: CategoryCLI,
		Message:  "Command failed",
		Detail:   "The command line could not be used as given.",
		DocURL:   "https://sso.vango.dev/errors/S103",
	},
}

// GetAllCodes returns all registered error codes in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}

// Register adds a new error template to the registry.
func Register(code string, template ErrorTemplate) {
	registry[code] = template
}
