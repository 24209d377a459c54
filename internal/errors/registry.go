package errors

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Runtime Errors (R001-R099)
	// ============================================

	"R001": {
		Category:   CategoryRuntime,
		Message:    "Value is not structured",
		Suggestion: "Only map[string]any and *[]any values can be observed",
	},
	"R002": {
		Category:   CategoryReconcile,
		Message:    "Node key is not comparable",
		Suggestion: "Use strings, numbers or other comparable values as keys",
	},
	"R003": {
		Category:   CategoryRuntime,
		Message:    "Invalid watch source",
		Suggestion: "Watch an *Object, an *Array, a func() any getter or a Valuer",
	},
	"R004": {
		Category: CategoryRuntime,
		Message:  "Computed value depends on itself",
	},
	"R005": {
		Category:   CategoryRuntime,
		Message:    "Runtime used from a foreign goroutine",
		Suggestion: "Post work to the runtime's Loop instead of touching state directly",
	},
	"R010": {
		Category: CategoryRuntime,
		Message:  "Scheduled job panicked",
	},
	"R011": {
		Category: CategoryRuntime,
		Message:  "Microtask panicked",
	},
	"R012": {
		Category: CategoryRuntime,
		Message:  "Loop task panicked",
	},
	"R020": {
		Category: CategoryRuntime,
		Message:  "Loop is closed",
	},

	// ============================================
	// Configuration Errors (C001-C099)
	// ============================================

	"C001": {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create reflux.json or pass --config",
	},
	"C002": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration file",
		Suggestion: "Check that reflux.json is valid JSON",
	},
	"C003": {
		Category: CategoryConfig,
		Message:  "Invalid configuration value",
	},

	// ============================================
	// Transport Errors (S001-S099)
	// ============================================

	"S001": {
		Category: CategoryTransport,
		Message:  "WebSocket upgrade failed",
	},
	"S002": {
		Category: CategoryTransport,
		Message:  "WebSocket write failed",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}

// Codes returns all registered codes.
func Codes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}
