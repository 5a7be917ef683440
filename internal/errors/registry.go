package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Observer (T001-T019)
	// ============================================

	"T001": {
		Category: CategoryRuntime,
		Message:  "Unbalanced evaluation bracket",
		Detail:   "EndUpdating was called for an updatable that is not the innermost open evaluation.",
	},
	"T002": {
		Category: CategoryConfig,
		Message:  "Value cannot be observed",
		Detail:   "Only map[string]any, *[]any, map[any]any and map[any]struct{} can be wrapped in a proxy.",
	},

	// ============================================
	// Template (T020-T049)
	// ============================================

	"T020": {
		Category: CategoryConfig,
		Message:  "Invalid event handler",
		Detail:   "Event holes accept a function or nil.",
	},
	"T021": {
		Category: CategoryConfig,
		Message:  "Unknown binding",
		Detail:   "No binding is registered under this name.",
	},
	"T022": {
		Category: CategoryConfig,
		Message:  "Value count does not match template",
		Detail:   "A template result must carry exactly one value per hole slot.",
	},
	"T023": {
		Category: CategoryConfig,
		Message:  "Invalid template markup",
		Detail:   "The template segments could not be turned into a skeleton.",
	},
	"T024": {
		Category: CategoryConfig,
		Message:  "Invalid binding modifiers",
		Detail:   "The binding rejected its modifier combination.",
	},
	"T025": {
		Category: CategoryConfig,
		Message:  "Invalid binding value",
		Detail:   "The binding rejected the value shape it was given.",
	},

	// ============================================
	// Structure (T050-T069)
	// ============================================

	"T050": {
		Category: CategoryStructure,
		Message:  "Node range already removed",
		Detail:   "A removed range has no parent to extract its content from.",
	},
	"T051": {
		Category: CategoryStructure,
		Message:  "Node range is broken",
		Detail:   "The end marker is no longer reachable from the start marker.",
	},

	// ============================================
	// Scheduler (T070-T089)
	// ============================================

	"T070": {
		Category: CategoryRuntime,
		Message:  "Update failed",
		Detail:   "An updatable panicked or returned an error during a flush.",
	},
	"T071": {
		Category: CategoryRuntime,
		Message:  "Possible infinite update loop",
		Detail:   "An updatable was re-enqueued more often than allowed within one flush.",
	},
	"T072": {
		Category: CategoryRuntime,
		Message:  "Flush callback failed",
		Detail:   "A flush-complete callback panicked.",
	},

	// ============================================
	// CLI (T100-T119)
	// ============================================

	"T100": {
		Category: CategoryCLI,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be loaded or failed validation.",
	},
}

// GetAllCodes returns all registered error codes, sorted.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for a given error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
