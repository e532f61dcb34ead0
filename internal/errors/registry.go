package errors

import "sort"

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Render Errors (E001-E009)
	// ============================================

	"E001": {
		Category:   CategoryRender,
		Message:    "Unsupported template value",
		Detail:     "A render function returned a value that cannot be turned into tree nodes.",
		Suggestion: "Return a *vdom.VNode, a *dom.Node, a string, or a slice of those.",
	},
	"E002": {
		Category: CategoryRender,
		Message:  "Render function panicked",
		Detail:   "A row render function panicked during a reconciliation cycle. The cycle was aborted and the previous rows were kept.",
	},
	"E003": {
		Category:   CategoryKey,
		Message:    "Unhashable row key",
		Detail:     "The key selector returned a value that cannot be used as a map key.",
		Suggestion: "Return a string, number, or other comparable value from the key selector.",
	},

	// ============================================
	// Config Errors (E010-E019)
	// ============================================

	"E010": {
		Category: CategoryConfig,
		Message:  "Configuration file unreadable",
		Detail:   "keyedlist.json exists but could not be read or parsed.",
	},
	"E011": {
		Category: CategoryConfig,
		Message:  "Configuration invalid",
		Detail:   "keyedlist.json was parsed but contains invalid values.",
	},

	// ============================================
	// Script Errors (E020-E029)
	// ============================================

	"E020": {
		Category:   CategoryScript,
		Message:    "Replay script invalid",
		Detail:     "The replay script could not be read or does not describe any list states.",
		Suggestion: `A script looks like {"key": "id", "steps": [[{"id": "a"}], [{"id": "b"}, {"id": "a"}]]}.`,
	},

	// ============================================
	// Transport Errors (E030-E039)
	// ============================================

	"E030": {
		Category: CategoryTransport,
		Message:  "WebSocket upgrade failed",
		Detail:   "The HTTP connection could not be upgraded to a WebSocket.",
	},
	"E031": {
		Category: CategoryTransport,
		Message:  "WebSocket write failed",
		Detail:   "A patch frame could not be delivered; the client was dropped.",
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
