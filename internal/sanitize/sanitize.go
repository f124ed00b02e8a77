// Package sanitize provides sanitization for operator-supplied text.
// Uses bluemonday to strip all HTML (script tags, event handlers,
// javascript: URLs) from values that end up rendered in the console or
// forwarded to the backend API.
package sanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// policy is the singleton bluemonday policy for sanitizing operator input.
// Initialized once via sync.Once for thread-safe lazy initialization.
var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

// getPolicy returns the shared sanitization policy, initializing it on first call.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		// Console fields are plain text (usernames, menu titles, role
		// descriptions) -- no markup survives.
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Text strips all HTML from a plain-text field and trims surrounding
// whitespace. This MUST be called on every operator-supplied string
// before it is stored or forwarded upstream.
func Text(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(getPolicy().Sanitize(input))
}

// Fields sanitizes every string value in a decoded JSON object in place.
// Nested objects and arrays are walked recursively; non-string values are
// left untouched.
func Fields(obj map[string]any) {
	for k, v := range obj {
		switch val := v.(type) {
		case string:
			obj[k] = Text(val)
		case map[string]any:
			Fields(val)
		case []any:
			for i, item := range val {
				switch inner := item.(type) {
				case string:
					val[i] = Text(inner)
				case map[string]any:
					Fields(inner)
				}
			}
		}
	}
}
