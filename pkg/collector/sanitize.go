package collector

import (
	"net/http"
	"strings"
)

// Redacted replaces the value of a sensitive header.
const Redacted = "[REDACTED]"

// sensitiveHeaders are matched case-insensitively.
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"x-api-key":     true,
	"x-auth-token":  true,
}

// IsSensitiveHeader reports whether a header's value must never leave the
// process.
func IsSensitiveHeader(name string) bool {
	return sensitiveHeaders[strings.ToLower(name)]
}

// SanitizeHeaders flattens h into a name/value map, joining repeated values
// with ", " and replacing sensitive values with Redacted. Header names keep
// their canonical form.
func SanitizeHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		if IsSensitiveHeader(name) {
			out[name] = Redacted
			continue
		}
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// SanitizeHeaderMap is SanitizeHeaders for an already flattened map. Names
// are kept exactly as given.
func SanitizeHeaderMap(h map[string]string) map[string]string {
	out := make(map[string]string, len(h))
	for name, value := range h {
		if IsSensitiveHeader(name) {
			out[name] = Redacted
			continue
		}
		out[name] = value
	}
	return out
}
