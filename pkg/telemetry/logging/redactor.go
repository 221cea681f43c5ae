package logging

import (
	"net/url"
	"regexp"
	"strings"
)

// Redacted replaces secret values in log output.
const Redacted = "[REDACTED]"

// Redactor removes credentials from log values.
type Redactor struct {
	patterns []*redactPattern
	secrets  []string
}

type redactPattern struct {
	regex       *regexp.Regexp
	replacement string
}

// defaultPatterns match credentials by shape.
var defaultPatterns = []*redactPattern{
	// user:password@ in URLs
	{regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://[^:/@\s]+):[^@\s]+@`), "$1:" + Redacted + "@"},
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`), "Bearer " + Redacted},
	{regexp.MustCompile(`(?i)(api[-_]?key|x-api-key)([=:]\s*)[^\s,;&"]+`), "$1$2" + Redacted},
	{regexp.MustCompile(`(?i)(password|passwd|pwd)([=:]\s*)[^\s,;&"]+`), "$1$2" + Redacted},
}

// sensitiveKeys are attribute-name fragments whose values are dropped
// entirely.
var sensitiveKeys = []string{
	"password", "passwd", "secret", "token",
	"api_key", "apikey", "api-key",
	"authorization", "cookie",
}

// NewRedactor creates a redactor. secrets are literal values replaced
// wherever they appear; empty strings are ignored.
func NewRedactor(secrets ...string) *Redactor {
	r := &Redactor{patterns: defaultPatterns}
	for _, s := range secrets {
		if s != "" {
			r.secrets = append(r.secrets, s)
		}
	}
	return r
}

// RedactString removes credentials from value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, s := range r.secrets {
		value = strings.ReplaceAll(value, s, Redacted)
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// IsSensitiveKey reports whether an attribute name denotes a credential.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// dsnPassword returns the password component of a DSN URL, if any.
func dsnPassword(dsn string) string {
	if dsn == "" {
		return ""
	}
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return ""
	}
	pw, _ := u.User.Password()
	return pw
}
