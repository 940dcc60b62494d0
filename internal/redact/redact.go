// Package redact scrubs credentials, tokens, personal data and internal
// details from strings before they reach logs.
package redact

import (
	"log/slog"
	"regexp"
)

// Placeholders substituted for redacted fragments.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	KeyPlaceholder        = "[REDACTED_KEY]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	PathPlaceholder       = "[REDACTED_PATH]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Rules run in order. Connection strings go first so their user info is gone
// before the email and path rules look at what remains.
var rules = []rule{
	{
		regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|sqlite|file|rediss?)://[^\s@/]+@`),
		CredentialPlaceholder,
	},
	{
		regexp.MustCompile(`eyJ[\w-]+\.eyJ[\w-]+\.[\w-]+`),
		JWTPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(?:password|passwd|pwd|jwt_secret|secret)\s*[=:]\s*\S+`),
		CredentialPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(?:refresh_token|access_token|token|api[_-]?key)\s*[=:]\s*\S+`),
		KeyPlaceholder,
	},
	{
		regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`),
		EmailPlaceholder,
	},
	{
		regexp.MustCompile(`(?i)\b(WHERE|VALUES|SET)\s.*`),
		"${1} " + SQLPlaceholder,
	},
	{
		regexp.MustCompile(`(?:/[\w.-]+){2,}`),
		PathPlaceholder,
	},
}

// String returns input with every sensitive fragment replaced.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts err.Error(). A nil error yields "".
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Attr is the "error" log attribute for err, redacted.
func Attr(err error) slog.Attr {
	return slog.String("error", Error(err))
}
