// Package redact strips credentials, tokens, SQL and filesystem paths from
// error text before it reaches a log line or an HTTP response.
package redact

import (
	"log/slog"
	"regexp"
)

// Placeholders substituted for redacted fragments.
const (
	Placeholder           = "[REDACTED]"
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	JWTPlaceholder        = "[REDACTED_JWT]"
	SQLPlaceholder        = "[REDACTED_SQL]"
	PathPlaceholder       = "[REDACTED_PATH]"
	EmailPlaceholder      = "[REDACTED_EMAIL]"
	StackPlaceholder      = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// rules run in order; earlier rules may consume text later ones would match.
var rules = []rule{
	{regexp.MustCompile(`goroutine \d+ \[[^\]]*\]:[\s\S]*`), StackPlaceholder},
	{regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql|sqlite|file)://[^\s@/]*@`), "${1}://" + CredentialPlaceholder + "@"},
	{regexp.MustCompile(`eyJ[\w-]+\.eyJ[\w-]+\.[\w-]+`), JWTPlaceholder},
	{regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]{8,}`), "Bearer " + TokenPlaceholder},
	{regexp.MustCompile(`(?i)(password|passwd|pwd|secret|api[_-]?key|token)(\s*[=:]\s*)['"]?[^'"\s&]{3,}['"]?`), "${1}${2}" + Placeholder},
	{regexp.MustCompile(`\b(?:SELECT\b[^;\n]*?\bFROM|INSERT INTO|UPDATE\b[^;\n]*?\bSET|DELETE FROM)\b[^;\n]*`), SQLPlaceholder},
	{regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`), EmailPlaceholder},
	{regexp.MustCompile(`(^|[\s"'(=])(?:/[\w.\-]+){2,}`), "${1}" + PathPlaceholder},
	{regexp.MustCompile(`[A-Za-z]:\\[^\s\\]+(?:\\[^\s\\]+)+`), PathPlaceholder},
}

// String returns s with sensitive fragments replaced by placeholders.
func String(s string) string {
	for _, r := range rules {
		s = r.re.ReplaceAllString(s, r.repl)
	}
	return s
}

// Error returns the redacted text of err, or "" for nil.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}

// Attr returns err as a redacted "error" log attribute.
func Attr(err error) slog.Attr {
	return slog.String("error", Error(err))
}
