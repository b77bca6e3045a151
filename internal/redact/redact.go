// Package redact strips credentials, SQL text and stack traces from error
// messages before they are logged or printed, so that storage failures can be
// reported without leaking connection secrets or schema details.
package redact

import "regexp"

// Placeholders substituted for redacted fragments.
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedSQLPlaceholder        = "[REDACTED_SQL]"
	RedactedStackPlaceholder      = "[STACK_TRACE_REDACTED]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules run in order; earlier rules see the original text.
var rules = []rule{
	// User info in postgres and redis connection URLs. Scheme and host stay.
	{
		pattern:     regexp.MustCompile(`(?i)\b(postgres(?:ql)?|rediss?)://[^@\s/]+@`),
		replacement: "${1}://" + RedactedCredentialPlaceholder + "@",
	},
	// key=value passwords in DSNs and query strings.
	{
		pattern:     regexp.MustCompile(`(?i)\b(password|passwd|pwd)(\s*[=:]\s*)('[^']*'|[^\s&]+)`),
		replacement: "${1}${2}" + RedactionPlaceholder,
	},
	// SQL statements echoed by drivers. Keywords must be upper case so prose
	// like "failed to update progress" is left alone.
	{
		pattern:     regexp.MustCompile(`(?s)\b(SELECT|INSERT INTO|UPDATE|DELETE FROM|WITH)\s.*`),
		replacement: RedactedSQLPlaceholder,
	},
	// Goroutine dumps.
	{
		pattern:     regexp.MustCompile(`(?s)goroutine \d+ \[[^\]]*\]:.*`),
		replacement: RedactedStackPlaceholder,
	},
}

// String redacts sensitive information from the input string
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

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
