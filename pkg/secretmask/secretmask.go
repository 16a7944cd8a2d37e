// Package secretmask redacts credential-shaped substrings from text before
// it reaches a log line or an error message that crosses the HTTP boundary.
// Provider errors (spec §4.A) can embed the offending request's Authorization
// header or API key in their message; this package keeps those out of
// persisted error_message columns and structured logs.
package secretmask

import "regexp"

// pattern pairs a compiled regex with its replacement, mirroring the
// teacher's CompiledPattern (pkg/masking/pattern.go) trimmed to the fixed
// built-in set this service needs — no per-server custom pattern registry.
type pattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

var builtinPatterns = []pattern{
	{
		name:        "api_key",
		regex:       regexp.MustCompile(`(?i)(?:api[_-]?key|apikey)["']?\s*[:=]\s*["']?([A-Za-z0-9_\-]{16,})["']?`),
		replacement: `api_key=[MASKED_API_KEY]`,
	},
	{
		name:        "bearer_token",
		regex:       regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-\.]{16,}`),
		replacement: `Bearer [MASKED_TOKEN]`,
	},
	{
		name:        "openai_style_key",
		regex:       regexp.MustCompile(`\b(?:sk|org)-[A-Za-z0-9]{16,}\b`),
		replacement: `[MASKED_API_KEY]`,
	},
	{
		name:        "url_userinfo",
		regex:       regexp.MustCompile(`://[^/\s:@]+:[^/\s@]+@`),
		replacement: `://[MASKED_CREDENTIALS]@`,
	},
}

// Mask returns text with every recognized credential pattern replaced. Safe
// to call on arbitrary provider error text; patterns that don't match are
// no-ops.
func Mask(text string) string {
	for _, p := range builtinPatterns {
		text = p.regex.ReplaceAllString(text, p.replacement)
	}
	return text
}
