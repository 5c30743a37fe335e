// Package sanitize strips placeholder and incomplete values from candidate
// lists before anything downstream consumes them. Everything here is a pure
// function: deterministic, order-independent over its input, and idempotent.
package sanitize

import (
	"strings"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// placeholderMarkers are matched as case-insensitive substrings. A value
// containing any of them is template debris, not a credential.
var placeholderMarkers = []string{
	"example",
	"replace-this",
	"replace_this",
	"changeme",
	"change-me",
	"your-key-here",
	"your-api-key",
	"placeholder",
	"${",
	"{{",
	"<your",
	"xxxx",
}

// sensitiveSuffixes classify a key as mandatory-sensitive: its value must
// be non-empty to be usable.
var sensitiveSuffixes = []string{
	"_KEY",
	"_TOKEN",
	"_SECRET",
	"_PASSWORD",
	"_PASS",
}

// emptyAllowed lists keys where an empty value is semantically valid
// ("use the default endpoint", "no auth configured") even though the key
// would otherwise classify as mandatory-sensitive.
var emptyAllowed = map[string]struct{}{
	"OPENAI_API_BASE": {},
	"REDIS_PASSWORD":  {},
}

// Sanitize drops candidates whose value is a known placeholder, then drops
// mandatory-sensitive candidates with empty values unless the key is on the
// empty-allowed list. Deduplication is deliberately not done here: last-wins
// merging is the engine's job, which keeps Sanitize idempotent.
func Sanitize(candidates []provider.Candidate) []provider.Candidate {
	if candidates == nil {
		return nil
	}

	kept := make([]provider.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if IsPlaceholder(c.Value) {
			continue
		}
		if c.Value == "" && IsMandatorySensitive(c.Key) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// IsPlaceholder reports whether value matches the placeholder-pattern set.
func IsPlaceholder(value string) bool {
	lower := strings.ToLower(value)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IsMandatorySensitive reports whether key names a credential that must
// carry a non-empty value. Keys on the empty-allowed list are exempt.
func IsMandatorySensitive(key string) bool {
	upper := strings.ToUpper(key)
	if _, ok := emptyAllowed[upper]; ok {
		return false
	}
	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}
