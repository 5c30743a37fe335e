// Package providers implements the six credential sources the resolution
// engine can consult: the active remote fetcher, platform-injected
// environment, encoded packet decoder, encrypted file store, orchestrator
// secret mounts, and the parent configuration hierarchy.
package providers

import (
	"strings"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// parseEnvLines extracts KEY=value pairs from newline-delimited dotenv
// content. Blank lines and comment lines are skipped; an optional
// "export " prefix and one layer of matching quotes around the value are
// stripped. Lines without '=' are ignored.
func parseEnvLines(data []byte, source provider.SourceID) []provider.Candidate {
	var candidates []provider.Candidate
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		value := unquote(strings.TrimSpace(line[eq+1:]))
		if !validEnvKey(key) {
			continue
		}
		candidates = append(candidates, provider.Candidate{Key: key, Value: value, Source: source})
	}
	return candidates
}

func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

func validEnvKey(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// looksLikeEnvContent is the plaintext heuristic shared with the encrypted
// file store: the first non-blank line must be a comment or a KEY=value
// shape for the content to count as decrypted dotenv text.
func looksLikeEnvContent(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			return true
		}
		eq := strings.Index(line, "=")
		return eq > 0 && validEnvKey(strings.TrimSpace(strings.TrimPrefix(line[:eq], "export ")))
	}
	return false
}
