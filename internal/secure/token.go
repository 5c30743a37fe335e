package secure

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// Keyring coordinates for the remote access token fallback.
const (
	KeyringService = "credboot"
	KeyringAccount = "github"
)

// TokenEnvVar is the first stop in the token lookup order.
const TokenEnvVar = "GITHUB_TOKEN"

// DefaultTokenFile returns the well-known token file path under the user's
// config directory.
func DefaultTokenFile(env provider.Environ) string {
	if base := env.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "credboot", "token")
	}
	if home := env.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config", "credboot", "token")
	}
	return ""
}

// LookupToken resolves the remote access token in fixed order: environment
// variable, token file, OS keyring. The token is placed straight into a
// protected buffer. The second return names the winning source for debug
// output; found is false when no source had a token (not an error: the
// remote fetcher is best-effort).
func LookupToken(env provider.Environ, tokenFile string) (token *SecureBuffer, source string, found bool) {
	if v, ok := env.LookupEnv(TokenEnvVar); ok && v != "" {
		return NewSecureBuffer([]byte(v)), "env:" + TokenEnvVar, true
	}

	if tokenFile == "" {
		tokenFile = DefaultTokenFile(env)
	}
	if tokenFile != "" {
		if data, err := os.ReadFile(tokenFile); err == nil {
			trimmed := strings.TrimSpace(string(data))
			if trimmed != "" {
				return NewSecureBuffer([]byte(trimmed)), "file:" + tokenFile, true
			}
		}
	}

	// Keyring failures (headless session, no secret service) are treated
	// as absence, consistent with the provider's best-effort contract.
	if v, err := keyring.Get(KeyringService, KeyringAccount); err == nil && v != "" {
		return NewSecureBuffer([]byte(v)), "keyring:" + KeyringService, true
	}

	return nil, "", false
}
