package providers

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// DefaultVaultFile is the encrypted-at-rest env file, dotenv-vault style,
// relative to the working directory.
const DefaultVaultFile = ".env.vault"

// ageHeaderPrefix marks an age-encrypted file before the KEY=value
// heuristic even runs.
const ageHeaderPrefix = "age-encryption.org/"

// EncryptedFileProvider reads a vault file that is either still encrypted
// (opaque, skipped with guidance) or already decrypted into KEY=value
// lines. It never attempts decryption itself: unlocking the vault belongs
// to the user's vault tooling.
type EncryptedFileProvider struct {
	logger *logging.Logger

	// detect decides whether file content is decrypted dotenv text. The
	// default is the first-line shape heuristic; swappable so a magic-byte
	// or metadata-marker strategy can replace it without touching the
	// pipeline.
	detect func(data []byte) bool
}

// NewEncryptedFileProvider creates the encrypted file store provider.
func NewEncryptedFileProvider(logger *logging.Logger) *EncryptedFileProvider {
	return &EncryptedFileProvider{logger: logger, detect: isDecryptedVault}
}

// WithDetection overrides the decrypted-content detection strategy.
func (p *EncryptedFileProvider) WithDetection(detect func(data []byte) bool) *EncryptedFileProvider {
	p.detect = detect
	return p
}

// Name implements provider.Provider.
func (p *EncryptedFileProvider) Name() string {
	return "encrypted-file"
}

// Source implements provider.Provider.
func (p *EncryptedFileProvider) Source() provider.SourceID {
	return provider.SourceEncryptedFile
}

// Fetch implements provider.Provider.
func (p *EncryptedFileProvider) Fetch(ctx context.Context, fc provider.FetchContext) (provider.Result, error) {
	path := fc.Paths.VaultFile
	if path == "" {
		path = filepath.Join(fc.WorkDir, DefaultVaultFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return provider.Result{Note: "no vault file at " + path}, nil
		}
		return provider.Result{}, err
	}

	if !p.detect(data) {
		p.logger.Warn("encrypted-file: %s is still encrypted; unlock it with your vault tooling to use it", path)
		return provider.Result{Note: "vault file " + path + " still encrypted"}, nil
	}

	candidates := parseEnvLines(data, provider.SourceEncryptedFile)
	return provider.Result{
		Candidates: candidates,
		Note:       "decrypted vault file " + path,
	}, nil
}

// isDecryptedVault is the default detection strategy: an age header means
// encrypted, otherwise the first non-blank line must look like dotenv text.
func isDecryptedVault(data []byte) bool {
	if strings.HasPrefix(string(data), ageHeaderPrefix) {
		return false
	}
	return looksLikeEnvContent(data)
}
