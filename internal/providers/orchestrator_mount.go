package providers

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// DefaultSecretsMountDir is where container orchestrators mount secrets.
const DefaultSecretsMountDir = "/run/secrets"

// mountNamePrefix is stripped from mounted file names before the key
// transform. Orchestrator manifests namespace their secrets with it.
const mountNamePrefix = "credboot_"

// OrchestratorSecretsProvider reads the orchestrator's mounted-secrets
// directory. Each regular file becomes one candidate: the file name (prefix
// stripped, uppercased) is the key, the file contents the value.
type OrchestratorSecretsProvider struct {
	logger *logging.Logger
}

// NewOrchestratorSecretsProvider creates the mounted-secrets provider.
func NewOrchestratorSecretsProvider(logger *logging.Logger) *OrchestratorSecretsProvider {
	return &OrchestratorSecretsProvider{logger: logger}
}

// Name implements provider.Provider.
func (p *OrchestratorSecretsProvider) Name() string {
	return "orchestrator-secrets"
}

// Source implements provider.Provider.
func (p *OrchestratorSecretsProvider) Source() provider.SourceID {
	return provider.SourceOrchestratorSecret
}

// Fetch implements provider.Provider.
func (p *OrchestratorSecretsProvider) Fetch(ctx context.Context, fc provider.FetchContext) (provider.Result, error) {
	dir := fc.Paths.SecretsMountDir
	if dir == "" {
		dir = DefaultSecretsMountDir
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return provider.Result{Note: "no secrets mount at " + dir}, nil
		}
		return provider.Result{}, err
	}

	res := provider.Result{Note: "secrets mount " + dir}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		key := MountNameToKey(entry.Name())
		if key == "" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			p.logger.Warn("orchestrator-secrets: skipping unreadable %s: %v", entry.Name(), err)
			continue
		}
		res.Candidates = append(res.Candidates, provider.Candidate{
			Key:    key,
			Value:  strings.TrimRight(string(data), "\n"),
			Source: provider.SourceOrchestratorSecret,
		})
	}
	if len(res.Candidates) == 0 {
		res.Note = "secrets mount " + dir + " is empty"
	}
	return res, nil
}

// MountNameToKey maps a mounted secret file name to an environment variable
// key: strip the known prefix, uppercase the rest. Suffixes like _key and
// _token map verbatim through the case transform. Hidden files yield "".
func MountNameToKey(name string) string {
	if strings.HasPrefix(name, ".") {
		return ""
	}
	lower := strings.ToLower(name)
	lower = strings.TrimPrefix(lower, mountNamePrefix)
	if lower == "" {
		return ""
	}
	return strings.ToUpper(lower)
}
