package providers

import (
	"context"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// workspaceSignals mark a CI or cloud-workspace environment where the
// platform injects user secrets into the process environment.
var workspaceSignals = []string{
	"CODESPACES",
	"GITPOD_WORKSPACE_ID",
	"CI",
}

// recognizedSecretVars is the fixed allow-list of variable names the
// platform provider will read. Arbitrary environment variables are never
// swept up: only names the platform is known to inject.
var recognizedSecretVars = []string{
	"OPENAI_API_KEY",
	"OPENAI_API_BASE",
	"ANTHROPIC_API_KEY",
	"GEMINI_API_KEY",
	"GROQ_API_KEY",
	"OPENROUTER_API_KEY",
	"SUPABASE_URL",
	"SUPABASE_SERVICE_KEY",
	"LOGFIRE_TOKEN",
}

// PlatformEnvProvider reads recognized secret variables injected by a CI or
// cloud-workspace platform. Inactive outside such platforms.
type PlatformEnvProvider struct {
	logger *logging.Logger
}

// NewPlatformEnvProvider creates the platform-injected environment provider.
func NewPlatformEnvProvider(logger *logging.Logger) *PlatformEnvProvider {
	return &PlatformEnvProvider{logger: logger}
}

// Name implements provider.Provider.
func (p *PlatformEnvProvider) Name() string {
	return "platform-env"
}

// Source implements provider.Provider.
func (p *PlatformEnvProvider) Source() provider.SourceID {
	return provider.SourcePlatformInjected
}

// Fetch implements provider.Provider.
func (p *PlatformEnvProvider) Fetch(ctx context.Context, fc provider.FetchContext) (provider.Result, error) {
	signal := ""
	for _, name := range workspaceSignals {
		if v, ok := fc.Env.LookupEnv(name); ok && v != "" && v != "false" {
			signal = name
			break
		}
	}
	if signal == "" {
		return provider.Result{Note: "no CI/workspace signal in environment"}, nil
	}

	res := provider.Result{Note: "workspace signal " + signal}
	for _, name := range recognizedSecretVars {
		if v, ok := fc.Env.LookupEnv(name); ok && v != "" {
			res.Candidates = append(res.Candidates, provider.Candidate{
				Key:    name,
				Value:  v,
				Source: provider.SourcePlatformInjected,
			})
		}
	}
	if len(res.Candidates) == 0 {
		res.Note = "workspace signal " + signal + " but no recognized secret variables set"
	}
	p.logger.Debug("platform-env: %d candidate(s) via %s", len(res.Candidates), signal)
	return res, nil
}
