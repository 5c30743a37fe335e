package commands

import (
	"os"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/config"
	cberrors "github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/errors"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/resolve"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// osEnviron adapts the real process environment for mode detection.
type osEnviron struct{}

func (osEnviron) Getenv(key string) string            { return os.Getenv(key) }
func (osEnviron) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }

// setupPipeline loads the configuration and builds the engine plus the
// fetch context every resolving command starts from.
func setupPipeline(cfg *config.Config, tierFlag string, opts ...resolve.EngineOption) (*resolve.Engine, provider.FetchContext, error) {
	if err := cfg.Load(); err != nil {
		return nil, provider.FetchContext{}, err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, provider.FetchContext{}, cberrors.UserError{
			Message:    "Failed to determine working directory",
			Details:    err.Error(),
			Err:        err,
		}
	}

	engine := resolve.New(osEnviron{}, cfg.Logger, opts...)
	return engine, cfg.FetchContext(workDir, tierFlag), nil
}
