package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// remoteTimeout bounds each remote backend call so a dead endpoint cannot
// stall the rest of the pipeline.
const remoteTimeout = 10 * time.Second

// remoteBackend is one external API the active fetcher can consult.
type remoteBackend interface {
	name() string

	// applicable reports whether this backend has coordinates to work
	// with; the reason string feeds the provider note when it does not.
	applicable(fc provider.FetchContext) (bool, string)

	fetch(ctx context.Context, fc provider.FetchContext) ([]provider.Candidate, error)
}

// ActiveRemoteFetcher calls external secret APIs: the source-control
// hosting provider's variables API, a local container-secret daemon, and
// optionally AWS Secrets Manager.
//
// The fetcher is best-effort by design: any network or auth failure is
// logged and produces an empty contribution, never an error, because its
// absence must never block resolution.
type ActiveRemoteFetcher struct {
	logger   *logging.Logger
	backends []remoteBackend
	timeout  time.Duration
}

// NewActiveRemoteFetcher creates the remote fetcher with all backends.
func NewActiveRemoteFetcher(logger *logging.Logger) *ActiveRemoteFetcher {
	return &ActiveRemoteFetcher{
		logger: logger,
		backends: []remoteBackend{
			newGitHubBackend(logger),
			newDaemonBackend(),
			newAWSBackend(nil),
		},
		timeout: remoteTimeout,
	}
}

// WithBackends replaces the backend list, for tests.
func (p *ActiveRemoteFetcher) WithBackends(backends ...remoteBackend) *ActiveRemoteFetcher {
	p.backends = backends
	return p
}

// Name implements provider.Provider.
func (p *ActiveRemoteFetcher) Name() string {
	return "active-fetcher"
}

// Source implements provider.Provider.
func (p *ActiveRemoteFetcher) Source() provider.SourceID {
	return provider.SourceActiveFetcher
}

// Fetch implements provider.Provider. It never returns an error: each
// backend failure downgrades to a warning and an empty contribution.
func (p *ActiveRemoteFetcher) Fetch(ctx context.Context, fc provider.FetchContext) (provider.Result, error) {
	var (
		candidates []provider.Candidate
		notes      []string
	)

	for _, backend := range p.backends {
		ok, reason := backend.applicable(fc)
		if !ok {
			notes = append(notes, backend.name()+": "+reason)
			continue
		}

		bctx, cancel := context.WithTimeout(ctx, p.timeout)
		fetched, err := backend.fetch(bctx, fc)
		cancel()
		if err != nil {
			p.logger.Warn("active-fetcher: %s failed: %v", backend.name(), err)
			notes = append(notes, fmt.Sprintf("%s: failed (%v)", backend.name(), err))
			continue
		}

		candidates = append(candidates, fetched...)
		notes = append(notes, fmt.Sprintf("%s: %d value(s)", backend.name(), len(fetched)))
	}

	return provider.Result{
		Candidates: candidates,
		Note:       strings.Join(notes, "; "),
	}, nil
}
