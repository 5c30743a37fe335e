// Package resolve orchestrates the credential resolution pipeline: mode
// detection, ordered multi-source fetching, last-wins merging, and value
// sanitization, producing one resolved credential set with provenance.
package resolve

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/errors"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/mode"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/providers"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/sanitize"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// ProvenanceEntry records which source won a resolved key.
type ProvenanceEntry struct {
	Key    string
	Source provider.SourceID
}

// Attempt records one provider invocation for diagnostics and for the
// NoCredentialsResolved error listing.
type Attempt struct {
	Provider   string
	Source     provider.SourceID
	Candidates int
	Note       string
	Err        error
}

func (a Attempt) outcome() string {
	switch {
	case a.Err != nil:
		return "failed: " + a.Err.Error()
	case a.Candidates == 0 && a.Note != "":
		return "nothing (" + a.Note + ")"
	case a.Candidates == 0:
		return "nothing"
	default:
		return fmt.Sprintf("%d candidate(s)", a.Candidates)
	}
}

// Resolution is the outcome of one pipeline run. Values holds the winning
// value per key; Provenance lists (key, winning source) sorted by key.
type Resolution struct {
	Mode       mode.Mode
	ModeReason string
	Values     map[string]string
	Provenance []ProvenanceEntry
	Attempts   []Attempt
}

// Keys returns the resolved keys in sorted order.
func (r *Resolution) Keys() []string {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// NoCredentialsResolvedError is the fatal result of a standalone run where
// every provider came back empty.
type NoCredentialsResolvedError struct {
	Attempts []Attempt
}

func (e NoCredentialsResolvedError) Error() string {
	var b strings.Builder
	b.WriteString("no credentials resolved from any source\n  Sources attempted:")
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n    - %s: %s", a.Provider, a.outcome())
	}
	b.WriteString("\n  💡 Try: create a credentials packet, decrypt the .env.vault file, " +
		"mount orchestrator secrets, or add a tier file to a parent directory")
	return b.String()
}

// Engine runs the pipeline. Zero shared state across runs: each Resolve
// call is independent.
type Engine struct {
	logger     *logging.Logger
	detector   *mode.Detector
	standalone []provider.Provider
	parent     provider.Provider
	concurrent bool
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithDetector overrides mode detection, mainly for tests.
func WithDetector(d *mode.Detector) EngineOption {
	return func(e *Engine) { e.detector = d }
}

// WithStandaloneProviders replaces the standalone provider list. The last
// entry doubles as the embedded-mode provider when WithParentProvider is
// not also given.
func WithStandaloneProviders(ps ...provider.Provider) EngineOption {
	return func(e *Engine) {
		e.standalone = ps
		if len(ps) > 0 {
			e.parent = ps[len(ps)-1]
		}
	}
}

// WithParentProvider overrides the provider used exclusively in embedded
// mode.
func WithParentProvider(p provider.Provider) EngineOption {
	return func(e *Engine) { e.parent = p }
}

// WithConcurrentFetch fetches standalone providers concurrently. Candidates
// are still merged in provider-list order, so the result is identical to a
// sequential run.
func WithConcurrentFetch(enabled bool) EngineOption {
	return func(e *Engine) { e.concurrent = enabled }
}

// New creates an engine with the full standalone provider chain in its
// fixed priority order, ending with the parent hierarchy loader.
func New(env provider.Environ, logger *logging.Logger, opts ...EngineOption) *Engine {
	parent := providers.NewParentHierarchyProvider(logger)
	e := &Engine{
		logger:   logger,
		detector: mode.NewDetector(env),
		standalone: []provider.Provider{
			providers.NewActiveRemoteFetcher(logger),
			providers.NewPlatformEnvProvider(logger),
			providers.NewEncodedPacketProvider(logger),
			providers.NewEncryptedFileProvider(logger),
			providers.NewOrchestratorSecretsProvider(logger),
			parent,
		},
		parent: parent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Mode reports the operating mode this engine would resolve under.
func (e *Engine) Mode() mode.Decision {
	return e.detector.Detect()
}

// Providers returns the provider chain for the given mode, in invocation
// order. Used by the plan and doctor commands.
func (e *Engine) Providers(m mode.Mode) []provider.Provider {
	if m == mode.Embedded {
		return []provider.Provider{e.parent}
	}
	return e.standalone
}

// Resolve runs the pipeline once and returns the resolved set.
//
// Embedded mode consults only the parent hierarchy, and a missing parent is
// fatal. Standalone mode runs every provider in the fixed order, treats
// per-provider failures as warnings, merges last-wins, sanitizes, and fails
// only when the final set is empty.
func (e *Engine) Resolve(ctx context.Context, fc provider.FetchContext) (*Resolution, error) {
	decision := e.detector.Detect()
	e.logger.Debug("operating mode: %s (%s)", decision.Mode, decision.Reason)

	res := &Resolution{Mode: decision.Mode, ModeReason: decision.Reason}

	if decision.Mode == mode.Embedded {
		return e.resolveEmbedded(ctx, fc, res)
	}
	return e.resolveStandalone(ctx, fc, res)
}

// resolveEmbedded trusts the enclosing orchestrator exclusively. There is
// no fallback: a missing parent aborts rather than degrading to a weaker
// source the operator never sanctioned.
func (e *Engine) resolveEmbedded(ctx context.Context, fc provider.FetchContext, res *Resolution) (*Resolution, error) {
	result, err := e.parent.Fetch(ctx, fc)
	if err != nil {
		var notFound provider.ParentNotFoundError
		if stderrors.As(err, &notFound) {
			return nil, errors.UserError{
				Message:    "embedded mode requires a discoverable parent configuration root",
				Details:    err.Error(),
				Suggestion: "Create tier files (tier-<name>) or env/shared.env in a parent directory, or unset " + mode.EmbeddedOverrideVar,
				Err:        err,
			}
		}
		// A root was found but loading it failed (unreadable tier file,
		// bad permissions). Keep that story instead of the discovery one.
		return nil, errors.UserError{
			Message:    "embedded mode failed to load the parent configuration",
			Details:    err.Error(),
			Suggestion: "Check that the parent tier and shared env files are readable",
			Err:        err,
		}
	}

	candidates := stampSequence(result.Candidates, 0)
	res.Attempts = []Attempt{{
		Provider:   e.parent.Name(),
		Source:     e.parent.Source(),
		Candidates: len(candidates),
		Note:       result.Note,
	}}

	return e.finish(res, candidates)
}

func (e *Engine) resolveStandalone(ctx context.Context, fc provider.FetchContext, res *Resolution) (*Resolution, error) {
	results, err := e.fetchAll(ctx, fc)
	if err != nil {
		return nil, err
	}

	var (
		candidates []provider.Candidate
		sequence   int
	)
	for i, p := range e.standalone {
		result, fetchErr := results[i].result, results[i].err
		attempt := Attempt{Provider: p.Name(), Source: p.Source(), Note: result.Note}

		if fetchErr != nil {
			// An explicit tier selector naming a missing file fails
			// loudly even in standalone mode.
			var notFound provider.ParentNotFoundError
			if stderrors.As(fetchErr, &notFound) && notFound.Tier != "" {
				return nil, errors.UserError{
					Message:    fmt.Sprintf("tier %q not found in any parent root", notFound.Tier),
					Details:    fetchErr.Error(),
					Suggestion: fmt.Sprintf("Create tier-%s in the parent root, or drop the tier selector", notFound.Tier),
					Err:        fetchErr,
				}
			}

			e.logger.Warn("%v", errors.ProviderWarning(p.Name(), fetchErr))
			attempt.Err = fetchErr
			res.Attempts = append(res.Attempts, attempt)
			continue
		}

		stamped := make([]provider.Candidate, len(result.Candidates))
		for j, c := range result.Candidates {
			c.Sequence = sequence
			sequence++
			stamped[j] = c
		}
		candidates = append(candidates, stamped...)
		attempt.Candidates = len(stamped)
		res.Attempts = append(res.Attempts, attempt)
	}

	return e.finish(res, candidates)
}

type fetchOutcome struct {
	result provider.Result
	err    error
}

// fetchAll invokes every standalone provider, sequentially by default or
// concurrently when enabled. Either way the returned slice is indexed by
// provider-list position, which is what the merge orders by.
func (e *Engine) fetchAll(ctx context.Context, fc provider.FetchContext) ([]fetchOutcome, error) {
	outcomes := make([]fetchOutcome, len(e.standalone))

	if !e.concurrent {
		for i, p := range e.standalone {
			outcomes[i].result, outcomes[i].err = p.Fetch(ctx, fc)
		}
		return outcomes, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range e.standalone {
		i, p := i, p
		g.Go(func() error {
			outcomes[i].result, outcomes[i].err = p.Fetch(gctx, fc)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// finish merges, sanitizes, and builds the final resolution.
func (e *Engine) finish(res *Resolution, candidates []provider.Candidate) (*Resolution, error) {
	winners := mergeLastWins(candidates)
	winners = sanitize.Sanitize(winners)

	if len(winners) == 0 {
		return nil, NoCredentialsResolvedError{Attempts: res.Attempts}
	}

	res.Values = make(map[string]string, len(winners))
	res.Provenance = make([]ProvenanceEntry, 0, len(winners))
	for _, c := range winners {
		res.Values[c.Key] = c.Value
		res.Provenance = append(res.Provenance, ProvenanceEntry{Key: c.Key, Source: c.Source})
	}
	sort.Slice(res.Provenance, func(i, j int) bool {
		return res.Provenance[i].Key < res.Provenance[j].Key
	})

	return res, nil
}

// mergeLastWins keeps, per key, the candidate with the highest sequence
// number: the last one seen in accumulation order. A later provider in the
// fixed list beats an earlier one for the same key.
func mergeLastWins(candidates []provider.Candidate) []provider.Candidate {
	byKey := make(map[string]provider.Candidate, len(candidates))
	for _, c := range candidates {
		if prev, ok := byKey[c.Key]; ok && prev.Sequence > c.Sequence {
			continue
		}
		byKey[c.Key] = c
	}

	winners := make([]provider.Candidate, 0, len(byKey))
	for _, c := range byKey {
		winners = append(winners, c)
	}
	sort.Slice(winners, func(i, j int) bool { return winners[i].Key < winners[j].Key })
	return winners
}

func stampSequence(candidates []provider.Candidate, start int) []provider.Candidate {
	stamped := make([]provider.Candidate, len(candidates))
	for i, c := range candidates {
		c.Sequence = start + i
		stamped[i] = c
	}
	return stamped
}
