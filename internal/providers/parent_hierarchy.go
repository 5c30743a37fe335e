package providers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/discover"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// ParentHierarchyProvider loads configuration owned by the enclosing
// orchestrated environment, discovered by walking ancestor directories.
//
// Unlike every other provider, absence can be fatal: the engine promotes
// ParentNotFoundError when the run is embedded, and a tier selector naming
// a missing file always fails loudly rather than degrading to an empty set.
type ParentHierarchyProvider struct {
	logger  *logging.Logger
	maxHops int
}

// NewParentHierarchyProvider creates the parent hierarchy loader.
func NewParentHierarchyProvider(logger *logging.Logger) *ParentHierarchyProvider {
	return &ParentHierarchyProvider{logger: logger, maxHops: discover.DefaultMaxHops}
}

// WithMaxHops overrides the ancestor walk budget.
func (p *ParentHierarchyProvider) WithMaxHops(hops int) *ParentHierarchyProvider {
	p.maxHops = hops
	return p
}

// Name implements provider.Provider.
func (p *ParentHierarchyProvider) Name() string {
	return "parent-hierarchy"
}

// Source implements provider.Provider.
func (p *ParentHierarchyProvider) Source() provider.SourceID {
	return provider.SourceParentHierarchy
}

// Fetch implements provider.Provider.
func (p *ParentHierarchyProvider) Fetch(ctx context.Context, fc provider.FetchContext) (provider.Result, error) {
	root, ok := discover.FindParentRoot(fc.WorkDir, p.maxHops)
	if !ok {
		return provider.Result{}, provider.ParentNotFoundError{
			StartDir: fc.WorkDir,
			Tier:     fc.Tier,
			Hops:     p.maxHops,
		}
	}

	p.logger.Debug("parent-hierarchy: %s root at %s", root.Kind, root.Dir)

	switch root.Kind {
	case discover.TieredRoot:
		return p.loadTiered(root, fc)
	case discover.NestedSharedRoot:
		return p.loadNestedShared(root, fc)
	default:
		return provider.Result{}, fmt.Errorf("unknown parent root kind %q", root.Kind)
	}
}

// loadTiered loads either the single selected tier or the union of all
// discovered tiers in sorted name order.
func (p *ParentHierarchyProvider) loadTiered(root discover.Root, fc provider.FetchContext) (provider.Result, error) {
	tiers := discover.TierFiles(root.Dir)

	if fc.Tier != "" {
		path, ok := tiers[fc.Tier]
		if !ok {
			return provider.Result{}, provider.ParentNotFoundError{
				StartDir: fc.WorkDir,
				Tier:     fc.Tier,
				Hops:     p.maxHops,
			}
		}
		candidates, err := p.loadEnvFile(path)
		if err != nil {
			return provider.Result{}, err
		}
		return provider.Result{
			Candidates: candidates,
			Note:       fmt.Sprintf("tier %s from %s", fc.Tier, root.Dir),
		}, nil
	}

	var candidates []provider.Candidate
	for _, name := range discover.TierNames(root.Dir) {
		loaded, err := p.loadEnvFile(tiers[name])
		if err != nil {
			return provider.Result{}, err
		}
		candidates = append(candidates, loaded...)
	}
	return provider.Result{
		Candidates: candidates,
		Note:       fmt.Sprintf("%d tier file(s) from %s", len(tiers), root.Dir),
	}, nil
}

// loadNestedShared layers the optional override file after the shared base,
// consistent with the engine's last-wins merge.
func (p *ParentHierarchyProvider) loadNestedShared(root discover.Root, fc provider.FetchContext) (provider.Result, error) {
	// A tier selector can never be satisfied here: discovery only classifies
	// an ancestor as nested-shared when it carries no tier-<name> siblings.
	// Returning the shared base anyway would hand out credentials the
	// operator explicitly scoped to a tier, so miss loudly instead.
	if fc.Tier != "" {
		return provider.Result{}, provider.ParentNotFoundError{
			StartDir: fc.WorkDir,
			Tier:     fc.Tier,
			Hops:     p.maxHops,
		}
	}

	base := filepath.Join(root.Dir, discover.SharedSubdir, discover.SharedBaseFile)
	candidates, err := p.loadEnvFile(base)
	if err != nil {
		return provider.Result{}, err
	}

	override := filepath.Join(root.Dir, discover.SharedSubdir, discover.OverrideFile)
	if _, err := os.Stat(override); err == nil {
		overrides, err := p.loadEnvFile(override)
		if err != nil {
			return provider.Result{}, err
		}
		candidates = append(candidates, overrides...)
	}

	return provider.Result{
		Candidates: candidates,
		Note:       "shared base (+override) from " + root.Dir,
	}, nil
}

func (p *ParentHierarchyProvider) loadEnvFile(path string) ([]provider.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parseEnvLines(data, provider.SourceParentHierarchy), nil
}
