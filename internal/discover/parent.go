// Package discover walks the filesystem upward from a working directory to
// find the configuration root owned by an enclosing orchestrator.
//
// Two root shapes are recognized, in priority order:
//
//   - a tiered root: one or more sibling files named tier-<name> directly
//     in the directory, each holding KEY=value lines;
//   - a nested-shared root: an env/ subdirectory holding shared.env and an
//     optional override.env.
package discover

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RootKind distinguishes the two recognizable configuration root shapes.
type RootKind string

const (
	// TieredRoot holds sibling tier-<name> files.
	TieredRoot RootKind = "tiered"

	// NestedSharedRoot holds env/shared.env plus optional env/override.env.
	NestedSharedRoot RootKind = "nested-shared"
)

// Naming conventions for the two root shapes.
const (
	TierPrefix      = "tier-"
	SharedSubdir    = "env"
	SharedBaseFile  = "shared.env"
	OverrideFile    = "override.env"
	nestedGitMarker = ".git"
)

// DefaultMaxHops bounds the upward walk when the caller does not care.
const DefaultMaxHops = 4

// MinHops is the smallest permitted hop budget; anything lower is raised.
const MinHops = 2

// Root is a discovered parent configuration root.
type Root struct {
	Dir  string
	Kind RootKind
}

// FindParentRoot walks upward from startDir looking for a configuration
// root. A nested checkout (a .git that is a regular file, as linked
// sub-repositories have) is first resolved to its logical root so the walk
// starts from the enclosing project. Returns false when no ancestor within
// maxHops matches either shape.
func FindParentRoot(startDir string, maxHops int) (Root, bool) {
	if maxHops < MinHops {
		maxHops = MinHops
	}

	start, err := filepath.Abs(startDir)
	if err != nil {
		return Root{}, false
	}

	candidate := firstAncestor(start)
	for hop := 0; hop < maxHops; hop++ {
		if candidate == "" {
			return Root{}, false
		}

		if isTieredRoot(candidate) {
			return Root{Dir: candidate, Kind: TieredRoot}, true
		}
		if isNestedSharedRoot(candidate) {
			return Root{Dir: candidate, Kind: NestedSharedRoot}, true
		}

		parent := filepath.Dir(candidate)
		if parent == candidate {
			return Root{}, false
		}
		candidate = parent
	}

	return Root{}, false
}

// firstAncestor picks where the walk begins: a nested checkout steps to the
// parent of its logical root, everything else to the parent of startDir.
func firstAncestor(start string) string {
	if root, ok := nestedCheckoutRoot(start); ok {
		return filepath.Dir(root)
	}
	return filepath.Dir(start)
}

// nestedCheckoutRoot finds the nearest enclosing directory holding a .git
// entry. Only a .git that is a regular file marks a nested checkout; a .git
// directory is an ordinary top-level clone.
func nestedCheckoutRoot(start string) (string, bool) {
	dir := start
	for {
		info, err := os.Stat(filepath.Join(dir, nestedGitMarker))
		if err == nil {
			return dir, info.Mode().IsRegular()
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func isTieredRoot(dir string) bool {
	return len(TierFiles(dir)) > 0
}

func isNestedSharedRoot(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, SharedSubdir, SharedBaseFile))
	return err == nil && info.Mode().IsRegular()
}

// TierFiles returns the tier names present in dir mapped to their file
// paths, sorted iteration not guaranteed; use TierNames for stable order.
func TierFiles(dir string) map[string]string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	tiers := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.Type().IsRegular() && strings.HasPrefix(name, TierPrefix) && len(name) > len(TierPrefix) {
			tiers[strings.TrimPrefix(name, TierPrefix)] = filepath.Join(dir, name)
		}
	}
	if len(tiers) == 0 {
		return nil
	}
	return tiers
}

// TierNames returns the tiers present in dir in sorted order.
func TierNames(dir string) []string {
	tiers := TierFiles(dir)
	names := make([]string, 0, len(tiers))
	for name := range tiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
