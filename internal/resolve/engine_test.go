package resolve

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/mode"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

func testLogger() *logging.Logger {
	return logging.New(false, true)
}

// standaloneEngine builds an engine that always detects standalone mode,
// with the given providers replacing the real chain.
func standaloneEngine(ps ...provider.Provider) *Engine {
	env := provider.MapEnviron{}
	return New(env, testLogger(),
		WithDetector(mode.NewDetector(env, mode.WithContainerMarkers(), mode.WithCgroupPath("/nonexistent"))),
		WithStandaloneProviders(ps...),
	)
}

func embeddedEnv() provider.MapEnviron {
	return provider.MapEnviron{"CREDBOOT_EMBEDDED": "1"}
}

func static(name string, source provider.SourceID, pairs map[string]string) *provider.StaticProvider {
	return &provider.StaticProvider{ProviderName: name, SourceTag: source, Pairs: pairs, Note: "static"}
}

func TestResolveEmbeddedTieredRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	work := filepath.Join(root, "app")
	require.NoError(t, os.Mkdir(work, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "tier-llm"),
		[]byte("OPENAI_API_KEY=sk-abc\n"), 0o600))

	env := embeddedEnv()
	e := New(env, testLogger())

	res, err := e.Resolve(context.Background(), provider.FetchContext{WorkDir: work, Env: env})
	require.NoError(t, err)

	assert.Equal(t, mode.Embedded, res.Mode)
	assert.Equal(t, "sk-abc", res.Values["OPENAI_API_KEY"])
}

func TestResolveEmbeddedParentNotFoundIsFatal(t *testing.T) {
	t.Parallel()

	work := filepath.Join(t.TempDir(), "isolated")
	require.NoError(t, os.Mkdir(work, 0o750))

	env := embeddedEnv()
	e := New(env, testLogger())

	_, err := e.Resolve(context.Background(), provider.FetchContext{WorkDir: work, Env: env})
	require.Error(t, err)

	var notFound provider.ParentNotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Contains(t, err.Error(), "parent configuration root")
}

func TestResolveEmbeddedLoadFailureKeepsOwnMessage(t *testing.T) {
	t.Parallel()

	// The parent root exists but reading it fails; the error should say so
	// instead of claiming no root was discoverable.
	env := embeddedEnv()
	e := New(env, testLogger(),
		WithParentProvider(&provider.StaticProvider{
			ProviderName: "parent-hierarchy",
			SourceTag:    provider.SourceParentHierarchy,
			Err:          errors.New("read tier-llm: permission denied"),
		}),
	)

	_, err := e.Resolve(context.Background(), provider.FetchContext{Env: env})
	require.Error(t, err)

	assert.Contains(t, err.Error(), "failed to load the parent configuration")
	assert.Contains(t, err.Error(), "permission denied")
	assert.NotContains(t, err.Error(), "discoverable parent configuration root")

	var notFound provider.ParentNotFoundError
	assert.False(t, errors.As(err, &notFound))
}

func TestResolveEmbeddedIsolation(t *testing.T) {
	t.Parallel()

	env := embeddedEnv()
	e := New(env, testLogger(),
		WithParentProvider(static("parent-hierarchy", provider.SourceParentHierarchy,
			map[string]string{"DB_HOST": "db.internal"})),
	)

	res, err := e.Resolve(context.Background(), provider.FetchContext{Env: env})
	require.NoError(t, err)

	for _, entry := range res.Provenance {
		assert.Equal(t, provider.SourceParentHierarchy, entry.Source)
	}
	require.Len(t, res.Attempts, 1, "no other provider is consulted in embedded mode")
}

func TestResolveLastWinsPrecedence(t *testing.T) {
	t.Parallel()

	e := standaloneEngine(
		static("platform-env", provider.SourcePlatformInjected,
			map[string]string{"ANTHROPIC_API_KEY": "x1"}),
		static("parent-hierarchy", provider.SourceParentHierarchy,
			map[string]string{"ANTHROPIC_API_KEY": "x2"}),
	)

	res, err := e.Resolve(context.Background(), provider.FetchContext{Env: provider.MapEnviron{}})
	require.NoError(t, err)

	assert.Equal(t, "x2", res.Values["ANTHROPIC_API_KEY"], "later provider in the fixed order wins")
	require.Len(t, res.Provenance, 1)
	assert.Equal(t, provider.SourceParentHierarchy, res.Provenance[0].Source)
}

func TestResolveNoCredentialsResolved(t *testing.T) {
	t.Parallel()

	e := standaloneEngine(
		&provider.StaticProvider{ProviderName: "active-fetcher", SourceTag: provider.SourceActiveFetcher, Note: "no coordinates"},
		&provider.StaticProvider{ProviderName: "encoded-packet", SourceTag: provider.SourceEncodedPacket, Note: "no packet found"},
	)

	_, err := e.Resolve(context.Background(), provider.FetchContext{Env: provider.MapEnviron{}})
	require.Error(t, err)

	var empty NoCredentialsResolvedError
	require.ErrorAs(t, err, &empty)
	assert.Len(t, empty.Attempts, 2)
	assert.Contains(t, err.Error(), "active-fetcher")
	assert.Contains(t, err.Error(), "no packet found")
}

func TestResolveProviderFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	e := standaloneEngine(
		&provider.StaticProvider{
			ProviderName: "encoded-packet",
			SourceTag:    provider.SourceEncodedPacket,
			Err:          errors.New("malformed packet"),
		},
		static("orchestrator-secrets", provider.SourceOrchestratorSecret,
			map[string]string{"DB_PASSWORD": "hunter2"}),
	)

	res, err := e.Resolve(context.Background(), provider.FetchContext{Env: provider.MapEnviron{}})
	require.NoError(t, err, "a failing provider downgrades to a warning")

	assert.Equal(t, "hunter2", res.Values["DB_PASSWORD"])
	require.Len(t, res.Attempts, 2)
	assert.Error(t, res.Attempts[0].Err)
}

func TestResolveTierMissIsFatalInStandalone(t *testing.T) {
	t.Parallel()

	e := standaloneEngine(
		&provider.StaticProvider{
			ProviderName: "parent-hierarchy",
			SourceTag:    provider.SourceParentHierarchy,
			Err:          provider.ParentNotFoundError{StartDir: "/w", Tier: "ghost", Hops: 4},
		},
	)

	_, err := e.Resolve(context.Background(), provider.FetchContext{Env: provider.MapEnviron{}, Tier: "ghost"})
	require.Error(t, err)

	var notFound provider.ParentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "ghost", notFound.Tier)
}

func TestResolveSanitizesMergedResult(t *testing.T) {
	t.Parallel()

	e := standaloneEngine(
		static("platform-env", provider.SourcePlatformInjected,
			map[string]string{"OPENAI_API_KEY": "sk-real"}),
		static("parent-hierarchy", provider.SourceParentHierarchy,
			map[string]string{"OPENAI_API_KEY": "your-key-here"}),
		static("extra", provider.SourceParentHierarchy,
			map[string]string{"DB_HOST": "db"}),
	)

	res, err := e.Resolve(context.Background(), provider.FetchContext{Env: provider.MapEnviron{}})
	require.NoError(t, err)

	// The placeholder won the merge, so the key drops entirely rather
	// than falling back to the losing real value.
	_, present := res.Values["OPENAI_API_KEY"]
	assert.False(t, present)
	assert.Equal(t, "db", res.Values["DB_HOST"])
}

func TestResolveConcurrentMatchesSequential(t *testing.T) {
	t.Parallel()

	build := func(concurrent bool) *Engine {
		env := provider.MapEnviron{}
		return New(env, testLogger(),
			WithDetector(mode.NewDetector(env, mode.WithContainerMarkers(), mode.WithCgroupPath("/nonexistent"))),
			WithStandaloneProviders(
				static("a", provider.SourceActiveFetcher, map[string]string{"K": "from-a"}),
				static("b", provider.SourcePlatformInjected, map[string]string{"K": "from-b"}),
				static("c", provider.SourceParentHierarchy, map[string]string{"OTHER": "v"}),
			),
			WithConcurrentFetch(concurrent),
		)
	}

	fc := provider.FetchContext{Env: provider.MapEnviron{}}
	seq, err := build(false).Resolve(context.Background(), fc)
	require.NoError(t, err)
	conc, err := build(true).Resolve(context.Background(), fc)
	require.NoError(t, err)

	assert.Equal(t, seq.Values, conc.Values)
	assert.Equal(t, "from-b", conc.Values["K"], "merge order follows list position, not completion order")
}

func TestMergeLastWins(t *testing.T) {
	t.Parallel()

	winners := mergeLastWins([]provider.Candidate{
		{Key: "A", Value: "1", Sequence: 0, Source: provider.SourceActiveFetcher},
		{Key: "B", Value: "2", Sequence: 1, Source: provider.SourceActiveFetcher},
		{Key: "A", Value: "3", Sequence: 2, Source: provider.SourceParentHierarchy},
	})

	require.Len(t, winners, 2)
	assert.Equal(t, "3", winners[0].Value)
	assert.Equal(t, provider.SourceParentHierarchy, winners[0].Source)
	assert.Equal(t, "2", winners[1].Value)
}

func TestWriteProvenanceMasksValues(t *testing.T) {
	t.Parallel()

	e := standaloneEngine(
		static("platform-env", provider.SourcePlatformInjected,
			map[string]string{"OPENAI_API_KEY": "sk-verysecret1234"}),
	)
	res, err := e.Resolve(context.Background(), provider.FetchContext{Env: provider.MapEnviron{}})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteProvenance(&buf, res))

	out := buf.String()
	assert.Contains(t, out, "OPENAI_API_KEY")
	assert.Contains(t, out, string(provider.SourcePlatformInjected))
	assert.NotContains(t, out, "sk-verysecret1234")
	assert.Contains(t, out, "1234", "masked preview keeps the tail for recognition")
}
