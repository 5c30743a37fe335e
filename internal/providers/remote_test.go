package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

func TestActiveRemoteFetcherContract(t *testing.T) {
	t.Parallel()

	provider.RunProviderContract(t, provider.ContractTest{
		CreateProvider: func(t *testing.T) provider.Provider {
			return NewActiveRemoteFetcher(testLogger())
		},
		// No coordinates at all: every backend reports why it sat out.
		InapplicableContext: &provider.FetchContext{Env: provider.MapEnviron{}},
	})
}

func TestGitHubBackendFetch(t *testing.T) {
	t.Parallel()

	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		assert.Equal(t, "/repos/acme/widgets/actions/variables", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"variables": [
			{"name": "OPENAI_API_BASE", "value": "https://proxy.example"},
			{"name": "SUPABASE_URL", "value": "https://db.example"}
		]}`))
	}))
	defer srv.Close()

	fc := provider.FetchContext{
		Env: provider.MapEnviron{"GITHUB_TOKEN": "ghp_test123"},
		Remote: provider.RemoteCoordinates{
			Owner:      "acme",
			Repo:       "widgets",
			APIBaseURL: srv.URL,
		},
	}

	b := newGitHubBackend(testLogger())
	ok, _ := b.applicable(fc)
	require.True(t, ok)

	candidates, err := b.fetch(context.Background(), fc)
	require.NoError(t, err)

	assert.Equal(t, "Bearer ghp_test123", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
	require.Len(t, candidates, 2)
	assert.Equal(t, "OPENAI_API_BASE", candidates[0].Key)
	assert.Equal(t, provider.SourceActiveFetcher, candidates[0].Source)
}

func TestGitHubBackendNoToken(t *testing.T) {
	t.Parallel()

	fc := provider.FetchContext{
		Env: provider.MapEnviron{},
		// Pin the token file to a missing path so a developer's real
		// XDG config cannot leak into the test.
		Paths:  provider.Paths{TokenFile: "/nonexistent/token"},
		Remote: provider.RemoteCoordinates{Owner: "acme", Repo: "widgets"},
	}

	b := newGitHubBackend(testLogger())
	_, err := b.fetch(context.Background(), fc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no access token")
}

func TestGitHubBackendHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Bad credentials"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	fc := provider.FetchContext{
		Env:    provider.MapEnviron{"GITHUB_TOKEN": "ghp_bad"},
		Remote: provider.RemoteCoordinates{Owner: "acme", Repo: "widgets", APIBaseURL: srv.URL},
	}

	b := newGitHubBackend(testLogger())
	_, err := b.fetch(context.Background(), fc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestDaemonBackend(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/secrets", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"secrets": [{"name": "DB_PASSWORD", "value": "hunter2"}]}`))
	}))
	defer srv.Close()

	b := newDaemonBackend()

	ok, reason := b.applicable(provider.FetchContext{Env: provider.MapEnviron{}})
	assert.False(t, ok)
	assert.Contains(t, reason, "no daemon URL")

	fc := provider.FetchContext{
		Env:    provider.MapEnviron{},
		Remote: provider.RemoteCoordinates{DaemonURL: srv.URL},
	}
	candidates, err := b.fetch(context.Background(), fc)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "DB_PASSWORD", candidates[0].Key)
	assert.Equal(t, "hunter2", candidates[0].Value)
}

type mockSecretsManager struct {
	output *secretsmanager.GetSecretValueOutput
	err    error

	gotSecretID string
}

func (m *mockSecretsManager) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	m.gotSecretID = aws.ToString(params.SecretId)
	return m.output, m.err
}

func TestAWSBackend(t *testing.T) {
	t.Parallel()

	mock := &mockSecretsManager{
		output: &secretsmanager.GetSecretValueOutput{
			SecretString: aws.String(`{"ANTHROPIC_API_KEY": "sk-ant-123"}`),
		},
	}
	b := newAWSBackend(mock)

	fc := provider.FetchContext{
		Env:    provider.MapEnviron{},
		Remote: provider.RemoteCoordinates{AWSSecretID: "prod/credboot"},
	}
	candidates, err := b.fetch(context.Background(), fc)
	require.NoError(t, err)

	assert.Equal(t, "prod/credboot", mock.gotSecretID)
	require.Len(t, candidates, 1)
	assert.Equal(t, "ANTHROPIC_API_KEY", candidates[0].Key)
	assert.Equal(t, "sk-ant-123", candidates[0].Value)
}

func TestAWSBackendRejectsNonObjectSecret(t *testing.T) {
	t.Parallel()

	mock := &mockSecretsManager{
		output: &secretsmanager.GetSecretValueOutput{
			SecretString: aws.String(`"just a string"`),
		},
	}
	b := newAWSBackend(mock)

	fc := provider.FetchContext{
		Env:    provider.MapEnviron{},
		Remote: provider.RemoteCoordinates{AWSSecretID: "prod/credboot"},
	}
	_, err := b.fetch(context.Background(), fc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flat JSON object")
}

func TestActiveRemoteFetcherBestEffort(t *testing.T) {
	t.Parallel()

	failing := &stubBackend{backendName: "broken", ok: true, err: errors.New("connection refused")}
	working := &stubBackend{
		backendName: "working",
		ok:          true,
		candidates: []provider.Candidate{
			{Key: "A", Value: "1", Source: provider.SourceActiveFetcher},
		},
	}
	sittingOut := &stubBackend{backendName: "idle", ok: false, reason: "not configured"}

	p := NewActiveRemoteFetcher(testLogger()).WithBackends(failing, working, sittingOut)

	res, err := p.Fetch(context.Background(), provider.FetchContext{Env: provider.MapEnviron{}})
	require.NoError(t, err, "backend failures never surface as provider errors")

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "A", res.Candidates[0].Key)
	assert.Contains(t, res.Note, "broken: failed")
	assert.Contains(t, res.Note, "working: 1 value(s)")
	assert.Contains(t, res.Note, "idle: not configured")
}

type stubBackend struct {
	backendName string
	ok          bool
	reason      string
	candidates  []provider.Candidate
	err         error
}

func (b *stubBackend) name() string { return b.backendName }

func (b *stubBackend) applicable(fc provider.FetchContext) (bool, string) {
	return b.ok, b.reason
}

func (b *stubBackend) fetch(ctx context.Context, fc provider.FetchContext) ([]provider.Candidate, error) {
	return b.candidates, b.err
}
