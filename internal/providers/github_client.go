package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/secure"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

const defaultAPIBaseURL = "https://api.github.com"

// githubBackend fetches repository Actions variables from the hosting
// provider's REST API using a token discovered through the secure lookup
// chain (environment, token file, OS keyring).
type githubBackend struct {
	logger  *logging.Logger
	client  *http.Client
	limiter *rate.Limiter
}

func newGitHubBackend(logger *logging.Logger) *githubBackend {
	return &githubBackend{
		logger: logger,
		client: &http.Client{},
		// Secondary rate limits on the variables API trip fast; two
		// requests a second with a small burst stays well clear.
		limiter: rate.NewLimiter(rate.Limit(2), 4),
	}
}

func (b *githubBackend) name() string {
	return "github"
}

func (b *githubBackend) applicable(fc provider.FetchContext) (bool, string) {
	if fc.Remote.Owner == "" || fc.Remote.Repo == "" {
		return false, "no owner/repo configured"
	}
	return true, ""
}

func (b *githubBackend) fetch(ctx context.Context, fc provider.FetchContext) ([]provider.Candidate, error) {
	token, source, found := secure.LookupToken(fc.Env, fc.Paths.TokenFile)
	if !found {
		return nil, fmt.Errorf("no access token found (env %s, token file, keyring)", secure.TokenEnvVar)
	}
	defer token.Destroy()
	b.logger.Debug("github: using token from %s", source)

	base := fc.Remote.APIBaseURL
	if base == "" {
		base = defaultAPIBaseURL
	}
	url := fmt.Sprintf("%s/repos/%s/%s/actions/variables?per_page=100",
		strings.TrimRight(base, "/"), fc.Remote.Owner, fc.Remote.Repo)

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	locked, err := token.Open()
	if err != nil {
		return nil, fmt.Errorf("open token buffer: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+string(locked.Bytes()))
	locked.Destroy()
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("GET %s: %s: %s", url, resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Variables []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"variables"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode variables response: %w", err)
	}

	candidates := make([]provider.Candidate, 0, len(payload.Variables))
	for _, v := range payload.Variables {
		candidates = append(candidates, provider.Candidate{
			Key:    v.Name,
			Value:  v.Value,
			Source: provider.SourceActiveFetcher,
		})
	}
	return candidates, nil
}
