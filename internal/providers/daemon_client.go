package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// daemonBackend queries a local container-secret management daemon over
// HTTP. The daemon exposes its secrets as a flat name/value listing.
type daemonBackend struct {
	client *http.Client
}

func newDaemonBackend() *daemonBackend {
	return &daemonBackend{client: &http.Client{}}
}

func (b *daemonBackend) name() string {
	return "secret-daemon"
}

func (b *daemonBackend) applicable(fc provider.FetchContext) (bool, string) {
	if fc.Remote.DaemonURL == "" {
		return false, "no daemon URL configured"
	}
	return true, ""
}

func (b *daemonBackend) fetch(ctx context.Context, fc provider.FetchContext) ([]provider.Candidate, error) {
	url := strings.TrimRight(fc.Remote.DaemonURL, "/") + "/v1/secrets"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

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
		Secrets []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"secrets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode daemon response: %w", err)
	}

	candidates := make([]provider.Candidate, 0, len(payload.Secrets))
	for _, s := range payload.Secrets {
		candidates = append(candidates, provider.Candidate{
			Key:    s.Name,
			Value:  s.Value,
			Source: provider.SourceActiveFetcher,
		})
	}
	return candidates, nil
}
