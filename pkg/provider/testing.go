package provider

import (
	"context"
	"testing"
	"time"
)

// MapEnviron is an Environ backed by a plain map, for tests.
type MapEnviron map[string]string

// Getenv returns the value for key or the empty string.
func (m MapEnviron) Getenv(key string) string {
	return m[key]
}

// LookupEnv returns the value for key and whether it was present.
func (m MapEnviron) LookupEnv(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// StaticProvider is a test double that returns a fixed result or error.
type StaticProvider struct {
	ProviderName string
	SourceTag    SourceID
	Pairs        map[string]string
	Note         string
	Err          error

	// FetchCount records how many times Fetch was called.
	FetchCount int
}

// Name implements Provider.
func (p *StaticProvider) Name() string {
	if p.ProviderName != "" {
		return p.ProviderName
	}
	return string(p.SourceTag)
}

// Source implements Provider.
func (p *StaticProvider) Source() SourceID {
	return p.SourceTag
}

// Fetch implements Provider. Pairs are emitted in sorted-by-insertion map
// iteration order; tests that care about intra-provider ordering should use
// a single pair per provider.
func (p *StaticProvider) Fetch(ctx context.Context, fc FetchContext) (Result, error) {
	p.FetchCount++
	if p.Err != nil {
		return Result{}, p.Err
	}
	res := Result{Note: p.Note}
	for k, v := range p.Pairs {
		res.Candidates = append(res.Candidates, Candidate{Key: k, Value: v, Source: p.SourceTag})
	}
	return res, nil
}

// ContractTest configures RunProviderContract for one provider.
type ContractTest struct {
	// CreateProvider builds a fresh provider under test.
	CreateProvider func(t *testing.T) Provider

	// InapplicableContext is a context in which the provider must return an
	// empty Result without error. Leave nil to skip that check.
	InapplicableContext *FetchContext
}

// RunProviderContract runs the checks every provider must pass: a stable
// name and source tag, empty-success (not error) for an inapplicable
// context, and prompt return when the context is already cancelled.
func RunProviderContract(t *testing.T, contract ContractTest) {
	t.Helper()

	t.Run("Identity", func(t *testing.T) {
		p := contract.CreateProvider(t)
		if p.Name() == "" {
			t.Error("Name() returned empty string")
		}
		if p.Name() != p.Name() || p.Source() != p.Source() {
			t.Error("Name()/Source() not stable between calls")
		}
	})

	if contract.InapplicableContext != nil {
		t.Run("InapplicableIsEmptySuccess", func(t *testing.T) {
			p := contract.CreateProvider(t)
			res, err := p.Fetch(context.Background(), *contract.InapplicableContext)
			if err != nil {
				t.Errorf("inapplicable context returned error: %v", err)
			}
			if len(res.Candidates) != 0 {
				t.Errorf("inapplicable context returned %d candidates", len(res.Candidates))
			}
			if res.Note == "" {
				t.Error("inapplicable context returned no explanatory note")
			}
		})
	}

	t.Run("CancelledContext", func(t *testing.T) {
		p := contract.CreateProvider(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		fc := FetchContext{Env: MapEnviron{}}
		if contract.InapplicableContext != nil {
			fc = *contract.InapplicableContext
		}

		done := make(chan struct{})
		go func() {
			_, _ = p.Fetch(ctx, fc)
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("Fetch did not return within 5s on a cancelled context")
		}
	})
}
