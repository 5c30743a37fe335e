// Package provider defines the core interfaces and types for credential
// source providers in credboot.
//
// A source provider is one place credentials may come from: a remote secret
// API, platform-injected environment variables, an encoded packet file, an
// encrypted file store, an orchestrator secret mount, or the parent
// configuration hierarchy. All providers implement the Provider interface so
// the resolution engine can invoke them uniformly, in a fixed order, and
// merge their output with last-wins semantics.
//
// # Provider contract
//
// A provider that is not applicable in the current context (no coordinates
// configured, no file present, no platform signal) must return an empty
// Result with a Note explaining why - never an error. Errors are reserved
// for genuine fetch or decode failures. The engine treats almost all
// provider errors as non-fatal warnings; the single exception is
// ParentNotFoundError from the parent hierarchy loader, which is fatal in
// embedded mode or when an explicit tier was requested.
//
// # Security considerations
//
// Providers must never log credential values. Use logging.Secret to wrap
// anything sensitive that has to appear in a debug line.
//
// Providers must be safe for concurrent use: the engine may fetch
// independent providers in parallel (merge order is preserved by sequence,
// not completion order).
package provider

import "context"

// SourceID identifies which provider produced a candidate. It is used for
// provenance and audit output only, never for authorization decisions.
type SourceID string

// Known source identifiers, in the standalone invocation order.
const (
	SourceActiveFetcher      SourceID = "active_fetcher"
	SourcePlatformInjected   SourceID = "platform_injected"
	SourceEncodedPacket      SourceID = "encoded_packet"
	SourceEncryptedFile      SourceID = "encrypted_file"
	SourceOrchestratorSecret SourceID = "orchestrator_secret"
	SourceParentHierarchy    SourceID = "parent_hierarchy"
)

// Candidate is a single key/value pair produced by one provider invocation.
// Candidates are immutable once emitted; the engine stamps Sequence with the
// accumulation position so the merge is deterministic regardless of how the
// providers were scheduled.
type Candidate struct {
	Key      string
	Value    string
	Source   SourceID
	Sequence int
}

// Result is the successful outcome of a provider fetch.
//
// Note is a short human-readable explanation of where the candidates came
// from, or why the provider produced nothing ("no packet file found",
// "vault file still encrypted"). It feeds the provenance report and the
// fatal no-credentials-resolved error.
type Result struct {
	Candidates []Candidate
	Note       string
}

// Environ is a read-only view of the process environment. Injecting it lets
// tests simulate embedded and standalone conditions without real containers.
type Environ interface {
	Getenv(key string) string
	LookupEnv(key string) (string, bool)
}

// RemoteCoordinates configures the active remote fetcher. All fields are
// optional; an unset backend simply does not run.
type RemoteCoordinates struct {
	// Owner and Repo address the source-control hosting provider's
	// variables API (https://api.github.com by default).
	Owner string `yaml:"owner,omitempty"`
	Repo  string `yaml:"repo,omitempty"`

	// APIBaseURL overrides the hosting provider endpoint (tests, GHES).
	APIBaseURL string `yaml:"api_base_url,omitempty"`

	// DaemonURL is the local container-secret daemon endpoint, for example
	// http://127.0.0.1:7561.
	DaemonURL string `yaml:"daemon_url,omitempty"`

	// AWSSecretID names a JSON key/value secret in AWS Secrets Manager.
	AWSSecretID string `yaml:"aws_secret_id,omitempty"`
	AWSRegion   string `yaml:"aws_region,omitempty"`
}

// Paths overrides the well-known file locations the file-backed providers
// search. Zero values mean "use the defaults"; tests and credboot.yaml set
// these explicitly.
type Paths struct {
	PacketCandidates []string `yaml:"packet_candidates,omitempty"`
	AgeIdentityFile  string   `yaml:"age_identity_file,omitempty"`
	VaultFile        string   `yaml:"vault_file,omitempty"`
	SecretsMountDir  string   `yaml:"secrets_mount_dir,omitempty"`
	TokenFile        string   `yaml:"token_file,omitempty"`
}

// FetchContext carries everything a provider may need for one resolution
// run. It is built once per invocation and shared read-only across all
// providers.
type FetchContext struct {
	// WorkDir is the directory resolution starts from (parent discovery,
	// relative candidate paths). Defaults to the process working directory.
	WorkDir string

	// Tier optionally restricts the parent hierarchy loader to a single
	// tier file. Empty means "union of all discovered tiers".
	Tier string

	// Env is the process environment view.
	Env Environ

	Remote RemoteCoordinates
	Paths  Paths
}

// Provider is the contract every credential source implements.
type Provider interface {
	// Name returns a stable, lowercase identifier used in logs and reports.
	Name() string

	// Source returns the provenance tag stamped on every candidate this
	// provider emits.
	Source() SourceID

	// Fetch returns the candidates this source can currently supply.
	// Inapplicable contexts yield an empty Result with an explanatory Note,
	// not an error. Implementations must honor ctx cancellation.
	Fetch(ctx context.Context, fc FetchContext) (Result, error)
}

// ParentNotFoundError reports that the parent hierarchy loader could not
// discover a usable configuration root. It is fatal in embedded mode, and
// fatal in any mode when an explicit tier selector named a missing file.
type ParentNotFoundError struct {
	// StartDir is where the upward walk began.
	StartDir string

	// Tier is the explicitly requested tier, if any.
	Tier string

	// Hops is the ancestor budget that was exhausted.
	Hops int
}

func (e ParentNotFoundError) Error() string {
	if e.Tier != "" {
		return "parent hierarchy: no tier file 'tier-" + e.Tier + "' found from " + e.StartDir
	}
	return "parent hierarchy: no configuration root found within hop budget from " + e.StartDir
}
