// Package config loads the optional credboot.yaml file carrying remote
// fetcher coordinates, the default tier selector, and path overrides.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	cberrors "github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/errors"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/pkg/provider"
)

// DefaultPath is where Load looks when no --config flag is given.
const DefaultPath = "credboot.yaml"

// Config holds the runtime configuration.
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Definition     *Definition
}

// Definition represents the credboot.yaml structure.
type Definition struct {
	Version int `yaml:"version"`

	// Remote carries the coordinates for the active remote fetcher. All
	// fields are optional; an absent backend simply sits out.
	Remote provider.RemoteCoordinates `yaml:"remote,omitempty"`

	// Tier is the default tier selector, overridable with --tier.
	Tier string `yaml:"tier,omitempty"`

	// Paths overrides provider file locations, mainly for tests and
	// unusual deployments.
	Paths PathsConfig `yaml:"paths,omitempty"`
}

// PathsConfig mirrors provider.Paths in yaml form.
type PathsConfig struct {
	Packet          []string `yaml:"packet,omitempty"`
	AgeIdentityFile string   `yaml:"age_identity_file,omitempty"`
	VaultFile       string   `yaml:"vault_file,omitempty"`
	SecretsMountDir string   `yaml:"secrets_mount_dir,omitempty"`
	TokenFile       string   `yaml:"token_file,omitempty"`
}

// Load reads and parses the configuration file. A missing file at the
// default path is not an error: credboot runs fine on conventions alone.
func (c *Config) Load() error {
	path := c.Path
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if explicit {
				return cberrors.ConfigError{
					Field:      "path",
					Value:      path,
					Message:    "configuration file not found",
					Suggestion: "Check the --config path, or omit it to run without a config file",
				}
			}
			c.Definition = &Definition{Version: 1}
			return nil
		}
		return cberrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return cberrors.ConfigError{
			Field:      "path",
			Value:      path,
			Message:    "invalid YAML: " + err.Error(),
			Suggestion: "Fix the syntax error in " + path,
		}
	}
	if def.Version == 0 {
		def.Version = 1
	}
	if def.Version != 1 {
		return cberrors.ConfigError{
			Field:      "version",
			Value:      def.Version,
			Message:    "unsupported configuration version",
			Suggestion: "Set version: 1",
		}
	}

	c.Definition = &def
	return nil
}

// FetchContext builds the provider fetch context from the loaded
// definition plus the working directory and tier override.
func (c *Config) FetchContext(workDir, tierFlag string) provider.FetchContext {
	def := c.Definition
	if def == nil {
		def = &Definition{}
	}

	tier := def.Tier
	if tierFlag != "" {
		tier = tierFlag
	}

	return provider.FetchContext{
		WorkDir: workDir,
		Tier:    tier,
		Env:     osEnviron{},
		Remote:  def.Remote,
		Paths: provider.Paths{
			PacketCandidates: def.Paths.Packet,
			AgeIdentityFile:  def.Paths.AgeIdentityFile,
			VaultFile:        def.Paths.VaultFile,
			SecretsMountDir:  def.Paths.SecretsMountDir,
			TokenFile:        def.Paths.TokenFile,
		},
	}
}

// osEnviron adapts the real process environment to provider.Environ.
type osEnviron struct{}

func (osEnviron) Getenv(key string) string          { return os.Getenv(key) }
func (osEnviron) LookupEnv(key string) (string, bool) { return os.LookupEnv(key) }
