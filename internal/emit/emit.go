// Package emit renders a resolved credential set into its output formats:
// the dotenv stream downstream consumers load into their environment, plus
// json and yaml for tooling.
package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/errors"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
)

// Output formats.
const (
	FormatDotenv = "dotenv"
	FormatJSON   = "json"
	FormatYAML   = "yaml"
)

// Options configures one render.
type Options struct {
	Format      string
	OutputPath  string      // empty writes to Stdout
	Permissions os.FileMode // 0 defaults to 0600
}

// Renderer writes resolved values in the requested format.
type Renderer struct {
	logger *logging.Logger
	stdout io.Writer
}

// New creates a renderer writing to os.Stdout when no output path is set.
func New(logger *logging.Logger) *Renderer {
	return &Renderer{logger: logger, stdout: os.Stdout}
}

// NewWithWriter creates a renderer with a custom default stream, for tests.
func NewWithWriter(logger *logging.Logger, w io.Writer) *Renderer {
	return &Renderer{logger: logger, stdout: w}
}

// DetectFormat maps a file extension to a format, defaulting to dotenv.
func DetectFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatDotenv
	}
}

// Render writes values in options.Format. File output is created with
// owner-only permissions unless overridden.
func (r *Renderer) Render(values map[string]string, options Options) error {
	format := options.Format
	if format == "" {
		format = DetectFormat(options.OutputPath)
	}

	var content []byte
	switch format {
	case FormatDotenv:
		content = []byte(Dotenv(values))
	case FormatJSON:
		data, err := json.MarshalIndent(values, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal json: %w", err)
		}
		content = append(data, '\n')
	case FormatYAML:
		data, err := yaml.Marshal(values)
		if err != nil {
			return fmt.Errorf("marshal yaml: %w", err)
		}
		content = data
	default:
		return errors.ConfigError{
			Field:      "format",
			Value:      format,
			Message:    "unknown output format",
			Suggestion: "Use dotenv, json, or yaml",
		}
	}

	if options.OutputPath == "" {
		_, err := r.stdout.Write(content)
		return err
	}

	perms := options.Permissions
	if perms == 0 {
		perms = 0o600
	}
	if err := os.WriteFile(options.OutputPath, content, perms); err != nil {
		return fmt.Errorf("write %s: %w", options.OutputPath, err)
	}

	r.logger.Warn("File contains secrets - ensure it's added to .gitignore")
	return nil
}

// Dotenv renders values as a newline-delimited KEY=value stream in sorted
// key order, with no comments.
func Dotenv(values map[string]string) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(quoteIfNeeded(values[k]))
		b.WriteByte('\n')
	}
	return b.String()
}

// quoteIfNeeded wraps a value in double quotes when it would otherwise be
// ambiguous on re-parse (whitespace, quote characters, # or newlines).
func quoteIfNeeded(value string) string {
	if !strings.ContainsAny(value, " \t\n\"'#") {
		return value
	}
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`).Replace(value)
	return `"` + escaped + `"`
}
