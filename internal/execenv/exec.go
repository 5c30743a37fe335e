// Package execenv runs a child process with the resolved credential set
// injected into its environment, without writing any file to disk.
package execenv

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	cberrors "github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/errors"
	"github.com/POWERFULMOVES/PMOVES-Archon-sub005/internal/logging"
)

// Executor handles running commands with ephemeral environment variables.
type Executor struct {
	logger *logging.Logger
	stdout *os.File
	stderr *os.File
	stdin  *os.File
}

// New creates a new executor wired to the process streams.
func New(logger *logging.Logger) *Executor {
	return &Executor{logger: logger, stdout: os.Stdout, stderr: os.Stderr, stdin: os.Stdin}
}

// ExecOptions configures command execution.
type ExecOptions struct {
	Command       []string          // Command and arguments to run
	Environment   map[string]string // Resolved variables to inject
	AllowOverride bool              // Keep existing env values over resolved ones
	PrintVars     bool              // Print injected variable names, values masked
	WorkingDir    string
	Timeout       time.Duration // 0 means no timeout
}

// Exec runs the command. The child's exit code is carried back inside
// CommandError so the CLI entry point can propagate it.
func (e *Executor) Exec(ctx context.Context, options ExecOptions) error {
	if len(options.Command) == 0 {
		return cberrors.UserError{
			Message:    "No command specified",
			Suggestion: "Provide a command after -- (e.g., credboot exec -- npm start)",
		}
	}

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	cmdName := options.Command[0]
	if _, err := exec.LookPath(cmdName); err != nil {
		return cberrors.WrapCommandNotFound(cmdName, err)
	}

	if options.PrintVars {
		e.printEnvironment(options.Environment)
	}

	cmd := exec.CommandContext(ctx, cmdName, options.Command[1:]...)
	cmd.Env = buildEnvironment(os.Environ(), options.Environment, options.AllowOverride)
	cmd.Stdout = e.stdout
	cmd.Stderr = e.stderr
	cmd.Stdin = e.stdin
	if options.WorkingDir != "" {
		cmd.Dir = options.WorkingDir
	}

	e.logger.Debug("executing: %s", strings.Join(options.Command, " "))
	e.logger.Debug("variables injected: %d", len(options.Environment))

	if err := cmd.Run(); err != nil {
		if exitError, ok := err.(*exec.ExitError); ok {
			return cberrors.CommandError{
				Command:    strings.Join(options.Command, " "),
				ExitCode:   exitError.ExitCode(),
				Suggestion: "Check the command output above for details",
			}
		}
		return cberrors.CommandError{
			Command:    strings.Join(options.Command, " "),
			Message:    err.Error(),
			Suggestion: "Check the command output above for details",
		}
	}

	return nil
}

// buildEnvironment merges the resolved variables over (or under) the
// current process environment and returns a sorted env slice.
func buildEnvironment(current []string, resolved map[string]string, allowOverride bool) []string {
	envMap := make(map[string]string, len(current)+len(resolved))
	for _, kv := range current {
		if i := strings.IndexByte(kv, '='); i > 0 {
			envMap[kv[:i]] = kv[i+1:]
		}
	}

	for key, value := range resolved {
		if allowOverride {
			if _, exists := envMap[key]; exists {
				continue
			}
		}
		envMap[key] = value
	}

	result := make([]string, 0, len(envMap))
	for key, value := range envMap {
		result = append(result, key+"="+value)
	}
	sort.Strings(result)
	return result
}

// printEnvironment lists the injected variables with values masked.
func (e *Executor) printEnvironment(environment map[string]string) {
	if len(environment) == 0 {
		e.logger.Info("No credentials injected")
		return
	}

	keys := make([]string, 0, len(environment))
	for key := range environment {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	e.logger.Info("Injecting %d credential(s):", len(keys))
	for _, key := range keys {
		fmt.Fprintf(e.stderr, "  %s=%s\n", key, logging.Mask(environment[key]))
	}
}
