// Package errors defines the user-facing error types shared across the
// credboot CLI. Fatal resolution errors live next to the engine in
// internal/resolve; this package covers the generic shapes every command
// reports with remediation guidance attached.
package errors

import (
	"fmt"
	"strings"
)

// UserError is an error meant to be shown to a person, with enough context
// to act on it.
type UserError struct {
	Message    string
	Details    string
	Suggestion string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError reports a problem in credboot.yaml or a flag value.
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CommandError reports a child process failure from credboot exec.
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Suggestion string
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// ProviderWarning wraps a non-fatal provider failure with a source-specific
// suggestion. The pipeline logs these and continues.
func ProviderWarning(providerName string, err error) error {
	return UserError{
		Message:    fmt.Sprintf("%s provider failed (continuing)", providerName),
		Suggestion: providerSuggestion(providerName, err),
		Err:        err,
	}
}

// providerSuggestion maps common failure text to a remediation hint.
func providerSuggestion(providerName string, err error) string {
	errStr := strings.ToLower(err.Error())

	switch providerName {
	case "active-fetcher":
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "credentials") || strings.Contains(errStr, "unauthorized") {
			return "Set GITHUB_TOKEN, write a token file, or store one in the OS keyring under service 'credboot'"
		}
		if strings.Contains(errStr, "404") {
			return "Check the owner/repo coordinates in credboot.yaml"
		}
	case "encoded-packet":
		return "Regenerate the credentials packet, or provide an age identity file to unlock encoded entries"
	case "encrypted-file":
		return "Decrypt the .env.vault file with your vault tooling before running credboot"
	case "orchestrator-secrets":
		return "Check that the orchestrator mounted its secrets directory and the files are readable"
	}

	if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return "The operation timed out. Check your network connection and try again"
	}
	if strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host") {
		return "Unable to connect. Check your network and the configured endpoint"
	}

	return ""
}

// WrapCommandNotFound wraps a missing-binary error from credboot exec.
func WrapCommandNotFound(command string, err error) error {
	suggestions := map[string]string{
		"npm":    "Install Node.js from https://nodejs.org/",
		"python": "Install Python from https://python.org/",
		"docker": "Install Docker from https://docker.com/",
		"uv":     "Install uv from https://docs.astral.sh/uv/",
	}

	suggestion := suggestions[command]
	if suggestion == "" {
		suggestion = fmt.Sprintf("Make sure '%s' is installed and in your PATH", command)
	}

	return CommandError{
		Command:    command,
		Message:    "command not found",
		Suggestion: suggestion,
	}
}
