package cli

import (
	"errors"
	"fmt"
	"strings"

	"houdini-hq/houdini/pkg/config"
)

// ConfigError represents a configuration file that could not be loaded or
// failed validation.
type ConfigError struct {
	Path   string
	Fields []config.FieldError
	Err    error
}

func (e *ConfigError) Error() string {
	source := e.Path
	if source == "" {
		source = "environment"
	}
	if len(e.Fields) == 0 {
		return fmt.Sprintf("config error in %s: %v", source, e.Err)
	}

	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return fmt.Sprintf("config error in %s: %s", source, strings.Join(msgs, "; "))
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a ConfigError for path, extracting the individual
// field errors when err carries a config.ValidationError.
func NewConfigError(path string, err error) *ConfigError {
	ce := &ConfigError{Path: path, Err: err}

	var verr config.ValidationError
	if errors.As(err, &verr) {
		ce.Fields = verr.Errors
	}
	return ce
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}
