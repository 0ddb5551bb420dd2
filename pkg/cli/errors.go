package cli

import "fmt"

// ConfigError represents a configuration problem surfaced by a command.
type ConfigError struct {
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// CommandError represents a failure while executing a command.
type CommandError struct {
	Command string
	Message string
	Cause   error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %s: %v", e.Command, e.Message, e.Cause)
}

func (e *CommandError) Unwrap() error {
	return e.Cause
}

// NewConfigError creates a new ConfigError.
func NewConfigError(message string, cause error) *ConfigError {
	return &ConfigError{
		Message: message,
		Cause:   cause,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command, message string, cause error) *CommandError {
	return &CommandError{
		Command: command,
		Message: message,
		Cause:   cause,
	}
}
