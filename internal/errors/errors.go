// Package errors provides error kinds and classification for sshfan.
package errors

import (
	"fmt"
	"strings"
)

// ConfigKind identifies the category of a configuration error.
type ConfigKind int

const (
	UnknownOption ConfigKind = iota
	TooFewArguments
	MissingFlagValue
	MissingUsername
	MissingOperation
	ConflictingOperation
	ArgsWithoutScript
	MissingHosts
	ConflictingHosts
	UnreadableHostsFile
	UnreadableScriptFile
	UnsupportedShell
	InvalidLogFile
	MissingDependency
	InvalidParallelism
	UnsupportedTransport
	InvalidReportFile
)

// String returns a string representation of the config error kind
func (k ConfigKind) String() string {
	switch k {
	case UnknownOption:
		return "unknown option"
	case TooFewArguments:
		return "too few arguments"
	case MissingFlagValue:
		return "missing flag value"
	case MissingUsername:
		return "missing username"
	case MissingOperation:
		return "missing operation"
	case ConflictingOperation:
		return "conflicting operation"
	case ArgsWithoutScript:
		return "args without script"
	case MissingHosts:
		return "missing hosts"
	case ConflictingHosts:
		return "conflicting hosts"
	case UnreadableHostsFile:
		return "unreadable hosts file"
	case UnreadableScriptFile:
		return "unreadable script file"
	case UnsupportedShell:
		return "unsupported shell"
	case InvalidLogFile:
		return "invalid log file"
	case MissingDependency:
		return "missing dependency"
	case InvalidParallelism:
		return "invalid parallelism"
	case UnsupportedTransport:
		return "unsupported transport"
	case InvalidReportFile:
		return "invalid report file"
	default:
		return "unknown"
	}
}

// ConfigError is a fatal user-input or environment problem detected before
// any host is contacted. The process prints it and exits 1.
type ConfigError struct {
	Kind    ConfigKind
	Message string
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Kind.String()
}

// NewConfigError creates a configuration error with a formatted message
func NewConfigError(kind ConfigKind, format string, args ...any) *ConfigError {
	return &ConfigError{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// AsConfigError reports whether err is a *ConfigError.
func AsConfigError(err error) (*ConfigError, bool) {
	ce, ok := err.(*ConfigError)
	return ce, ok
}

// TransportErrorType represents the classification of per-host transport errors
type TransportErrorType int

const (
	// ConnectionErrorType represents network or SSH connection errors
	ConnectionErrorType TransportErrorType = iota

	// AuthenticationErrorType represents SSH authentication failures
	AuthenticationErrorType

	// ExecutionErrorType represents remote command execution errors
	ExecutionErrorType

	// TimeoutErrorType represents timeout-related errors
	TimeoutErrorType

	// UnknownErrorType represents unclassified errors
	UnknownErrorType
)

// String returns a string representation of the error type
func (et TransportErrorType) String() string {
	switch et {
	case ConnectionErrorType:
		return "connection"
	case AuthenticationErrorType:
		return "authentication"
	case ExecutionErrorType:
		return "execution"
	case TimeoutErrorType:
		return "timeout"
	default:
		return "unknown"
	}
}

// ClassifyTransportError analyzes a per-host error and returns its type.
// Classification is informational only: host-level failures never abort
// the remaining hosts and never change the process exit code.
func ClassifyTransportError(err error) TransportErrorType {
	if err == nil {
		return UnknownErrorType
	}

	errStr := strings.ToLower(err.Error())

	if isAuthenticationError(errStr) {
		return AuthenticationErrorType
	}
	if isTimeoutError(errStr) {
		return TimeoutErrorType
	}
	if isConnectionError(errStr) {
		return ConnectionErrorType
	}
	if isExecutionError(errStr) {
		return ExecutionErrorType
	}

	return UnknownErrorType
}

// isAuthenticationError checks if an error is related to SSH authentication
func isAuthenticationError(errStr string) bool {
	authKeywords := []string{
		"authentication failed",
		"auth fail",
		"permission denied (publickey)",
		"no supported authentication methods",
		"key exchange failed",
		"hostkey verification failed",
		"unable to authenticate",
		"access denied",
		"login incorrect",
	}

	for _, keyword := range authKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isTimeoutError checks if an error is related to timeouts
func isTimeoutError(errStr string) bool {
	timeoutKeywords := []string{
		"timeout",
		"timed out",
		"deadline exceeded",
		"i/o timeout",
	}

	for _, keyword := range timeoutKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isConnectionError checks if an error is related to network connectivity
func isConnectionError(errStr string) bool {
	connectionKeywords := []string{
		"connection refused",
		"connection reset",
		"connection closed",
		"network unreachable",
		"no route to host",
		"host unreachable",
		"broken pipe",
		"connection aborted",
		"handshake failed",
		"protocol error",
		"unexpected eof",
		"name or service not known",
	}

	for _, keyword := range connectionKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}

// isExecutionError checks if an error is related to remote command execution
func isExecutionError(errStr string) bool {
	executionKeywords := []string{
		"command not found",
		"exit status",
		"process exited",
		"signal:",
		"killed",
		"terminated",
	}

	for _, keyword := range executionKeywords {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}

	return false
}
