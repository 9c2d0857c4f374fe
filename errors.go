package claudekit

import "fmt"

// SDKError is the root of the error hierarchy. Every error surfaced by the
// SDK embeds it, so callers can match concrete types with errors.As while
// still getting a useful message from plain Error().
type SDKError struct {
	Message string
	Cause   error
}

func (e *SDKError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SDKError) Unwrap() error {
	return e.Cause
}

// ConnectionError indicates the CLI process could not be reached: spawn
// failure, a write after shutdown, or an operation before Connect.
type ConnectionError struct {
	SDKError
}

func connectionError(message string, cause error) *ConnectionError {
	return &ConnectionError{SDKError{Message: message, Cause: cause}}
}

// NotFoundError indicates the CLI binary was not found at any known location.
type NotFoundError struct {
	ConnectionError
	CLIPath string
}

// ProcessError indicates the CLI process exited with a non-zero status after
// its output stream ended.
type ProcessError struct {
	SDKError
	ExitCode int
	Stderr   string
}

func newProcessError(message string, exitCode int, stderr string) *ProcessError {
	msg := message
	if exitCode != 0 {
		msg = fmt.Sprintf("%s (exit code: %d)", msg, exitCode)
	}
	if stderr != "" {
		msg = fmt.Sprintf("%s\nerror output: %s", msg, stderr)
	}
	return &ProcessError{
		SDKError: SDKError{Message: msg},
		ExitCode: exitCode,
		Stderr:   stderr,
	}
}

// DecodeError indicates the stdout stream could not be framed into JSON
// objects, typically because the accumulation buffer exceeded its limit.
type DecodeError struct {
	SDKError
	Raw string
}

// ParseError indicates a framed object was valid JSON but not a recognized
// message shape.
type ParseError struct {
	SDKError
	Data map[string]any
}

func parseError(message string, data map[string]any) *ParseError {
	return &ParseError{SDKError: SDKError{Message: message}, Data: data}
}

// ProtocolError indicates a control request failed: the CLI answered with an
// error envelope, or no answer arrived before the timeout.
type ProtocolError struct {
	SDKError
	Subtype string
}

func protocolError(subtype, message string, cause error) *ProtocolError {
	return &ProtocolError{
		SDKError: SDKError{Message: message, Cause: cause},
		Subtype:  subtype,
	}
}
