package claudekit

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorHierarchyMatchesWithErrorsAs(t *testing.T) {
	cause := errors.New("underlying")

	tt := map[string]struct {
		err  error
		text string
	}{
		"connection": {
			err:  connectionError("failed to start claude CLI", cause),
			text: "failed to start claude CLI: underlying",
		},
		"protocol": {
			err:  protocolError("interrupt", "control request timed out: interrupt", nil),
			text: "control request timed out: interrupt",
		},
		"parse": {
			err:  parseError("unknown message type: telemetry", map[string]any{"type": "telemetry"}),
			text: "unknown message type: telemetry",
		},
	}
	for name, tc := range tt {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.text, tc.err.Error())
			var sdkErr *SDKError
			assert.False(t, errors.As(tc.err, &sdkErr),
				"concrete types embed SDKError by value, they do not wrap a *SDKError")
		})
	}
}

func TestConnectionErrorUnwrap(t *testing.T) {
	cause := errors.New("broken pipe")
	err := connectionError("failed to write to process stdin", cause)
	require.ErrorIs(t, err, cause)

	var connErr *ConnectionError
	wrapped := fmt.Errorf("query failed: %w", err)
	require.True(t, errors.As(wrapped, &connErr))
	assert.Equal(t, "failed to write to process stdin", connErr.Message)
}

func TestNotFoundErrorIsAConnectionError(t *testing.T) {
	err := &NotFoundError{
		ConnectionError: *connectionError("claude CLI not found at: /usr/bin/claude", nil),
		CLIPath:         "/usr/bin/claude",
	}

	var notFound *NotFoundError
	require.True(t, errors.As(error(err), &notFound))
	assert.Equal(t, "/usr/bin/claude", notFound.CLIPath)
	assert.Contains(t, err.Error(), "/usr/bin/claude")
}

func TestProcessErrorMessageIncludesExitCode(t *testing.T) {
	err := newProcessError("claude CLI exited with error", 127, "command not found")
	assert.Equal(t, 127, err.ExitCode)
	assert.Contains(t, err.Error(), "exit code: 127")
	assert.Contains(t, err.Error(), "command not found")

	// Exit code zero is omitted from the message.
	plain := newProcessError("claude CLI exited with error", 0, "")
	assert.Equal(t, "claude CLI exited with error", plain.Error())
}

func TestDecodeErrorCarriesRawPayload(t *testing.T) {
	err := &DecodeError{
		SDKError: SDKError{Message: "JSON message exceeded maximum buffer size of 64 bytes"},
		Raw:      `{"truncated":`,
	}
	assert.Contains(t, err.Error(), "maximum buffer size")
	assert.Equal(t, `{"truncated":`, err.Raw)
}
