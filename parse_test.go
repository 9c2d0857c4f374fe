package claudekit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAssistantMessage(t *testing.T) {
	msg, err := parseMessage(map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"model": "claude-sonnet-4-5",
			"content": []any{
				map[string]any{"type": "text", "text": "The answer is 4."},
				map[string]any{"type": "thinking", "thinking": "2+2...", "signature": "sig"},
				map[string]any{"type": "tool_use", "id": "toolu_1", "name": "Bash", "input": map[string]any{"command": "ls"}},
			},
		},
		"parent_tool_use_id": "toolu_parent",
	})
	require.NoError(t, err)

	assistant, ok := msg.(*AssistantMessage)
	require.True(t, ok)
	assert.Equal(t, "claude-sonnet-4-5", assistant.Model)
	assert.Equal(t, "toolu_parent", assistant.ParentToolUseID)
	require.Len(t, assistant.Content, 3)

	text, ok := assistant.Content[0].(*TextBlock)
	require.True(t, ok)
	assert.Equal(t, "The answer is 4.", text.Text)

	thinking, ok := assistant.Content[1].(*ThinkingBlock)
	require.True(t, ok)
	assert.Equal(t, "sig", thinking.Signature)

	toolUse, ok := assistant.Content[2].(*ToolUseBlock)
	require.True(t, ok)
	assert.Equal(t, "Bash", toolUse.Name)
	assert.Equal(t, "ls", toolUse.Input["command"])
}

func TestParseAssistantMessageRequiredFields(t *testing.T) {
	tt := map[string]map[string]any{
		"missing message": {
			"type": "assistant",
		},
		"missing content": {
			"type":    "assistant",
			"message": map[string]any{"model": "m"},
		},
		"missing model": {
			"type":    "assistant",
			"message": map[string]any{"content": []any{}},
		},
	}
	for name, data := range tt {
		t.Run(name, func(t *testing.T) {
			_, err := parseMessage(data)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.NotNil(t, parseErr.Data)
		})
	}
}

func TestParseUserMessage(t *testing.T) {
	t.Run("string content passes through", func(t *testing.T) {
		msg, err := parseMessage(map[string]any{
			"type":    "user",
			"uuid":    "uuid_1",
			"message": map[string]any{"role": "user", "content": "hello"},
		})
		require.NoError(t, err)
		user, ok := msg.(*UserMessage)
		require.True(t, ok)
		assert.Equal(t, "hello", user.Content)
		assert.Equal(t, "uuid_1", user.UUID)
	})

	t.Run("block content is parsed", func(t *testing.T) {
		msg, err := parseMessage(map[string]any{
			"type": "user",
			"message": map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{"type": "tool_result", "tool_use_id": "toolu_1", "content": "ok", "is_error": false},
				},
			},
		})
		require.NoError(t, err)
		user := msg.(*UserMessage)
		blocks, ok := user.Content.([]ContentBlock)
		require.True(t, ok)
		require.Len(t, blocks, 1)
		result, ok := blocks[0].(*ToolResultBlock)
		require.True(t, ok)
		assert.Equal(t, "toolu_1", result.ToolUseID)
		require.NotNil(t, result.IsError)
		assert.False(t, *result.IsError)
	})

	t.Run("missing content", func(t *testing.T) {
		_, err := parseMessage(map[string]any{
			"type":    "user",
			"message": map[string]any{"role": "user"},
		})
		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr))
	})
}

func TestParseSystemMessage(t *testing.T) {
	msg, err := parseMessage(map[string]any{
		"type":    "system",
		"subtype": "init",
		"model":   "claude-sonnet-4-5",
	})
	require.NoError(t, err)
	system := msg.(*SystemMessage)
	assert.Equal(t, "init", system.Subtype)
	assert.Equal(t, "claude-sonnet-4-5", system.Data["model"])
}

func TestParseResultMessage(t *testing.T) {
	msg, err := parseMessage(map[string]any{
		"type":            "result",
		"subtype":         "success",
		"session_id":      "sess_1",
		"is_error":        false,
		"duration_ms":     float64(1500),
		"duration_api_ms": float64(1200),
		"num_turns":       float64(2),
		"total_cost_usd":  0.0042,
		"result":          "4",
		"usage":           map[string]any{"input_tokens": float64(10)},
	})
	require.NoError(t, err)

	result := msg.(*ResultMessage)
	assert.Equal(t, "success", result.Subtype)
	assert.Equal(t, "sess_1", result.SessionID)
	assert.Equal(t, 1500, result.DurationMS)
	assert.Equal(t, 1200, result.DurationAPIMS)
	assert.Equal(t, 2, result.NumTurns)
	require.NotNil(t, result.TotalCostUSD)
	assert.Equal(t, 0.0042, *result.TotalCostUSD)
	assert.Equal(t, "4", result.Result)
	assert.False(t, result.IsError)
}

func TestParseResultMessageRequiredFields(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"type":            "result",
			"subtype":         "success",
			"session_id":      "sess_1",
			"is_error":        false,
			"duration_ms":     float64(1),
			"duration_api_ms": float64(1),
			"num_turns":       float64(1),
		}
	}

	for _, field := range []string{"subtype", "session_id", "is_error", "duration_ms", "duration_api_ms", "num_turns"} {
		t.Run("missing "+field, func(t *testing.T) {
			data := base()
			delete(data, field)
			_, err := parseMessage(data)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Contains(t, parseErr.Message, field)
		})
	}

	t.Run("cost is optional", func(t *testing.T) {
		msg, err := parseMessage(base())
		require.NoError(t, err)
		assert.Nil(t, msg.(*ResultMessage).TotalCostUSD)
	})
}

func TestParseStreamEvent(t *testing.T) {
	msg, err := parseMessage(map[string]any{
		"type":       "stream_event",
		"uuid":       "ev_1",
		"session_id": "sess_1",
		"event":      map[string]any{"type": "content_block_delta"},
	})
	require.NoError(t, err)
	ev := msg.(*StreamEvent)
	assert.Equal(t, "ev_1", ev.UUID)
	assert.Equal(t, "content_block_delta", ev.Event["type"])

	_, err = parseMessage(map[string]any{"type": "stream_event", "uuid": "ev_2"})
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
}

func TestParseRejectsUnknownAndMissingTypes(t *testing.T) {
	tt := map[string]map[string]any{
		"unknown type": {"type": "telemetry"},
		"missing type": {"subtype": "init"},
		"numeric type": {"type": float64(3)},
	}
	for name, data := range tt {
		t.Run(name, func(t *testing.T) {
			_, err := parseMessage(data)
			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
		})
	}
}

func TestParseBlocksSkipsUnknownKinds(t *testing.T) {
	blocks := parseBlocks([]any{
		map[string]any{"type": "text", "text": "keep"},
		map[string]any{"type": "hologram", "x": 1},
		"not even an object",
	})
	require.Len(t, blocks, 1)
	assert.Equal(t, "keep", blocks[0].(*TextBlock).Text)
}
