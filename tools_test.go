package claudekit

import (
	"context"
	"errors"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer() *ToolServer {
	greet := NewTool("greet", "Greet someone by name",
		ObjectSchema(map[string]*jsonschema.Schema{
			"name": {Type: "string", Description: "who to greet"},
		}, "name"),
		func(ctx context.Context, args map[string]any) (*ToolResult, error) {
			name, _ := args["name"].(string)
			return TextResult("Hello, %s!", name), nil
		})
	failing := NewTool("failing", "Always returns a handler error", nil,
		func(ctx context.Context, args map[string]any) (*ToolResult, error) {
			return nil, errors.New("handler broke")
		})
	refusing := NewTool("refusing", "Always returns a tool-level error", nil,
		func(ctx context.Context, args map[string]any) (*ToolResult, error) {
			return ErrorResult("refused: %s", "bad input"), nil
		})
	return NewToolServer("testsrv", "2.0.0", greet, failing, refusing)
}

func TestToolServerInitialize(t *testing.T) {
	s := testServer()

	resp := s.handle(context.Background(), map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "initialize",
	})

	assert.Equal(t, "2.0", resp["jsonrpc"])
	assert.Equal(t, 1, resp["id"])
	result, _ := resp["result"].(map[string]any)
	require.NotNil(t, result)
	assert.Equal(t, "2024-11-05", result["protocolVersion"])
	info, _ := result["serverInfo"].(map[string]any)
	require.NotNil(t, info)
	assert.Equal(t, "testsrv", info["name"])
	assert.Equal(t, "2.0.0", info["version"])
}

func TestToolServerListTools(t *testing.T) {
	s := testServer()

	resp := s.handle(context.Background(), map[string]any{
		"jsonrpc": "2.0", "id": 2, "method": "tools/list",
	})

	result, _ := resp["result"].(map[string]any)
	require.NotNil(t, result)
	tools, _ := result["tools"].([]map[string]any)
	require.Len(t, tools, 3)

	assert.Equal(t, "greet", tools[0]["name"])
	assert.Equal(t, "Greet someone by name", tools[0]["description"])
	schema, _ := tools[0]["inputSchema"].(*jsonschema.Schema)
	require.NotNil(t, schema)
	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"name"}, schema.Required)

	// Tools without a declared schema get an empty object schema rather
	// than a null.
	fallback, _ := tools[1]["inputSchema"].(*jsonschema.Schema)
	require.NotNil(t, fallback)
	assert.Equal(t, "object", fallback.Type)
}

func TestToolServerCallTool(t *testing.T) {
	s := testServer()

	tt := map[string]struct {
		params    map[string]any
		wantText  string
		wantErr   bool
		errCode   int
		toolError bool
	}{
		"successful call": {
			params:   map[string]any{"name": "greet", "arguments": map[string]any{"name": "Ada"}},
			wantText: "Hello, Ada!",
		},
		"missing arguments default to empty": {
			params:   map[string]any{"name": "greet"},
			wantText: "Hello, !",
		},
		"unknown tool": {
			params:  map[string]any{"name": "nonexistent"},
			wantErr: true,
			errCode: -32601,
		},
		"handler error becomes internal error": {
			params:  map[string]any{"name": "failing"},
			wantErr: true,
			errCode: -32603,
		},
		"tool-level error is a result, not an rpc error": {
			params:    map[string]any{"name": "refusing"},
			wantText:  "refused: bad input",
			toolError: true,
		},
	}

	for name, tc := range tt {
		t.Run(name, func(t *testing.T) {
			resp := s.handle(context.Background(), map[string]any{
				"jsonrpc": "2.0", "id": 9, "method": "tools/call", "params": tc.params,
			})

			assert.Equal(t, 9, resp["id"])
			if tc.wantErr {
				rpcErr, _ := resp["error"].(map[string]any)
				require.NotNil(t, rpcErr)
				assert.Equal(t, tc.errCode, rpcErr["code"])
				return
			}

			result, _ := resp["result"].(map[string]any)
			require.NotNil(t, result)
			content, _ := result["content"].([]map[string]any)
			require.Len(t, content, 1)
			assert.Equal(t, "text", content[0]["type"])
			assert.Equal(t, tc.wantText, content[0]["text"])
			if tc.toolError {
				assert.Equal(t, true, result["is_error"])
			} else {
				_, present := result["is_error"]
				assert.False(t, present)
			}
		})
	}
}

func TestToolServerUnknownMethod(t *testing.T) {
	s := testServer()

	resp := s.handle(context.Background(), map[string]any{
		"jsonrpc": "2.0", "id": 3, "method": "resources/list",
	})

	rpcErr, _ := resp["error"].(map[string]any)
	require.NotNil(t, rpcErr)
	assert.Equal(t, -32601, rpcErr["code"])
	assert.Contains(t, rpcErr["message"], "resources/list")
}

func TestToolServerInitializedNotification(t *testing.T) {
	s := testServer()

	resp := s.handle(context.Background(), map[string]any{
		"jsonrpc": "2.0", "method": "notifications/initialized",
	})

	// Notifications have no id; the ack carries an empty result.
	_, hasID := resp["id"]
	assert.False(t, hasID)
	assert.NotNil(t, resp["result"])
}

func TestToolServerHandlerReceivesContext(t *testing.T) {
	type ctxKey struct{}
	var observed any
	probe := NewTool("probe", "Reports its context value", nil,
		func(ctx context.Context, args map[string]any) (*ToolResult, error) {
			observed = ctx.Value(ctxKey{})
			return TextResult("ok"), nil
		})
	s := NewToolServer("ctxsrv", "1.0.0", probe)

	ctx := context.WithValue(context.Background(), ctxKey{}, "present")
	s.handle(ctx, map[string]any{
		"jsonrpc": "2.0", "id": 1, "method": "tools/call",
		"params": map[string]any{"name": "probe"},
	})
	assert.Equal(t, "present", observed)
}
