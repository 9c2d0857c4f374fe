package claudekit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyOptionsDefaults(t *testing.T) {
	opts := applyOptions(nil)

	assert.Empty(t, opts.Model)
	assert.Nil(t, opts.SystemPrompt)
	assert.Zero(t, opts.MaxTurns)
	assert.Nil(t, opts.MaxBudgetUSD)
	assert.Empty(t, opts.McpServers)
	assert.Zero(t, opts.MessageBuffer)
}

func TestApplyOptionsLastWriteWins(t *testing.T) {
	opts := applyOptions([]Option{
		WithModel("first"),
		WithModel("second"),
		WithMaxTurns(1),
		WithMaxTurns(7),
	})
	assert.Equal(t, "second", opts.Model)
	assert.Equal(t, 7, opts.MaxTurns)
}

func TestSdkServersExtractsInProcessServers(t *testing.T) {
	calc := NewToolServer("calc", "1.0.0",
		NewTool("add", "Add numbers", nil, func(ctx context.Context, args map[string]any) (*ToolResult, error) {
			return TextResult("0"), nil
		}))
	opts := applyOptions([]Option{
		WithMcpServers(map[string]McpServerConfig{
			"calc":  NewSDKServer(calc),
			"files": &McpStdioServerConfig{Command: "mcp-files"},
		}),
	})

	servers := opts.sdkServers()
	require.Len(t, servers, 1, "only in-process servers are dispatchable")
	assert.Same(t, calc, servers["calc"])
}

func TestSdkServersEmptyWithoutMcpConfig(t *testing.T) {
	assert.Empty(t, applyOptions(nil).sdkServers())
}

func TestWithEnvAndExtraArgsAreCopiedIn(t *testing.T) {
	opts := applyOptions([]Option{
		WithEnv(map[string]string{"A": "1"}),
		WithExtraArgs(map[string]*string{"flag": nil}),
		WithMessageBuffer(5),
	})
	assert.Equal(t, "1", opts.Env["A"])
	assert.Contains(t, opts.ExtraArgs, "flag")
	assert.Equal(t, 5, opts.MessageBuffer)
}
