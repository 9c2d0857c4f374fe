package claudekit

// MCP server configurations passed to the CLI. External servers (stdio, sse,
// http) are serialized into --mcp-config as-is; SDK servers run in-process
// and only their name crosses the wire.

// McpServerConfig is a sealed interface over the server config kinds.
type McpServerConfig interface {
	mcpServerType() string
}

// McpStdioServerConfig launches an external MCP server as a subprocess of the
// CLI.
type McpStdioServerConfig struct {
	Type    string            `json:"type,omitempty"` // "stdio" or empty
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

func (*McpStdioServerConfig) mcpServerType() string { return "stdio" }

// McpSSEServerConfig connects the CLI to a server-sent-events MCP endpoint.
type McpSSEServerConfig struct {
	Type    string            `json:"type"` // "sse"
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (*McpSSEServerConfig) mcpServerType() string { return "sse" }

// McpHTTPServerConfig connects the CLI to a streamable HTTP MCP endpoint.
type McpHTTPServerConfig struct {
	Type    string            `json:"type"` // "http"
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (*McpHTTPServerConfig) mcpServerType() string { return "http" }

// McpSDKServerConfig exposes an in-process ToolServer to the CLI. Server is
// never serialized; the CLI routes calls back over the control protocol.
type McpSDKServerConfig struct {
	Type   string      `json:"type"` // "sdk"
	Name   string      `json:"name"`
	Server *ToolServer `json:"-"`
}

func (*McpSDKServerConfig) mcpServerType() string { return "sdk" }

// NewSDKServer wraps a ToolServer as an MCP server config entry.
func NewSDKServer(server *ToolServer) *McpSDKServerConfig {
	return &McpSDKServerConfig{Type: "sdk", Name: server.Name(), Server: server}
}
