package claudekit

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// JSON-RPC error codes used by the in-process bridge.
const (
	rpcMethodNotFound = -32601
	rpcInternalError  = -32603
)

const mcpProtocolVersion = "2024-11-05"

// ToolContent is one content item in a tool result.
type ToolContent struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ToolResult is what a tool handler returns.
type ToolResult struct {
	Content []ToolContent
	IsError bool
}

// TextResult wraps plain text as a successful tool result.
func TextResult(format string, args ...any) *ToolResult {
	return &ToolResult{Content: []ToolContent{{Type: "text", Text: fmt.Sprintf(format, args...)}}}
}

// ErrorResult wraps plain text as a failed tool result.
func ErrorResult(format string, args ...any) *ToolResult {
	return &ToolResult{
		Content: []ToolContent{{Type: "text", Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

// ToolHandler executes one in-process tool call.
type ToolHandler func(ctx context.Context, args map[string]any) (*ToolResult, error)

// ToolAnnotations are optional behavioral hints attached to a tool.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    *bool  `json:"readOnlyHint,omitempty"`
	DestructiveHint *bool  `json:"destructiveHint,omitempty"`
	IdempotentHint  *bool  `json:"idempotentHint,omitempty"`
	OpenWorldHint   *bool  `json:"openWorldHint,omitempty"`
}

// Tool declares an in-process tool: a name, a description, an explicit input
// schema, and the handler to run. Schemas are supplied by the caller rather
// than derived from Go types.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Handler     ToolHandler
	Annotations *ToolAnnotations
}

// NewTool declares a tool with an explicit input schema.
func NewTool(name, description string, schema *jsonschema.Schema, handler ToolHandler) *Tool {
	return &Tool{Name: name, Description: description, InputSchema: schema, Handler: handler}
}

// ObjectSchema builds an object schema from a property map and the names of
// required properties.
func ObjectSchema(properties map[string]*jsonschema.Schema, required ...string) *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// ToolServer is an in-process MCP server: a registry of tools the CLI reaches
// through mcp_message control requests instead of a spawned subprocess. The
// registry is immutable after construction, so concurrent dispatches may read
// it freely.
type ToolServer struct {
	name    string
	version string
	tools   []*Tool
	byName  map[string]*Tool
}

// NewToolServer builds a server from a fixed set of tools.
func NewToolServer(name, version string, tools ...*Tool) *ToolServer {
	s := &ToolServer{
		name:    name,
		version: version,
		tools:   tools,
		byName:  make(map[string]*Tool, len(tools)),
	}
	for _, t := range tools {
		s.byName[t.Name] = t
	}
	return s
}

// Name returns the server name the CLI addresses this registry by.
func (s *ToolServer) Name() string { return s.name }

// handle dispatches one JSON-RPC message. Unknown methods produce a JSON-RPC
// error object, never a Go error; the bridge is stateless.
func (s *ToolServer) handle(ctx context.Context, message map[string]any) map[string]any {
	method, _ := message["method"].(string)
	id := message["id"]
	params, _ := message["params"].(map[string]any)

	switch method {
	case "initialize":
		return rpcResult(id, map[string]any{
			"protocolVersion": mcpProtocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": s.name, "version": s.version},
		})
	case "tools/list":
		return rpcResult(id, map[string]any{"tools": s.toolDescriptors()})
	case "tools/call":
		name, _ := params["name"].(string)
		args, _ := params["arguments"].(map[string]any)
		if args == nil {
			args = map[string]any{}
		}
		return s.callTool(ctx, id, name, args)
	case "notifications/initialized":
		return map[string]any{"jsonrpc": "2.0", "result": map[string]any{}}
	default:
		return rpcError(id, rpcMethodNotFound, fmt.Sprintf("method %q not found", method))
	}
}

func (s *ToolServer) toolDescriptors() []map[string]any {
	descriptors := make([]map[string]any, 0, len(s.tools))
	for _, t := range s.tools {
		schema := t.InputSchema
		if schema == nil {
			schema = &jsonschema.Schema{Type: "object"}
		}
		d := map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": schema,
		}
		if t.Annotations != nil {
			d["annotations"] = t.Annotations
		}
		descriptors = append(descriptors, d)
	}
	return descriptors
}

func (s *ToolServer) callTool(ctx context.Context, id any, name string, args map[string]any) map[string]any {
	tool, ok := s.byName[name]
	if !ok {
		return rpcError(id, rpcMethodNotFound, fmt.Sprintf("tool %q not found", name))
	}

	result, err := tool.Handler(ctx, args)
	if err != nil {
		return rpcError(id, rpcInternalError, err.Error())
	}
	if result == nil {
		result = &ToolResult{}
	}

	content := make([]map[string]any, 0, len(result.Content))
	for _, item := range result.Content {
		c := map[string]any{"type": item.Type}
		switch item.Type {
		case "text":
			c["text"] = item.Text
		case "image":
			c["data"] = item.Data
			c["mimeType"] = item.MimeType
		}
		content = append(content, c)
	}

	payload := map[string]any{"content": content}
	if result.IsError {
		payload["is_error"] = true
	}
	return rpcResult(id, payload)
}

func rpcResult(id any, result map[string]any) map[string]any {
	return map[string]any{"jsonrpc": "2.0", "id": id, "result": result}
}

func rpcError(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error":   map[string]any{"code": code, "message": message},
	}
}
