package claudekit

// ContentBlock is a sealed interface over the block kinds found inside user
// and assistant messages.
type ContentBlock interface {
	blockType() string
}

// TextBlock is plain assistant text.
type TextBlock struct {
	Text string `json:"text"`
}

func (*TextBlock) blockType() string { return "text" }

// ThinkingBlock is extended-thinking output with its integrity signature.
type ThinkingBlock struct {
	Thinking  string `json:"thinking"`
	Signature string `json:"signature"`
}

func (*ThinkingBlock) blockType() string { return "thinking" }

// ToolUseBlock is a tool invocation requested by the model.
type ToolUseBlock struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

func (*ToolUseBlock) blockType() string { return "tool_use" }

// ToolResultBlock is the outcome of a tool invocation. Content is a string,
// a []map[string]any, or nil.
type ToolResultBlock struct {
	ToolUseID string `json:"tool_use_id"`
	Content   any    `json:"content,omitempty"`
	IsError   *bool  `json:"is_error,omitempty"`
}

func (*ToolResultBlock) blockType() string { return "tool_result" }
