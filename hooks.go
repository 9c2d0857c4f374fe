package claudekit

import "context"

// HookEvent names a lifecycle point at which the CLI invokes registered
// hooks.
type HookEvent string

const (
	HookPreToolUse         HookEvent = "PreToolUse"
	HookPostToolUse        HookEvent = "PostToolUse"
	HookPostToolUseFailure HookEvent = "PostToolUseFailure"
	HookUserPromptSubmit   HookEvent = "UserPromptSubmit"
	HookStop               HookEvent = "Stop"
	HookSubagentStart      HookEvent = "SubagentStart"
	HookSubagentStop       HookEvent = "SubagentStop"
	HookPreCompact         HookEvent = "PreCompact"
	HookNotification       HookEvent = "Notification"
	HookPermissionRequest  HookEvent = "PermissionRequest"
)

// HookInput is the payload delivered to a hook callback. HookEventName tells
// which event fired; the remaining fields are populated per event.
type HookInput struct {
	SessionID      string `json:"session_id"`
	TranscriptPath string `json:"transcript_path"`
	Cwd            string `json:"cwd"`
	PermissionMode string `json:"permission_mode,omitempty"`
	HookEventName  string `json:"hook_event_name"`

	// PreToolUse, PostToolUse, PostToolUseFailure, PermissionRequest
	ToolName  string         `json:"tool_name,omitempty"`
	ToolInput map[string]any `json:"tool_input,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`

	// PostToolUse
	ToolResponse any `json:"tool_response,omitempty"`

	// PostToolUseFailure
	ErrorMsg    string `json:"error,omitempty"`
	IsInterrupt *bool  `json:"is_interrupt,omitempty"`

	// UserPromptSubmit
	Prompt string `json:"prompt,omitempty"`

	// Stop, SubagentStop
	StopHookActive bool `json:"stop_hook_active,omitempty"`

	// SubagentStart, SubagentStop
	AgentID             string `json:"agent_id,omitempty"`
	AgentTranscriptPath string `json:"agent_transcript_path,omitempty"`
	AgentType           string `json:"agent_type,omitempty"`

	// PreCompact
	Trigger            string `json:"trigger,omitempty"`
	CustomInstructions string `json:"custom_instructions,omitempty"`

	// Notification
	NotificationMessage string `json:"message,omitempty"`
	Title               string `json:"title,omitempty"`
	NotificationType    string `json:"notification_type,omitempty"`

	// PermissionRequest
	PermissionSuggestions []any `json:"permission_suggestions,omitempty"`
}

// HookSpecificOutput carries per-event response fields.
type HookSpecificOutput struct {
	HookEventName string `json:"hookEventName"`

	// PreToolUse
	PermissionDecision       string         `json:"permissionDecision,omitempty"`
	PermissionDecisionReason string         `json:"permissionDecisionReason,omitempty"`
	UpdatedInput             map[string]any `json:"updatedInput,omitempty"`

	// PostToolUse
	UpdatedMCPToolOutput any `json:"updatedMCPToolOutput,omitempty"`

	AdditionalContext string `json:"additionalContext,omitempty"`

	// PermissionRequest
	Decision map[string]any `json:"decision,omitempty"`
}

// HookOutput is what a hook callback returns. Either the async fields are set
// (defer this hook's work) or the sync control/decision fields are.
type HookOutput struct {
	Async        *bool `json:"async,omitempty"`
	AsyncTimeout *int  `json:"asyncTimeout,omitempty"`

	Continue       *bool  `json:"continue,omitempty"`
	SuppressOutput *bool  `json:"suppressOutput,omitempty"`
	StopReason     string `json:"stopReason,omitempty"`

	Decision      string `json:"decision,omitempty"` // "block"
	SystemMessage string `json:"systemMessage,omitempty"`
	Reason        string `json:"reason,omitempty"`

	HookSpecificOutput *HookSpecificOutput `json:"hookSpecificOutput,omitempty"`
}

// HookContext carries per-invocation context for hook callbacks.
type HookContext struct {
	Signal any // reserved for abort signal support
}

// HookCallback handles one hook invocation. A nil output with nil error is a
// valid empty response.
type HookCallback func(ctx context.Context, input HookInput, toolUseID string, hookCtx HookContext) (*HookOutput, error)

// HookMatcher binds callbacks to a tool-name pattern for one event, with an
// optional per-matcher timeout in seconds.
type HookMatcher struct {
	Matcher string
	Hooks   []HookCallback
	Timeout *float64
}
