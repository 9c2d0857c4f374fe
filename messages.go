package claudekit

// Message is a sealed interface over everything the CLI emits on the
// conversation stream. Switch on the concrete type to handle a message.
type Message interface {
	messageType() string
}

// AssistantError classifies failures reported inside assistant messages.
type AssistantError string

const (
	AssistantErrorAuthenticationFailed AssistantError = "authentication_failed"
	AssistantErrorBillingError         AssistantError = "billing_error"
	AssistantErrorRateLimit            AssistantError = "rate_limit"
	AssistantErrorInvalidRequest       AssistantError = "invalid_request"
	AssistantErrorServerError          AssistantError = "server_error"
	AssistantErrorUnknown              AssistantError = "unknown"
)

// UserMessage is a user turn echoed back by the CLI. Content is either a
// plain string or a []ContentBlock.
type UserMessage struct {
	Content         any
	UUID            string
	ParentToolUseID string
	ToolUseResult   map[string]any
}

func (*UserMessage) messageType() string { return "user" }

// AssistantMessage is an assistant turn made of content blocks.
type AssistantMessage struct {
	Content         []ContentBlock
	Model           string
	ParentToolUseID string
	Error           AssistantError
}

func (*AssistantMessage) messageType() string { return "assistant" }

// SystemMessage carries CLI metadata such as session init details. Data holds
// the full raw payload.
type SystemMessage struct {
	Subtype string
	Data    map[string]any
}

func (*SystemMessage) messageType() string { return "system" }

// ResultMessage terminates a turn with cost and usage accounting.
type ResultMessage struct {
	Subtype          string
	DurationMS       int
	DurationAPIMS    int
	IsError          bool
	NumTurns         int
	SessionID        string
	TotalCostUSD     *float64
	Usage            map[string]any
	Result           string
	StructuredOutput any
}

func (*ResultMessage) messageType() string { return "result" }

// StreamEvent is a partial-message update, emitted only when partial
// streaming was requested.
type StreamEvent struct {
	UUID            string
	SessionID       string
	Event           map[string]any
	ParentToolUseID string
}

func (*StreamEvent) messageType() string { return "stream_event" }
