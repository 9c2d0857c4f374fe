package claudekit

// Wire envelopes for the control protocol multiplexed over the same stdio
// stream as conversation messages.

const (
	controlTypeRequest       = "control_request"
	controlTypeResponse      = "control_response"
	controlTypeCancelRequest = "control_cancel_request"
)

// Control request subtypes sent by the SDK.
const (
	controlInitialize        = "initialize"
	controlInterrupt         = "interrupt"
	controlSetPermissionMode = "set_permission_mode"
	controlSetModel          = "set_model"
	controlRewindFiles       = "rewind_files"
	controlMcpStatus         = "mcp_status"
)

// Control request subtypes received from the CLI.
const (
	controlCanUseTool   = "can_use_tool"
	controlHookCallback = "hook_callback"
	controlMcpMessage   = "mcp_message"
)

// controlRequest is the outgoing SDK -> CLI envelope. The same shape arrives
// in the other direction for CLI-initiated requests, with a different subtype
// space inside Request.
type controlRequest struct {
	Type      string         `json:"type"`
	RequestID string         `json:"request_id"`
	Request   map[string]any `json:"request"`
}

// controlResponse correlates back to a controlRequest by RequestID.
type controlResponse struct {
	Type     string              `json:"type"`
	Response controlResponseBody `json:"response"`
}

type controlResponseBody struct {
	Subtype   string         `json:"subtype"` // "success" or "error"
	RequestID string         `json:"request_id"`
	Response  map[string]any `json:"response,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func successResponse(requestID string, payload map[string]any) *controlResponse {
	return &controlResponse{
		Type: controlTypeResponse,
		Response: controlResponseBody{
			Subtype:   "success",
			RequestID: requestID,
			Response:  payload,
		},
	}
}

func errorResponse(requestID string, err error) *controlResponse {
	return &controlResponse{
		Type: controlTypeResponse,
		Response: controlResponseBody{
			Subtype:   "error",
			RequestID: requestID,
			Error:     err.Error(),
		},
	}
}
