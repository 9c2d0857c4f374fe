package claudekit

import "fmt"

// parseMessage turns a framed object from the CLI into a typed Message.
// Unknown top-level tags are rejected rather than passed through, so callers
// never see a message kind the SDK does not model.
func parseMessage(data map[string]any) (Message, error) {
	msgType, _ := data["type"].(string)
	switch msgType {
	case "":
		return nil, parseError("message missing 'type' field", data)
	case "user":
		return parseUserMessage(data)
	case "assistant":
		return parseAssistantMessage(data)
	case "system":
		return parseSystemMessage(data)
	case "result":
		return parseResultMessage(data)
	case "stream_event":
		return parseStreamEvent(data)
	default:
		return nil, parseError(fmt.Sprintf("unknown message type: %s", msgType), data)
	}
}

func parseUserMessage(data map[string]any) (*UserMessage, error) {
	inner, ok := data["message"].(map[string]any)
	if !ok {
		return nil, parseError("user message missing 'message' field", data)
	}
	content, ok := inner["content"]
	if !ok {
		return nil, parseError("user message missing 'content' field", data)
	}

	m := &UserMessage{Content: content}
	m.UUID, _ = data["uuid"].(string)
	m.ParentToolUseID, _ = data["parent_tool_use_id"].(string)
	m.ToolUseResult, _ = data["tool_use_result"].(map[string]any)

	if list, ok := content.([]any); ok {
		m.Content = parseBlocks(list)
	}
	return m, nil
}

func parseAssistantMessage(data map[string]any) (*AssistantMessage, error) {
	inner, ok := data["message"].(map[string]any)
	if !ok {
		return nil, parseError("assistant message missing 'message' field", data)
	}
	list, ok := inner["content"].([]any)
	if !ok {
		return nil, parseError("assistant message missing 'content' field", data)
	}
	model, _ := inner["model"].(string)
	if model == "" {
		return nil, parseError("assistant message missing 'model' field", data)
	}

	m := &AssistantMessage{
		Content: parseBlocks(list),
		Model:   model,
	}
	m.ParentToolUseID, _ = data["parent_tool_use_id"].(string)
	if errStr, _ := data["error"].(string); errStr != "" {
		m.Error = AssistantError(errStr)
	}
	return m, nil
}

func parseSystemMessage(data map[string]any) (*SystemMessage, error) {
	subtype, _ := data["subtype"].(string)
	if subtype == "" {
		return nil, parseError("system message missing 'subtype' field", data)
	}
	return &SystemMessage{Subtype: subtype, Data: data}, nil
}

func parseResultMessage(data map[string]any) (*ResultMessage, error) {
	subtype, _ := data["subtype"].(string)
	sessionID, _ := data["session_id"].(string)
	isError, hasIsError := data["is_error"].(bool)

	for field, ok := range map[string]bool{
		"subtype":         subtype != "",
		"session_id":      sessionID != "",
		"is_error":        hasIsError,
		"duration_ms":     data["duration_ms"] != nil,
		"duration_api_ms": data["duration_api_ms"] != nil,
		"num_turns":       data["num_turns"] != nil,
	} {
		if !ok {
			return nil, parseError("result message missing '"+field+"' field", data)
		}
	}

	m := &ResultMessage{
		Subtype:       subtype,
		DurationMS:    asInt(data["duration_ms"]),
		DurationAPIMS: asInt(data["duration_api_ms"]),
		IsError:       isError,
		NumTurns:      asInt(data["num_turns"]),
		SessionID:     sessionID,
	}
	if cost, ok := data["total_cost_usd"].(float64); ok {
		m.TotalCostUSD = &cost
	}
	m.Usage, _ = data["usage"].(map[string]any)
	m.Result, _ = data["result"].(string)
	m.StructuredOutput = data["structured_output"]
	return m, nil
}

func parseStreamEvent(data map[string]any) (*StreamEvent, error) {
	ev := &StreamEvent{}
	ev.UUID, _ = data["uuid"].(string)
	ev.SessionID, _ = data["session_id"].(string)
	ev.Event, _ = data["event"].(map[string]any)
	ev.ParentToolUseID, _ = data["parent_tool_use_id"].(string)
	if ev.UUID == "" || ev.SessionID == "" || ev.Event == nil {
		return nil, parseError("stream_event message missing required fields", data)
	}
	return ev, nil
}

func parseBlocks(list []any) []ContentBlock {
	blocks := make([]ContentBlock, 0, len(list))
	for _, item := range list {
		raw, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if b := parseBlock(raw); b != nil {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func parseBlock(raw map[string]any) ContentBlock {
	switch blockType, _ := raw["type"].(string); blockType {
	case "text":
		text, _ := raw["text"].(string)
		return &TextBlock{Text: text}
	case "thinking":
		thinking, _ := raw["thinking"].(string)
		signature, _ := raw["signature"].(string)
		return &ThinkingBlock{Thinking: thinking, Signature: signature}
	case "tool_use":
		id, _ := raw["id"].(string)
		name, _ := raw["name"].(string)
		input, _ := raw["input"].(map[string]any)
		return &ToolUseBlock{ID: id, Name: name, Input: input}
	case "tool_result":
		toolUseID, _ := raw["tool_use_id"].(string)
		b := &ToolResultBlock{ToolUseID: toolUseID, Content: raw["content"]}
		if isErr, ok := raw["is_error"].(bool); ok {
			b.IsError = &isErr
		}
		return b
	default:
		return nil
	}
}

func asInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	default:
		return 0
	}
}
