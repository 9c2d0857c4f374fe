package claudekit

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// buildArgs renders Options into the CLI argument list. prompt selects the
// invocation mode: nil means a bidirectional stream-json session, non-nil a
// one-shot --print run with the prompt passed inline.
func buildArgs(opts *Options, prompt *string) []string {
	args := []string{"--output-format", "stream-json", "--verbose"}

	switch {
	case opts.SystemPrompt != nil:
		args = append(args, "--system-prompt", *opts.SystemPrompt)
	case opts.SystemPromptPreset != nil:
		if opts.SystemPromptPreset.Append != "" {
			args = append(args, "--append-system-prompt", opts.SystemPromptPreset.Append)
		}
	default:
		args = append(args, "--system-prompt", "")
	}

	if opts.ToolsPreset != nil {
		args = append(args, "--tools", "default")
	} else if opts.Tools != nil {
		args = append(args, "--tools", strings.Join(opts.Tools, ","))
	}
	if len(opts.AllowedTools) > 0 {
		args = append(args, "--allowedTools", strings.Join(opts.AllowedTools, ","))
	}
	if len(opts.DisallowedTools) > 0 {
		args = append(args, "--disallowedTools", strings.Join(opts.DisallowedTools, ","))
	}

	if opts.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(opts.MaxTurns))
	}
	if opts.MaxBudgetUSD != nil {
		args = append(args, "--max-budget-usd", fmt.Sprintf("%g", *opts.MaxBudgetUSD))
	}
	if opts.Model != "" {
		args = append(args, "--model", opts.Model)
	}
	if opts.FallbackModel != "" {
		args = append(args, "--fallback-model", opts.FallbackModel)
	}
	if len(opts.Betas) > 0 {
		betas := make([]string, len(opts.Betas))
		for i, b := range opts.Betas {
			betas[i] = string(b)
		}
		args = append(args, "--betas", strings.Join(betas, ","))
	}

	if opts.PermissionPromptToolName != "" {
		args = append(args, "--permission-prompt-tool", opts.PermissionPromptToolName)
	}
	if opts.PermissionMode != "" {
		args = append(args, "--permission-mode", string(opts.PermissionMode))
	}

	if opts.ContinueConversation {
		args = append(args, "--continue")
	}
	if opts.Resume != "" {
		args = append(args, "--resume", opts.Resume)
	}
	if opts.ForkSession {
		args = append(args, "--fork-session")
	}

	if settings := mergeSettings(opts); settings != "" {
		args = append(args, "--settings", settings)
	}
	for _, dir := range opts.AddDirs {
		args = append(args, "--add-dir", dir)
	}

	args = append(args, mcpConfigArgs(opts)...)

	if opts.IncludePartialMessages {
		args = append(args, "--include-partial-messages")
	}

	if opts.SettingSources != nil {
		sources := make([]string, len(opts.SettingSources))
		for i, s := range opts.SettingSources {
			sources[i] = string(s)
		}
		args = append(args, "--setting-sources", strings.Join(sources, ","))
	} else {
		args = append(args, "--setting-sources", "")
	}

	for _, plugin := range opts.Plugins {
		if plugin.Type == "local" {
			args = append(args, "--plugin-dir", plugin.Path)
		}
	}

	for flag, value := range opts.ExtraArgs {
		if !strings.HasPrefix(flag, "--") {
			flag = "--" + flag
		}
		if value == nil {
			args = append(args, flag)
		} else {
			args = append(args, flag, *value)
		}
	}

	if budget := thinkingBudget(opts); budget != nil {
		args = append(args, "--max-thinking-tokens", strconv.Itoa(*budget))
	}
	if opts.Effort != "" {
		args = append(args, "--effort", string(opts.Effort))
	}

	if opts.OutputFormat != nil {
		if t, _ := opts.OutputFormat["type"].(string); t == "json_schema" {
			if schema, ok := opts.OutputFormat["schema"]; ok {
				data, _ := json.Marshal(schema)
				args = append(args, "--json-schema", string(data))
			}
		}
	}

	if prompt != nil {
		args = append(args, "--print", "--", *prompt)
	} else {
		args = append(args, "--input-format", "stream-json")
	}

	return args
}

// mcpConfigArgs renders the --mcp-config flag. In-process SDK servers are
// stripped down to their type and name; the CLI reaches them back through the
// control protocol, not a spawned process.
func mcpConfigArgs(opts *Options) []string {
	if len(opts.McpServers) == 0 {
		if opts.McpServersPath != "" {
			return []string{"--mcp-config", opts.McpServersPath}
		}
		return nil
	}

	serialized := make(map[string]any, len(opts.McpServers))
	for name, cfg := range opts.McpServers {
		if sdk, ok := cfg.(*McpSDKServerConfig); ok {
			serialized[name] = map[string]any{"type": sdk.Type, "name": sdk.Name}
			continue
		}
		serialized[name] = cfg
	}
	if len(serialized) == 0 {
		return nil
	}
	data, _ := json.Marshal(map[string]any{"mcpServers": serialized})
	return []string{"--mcp-config", string(data)}
}

// mergeSettings combines the Settings value with sandbox settings into one
// JSON payload. With no sandbox the settings string passes through untouched,
// whether it is a path or inline JSON.
func mergeSettings(opts *Options) string {
	if opts.Sandbox == nil {
		return opts.Settings
	}

	merged := map[string]any{}
	if s := strings.TrimSpace(opts.Settings); s != "" {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			_ = json.Unmarshal([]byte(s), &merged)
		} else if data, err := os.ReadFile(s); err == nil {
			_ = json.Unmarshal(data, &merged)
		}
	}
	merged["sandbox"] = opts.Sandbox

	data, _ := json.Marshal(merged)
	return string(data)
}

func thinkingBudget(opts *Options) *int {
	if opts.Thinking == nil {
		return opts.MaxThinkingTokens
	}
	switch tc := opts.Thinking.(type) {
	case *ThinkingAdaptive:
		if opts.MaxThinkingTokens != nil {
			return opts.MaxThinkingTokens
		}
		v := 32000
		return &v
	case *ThinkingEnabled:
		return &tc.BudgetTokens
	case *ThinkingDisabled:
		v := 0
		return &v
	default:
		return opts.MaxThinkingTokens
	}
}
