package claudekit

// Declarative configuration records serialized into CLI flags as-is.

// SettingSource names a settings scope the CLI may load.
type SettingSource string

const (
	SettingSourceUser    SettingSource = "user"
	SettingSourceProject SettingSource = "project"
	SettingSourceLocal   SettingSource = "local"
)

// AgentDefinition declares a custom subagent.
type AgentDefinition struct {
	Description string   `json:"description"`
	Prompt      string   `json:"prompt"`
	Tools       []string `json:"tools,omitempty"`
	Model       string   `json:"model,omitempty"` // "sonnet", "opus", "haiku", "inherit"
}

// SystemPromptPreset selects a named system prompt, optionally appending to it.
type SystemPromptPreset struct {
	Type   string `json:"type"`   // "preset"
	Preset string `json:"preset"` // "claude_code"
	Append string `json:"append,omitempty"`
}

// ToolsPreset selects a named tool set.
type ToolsPreset struct {
	Type   string `json:"type"`   // "preset"
	Preset string `json:"preset"` // "claude_code"
}

// PluginConfig loads a plugin from a local path.
type PluginConfig struct {
	Type string `json:"type"` // "local"
	Path string `json:"path"`
}

// Beta names an opt-in beta feature.
type Beta string

const (
	BetaContext1M Beta = "context-1m-2025-08-07"
)

// ThinkingConfig is a sealed interface over the thinking modes.
type ThinkingConfig interface {
	thinkingMode() string
}

// ThinkingAdaptive lets the model decide how much to think.
type ThinkingAdaptive struct{}

func (*ThinkingAdaptive) thinkingMode() string { return "adaptive" }

// ThinkingEnabled thinks within a fixed token budget.
type ThinkingEnabled struct {
	BudgetTokens int `json:"budget_tokens"`
}

func (*ThinkingEnabled) thinkingMode() string { return "enabled" }

// ThinkingDisabled turns thinking off.
type ThinkingDisabled struct{}

func (*ThinkingDisabled) thinkingMode() string { return "disabled" }

// Effort tunes thinking depth.
type Effort string

const (
	EffortLow    Effort = "low"
	EffortMedium Effort = "medium"
	EffortHigh   Effort = "high"
	EffortMax    Effort = "max"
)

// SandboxNetworkConfig controls network reachability inside the sandbox.
type SandboxNetworkConfig struct {
	AllowUnixSockets    []string `json:"allowUnixSockets,omitempty"`
	AllowAllUnixSockets *bool    `json:"allowAllUnixSockets,omitempty"`
	AllowLocalBinding   *bool    `json:"allowLocalBinding,omitempty"`
	HTTPProxyPort       *int     `json:"httpProxyPort,omitempty"`
	SocksProxyPort      *int     `json:"socksProxyPort,omitempty"`
}

// SandboxIgnoreViolations lists violations to tolerate.
type SandboxIgnoreViolations struct {
	File    []string `json:"file,omitempty"`
	Network []string `json:"network,omitempty"`
}

// SandboxSettings configures bash command isolation; merged into the
// --settings payload.
type SandboxSettings struct {
	Enabled                  *bool                    `json:"enabled,omitempty"`
	AutoAllowBashIfSandboxed *bool                    `json:"autoAllowBashIfSandboxed,omitempty"`
	ExcludedCommands         []string                 `json:"excludedCommands,omitempty"`
	AllowedDomains           []string                 `json:"allowedDomains,omitempty"`
	Network                  *SandboxNetworkConfig    `json:"network,omitempty"`
	IgnoreViolations         *SandboxIgnoreViolations `json:"ignoreViolations,omitempty"`
}
