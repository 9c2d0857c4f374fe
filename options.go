package claudekit

// Options collects every knob for one-shot queries and interactive clients.
// Most fields translate directly into CLI flags; see args.go for the mapping.
type Options struct {
	// Tools is the base tool set. An empty non-nil slice disables all tools.
	Tools []string

	// ToolsPreset selects a named preset instead of an explicit list.
	ToolsPreset *ToolsPreset

	// AllowedTools are auto-approved tools.
	AllowedTools []string

	// DisallowedTools are always rejected.
	DisallowedTools []string

	// SystemPrompt replaces the default system prompt. Pointing at an empty
	// string clears it.
	SystemPrompt *string

	// SystemPromptPreset selects a preset, optionally with appended text.
	SystemPromptPreset *SystemPromptPreset

	// McpServers maps server names to configurations.
	McpServers map[string]McpServerConfig

	// McpServersPath is a config file path or raw JSON alternative to
	// McpServers.
	McpServersPath string

	// PermissionMode is the initial permission mode.
	PermissionMode PermissionMode

	// PermissionPromptToolName routes permission prompts to a named tool.
	PermissionPromptToolName string

	// CanUseTool is invoked for every tool permission check. Requires a
	// streaming session.
	CanUseTool CanUseToolFunc

	// Hooks maps lifecycle events to matcher configurations.
	Hooks map[HookEvent][]HookMatcher

	// ContinueConversation resumes the most recent conversation.
	ContinueConversation bool

	// Resume resumes a specific session by ID.
	Resume string

	// ForkSession gives a resumed session a fresh session ID.
	ForkSession bool

	// MaxTurns caps conversation turns; zero means no cap.
	MaxTurns int

	// MaxBudgetUSD caps spend for the session.
	MaxBudgetUSD *float64

	// Model selects the model, FallbackModel the overload fallback.
	Model         string
	FallbackModel string

	// Betas opts into beta features.
	Betas []Beta

	// Cwd is the CLI working directory.
	Cwd string

	// CLIPath overrides binary discovery.
	CLIPath string

	// Settings is a settings file path or raw JSON.
	Settings string

	// AddDirs grants access to additional directories.
	AddDirs []string

	// Env adds environment variables to the child process only.
	Env map[string]string

	// User runs the CLI as another OS user (unix only).
	User string

	// ExtraArgs passes arbitrary flags; a nil value means a boolean flag.
	ExtraArgs map[string]*string

	// MaxBufferSize caps the stdout framing buffer.
	MaxBufferSize int

	// MessageBuffer is the capacity of the delivered-message channel; a full
	// channel throttles the read loop. Zero means the default of 100.
	MessageBuffer int

	// Stderr receives the CLI's stderr line by line when set.
	Stderr func(line string)

	// IncludePartialMessages turns on stream_event delivery.
	IncludePartialMessages bool

	// Agents defines custom subagents.
	Agents map[string]AgentDefinition

	// SettingSources restricts which setting scopes the CLI loads.
	SettingSources []SettingSource

	// Sandbox configures command sandboxing; merged into Settings.
	Sandbox *SandboxSettings

	// Plugins loads local plugins.
	Plugins []PluginConfig

	// Thinking configures extended thinking; MaxThinkingTokens is the
	// deprecated direct knob.
	Thinking          ThinkingConfig
	MaxThinkingTokens *int

	// Effort tunes thinking depth.
	Effort Effort

	// OutputFormat requests structured output (e.g. a JSON schema).
	OutputFormat map[string]any

	// EnableFileCheckpointing turns on file checkpointing, required for
	// RewindFiles.
	EnableFileCheckpointing bool
}

// Option mutates Options in the functional-options style.
type Option func(*Options)

func applyOptions(opts []Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithTools sets the base tool set.
func WithTools(tools ...string) Option {
	return func(o *Options) {
		o.Tools = tools
		o.ToolsPreset = nil
	}
}

// WithToolsPreset selects a tools preset.
func WithToolsPreset(preset ToolsPreset) Option {
	return func(o *Options) {
		o.ToolsPreset = &preset
		o.Tools = nil
	}
}

// WithAllowedTools sets auto-approved tools.
func WithAllowedTools(tools ...string) Option {
	return func(o *Options) { o.AllowedTools = tools }
}

// WithDisallowedTools sets rejected tools.
func WithDisallowedTools(tools ...string) Option {
	return func(o *Options) { o.DisallowedTools = tools }
}

// WithSystemPrompt replaces the system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = &prompt
		o.SystemPromptPreset = nil
	}
}

// WithSystemPromptPreset selects a system prompt preset.
func WithSystemPromptPreset(preset SystemPromptPreset) Option {
	return func(o *Options) {
		o.SystemPromptPreset = &preset
		o.SystemPrompt = nil
	}
}

// WithMcpServers sets MCP server configurations.
func WithMcpServers(servers map[string]McpServerConfig) Option {
	return func(o *Options) {
		o.McpServers = servers
		o.McpServersPath = ""
	}
}

// WithMcpServersPath points at an MCP config file or raw JSON.
func WithMcpServersPath(pathOrJSON string) Option {
	return func(o *Options) {
		o.McpServersPath = pathOrJSON
		o.McpServers = nil
	}
}

// WithPermissionMode sets the initial permission mode.
func WithPermissionMode(mode PermissionMode) Option {
	return func(o *Options) { o.PermissionMode = mode }
}

// WithPermissionPromptToolName routes permission prompts to a tool.
func WithPermissionPromptToolName(name string) Option {
	return func(o *Options) { o.PermissionPromptToolName = name }
}

// WithCanUseTool registers the permission callback.
func WithCanUseTool(fn CanUseToolFunc) Option {
	return func(o *Options) { o.CanUseTool = fn }
}

// WithHooks registers hook matchers.
func WithHooks(hooks map[HookEvent][]HookMatcher) Option {
	return func(o *Options) { o.Hooks = hooks }
}

// WithContinueConversation resumes the latest conversation.
func WithContinueConversation() Option {
	return func(o *Options) { o.ContinueConversation = true }
}

// WithResume resumes a session by ID.
func WithResume(sessionID string) Option {
	return func(o *Options) { o.Resume = sessionID }
}

// WithForkSession forks resumed sessions.
func WithForkSession() Option {
	return func(o *Options) { o.ForkSession = true }
}

// WithMaxTurns caps conversation turns.
func WithMaxTurns(n int) Option {
	return func(o *Options) { o.MaxTurns = n }
}

// WithMaxBudgetUSD caps session spend.
func WithMaxBudgetUSD(budget float64) Option {
	return func(o *Options) { o.MaxBudgetUSD = &budget }
}

// WithModel selects the model.
func WithModel(model string) Option {
	return func(o *Options) { o.Model = model }
}

// WithFallbackModel selects the overload fallback model.
func WithFallbackModel(model string) Option {
	return func(o *Options) { o.FallbackModel = model }
}

// WithBetas opts into beta features.
func WithBetas(betas ...Beta) Option {
	return func(o *Options) { o.Betas = betas }
}

// WithCwd sets the CLI working directory.
func WithCwd(cwd string) Option {
	return func(o *Options) { o.Cwd = cwd }
}

// WithCLIPath overrides CLI binary discovery.
func WithCLIPath(path string) Option {
	return func(o *Options) { o.CLIPath = path }
}

// WithSettings sets the settings file path or raw JSON.
func WithSettings(settings string) Option {
	return func(o *Options) { o.Settings = settings }
}

// WithAddDirs grants access to additional directories.
func WithAddDirs(dirs ...string) Option {
	return func(o *Options) { o.AddDirs = dirs }
}

// WithEnv adds environment variables to the child process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) { o.Env = env }
}

// WithUser runs the CLI as another OS user.
func WithUser(user string) Option {
	return func(o *Options) { o.User = user }
}

// WithExtraArgs passes arbitrary CLI flags.
func WithExtraArgs(args map[string]*string) Option {
	return func(o *Options) { o.ExtraArgs = args }
}

// WithMaxBufferSize caps the stdout framing buffer.
func WithMaxBufferSize(size int) Option {
	return func(o *Options) { o.MaxBufferSize = size }
}

// WithMessageBuffer sets the delivered-message channel capacity.
func WithMessageBuffer(n int) Option {
	return func(o *Options) { o.MessageBuffer = n }
}

// WithStderr receives the CLI's stderr line by line.
func WithStderr(fn func(string)) Option {
	return func(o *Options) { o.Stderr = fn }
}

// WithIncludePartialMessages turns on stream_event delivery.
func WithIncludePartialMessages() Option {
	return func(o *Options) { o.IncludePartialMessages = true }
}

// WithAgents defines custom subagents.
func WithAgents(agents map[string]AgentDefinition) Option {
	return func(o *Options) { o.Agents = agents }
}

// WithSettingSources restricts setting scopes.
func WithSettingSources(sources ...SettingSource) Option {
	return func(o *Options) { o.SettingSources = sources }
}

// WithSandbox configures command sandboxing.
func WithSandbox(sandbox *SandboxSettings) Option {
	return func(o *Options) { o.Sandbox = sandbox }
}

// WithPlugins loads local plugins.
func WithPlugins(plugins ...PluginConfig) Option {
	return func(o *Options) { o.Plugins = plugins }
}

// WithThinking configures extended thinking.
func WithThinking(config ThinkingConfig) Option {
	return func(o *Options) { o.Thinking = config }
}

// WithMaxThinkingTokens sets the deprecated direct thinking budget.
func WithMaxThinkingTokens(tokens int) Option {
	return func(o *Options) { o.MaxThinkingTokens = &tokens }
}

// WithEffort tunes thinking depth.
func WithEffort(effort Effort) Option {
	return func(o *Options) { o.Effort = effort }
}

// WithOutputFormat requests structured output.
func WithOutputFormat(format map[string]any) Option {
	return func(o *Options) { o.OutputFormat = format }
}

// WithEnableFileCheckpointing turns on file checkpointing.
func WithEnableFileCheckpointing() Option {
	return func(o *Options) { o.EnableFileCheckpointing = true }
}

// sdkServers extracts the in-process tool servers from the MCP config.
func (o *Options) sdkServers() map[string]*ToolServer {
	servers := make(map[string]*ToolServer)
	for name, cfg := range o.McpServers {
		if sdk, ok := cfg.(*McpSDKServerConfig); ok && sdk.Server != nil {
			servers[name] = sdk.Server
		}
	}
	return servers
}
