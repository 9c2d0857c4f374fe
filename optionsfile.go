package claudekit

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// optionsFile is the YAML shape accepted by LoadOptionsFile. Only the
// declarative subset of Options is representable; callbacks, hooks, and
// in-process tool servers must be wired in code.
type optionsFile struct {
	Model              string                    `yaml:"model"`
	FallbackModel      string                    `yaml:"fallback_model"`
	SystemPrompt       *string                   `yaml:"system_prompt"`
	AppendSystemPrompt string                    `yaml:"append_system_prompt"`
	PermissionMode     string                    `yaml:"permission_mode"`
	AllowedTools       []string                  `yaml:"allowed_tools"`
	DisallowedTools    []string                  `yaml:"disallowed_tools"`
	MaxTurns           int                       `yaml:"max_turns"`
	MaxBudgetUSD       *float64                  `yaml:"max_budget_usd"`
	Cwd                string                    `yaml:"cwd"`
	CLIPath            string                    `yaml:"cli_path"`
	Settings           string                    `yaml:"settings"`
	AddDirs            []string                  `yaml:"add_dirs"`
	Env                map[string]string         `yaml:"env"`
	McpServers         map[string]mcpServerEntry `yaml:"mcp_servers"`
}

type mcpServerEntry struct {
	Type    string            `yaml:"type"` // "stdio" (default), "sse", "http"
	Command string            `yaml:"command"`
	Args    []string          `yaml:"args"`
	Env     map[string]string `yaml:"env"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
}

// LoadOptionsFile reads a YAML options file and returns the equivalent
// functional options, composable with programmatic ones:
//
//	fileOpts, err := claudekit.LoadOptionsFile("agent.yaml")
//	...
//	client := claudekit.NewClient(append(fileOpts, claudekit.WithModel("..."))...)
func LoadOptionsFile(path string) ([]Option, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read options file: %w", err)
	}

	var file optionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse options file %s: %w", path, err)
	}
	return file.toOptions(path)
}

func (f *optionsFile) toOptions(path string) ([]Option, error) {
	var opts []Option

	if f.Model != "" {
		opts = append(opts, WithModel(f.Model))
	}
	if f.FallbackModel != "" {
		opts = append(opts, WithFallbackModel(f.FallbackModel))
	}
	if f.SystemPrompt != nil {
		opts = append(opts, WithSystemPrompt(*f.SystemPrompt))
	}
	if f.AppendSystemPrompt != "" {
		if f.SystemPrompt != nil {
			return nil, fmt.Errorf("options file %s: system_prompt and append_system_prompt are mutually exclusive", path)
		}
		opts = append(opts, WithSystemPromptPreset(SystemPromptPreset{
			Type:   "preset",
			Preset: "claude_code",
			Append: f.AppendSystemPrompt,
		}))
	}
	if f.PermissionMode != "" {
		switch mode := PermissionMode(f.PermissionMode); mode {
		case PermissionDefault, PermissionAcceptEdits, PermissionPlan, PermissionBypassPermissions:
			opts = append(opts, WithPermissionMode(mode))
		default:
			return nil, fmt.Errorf("options file %s: unknown permission_mode %q", path, f.PermissionMode)
		}
	}
	if f.AllowedTools != nil {
		opts = append(opts, WithAllowedTools(f.AllowedTools...))
	}
	if f.DisallowedTools != nil {
		opts = append(opts, WithDisallowedTools(f.DisallowedTools...))
	}
	if f.MaxTurns > 0 {
		opts = append(opts, WithMaxTurns(f.MaxTurns))
	}
	if f.MaxBudgetUSD != nil {
		opts = append(opts, WithMaxBudgetUSD(*f.MaxBudgetUSD))
	}
	if f.Cwd != "" {
		opts = append(opts, WithCwd(f.Cwd))
	}
	if f.CLIPath != "" {
		opts = append(opts, WithCLIPath(f.CLIPath))
	}
	if f.Settings != "" {
		opts = append(opts, WithSettings(f.Settings))
	}
	if f.AddDirs != nil {
		opts = append(opts, WithAddDirs(f.AddDirs...))
	}
	if f.Env != nil {
		opts = append(opts, WithEnv(f.Env))
	}

	if len(f.McpServers) > 0 {
		servers := make(map[string]McpServerConfig, len(f.McpServers))
		for name, entry := range f.McpServers {
			cfg, err := entry.toConfig()
			if err != nil {
				return nil, fmt.Errorf("options file %s: mcp server %q: %w", path, name, err)
			}
			servers[name] = cfg
		}
		opts = append(opts, WithMcpServers(servers))
	}

	return opts, nil
}

func (e *mcpServerEntry) toConfig() (McpServerConfig, error) {
	switch e.Type {
	case "", "stdio":
		if e.Command == "" {
			return nil, fmt.Errorf("stdio server requires a command")
		}
		return &McpStdioServerConfig{Type: "stdio", Command: e.Command, Args: e.Args, Env: e.Env}, nil
	case "sse":
		if e.URL == "" {
			return nil, fmt.Errorf("sse server requires a url")
		}
		return &McpSSEServerConfig{Type: "sse", URL: e.URL, Headers: e.Headers}, nil
	case "http":
		if e.URL == "" {
			return nil, fmt.Errorf("http server requires a url")
		}
		return &McpHTTPServerConfig{Type: "http", URL: e.URL, Headers: e.Headers}, nil
	default:
		return nil, fmt.Errorf("unknown server type %q", e.Type)
	}
}
