package claudekit

import "context"

// PermissionMode controls how the CLI gates tool execution.
type PermissionMode string

const (
	PermissionDefault           PermissionMode = "default"
	PermissionAcceptEdits       PermissionMode = "acceptEdits"
	PermissionPlan              PermissionMode = "plan"
	PermissionBypassPermissions PermissionMode = "bypassPermissions"
)

// PermissionBehavior is the action a permission rule takes.
type PermissionBehavior string

const (
	PermissionBehaviorAllow PermissionBehavior = "allow"
	PermissionBehaviorDeny  PermissionBehavior = "deny"
	PermissionBehaviorAsk   PermissionBehavior = "ask"
)

// PermissionUpdateDestination is the settings store a permission update
// applies to.
type PermissionUpdateDestination string

const (
	PermissionDestUserSettings    PermissionUpdateDestination = "userSettings"
	PermissionDestProjectSettings PermissionUpdateDestination = "projectSettings"
	PermissionDestLocalSettings   PermissionUpdateDestination = "localSettings"
	PermissionDestSession         PermissionUpdateDestination = "session"
)

// PermissionUpdateType discriminates the kinds of permission updates.
type PermissionUpdateType string

const (
	PermissionUpdateAddRules          PermissionUpdateType = "addRules"
	PermissionUpdateReplaceRules      PermissionUpdateType = "replaceRules"
	PermissionUpdateRemoveRules       PermissionUpdateType = "removeRules"
	PermissionUpdateSetMode           PermissionUpdateType = "setMode"
	PermissionUpdateAddDirectories    PermissionUpdateType = "addDirectories"
	PermissionUpdateRemoveDirectories PermissionUpdateType = "removeDirectories"
)

// PermissionRuleValue is one rule inside a rule-based permission update.
type PermissionRuleValue struct {
	ToolName    string `json:"toolName"`
	RuleContent string `json:"ruleContent,omitempty"`
}

// PermissionUpdate is a tagged union over the update kinds; Type decides
// which of the remaining fields are meaningful.
type PermissionUpdate struct {
	Type        PermissionUpdateType        `json:"type"`
	Rules       []PermissionRuleValue       `json:"rules,omitempty"`
	Behavior    PermissionBehavior          `json:"behavior,omitempty"`
	Mode        PermissionMode              `json:"mode,omitempty"`
	Directories []string                    `json:"directories,omitempty"`
	Destination PermissionUpdateDestination `json:"destination,omitempty"`
}

// wire renders the update in the CLI's control-protocol shape, emitting only
// the fields that belong to the update's type.
func (p *PermissionUpdate) wire() map[string]any {
	out := map[string]any{"type": string(p.Type)}
	if p.Destination != "" {
		out["destination"] = string(p.Destination)
	}
	switch p.Type {
	case PermissionUpdateAddRules, PermissionUpdateReplaceRules, PermissionUpdateRemoveRules:
		if len(p.Rules) > 0 {
			rules := make([]map[string]any, len(p.Rules))
			for i, rule := range p.Rules {
				rules[i] = map[string]any{
					"toolName":    rule.ToolName,
					"ruleContent": rule.RuleContent,
				}
			}
			out["rules"] = rules
		}
		if p.Behavior != "" {
			out["behavior"] = string(p.Behavior)
		}
	case PermissionUpdateSetMode:
		if p.Mode != "" {
			out["mode"] = string(p.Mode)
		}
	case PermissionUpdateAddDirectories, PermissionUpdateRemoveDirectories:
		if len(p.Directories) > 0 {
			out["directories"] = p.Directories
		}
	}
	return out
}

// ToolPermissionContext accompanies a permission callback invocation.
type ToolPermissionContext struct {
	Signal      any // reserved for abort signal support
	Suggestions []PermissionUpdate
}

// PermissionResult is a sealed interface over allow and deny outcomes.
type PermissionResult interface {
	permissionResult() string
}

// PermissionAllow permits the tool call, optionally with rewritten input
// and/or permission updates to apply.
type PermissionAllow struct {
	UpdatedInput       map[string]any
	UpdatedPermissions []PermissionUpdate
}

func (*PermissionAllow) permissionResult() string { return "allow" }

// PermissionDeny rejects the tool call. Interrupt additionally stops the
// current turn.
type PermissionDeny struct {
	Message   string
	Interrupt bool
}

func (*PermissionDeny) permissionResult() string { return "deny" }

// CanUseToolFunc decides whether a tool invocation requested by the CLI may
// proceed.
type CanUseToolFunc func(ctx context.Context, toolName string, input map[string]any, permCtx ToolPermissionContext) (PermissionResult, error)
