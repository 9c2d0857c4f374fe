package claudekit

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Version is the SDK version, advertised to the CLI through the child
// process environment.
const Version = "0.1.0"

// minCLIVersion is the oldest CLI this SDK is known to work with. Older
// binaries trigger a warning, not a failure.
const minCLIVersion = "2.0.0"

const (
	envEntrypoint       = "CLAUDE_CODE_ENTRYPOINT"
	envSDKVersion       = "CLAUDE_AGENT_SDK_VERSION"
	envSkipVersionCheck = "CLAUDE_AGENT_SDK_SKIP_VERSION_CHECK"
	envStreamCloseMS    = "CLAUDE_CODE_STREAM_CLOSE_TIMEOUT"
)

// findCLI locates the claude binary: PATH first, then the usual install
// locations. Returning a bare name defers the failure to Connect, where it
// surfaces as a NotFoundError with context.
func findCLI() string {
	if path, err := exec.LookPath("claude"); err == nil {
		return path
	}

	home, _ := os.UserHomeDir()
	for _, loc := range []string{
		filepath.Join(home, ".npm-global/bin/claude"),
		"/usr/local/bin/claude",
		filepath.Join(home, ".local/bin/claude"),
		filepath.Join(home, "node_modules/.bin/claude"),
		filepath.Join(home, ".yarn/bin/claude"),
		filepath.Join(home, ".claude/local/claude"),
	} {
		if info, err := os.Stat(loc); err == nil && !info.IsDir() {
			return loc
		}
	}

	return "claude"
}

// checkCLIVersion probes `claude --version` and warns when the binary is
// older than minCLIVersion. A version mismatch is never fatal, and any probe
// failure is ignored; Connect will report real spawn problems itself.
func checkCLIVersion(ctx context.Context, cliPath string) {
	if os.Getenv(envSkipVersionCheck) != "" {
		return
	}

	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(probeCtx, cliPath, "--version").Output()
	if err != nil {
		return
	}
	version := parseVersion(string(out))
	if version == "" {
		return
	}
	if compareVersions(version, minCLIVersion) < 0 {
		logger().Warn("claude CLI is older than the minimum supported version",
			"version", version, "minimum", minCLIVersion)
	}
}

// parseVersion pulls the first dotted-numeric token out of version output
// like "2.1.0 (Claude Code)".
func parseVersion(out string) string {
	for _, field := range strings.Fields(out) {
		parts := strings.Split(field, ".")
		if len(parts) < 2 {
			continue
		}
		numeric := true
		for _, p := range parts {
			if _, err := strconv.Atoi(p); err != nil {
				numeric = false
				break
			}
		}
		if numeric {
			return field
		}
	}
	return ""
}

// compareVersions compares dotted numeric versions; missing segments count
// as zero.
func compareVersions(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			bv, _ = strconv.Atoi(bs[i])
		}
		if av != bv {
			if av < bv {
				return -1
			}
			return 1
		}
	}
	return 0
}

// streamCloseTimeout resolves the deadline for deferring EndInput until the
// first result, overridable in milliseconds through the environment.
func streamCloseTimeout() time.Duration {
	if raw := os.Getenv(envStreamCloseMS); raw != "" {
		if ms, err := strconv.ParseFloat(raw, 64); err == nil && ms > 0 {
			return time.Duration(ms * float64(time.Millisecond))
		}
	}
	return 60 * time.Second
}
