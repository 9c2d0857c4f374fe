package claudekit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseVersion(t *testing.T) {
	tt := map[string]struct {
		out  string
		want string
	}{
		"bare version":      {"2.1.0", "2.1.0"},
		"version with name": {"2.1.0 (Claude Code)", "2.1.0"},
		"leading text":      {"claude version 2.0.14", "2.0.14"},
		"two segments":      {"2.1", "2.1"},
		"no version":        {"command not found", ""},
		"non-numeric dots":  {"v2.1.0 beta.build", ""},
		"empty":             {"", ""},
	}
	for name, tc := range tt {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseVersion(tc.out))
		})
	}
}

func TestCompareVersions(t *testing.T) {
	tt := map[string]struct {
		a, b string
		want int
	}{
		"equal":                    {"2.0.0", "2.0.0", 0},
		"older patch":              {"2.0.1", "2.0.2", -1},
		"newer minor":              {"2.1.0", "2.0.9", 1},
		"major beats all":          {"3.0.0", "2.99.99", 1},
		"missing segment is zero":  {"2.0", "2.0.0", 0},
		"shorter but newer":        {"2.1", "2.0.5", 1},
		"longer but older":         {"1.9.9.9", "2.0.0", -1},
	}
	for name, tc := range tt {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, compareVersions(tc.a, tc.b))
		})
	}
}

func TestStreamCloseTimeout(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		t.Setenv(envStreamCloseMS, "")
		assert.Equal(t, 60*time.Second, streamCloseTimeout())
	})
	t.Run("override in milliseconds", func(t *testing.T) {
		t.Setenv(envStreamCloseMS, "2500")
		assert.Equal(t, 2500*time.Millisecond, streamCloseTimeout())
	})
	t.Run("fractional milliseconds", func(t *testing.T) {
		t.Setenv(envStreamCloseMS, "0.5")
		assert.Equal(t, 500*time.Microsecond, streamCloseTimeout())
	})
	t.Run("garbage falls back to default", func(t *testing.T) {
		t.Setenv(envStreamCloseMS, "soon")
		assert.Equal(t, 60*time.Second, streamCloseTimeout())
	})
	t.Run("non-positive falls back to default", func(t *testing.T) {
		t.Setenv(envStreamCloseMS, "-100")
		assert.Equal(t, 60*time.Second, streamCloseTimeout())
	})
}
