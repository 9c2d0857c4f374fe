//go:build !unix

package claudekit

import (
	"fmt"
	"os/exec"
)

func setProcessUser(cmd *exec.Cmd, username string) error {
	if username == "" {
		return nil
	}
	return fmt.Errorf("running the CLI as user %q is not supported on this platform", username)
}
