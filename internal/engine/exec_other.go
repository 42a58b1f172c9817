//go:build !windows

package engine

import "os/exec"

// configurePlatform is a no-op on non-Windows platforms; Unix child
// processes never pop up a console window.
func configurePlatform(cmd *exec.Cmd) {}
