//go:build windows

package engine

import (
	"os/exec"
	"syscall"
)

// createNoWindow is CREATE_NO_WINDOW, mirroring engine/process.rs's
// cfg(windows) CREATE_NO_WINDOW constant.
const createNoWindow = 0x08000000

// configurePlatform requests that Windows not pop up a console window for
// the spawned engine subprocess.
func configurePlatform(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
}
