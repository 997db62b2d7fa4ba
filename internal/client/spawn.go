package client

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
)

// ExecSpawner returns a Spawner that re-executes the running binary as
// "daemon" followed by extraArgs, detached from the client's session. The
// daemon's output is appended to logPath, or discarded when it is empty.
func ExecSpawner(extraArgs []string, logPath string) Spawner {
	return func() error {
		exe, err := os.Executable()
		if err != nil {
			return err
		}
		args := append([]string{"daemon"}, extraArgs...)
		cmd := exec.Command(exe, args...)
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

		if logPath != "" {
			if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
				return err
			}
			out, err := os.OpenFile(logPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
			if err != nil {
				return err
			}
			defer out.Close()
			cmd.Stdout = out
			cmd.Stderr = out
		}

		if err := cmd.Start(); err != nil {
			return err
		}
		return cmd.Process.Release()
	}
}
