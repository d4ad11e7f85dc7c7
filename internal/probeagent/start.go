package probeagent

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
)

// StartDetached re-executes the current binary with `run --foreground`,
// redirecting stdio to probe.log, and records its PID -- the detach step
// spec.md section 4.5 describes for `run` without --foreground.
func StartDetached() error {
	running, pid, err := Status()
	if err != nil {
		return err
	}
	if running {
		return fmt.Errorf("probe agent already running (pid %d)", pid)
	}

	logFile, err := logPath()
	if err != nil {
		return err
	}
	log, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	defer log.Close()

	exe, err := os.Executable()
	if err != nil {
		return err
	}

	cmd := exec.Command(exe, "run", "--foreground")
	cmd.Stdout = log
	cmd.Stderr = log
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return err
	}
	return writePID(cmd.Process.Pid)
}
