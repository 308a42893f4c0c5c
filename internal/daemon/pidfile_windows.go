//go:build windows

package daemon

import (
	"fmt"
	"os"
	"syscall"
)

// Alive reports the stored PID and whether that process still exists.
// A missing or unreadable file counts as not running.
func (p *PIDFile) Alive() (int, bool) {
	pid, err := p.Read()
	if err != nil {
		return 0, false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, false
	}
	// FindProcess succeeds for any PID on Windows; probing with a
	// zero signal tells dead from alive.
	return pid, proc.Signal(syscall.Signal(0)) == nil
}

// Signal delivers sig to the process recorded in the file. Windows
// only honors os.Kill reliably.
func (p *PIDFile) Signal(sig syscall.Signal) error {
	pid, err := p.Read()
	if err != nil {
		return fmt.Errorf("read PID file: %w", err)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("find process %d: %w", pid, err)
	}
	return proc.Signal(sig)
}
