//go:build !windows

package daemon

import (
	"fmt"
	"syscall"
)

// Alive reports the stored PID and whether that process still exists.
// A missing or unreadable file counts as not running.
func (p *PIDFile) Alive() (int, bool) {
	pid, err := p.Read()
	if err != nil {
		return 0, false
	}
	// kill(pid, 0) probes for existence without delivering a signal.
	return pid, syscall.Kill(pid, 0) == nil
}

// Signal delivers sig to the process recorded in the file.
func (p *PIDFile) Signal(sig syscall.Signal) error {
	pid, err := p.Read()
	if err != nil {
		return fmt.Errorf("read PID file: %w", err)
	}
	return syscall.Kill(pid, sig)
}
