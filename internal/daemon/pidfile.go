package daemon

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
)

// PIDFile tracks a background server process through a file holding
// its PID. The file lives in the state directory next to the server
// log so `serve --stop` and `serve --status` can find the process
// started by `serve --daemon`.
type PIDFile struct {
	Path string
}

// New returns a PIDFile at the given path. Nothing is written until
// Write is called.
func New(path string) *PIDFile {
	return &PIDFile{Path: path}
}

// Write records the given PID, replacing any previous content.
func (p *PIDFile) Write(pid int) error {
	return os.WriteFile(p.Path, []byte(strconv.Itoa(pid)+"\n"), 0o600)
}

// Read returns the PID stored in the file.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(string(bytes.TrimSpace(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID file %s: %w", p.Path, err)
	}
	return pid, nil
}

// Remove deletes the file. A missing file is not an error, so stale
// cleanup paths can call it unconditionally.
func (p *PIDFile) Remove() error {
	err := os.Remove(p.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
