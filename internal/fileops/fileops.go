// Package fileops provides the file operations the archiver loop depends on:
// compressing a capture in place, checking and creating archive directories,
// and moving compressed files. The Ops interface exists so the loop can be
// driven against a fake in tests; ExecOps preserves the daemon's historical
// behavior of shelling out to gzip, mkdir and mv.
package fileops

import (
	"fmt"
	"os"
	"os/exec"
)

// Ops is the set of file operations the archiver loop performs.
type Ops interface {
	// Compress compresses the file in place, consuming the original and
	// producing a sibling named path + Suffix(). On error the original is
	// left untouched.
	Compress(path string) error
	// DirExists reports whether path exists and is a directory.
	DirExists(path string) bool
	// MkdirAll creates the directory and any missing parents.
	MkdirAll(path string) error
	// Move moves the file from src to dst.
	Move(src, dst string) error
	// Suffix returns the filename suffix compressed files carry, e.g. ".gz".
	Suffix() string
}

// ExecOps implements Ops by invoking external gzip, mkdir and mv utilities.
type ExecOps struct {
	gzip  string
	mkdir string
	mv    string
	level int
}

// NewExecOps resolves the external utilities and returns an ExecOps using
// the given gzip compression level (1-9).
func NewExecOps(level int) (*ExecOps, error) {
	if level < 1 || level > 9 {
		return nil, fmt.Errorf("compression level must be between 1 and 9, got %d", level)
	}

	gzip, err := exec.LookPath("gzip")
	if err != nil {
		return nil, fmt.Errorf("gzip not found: %w", err)
	}
	mkdir, err := exec.LookPath("mkdir")
	if err != nil {
		return nil, fmt.Errorf("mkdir not found: %w", err)
	}
	mv, err := exec.LookPath("mv")
	if err != nil {
		return nil, fmt.Errorf("mv not found: %w", err)
	}

	return &ExecOps{gzip: gzip, mkdir: mkdir, mv: mv, level: level}, nil
}

func (e *ExecOps) Compress(path string) error {
	return run(e.gzip, fmt.Sprintf("-%d", e.level), path)
}

func (e *ExecOps) DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (e *ExecOps) MkdirAll(path string) error {
	return run(e.mkdir, "-p", path)
}

func (e *ExecOps) Move(src, dst string) error {
	return run(e.mv, src, dst)
}

func (e *ExecOps) Suffix() string {
	return ".gz"
}

// run invokes the utility and waits for it; a non-zero exit is an error.
// Invocations are deliberately not tied to a context: an in-flight utility
// is allowed to finish even while the daemon is shutting down.
func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %v: %w", name, args, err)
	}
	return nil
}
