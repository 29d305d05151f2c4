package main

import (
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/alnah/go-scholar/internal/runner"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now       func() time.Time
	Stdout    io.Writer
	Stderr    io.Writer
	LookupEnv func(string) (string, bool)
	Environ   func() []string
	Stat      func(string) (fs.FileInfo, error)
	LookPath  func(string) (string, error)

	// WorkDir is the directory relative paths are resolved against.
	WorkDir string

	// Runner executes external programs. Nil runs the real ones.
	Runner runner.Runner
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	wd, err := os.Getwd()
	if err != nil {
		wd = "."
	}
	return &Environment{
		Now:       time.Now,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		LookupEnv: os.LookupEnv,
		Environ:   os.Environ,
		Stat:      os.Stat,
		LookPath:  exec.LookPath,
		WorkDir:   wd,
	}
}

func (e *Environment) abs(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(e.WorkDir, p)
}
