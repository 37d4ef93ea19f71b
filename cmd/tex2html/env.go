package main

import (
	"io"
	"os"
	"time"
)

// Environment is the process surface a tex2html run touches: the clock for
// \today, the output streams and the TEX2HTML_* variables.
type Environment struct {
	Now    func() time.Time
	Stdout io.Writer
	Stderr io.Writer

	// Getenv and Environ read the process environment. Nil falls back to
	// the os package.
	Getenv  func(key string) string
	Environ func() []string
}

// DefaultEnv returns the environment of the running process.
func DefaultEnv() *Environment {
	return &Environment{
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Environ: os.Environ,
	}
}

func (e *Environment) getenv(key string) string {
	if e.Getenv == nil {
		return os.Getenv(key)
	}
	return e.Getenv(key)
}

func (e *Environment) environ() []string {
	if e.Environ == nil {
		return os.Environ()
	}
	return e.Environ()
}
