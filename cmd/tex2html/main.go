package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/alnah/go-tex2html/internal/config"
	"github.com/alnah/go-tex2html/internal/fileutil"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Configure GOMAXPROCS with conditional logging
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if hasVerboseFlag(os.Args[1:]) {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches a command line and returns the process exit code.
// A first argument that is a flag or looks like a source file runs convert.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitUsage
	}

	cmd, rest := args[1], args[2:]
	switch {
	case cmd == "convert":
		return runConvertCmd(rest, env)
	case cmd == "version" || cmd == "--version":
		fmt.Fprintf(env.Stdout, "tex2html %s\n", Version)
		return ExitSuccess
	case cmd == "help" || cmd == "-h" || cmd == "--help":
		runHelp(rest, env)
		return ExitSuccess
	case cmd == "styles":
		runStyles(env)
		return ExitSuccess
	case cmd == "config":
		return exitWith(runConfigCmd(rest, env), env)
	case strings.HasPrefix(cmd, "-") || looksLikeSource(cmd):
		return runConvertCmd(args[1:], env)
	default:
		err := fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
		fmt.Fprintln(env.Stderr, err)
		printUsage(env.Stderr)
		return exitCodeFor(err)
	}
}

// runConvertCmd parses convert flags and runs the conversion under a
// signal-aware context.
func runConvertCmd(args []string, env *Environment) int {
	flags, positional, err := parseConvertFlags(args, env.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return exitWith(fmt.Errorf("%w: %v", ErrInvalidFlag, err), env)
	}

	ctx, stop := withInterrupt(context.Background())
	defer stop()

	return exitWith(runConvert(ctx, positional, flags, env), env)
}

// exitWith prints err, if any, and maps it to an exit code.
func exitWith(err error, env *Environment) int {
	if err != nil {
		fmt.Fprintln(env.Stderr, err)
	}
	return exitCodeFor(err)
}

// isCommand reports whether s names a subcommand.
func isCommand(s string) bool {
	switch s {
	case "convert", "version", "help", "styles", "config":
		return true
	}
	return false
}

// looksLikeSource reports whether s is a source file path or an existing
// directory, so "tex2html notes.tex" works without "convert".
func looksLikeSource(s string) bool {
	if isCommand(s) {
		return false
	}
	if fileutil.HasExtension(s, config.DefaultExtensions) {
		return true
	}
	info, err := os.Stat(s)
	return err == nil && info.IsDir()
}
