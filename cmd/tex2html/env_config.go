package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/alnah/go-tex2html/internal/config"
	"github.com/alnah/go-tex2html/internal/hints"
)

// envPrefix marks the environment variables read by the CLI.
const envPrefix = "TEX2HTML_"

// envConfig holds configuration from environment variables.
// Provides CI-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // TEX2HTML_CONFIG: config file name or path
	Style      string // TEX2HTML_STYLE: style name, CSS path, or inline CSS
	Workers    int    // TEX2HTML_WORKERS: parallel workers

	InputDir   string // TEX2HTML_INPUT_DIR: default input directory
	OutputDir  string // TEX2HTML_OUTPUT_DIR: default output directory
	Format     string // TEX2HTML_FORMAT: html, json, markdown
	Lang       string // TEX2HTML_LANG: page language
	DateFormat string // TEX2HTML_DATE_FORMAT: \today format
}

// knownEnvVars lists valid TEX2HTML_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	hints.ConfigEnv:        true,
	"TEX2HTML_STYLE":       true,
	"TEX2HTML_WORKERS":     true,
	"TEX2HTML_INPUT_DIR":   true,
	"TEX2HTML_OUTPUT_DIR":  true,
	"TEX2HTML_FORMAT":      true,
	"TEX2HTML_LANG":        true,
	"TEX2HTML_DATE_FORMAT": true,
}

// loadEnvConfig reads configuration from the environment's variables.
func loadEnvConfig(env *Environment) *envConfig {
	cfg := &envConfig{
		ConfigPath: env.getenv(hints.ConfigEnv),
		Style:      env.getenv("TEX2HTML_STYLE"),
		InputDir:   env.getenv("TEX2HTML_INPUT_DIR"),
		OutputDir:  env.getenv("TEX2HTML_OUTPUT_DIR"),
		Format:     env.getenv("TEX2HTML_FORMAT"),
		Lang:       env.getenv("TEX2HTML_LANG"),
		DateFormat: env.getenv("TEX2HTML_DATE_FORMAT"),
	}

	// Invalid counts are ignored; the config or auto sizing applies instead.
	if workers := env.getenv("TEX2HTML_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized TEX2HTML_* variables
// among environ's KEY=value pairs, such as TEX2HTML_WORKER for
// TEX2HTML_WORKERS.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	var unknown []string
	for _, env := range environ {
		if !strings.HasPrefix(env, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
	}
}

// applyEnvConfig applies environment variable values to config.
// Only sets values if the env var is set AND the config value is empty/zero.
// This ensures: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags)
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Style != "" && cfg.Page.Style == "" {
		cfg.Page.Style = env.Style
	}
	if env.Workers > 0 && cfg.Workers == 0 {
		cfg.Workers = env.Workers
	}
	if env.InputDir != "" && cfg.Input.DefaultDir == "" {
		cfg.Input.DefaultDir = env.InputDir
	}
	if env.OutputDir != "" && cfg.Output.DefaultDir == "" {
		cfg.Output.DefaultDir = env.OutputDir
	}
	if env.Format != "" && (cfg.Output.Format == "" || cfg.Output.Format == config.FormatHTML) {
		cfg.Output.Format = env.Format
	}
	if env.Lang != "" && cfg.Page.Lang == "" {
		cfg.Page.Lang = env.Lang
	}
	if env.DateFormat != "" && (cfg.Date.Format == "" || cfg.Date.Format == config.DefaultConfig().Date.Format) {
		cfg.Date.Format = env.DateFormat
	}
}
