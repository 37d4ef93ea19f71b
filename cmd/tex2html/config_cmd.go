package main

import (
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	tex2html "github.com/alnah/go-tex2html"
	"github.com/alnah/go-tex2html/internal/yamlutil"
)

// runConfigCmd prints the effective configuration (defaults, file, then
// environment) as YAML. The output is a valid config file.
func runConfigCmd(args []string, env *Environment) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	var common commonFlags
	addCommonFlags(fs, &common)
	fs.SetOutput(io.Discard)
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			printConfigUsage(env.Stdout)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrInvalidFlag, err)
	}

	envCfg := loadEnvConfig(env)
	cfg, err := loadConfig(common.config, envCfg)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	out, err := yamlutil.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = env.Stdout.Write(out)
	return err
}

// runStyles lists the built-in page styles.
func runStyles(env *Environment) {
	for _, name := range tex2html.Styles() {
		fmt.Fprintln(env.Stdout, name)
	}
}
