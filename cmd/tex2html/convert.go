package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"time"

	tex2html "github.com/alnah/go-tex2html"
	"github.com/alnah/go-tex2html/internal/config"
	"github.com/alnah/go-tex2html/internal/dateutil"
	"github.com/alnah/go-tex2html/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput        = errors.New("no input specified")
	ErrNoSources      = errors.New("no source files found")
	ErrReadSource     = errors.New("failed to read source file")
	ErrReadCSS        = errors.New("failed to read CSS file")
	ErrWriteOutput    = errors.New("failed to write output file")
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidFlag    = errors.New("invalid flag")
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// Converter is the interface for the conversion service.
type Converter interface {
	Convert(ctx context.Context, source string) (*tex2html.ConvertResult, error)
}

// Compile-time interface implementation check.
var _ Converter = (*tex2html.Converter)(nil)

// converterFactory builds a Converter logging through logger.
type converterFactory func(logger *slog.Logger) (Converter, error)

// conversionParams groups parameters shared across batch/file conversion.
type conversionParams struct {
	format       string
	page         tex2html.PageOptions
	maxSize      int
	workers      int
	logger       *slog.Logger
	newConverter converterFactory
}

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	// Validate worker count early
	if err := validateWorkers(flags.workers); err != nil {
		return err
	}

	envCfg := loadEnvConfig(env)
	if !flags.common.quiet {
		warnUnknownEnvVars(env.Stderr, env.environ())
	}

	cfg, err := loadConfig(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	if err := cfg.Validate(); err != nil {
		if errors.Is(err, dateutil.ErrInvalidDateFormat) {
			return fmt.Errorf("invalid configuration: %w%s", err, hints.ForDateFormat(dateutil.Presets()))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	format, err := validateFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	inputPath, err := resolveInputPath(positionalArgs, cfg)
	if err != nil {
		return err
	}
	outputDir := resolveOutputDir(flags.output, cfg)

	exts := cfg.SourceExtensions()
	files, err := discoverFiles(inputPath, outputDir, exts, format)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %s%s", ErrNoSources, inputPath, hints.ForExtension(exts))
	}

	logger := newLogger(env.Stderr, flags.common.quiet, flags.common.verbose)
	factory := newConverterFactory(cfg, env.Now)

	// Build one converter up front so option errors fail the run once
	// instead of once per file.
	if _, err := factory(logger); err != nil {
		return err
	}

	page, err := buildPageOptions(cfg, flags.page.css)
	if err != nil {
		return err
	}
	if format == config.FormatHTML {
		if err := checkPageOptions(ctx, page); err != nil {
			return err
		}
	}

	params := &conversionParams{
		format:       format,
		page:         page,
		maxSize:      cfg.Input.MaxSize,
		workers:      tex2html.ResolveWorkers(cfg.Workers),
		logger:       logger,
		newConverter: factory,
	}
	logger.Debug("starting conversion", "files", len(files), "workers", params.workers, "format", format)

	results := convertBatch(ctx, files, params)

	failedCount := printResults(results, flags.common, env)
	if failedCount > 0 {
		return fmt.Errorf("%d conversion(s) failed", failedCount)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return nil
}

// loadConfig loads the config named by flag, then by TEX2HTML_CONFIG,
// falling back to the defaults.
func loadConfig(flagConfig string, env *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = env.ConfigPath
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if cfg.Date.Format == "" {
		cfg.Date.Format = config.DefaultConfig().Date.Format
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. CLI values override config values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.format != "" {
		cfg.Output.Format = flags.format
	}
	if flags.workers > 0 {
		cfg.Workers = flags.workers
	}
	if flags.maxSize > 0 {
		cfg.Input.MaxSize = flags.maxSize
	}
	if flags.date != "" {
		cfg.Date.Format = flags.date
	}
	if len(flags.safePhrases) > 0 {
		cfg.Healer.SafePhrases = append(cfg.Healer.SafePhrases, flags.safePhrases...)
	}

	// Page flags
	if flags.page.style != "" {
		cfg.Page.Style = flags.page.style
	}
	if flags.page.lang != "" {
		cfg.Page.Lang = flags.page.lang
	}
	if flags.page.assetPath != "" {
		cfg.Page.AssetPath = flags.page.assetPath
	}
	if flags.page.omitTitle {
		cfg.Page.OmitTitle = true
	}

	// TOC flags; any TOC setting implies a forced TOC
	if flags.toc.enabled {
		cfg.Page.TOC.Enabled = true
	}
	if flags.toc.title != "" {
		cfg.Page.TOC.Title = flags.toc.title
		cfg.Page.TOC.Enabled = true
	}
	if flags.toc.minDepth > 0 {
		cfg.Page.TOC.MinDepth = flags.toc.minDepth
		cfg.Page.TOC.Enabled = true
	}
	if flags.toc.maxDepth > 0 {
		cfg.Page.TOC.MaxDepth = flags.toc.maxDepth
		cfg.Page.TOC.Enabled = true
	}
}

// resolveInputPath determines the input path from args or config.
func resolveInputPath(args []string, cfg *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if cfg.Input.DefaultDir != "" {
		return cfg.Input.DefaultDir, nil
	}
	return "", ErrNoInput
}

// resolveOutputDir determines the output directory from flag or config.
func resolveOutputDir(flagOutput string, cfg *config.Config) string {
	if flagOutput != "" {
		return flagOutput
	}
	return cfg.Output.DefaultDir
}

// newConverterFactory captures the converter options derived from cfg.
func newConverterFactory(cfg *config.Config, now func() time.Time) converterFactory {
	opts := []tex2html.Option{
		tex2html.WithDiagramHeuristics(cfg.DiagramParams()),
		tex2html.WithMathHeuristics(cfg.MathParams()),
		tex2html.WithDateFormat(cfg.Date.Format),
	}
	if now != nil {
		opts = append(opts, tex2html.WithClock(now))
	}
	if len(cfg.Healer.SafePhrases) > 0 {
		opts = append(opts, tex2html.WithSafePhrases(cfg.Healer.SafePhrases...))
	}
	if cfg.Input.MaxSize > 0 {
		opts = append(opts, tex2html.WithMaxSourceSize(cfg.Input.MaxSize))
	}
	if cfg.Page.AssetPath != "" {
		opts = append(opts, tex2html.WithAssetPath(cfg.Page.AssetPath))
	}

	return func(logger *slog.Logger) (Converter, error) {
		conv, err := tex2html.NewConverter(append(slices.Clip(opts), tex2html.WithLogger(logger))...)
		if err != nil {
			if errors.Is(err, tex2html.ErrInvalidDateFormat) {
				return nil, fmt.Errorf("%w%s", err, hints.ForDateFormat(dateutil.Presets()))
			}
			return nil, err
		}
		return conv, nil
	}
}

// buildPageOptions creates page options from config and the --css file.
func buildPageOptions(cfg *config.Config, cssFile string) (tex2html.PageOptions, error) {
	opts := tex2html.PageOptions{
		Style:     cfg.Page.Style,
		Lang:      cfg.Page.Lang,
		AssetPath: cfg.Page.AssetPath,
		OmitTitle: cfg.Page.OmitTitle,
	}

	if cssFile != "" {
		content, err := os.ReadFile(cssFile) // #nosec G304 -- user-provided path
		if err != nil {
			return opts, fmt.Errorf("%w: %v", ErrReadCSS, err)
		}
		opts.CSS = string(content)
	}

	if cfg.Page.TOC.Enabled {
		opts.TOC = &tex2html.TOC{
			Title:    cfg.Page.TOC.Title,
			MinDepth: cfg.Page.TOC.MinDepth,
			MaxDepth: cfg.Page.TOC.MaxDepth,
		}
		if opts.TOC.Title == "" {
			opts.TOC.Title = "Contents"
		}
	}

	return opts, nil
}

// checkPageOptions renders an empty page so a bad style, template, or
// language fails the run once instead of once per file.
func checkPageOptions(ctx context.Context, opts tex2html.PageOptions) error {
	_, err := tex2html.RenderPage(ctx, &tex2html.ConvertResult{}, opts)
	if errors.Is(err, tex2html.ErrStyleNotFound) {
		return fmt.Errorf("%w%s", err, hints.ForStyleNotFound(tex2html.Styles()))
	}
	return err
}
