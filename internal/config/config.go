package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-tex2html/internal/dateutil"
	"github.com/alnah/go-tex2html/internal/fileutil"
	"github.com/alnah/go-tex2html/internal/texmath"
	"github.com/alnah/go-tex2html/internal/tikz"
	"github.com/alnah/go-tex2html/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrOutOfRange      = errors.New("value out of range")
	ErrInvalidValue    = errors.New("invalid value")
)

// Field length limits.
const (
	MaxPathLength       = 4096
	MaxStyleLength      = 4096 // a name, a path, or inline CSS
	MaxLangLength       = 35   // BCP 47 tags seldom exceed this
	MaxTOCTitleLength   = 100
	MaxDateFormatLength = dateutil.MaxDateFormatLength
	MaxSafePhraseLength = 100
	MaxSafePhrases      = 64
	MaxExtensionLength  = 16
	MaxWorkers          = 32
)

// Output formats.
const (
	FormatHTML     = "html"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// DefaultExtensions are the source extensions picked up in directories.
var DefaultExtensions = []string{".tex", ".latex", ".txt"}

// Config holds all configuration for a conversion run.
type Config struct {
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Page    PageConfig    `yaml:"page"`
	Diagram DiagramConfig `yaml:"diagram"`
	Math    MathConfig    `yaml:"math"`
	Healer  HealerConfig  `yaml:"healer"`
	Date    DateConfig    `yaml:"date"`
	Workers int           `yaml:"workers"` // 0 = automatic
}

// InputConfig defines input source options.
type InputConfig struct {
	DefaultDir string   `yaml:"defaultDir"` // Default input directory (empty = must specify)
	Extensions []string `yaml:"extensions"` // Empty = DefaultExtensions
	MaxSize    int      `yaml:"maxSize"`    // Bytes per source (0 = library default)
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	DefaultDir string `yaml:"defaultDir"` // Default output directory (empty = same as source)
	Format     string `yaml:"format"`     // "html", "json" or "markdown" (default: "html")
}

// PageConfig defines standalone page options.
type PageConfig struct {
	Style     string    `yaml:"style"`     // Style name, CSS file path, or inline CSS
	Lang      string    `yaml:"lang"`      // BCP 47 tag (default: "en")
	AssetPath string    `yaml:"assetPath"` // Empty = use embedded assets
	OmitTitle bool      `yaml:"omitTitle"`
	TOC       TOCConfig `yaml:"toc"`
}

// TOCConfig forces a table of contents even without \tableofcontents.
type TOCConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Title    string `yaml:"title"`    // Empty = "Contents"
	MinDepth int    `yaml:"minDepth"` // 1-6, default 2
	MaxDepth int    `yaml:"maxDepth"` // 1-6, default 3
}

// DiagramConfig overrides the most commonly tuned diagram heuristics.
// Zero fields keep the built-in defaults.
type DiagramConfig struct {
	FlatAspectRatio   float64 `yaml:"flatAspectRatio"`
	CompactNodeCount  int     `yaml:"compactNodeCount"`
	WidthBudgetCm     float64 `yaml:"widthBudgetCm"`
	HeightBudgetCm    float64 `yaml:"heightBudgetCm"`
	MinNodeDistanceCm float64 `yaml:"minNodeDistanceCm"`
	CompactScale      float64 `yaml:"compactScale"`
	MinWideScale      float64 `yaml:"minWideScale"`
}

// MathConfig overrides display math autoscaling. Zero fields keep defaults.
type MathConfig struct {
	CharWidthEm   float64 `yaml:"charWidthEm"`
	WidthBudgetEm float64 `yaml:"widthBudgetEm"`
	MinScale      float64 `yaml:"minScale"`
}

// HealerConfig defines source repair options.
type HealerConfig struct {
	SafePhrases []string `yaml:"safePhrases"` // Added to the built-in list (e.g. "R&D")
}

// DateConfig defines how \today is printed.
type DateConfig struct {
	Format string `yaml:"format"` // Preset (iso, long...) or tokens (default: "long")
}

// Validate checks field lengths and ranges.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	if err := validateFieldLength("input.defaultDir", c.Input.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	for i, ext := range c.Input.Extensions {
		field := fmt.Sprintf("input.extensions[%d]", i)
		if err := validateFieldLength(field, ext, MaxExtensionLength); err != nil {
			return err
		}
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: %s: %q must start with a dot", ErrInvalidValue, field, ext)
		}
	}
	if c.Input.MaxSize < 0 {
		return fmt.Errorf("%w: input.maxSize: must not be negative, got %d", ErrOutOfRange, c.Input.MaxSize)
	}

	if err := validateFieldLength("output.defaultDir", c.Output.DefaultDir, MaxPathLength); err != nil {
		return err
	}
	switch strings.ToLower(c.Output.Format) {
	case "", FormatHTML, FormatJSON, FormatMarkdown:
	default:
		return fmt.Errorf("%w: output.format: %q (must be html, json, or markdown)", ErrInvalidValue, c.Output.Format)
	}

	if err := validateFieldLength("page.style", c.Page.Style, MaxStyleLength); err != nil {
		return err
	}
	if err := validateFieldLength("page.lang", c.Page.Lang, MaxLangLength); err != nil {
		return err
	}
	if err := validateFieldLength("page.assetPath", c.Page.AssetPath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("page.toc.title", c.Page.TOC.Title, MaxTOCTitleLength); err != nil {
		return err
	}
	if err := validateDepth("page.toc.minDepth", c.Page.TOC.MinDepth); err != nil {
		return err
	}
	if err := validateDepth("page.toc.maxDepth", c.Page.TOC.MaxDepth); err != nil {
		return err
	}
	if c.Page.TOC.MinDepth != 0 && c.Page.TOC.MaxDepth != 0 && c.Page.TOC.MinDepth > c.Page.TOC.MaxDepth {
		return fmt.Errorf("%w: page.toc.minDepth (%d) exceeds maxDepth (%d)", ErrOutOfRange, c.Page.TOC.MinDepth, c.Page.TOC.MaxDepth)
	}

	if err := c.Diagram.validate(); err != nil {
		return err
	}
	if err := c.Math.validate(); err != nil {
		return err
	}

	if len(c.Healer.SafePhrases) > MaxSafePhrases {
		return fmt.Errorf("%w: healer.safePhrases: %d entries (max %d)", ErrOutOfRange, len(c.Healer.SafePhrases), MaxSafePhrases)
	}
	for i, phrase := range c.Healer.SafePhrases {
		if err := validateFieldLength(fmt.Sprintf("healer.safePhrases[%d]", i), phrase, MaxSafePhraseLength); err != nil {
			return err
		}
	}

	if err := validateFieldLength("date.format", c.Date.Format, MaxDateFormatLength); err != nil {
		return err
	}
	if err := dateutil.Validate(c.Date.Format); err != nil {
		return fmt.Errorf("date.format: %w", err)
	}

	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers: must be between 0 and %d, got %d", ErrOutOfRange, MaxWorkers, c.Workers)
	}

	return nil
}

func (d DiagramConfig) validate() error {
	if d.FlatAspectRatio < 0 || d.WidthBudgetCm < 0 || d.HeightBudgetCm < 0 || d.MinNodeDistanceCm < 0 || d.CompactNodeCount < 0 {
		return fmt.Errorf("%w: diagram: values must not be negative", ErrOutOfRange)
	}
	if err := validateScale("diagram.compactScale", d.CompactScale); err != nil {
		return err
	}
	return validateScale("diagram.minWideScale", d.MinWideScale)
}

func (m MathConfig) validate() error {
	if m.CharWidthEm < 0 || m.WidthBudgetEm < 0 {
		return fmt.Errorf("%w: math: values must not be negative", ErrOutOfRange)
	}
	return validateScale("math.minScale", m.MinScale)
}

// validateScale accepts 0 (default) or a factor in (0, 1].
func validateScale(field string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %s: must be between 0 and 1, got %.2f", ErrOutOfRange, field, v)
	}
	return nil
}

// validateDepth accepts 0 (default) or a heading level.
func validateDepth(field string, v int) error {
	if v != 0 && (v < 1 || v > 6) {
		return fmt.Errorf("%w: %s: must be between 1 and 6, got %d", ErrOutOfRange, field, v)
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DiagramParams returns the diagram heuristics with configured overrides.
func (c *Config) DiagramParams() tikz.Params {
	p := tikz.DefaultParams()
	d := c.Diagram
	if d.FlatAspectRatio > 0 {
		p.FlatAspectRatio = d.FlatAspectRatio
	}
	if d.CompactNodeCount > 0 {
		p.CompactNodeCount = d.CompactNodeCount
	}
	if d.WidthBudgetCm > 0 {
		p.WidthBudgetCm = d.WidthBudgetCm
	}
	if d.HeightBudgetCm > 0 {
		p.HeightBudgetCm = d.HeightBudgetCm
	}
	if d.MinNodeDistanceCm > 0 {
		p.MinNodeDistanceCm = d.MinNodeDistanceCm
	}
	if d.CompactScale > 0 {
		p.CompactScale = d.CompactScale
	}
	if d.MinWideScale > 0 {
		p.MinWideScale = d.MinWideScale
	}
	return p
}

// MathParams returns the math autoscaling parameters with overrides.
func (c *Config) MathParams() texmath.Params {
	p := texmath.DefaultParams()
	if c.Math.CharWidthEm > 0 {
		p.CharWidthEm = c.Math.CharWidthEm
	}
	if c.Math.WidthBudgetEm > 0 {
		p.WidthBudgetEm = c.Math.WidthBudgetEm
	}
	if c.Math.MinScale > 0 {
		p.MinScale = c.Math.MinScale
	}
	return p
}

// SourceExtensions returns the configured extensions or the defaults.
func (c *Config) SourceExtensions() []string {
	if len(c.Input.Extensions) == 0 {
		return append([]string(nil), DefaultExtensions...)
	}
	return append([]string(nil), c.Input.Extensions...)
}

// OutputFormat returns the normalized output format.
func (c *Config) OutputFormat() string {
	if c.Output.Format == "" {
		return FormatHTML
	}
	return strings.ToLower(c.Output.Format)
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{Format: FormatHTML},
		Date:   DateConfig{Format: dateutil.DefaultDateFormat},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := yamlutil.DecodeFile(configPath, &cfg); err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		case errors.Is(err, yamlutil.ErrDecode), errors.Is(err, yamlutil.ErrInputTooLarge), errors.Is(err, yamlutil.ErrNilData):
			return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
		default:
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// SearchPaths lists where a config name is looked up, in order:
// current directory, then ~/.config/go-tex2html/, each with .yaml and .yml.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-tex2html", name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
