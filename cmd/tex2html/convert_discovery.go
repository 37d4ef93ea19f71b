package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	tex2html "github.com/alnah/go-tex2html"
	"github.com/alnah/go-tex2html/internal/config"
	"github.com/alnah/go-tex2html/internal/fileutil"
	"github.com/alnah/go-tex2html/internal/hints"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("unsupported source extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrInvalidFormat      = errors.New("invalid output format")
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// outputExtension returns the file extension written for format.
func outputExtension(format string) string {
	switch format {
	case config.FormatJSON:
		return ".json"
	case config.FormatMarkdown:
		return ".md"
	default:
		return ".html"
	}
}

// discoverFiles finds all source files to convert.
// A single file must carry one of exts; directories are walked and files
// with other extensions are skipped.
func discoverFiles(inputPath, outputDir string, exts []string, format string) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	outExt := outputExtension(format)

	if !info.IsDir() {
		if err := validateExtension(inputPath, exts); err != nil {
			return nil, err
		}
		outPath := resolveOutputPath(inputPath, outputDir, "", outExt)
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() {
			return nil
		}
		if !fileutil.HasExtension(path, exts) {
			return nil
		}
		outPath := resolveOutputPath(path, outputDir, inputPath, outExt)
		files = append(files, FileToConvert{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the output path for a source file.
// An outputDir ending in outExt names the output file itself.
func resolveOutputPath(inputPath, outputDir, baseInputDir, outExt string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base+outExt)
	}

	if strings.HasSuffix(outputDir, outExt) {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			relDir := filepath.Dir(relPath)
			return filepath.Join(outputDir, relDir, base+outExt)
		}
	}

	return filepath.Join(outputDir, base+outExt)
}

// validateExtension checks that the file has one of the accepted extensions.
func validateExtension(path string, exts []string) error {
	if !fileutil.HasExtension(path, exts) {
		return fmt.Errorf("%w: got %q%s", ErrInvalidExtension, filepath.Ext(path), hints.ForExtension(exts))
	}
	return nil
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > tex2html.MaxWorkers {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, tex2html.MaxWorkers)
	}
	return nil
}

// validateFormat normalizes and checks the output format.
func validateFormat(format string) (string, error) {
	switch f := strings.ToLower(format); f {
	case "", config.FormatHTML:
		return config.FormatHTML, nil
	case config.FormatJSON, config.FormatMarkdown:
		return f, nil
	case "md":
		return config.FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q (must be html, json, or markdown)", ErrInvalidFormat, format)
	}
}
