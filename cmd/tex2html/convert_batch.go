package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	tex2html "github.com/alnah/go-tex2html"
	"github.com/alnah/go-tex2html/internal/fileutil"
	"github.com/alnah/go-tex2html/internal/hints"
)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Err        error
	Duration   time.Duration
	Stats      tex2html.Stats
}

// convertBatch processes files concurrently with params.workers workers.
func convertBatch(ctx context.Context, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := max(1, min(params.workers, len(files)))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, f FileToConvert, params *conversionParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	limit := params.maxSize
	if limit <= 0 {
		limit = tex2html.DefaultMaxSourceSize
	}
	content, err := fileutil.ReadLimited(f.InputPath, int64(limit))
	if err != nil {
		if errors.Is(err, fileutil.ErrFileTooLarge) {
			return fail(fmt.Errorf("%w: %s%s", tex2html.ErrSourceTooLarge, f.InputPath, hints.ForSourceTooLarge(limit)))
		}
		return fail(fmt.Errorf("%w: %v", ErrReadSource, err))
	}

	logger := params.logger.With("file", f.InputPath)
	conv, err := params.newConverter(logger)
	if err != nil {
		return fail(err)
	}

	res, err := conv.Convert(ctx, string(content))
	if err != nil {
		return fail(err)
	}
	result.Stats = res.Stats

	page := params.page
	page.SourceDir = filepath.Dir(f.InputPath)
	out, err := renderOutput(ctx, res, params.format, page)
	if err != nil {
		return fail(err)
	}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return fail(fmt.Errorf("creating output directory: %w%s", err, hints.ForOutputDirectory()))
	}
	if err := writeFileAtomic(f.OutputPath, out, filePermissions); err != nil {
		return fail(fmt.Errorf("%w: %v", ErrWriteOutput, err))
	}

	result.Duration = time.Since(start)
	return result
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
	Degraded  int
}

// countResults tallies succeeded, failed and degraded conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		switch {
		case r.Err != nil:
			summary.Failed++
		case degradations(r.Stats) != "":
			summary.Succeeded++
			summary.Degraded++
		default:
			summary.Succeeded++
		}
	}
	return summary
}

// degradations describes what a successful conversion had to leave
// unrendered, or "" when nothing was lost.
func degradations(s tex2html.Stats) string {
	var parts []string
	add := func(n int, one, many string) {
		switch {
		case n == 1:
			parts = append(parts, "1 "+one)
		case n > 1:
			parts = append(parts, fmt.Sprintf("%d %s", n, many))
		}
	}
	add(s.MathErrors, "math error", "math errors")
	add(s.Unsupported, "unsupported diagram", "unsupported diagrams")
	add(s.AbandonedTables, "table kept as text", "tables kept as text")
	add(len(s.FailedStages), "failed stage", "failed stages")
	return strings.Join(parts, ", ")
}

// printResults outputs conversion results and returns the failure count.
func printResults(results []ConversionResult, common commonFlags, env *Environment) int {
	if common.noColor {
		color.NoColor = true
	}
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	yellow := color.New(color.FgYellow)

	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			_, _ = red.Fprint(env.Stderr, "FAILED")
			fmt.Fprintf(env.Stderr, " %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if common.quiet {
			continue
		}

		if common.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			_, _ = green.Fprint(env.Stdout, "Created")
			fmt.Fprintf(env.Stdout, " %s\n", r.OutputPath)
		}

		if d := degradations(r.Stats); d != "" {
			_, _ = yellow.Fprint(env.Stdout, "  degraded")
			fmt.Fprintf(env.Stdout, ": %s", d)
			if !common.verbose {
				fmt.Fprint(env.Stdout, hints.ForMathErrors(r.Stats.MathErrors))
			}
			fmt.Fprintln(env.Stdout)
		}
	}

	if !common.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed", summary.Succeeded, summary.Failed)
		if summary.Degraded > 0 {
			fmt.Fprintf(env.Stdout, " (%d degraded)", summary.Degraded)
		}
		fmt.Fprintln(env.Stdout)
	}

	return summary.Failed
}
