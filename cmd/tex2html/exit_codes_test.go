package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	tex2html "github.com/alnah/go-tex2html"
	"github.com/alnah/go-tex2html/internal/config"
)

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"plain error", errors.New("boom"), ExitGeneral},
		{"cancelled", context.Canceled, ExitGeneral},
		{"missing file", fmt.Errorf("discovering files: %w", os.ErrNotExist), ExitIO},
		{"permission", os.ErrPermission, ExitIO},
		{"read source", fmt.Errorf("%w: eof", ErrReadSource), ExitIO},
		{"read css", ErrReadCSS, ExitIO},
		{"write output", ErrWriteOutput, ExitIO},
		{"no input", ErrNoInput, ExitIO},
		{"no sources", fmt.Errorf("%w in docs", ErrNoSources), ExitIO},
		{"config not found", fmt.Errorf("loading config: %w", config.ErrConfigNotFound), ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"config range", config.ErrOutOfRange, ExitUsage},
		{"config value", config.ErrInvalidValue, ExitUsage},
		{"source too large", tex2html.ErrSourceTooLarge, ExitUsage},
		{"date format", tex2html.ErrInvalidDateFormat, ExitUsage},
		{"style", tex2html.ErrStyleNotFound, ExitUsage},
		{"asset path", tex2html.ErrInvalidAssetPath, ExitUsage},
		{"TOC depth", tex2html.ErrInvalidTOCDepth, ExitUsage},
		{"language", tex2html.ErrInvalidLanguage, ExitUsage},
		{"extension", ErrInvalidExtension, ExitUsage},
		{"workers", ErrInvalidWorkerCount, ExitUsage},
		{"format", ErrInvalidFormat, ExitUsage},
		{"command", ErrUnknownCommand, ExitUsage},
		{"flag", ErrInvalidFlag, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
