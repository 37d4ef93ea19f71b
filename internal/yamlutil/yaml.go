// Package yamlutil wraps YAML decoding and encoding for configuration files.
// Callers never import the YAML library directly.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/alnah/go-tex2html/internal/fileutil"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
	ErrDecode         = errors.New("yamlutil: decode failed")
)

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

func decode(data []byte, v any, strict bool) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	var opts []yaml.DecodeOption
	if strict {
		opts = append(opts, yaml.Strict())
	}
	if err := yaml.UnmarshalWithOptions(data, v, opts...); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return nil
}

// Unmarshal decodes YAML into v, ignoring unknown fields.
func Unmarshal(data []byte, v any) error {
	return decode(data, v, false)
}

// UnmarshalStrict decodes YAML into v and rejects unknown fields, so a
// misspelled config key is reported instead of silently ignored.
func UnmarshalStrict(data []byte, v any) error {
	return decode(data, v, true)
}

// DecodeFile reads path, bounded by MaxInputSize, and strictly decodes it.
// File errors are returned unwrapped so callers can test os.ErrNotExist.
func DecodeFile(path string, v any) error {
	data, err := fileutil.ReadLimited(path, int64(MaxInputSize))
	if err != nil {
		if errors.Is(err, fileutil.ErrFileTooLarge) {
			return fmt.Errorf("%w: %s", ErrInputTooLarge, path)
		}
		return err
	}
	return UnmarshalStrict(data, v)
}

// Marshal encodes v as YAML with two-space indentation and indented
// sequences, the layout used by the sample config files.
func Marshal(v any) ([]byte, error) {
	out, err := yaml.MarshalWithOptions(v, yaml.Indent(2), yaml.IndentSequence(true))
	if err != nil {
		return nil, fmt.Errorf("yamlutil: %w", err)
	}
	return out, nil
}
