// Package fileutil provides file and path utility functions.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrFileTooLarge is returned by ReadLimited past its limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// HasExtension reports whether path ends in one of exts, ignoring case.
// Extensions carry their leading dot.
func HasExtension(path string, exts []string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

// FileExists returns true if the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// ReadLimited reads a whole file, failing with ErrFileTooLarge past limit
// bytes. A non-positive limit disables the check.
func ReadLimited(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided path
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	if limit <= 0 {
		return io.ReadAll(f)
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s is larger than %d bytes", ErrFileTooLarge, path, limit)
	}
	return data, nil
}

// IsFilePath reports whether s is a path rather than a style or config
// name: "./custom.css" and "C:\styles\a.css" are paths, "compact" is not.
func IsFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// IsCSS returns true if the string looks like CSS content rather than a
// name or path.
func IsCSS(s string) bool {
	return strings.Contains(s, "{")
}

// IsURL reports whether s is an http or https URL. Such image and link
// targets are left alone by path rewriting.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
