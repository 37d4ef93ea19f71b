//go:build !windows

package main

import (
	"os"

	"github.com/google/renameio"
)

// writeFileAtomic replaces path in one rename so an interrupted run never
// leaves a truncated page behind.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	return renameio.WriteFile(path, data, perm)
}
