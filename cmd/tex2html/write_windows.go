//go:build windows

package main

import "os"

// writeFileAtomic writes path directly: rename over an open file is not
// atomic on Windows.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm) // #nosec G306 -- output pages are meant to be readable
}
