//go:build windows

package main

import "os"

// Only os.Interrupt is delivered on Windows.
var stopSignals = []os.Signal{os.Interrupt}
