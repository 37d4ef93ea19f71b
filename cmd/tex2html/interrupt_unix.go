//go:build !windows

package main

import (
	"os"
	"syscall"
)

// stopSignals also covers SIGHUP so a batch started from a closed terminal
// does not keep writing pages.
var stopSignals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP}
