package main

import (
	"context"
	"os/signal"
)

// withInterrupt returns a context canceled by the first stop signal. The
// batch stops handing out documents and reports the rest as canceled.
func withInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, stopSignals...)
}
