package context

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// NewSignalledContext returns a context cancelled on the first SIGINT or SIGTERM.
func NewSignalledContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
