package main

import (
	"context"
	"fmt"
	"io"

	"calendasync/internal/domain"
)

// consoleNotifier prints notices for a terminal user.
type consoleNotifier struct {
	out io.Writer
	err io.Writer

	// reported is set once an error notice has been printed.
	reported bool
}

var _ domain.Notifier = (*consoleNotifier)(nil)

func (n *consoleNotifier) Success(_ context.Context, message string) {
	fmt.Fprintln(n.out, message)
}

func (n *consoleNotifier) Error(_ context.Context, message string) {
	n.reported = true
	fmt.Fprintln(n.err, "error:", message)
}
