package common

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func Interrupted() <-chan os.Signal {
	return interrupted()
}

func interrupted() chan os.Signal {
	interrupt := make(chan os.Signal, 2)
	signal.Notify(interrupt,
		os.Interrupt,
		syscall.SIGTERM, syscall.SIGQUIT,
	)
	return interrupt
}

// InterruptContext is cancelled on the first interrupt.
// A second interrupt exits the process.
func InterruptContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	interrupt := interrupted()
	go func() {
		select {
		case <-interrupt:
			cancel()
		case <-ctx.Done():
			signal.Stop(interrupt)
			return
		}
		select {
		case <-interrupt:
			os.Exit(1)
		case <-parent.Done():
		}
	}()
	return ctx, cancel
}
