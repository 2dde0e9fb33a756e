// Package lifecycle turns OS shutdown signals into a reactive stream and
// drains the gate's resources in order.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/ro"
)

// ShutdownSignals trigger a graceful stop.
var ShutdownSignals = []os.Signal{
	syscall.SIGINT,
	syscall.SIGTERM,
}

// Signals emits the first of signals received after subscription and then
// completes. It errors with the subscriber's context error if that ends first.
// Each subscription registers its own notification channel.
func Signals(signals ...os.Signal) ro.Observable[os.Signal] {
	if len(signals) == 0 {
		signals = ShutdownSignals
	}
	return ro.NewObservableWithContext(func(ctx context.Context, observer ro.Observer[os.Signal]) ro.Teardown {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, signals...)
		stop := make(chan struct{})

		go func() {
			select {
			case sig := <-ch:
				observer.NextWithContext(ctx, sig)
				observer.CompleteWithContext(ctx)
			case <-ctx.Done():
				observer.ErrorWithContext(ctx, ctx.Err())
			case <-stop:
			}
		}()

		return func() {
			signal.Stop(ch)
			close(stop)
		}
	})
}

// WaitForSignal blocks until one of signals arrives or ctx ends.
// With no signals it waits for ShutdownSignals.
func WaitForSignal(ctx context.Context, signals ...os.Signal) (os.Signal, error) {
	results, _, err := ro.CollectWithContext(ctx, Signals(signals...))
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ctx.Err()
	}
	return results[0], nil
}

// Step is one named shutdown action.
type Step struct {
	Run  func(ctx context.Context) error
	Name string
}

// Drain runs steps in order under a shared timeout. Every step runs even
// when an earlier one fails; the failures are joined.
func Drain(ctx context.Context, timeout time.Duration, steps ...Step) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var errs []error
	for _, step := range steps {
		if err := step.Run(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.Name, err))
		}
	}
	return errors.Join(errs...)
}
