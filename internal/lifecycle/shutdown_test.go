package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownSignals(t *testing.T) {
	t.Parallel()

	assert.Contains(t, ShutdownSignals, syscall.SIGINT)
	assert.Contains(t, ShutdownSignals, syscall.SIGTERM)
}

func TestWaitForSignal_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() {
		_, err := WaitForSignal(ctx, syscall.SIGUSR2)
		done <- err
	}()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitForSignal did not return after cancel")
	}
}

func TestWaitForSignal_ReceivesSignal(t *testing.T) {
	// Keep SIGUSR1 from terminating the test binary while the observable
	// registers its own channel.
	guard := make(chan os.Signal, 8)
	signal.Notify(guard, syscall.SIGUSR1)
	defer signal.Stop(guard)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan os.Signal, 1)
	go func() {
		sig, err := WaitForSignal(ctx, syscall.SIGUSR1)
		if err == nil {
			got <- sig
		}
	}()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case sig := <-got:
			assert.Equal(t, syscall.SIGUSR1, sig)
			return
		case <-ticker.C:
			require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
		case <-ctx.Done():
			t.Fatal("signal never observed")
		}
	}
}

func TestDrain_RunsEveryStep(t *testing.T) {
	t.Parallel()

	var order []string
	step := func(name string, err error) Step {
		return Step{Name: name, Run: func(ctx context.Context) error {
			order = append(order, name)
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return err
		}}
	}

	err := Drain(context.Background(), time.Second,
		step("http", nil),
		step("checker", errors.New("stuck")),
		step("trust", errors.New("cache close")),
	)

	assert.Equal(t, []string{"http", "checker", "trust"}, order)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checker: stuck")
	assert.Contains(t, err.Error(), "trust: cache close")
}

func TestDrain_NoSteps(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Drain(context.Background(), time.Millisecond))
}
