// Package app wires the bus, the tick loop, the script host and the admin
// server into one process and manages its lifecycle.
package app

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/fx"
)

// Application runs tickbus until its context ends or a service fails.
type Application struct {
	fx      *fx.App
	running atomic.Bool
}

// New builds the application graph. Construction errors, such as an invalid
// configuration, are returned here rather than from Run.
func New(opts Options, extra ...fx.Option) (*Application, error) {
	app := fx.New(append([]fx.Option{Module(opts)}, extra...)...)
	if err := app.Err(); err != nil {
		return nil, err
	}
	return &Application{fx: app}, nil
}

// Run starts every service and blocks until ctx is done or a service asks
// for shutdown, then stops them in reverse order.
func (a *Application) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	startCtx, cancel := context.WithTimeout(ctx, a.fx.StartTimeout())
	defer cancel()
	if err := a.fx.Start(startCtx); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	exitCode := 0
	select {
	case <-ctx.Done():
	case sig := <-a.fx.Wait():
		exitCode = sig.ExitCode
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), a.fx.StopTimeout())
	defer stopCancel()
	if err := a.fx.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	if exitCode != 0 {
		return fmt.Errorf("%w (exit code %d)", ErrServiceFailed, exitCode)
	}
	return nil
}

// IsRunning returns true if the application is running.
func (a *Application) IsRunning() bool {
	return a.running.Load()
}
