// Package lifecycle runs long-lived services until a termination signal or
// failure, then shuts them down within a grace period.
package lifecycle

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/louisbranch/mcptoolbox/internal/platform/logging"
	"github.com/louisbranch/mcptoolbox/internal/platform/timeouts"
)

// Service is a long-running unit managed by a Group.
type Service interface {
	// Run blocks until ctx is cancelled or the service fails.
	Run(ctx context.Context) error
	// Shutdown stops the service. It must be idempotent.
	Shutdown(ctx context.Context) error
}

// Options configures a Group.
type Options struct {
	// Signals trigger graceful shutdown. Defaults to SIGINT and SIGTERM.
	Signals []os.Signal
	// GracePeriod bounds the time services get to shut down.
	GracePeriod time.Duration
	Logger      *logging.Entry
}

// Group supervises a fixed set of services.
type Group struct {
	services []Service
	signals  []os.Signal
	grace    time.Duration
	log      *logging.Entry
}

// NewGroup builds a group for services, started in order and shut down in
// reverse order.
func NewGroup(opts Options, services ...Service) *Group {
	signals := opts.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}
	grace := opts.GracePeriod
	if grace <= 0 {
		grace = timeouts.Shutdown
	}
	return &Group{
		services: services,
		signals:  signals,
		grace:    grace,
		log:      logging.Named(opts.Logger, "lifecycle"),
	}
}

// Run starts every service and blocks until all of them have stopped.
// A termination signal, a cancelled ctx, or any service returning ends the
// group. Cancellation is not reported as an error.
func (g *Group) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(g.services) == 0 {
		return errors.New("lifecycle group has no services")
	}

	sigCtx, stopSignals := signal.NotifyContext(ctx, g.signals...)
	defer stopSignals()
	runCtx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	eg, egCtx := errgroup.WithContext(runCtx)
	for _, svc := range g.services {
		eg.Go(func() error {
			defer cancel()
			err := svc.Run(egCtx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
	eg.Go(func() error {
		<-egCtx.Done()
		if sigCtx.Err() != nil && ctx.Err() == nil {
			g.log.Info("termination signal received, shutting down")
		} else {
			g.log.Debug("shutting down services")
		}
		return g.shutdown()
	})

	err := eg.Wait()
	if err != nil {
		g.log.WithError(err).Error("lifecycle group stopped with error")
		return err
	}
	g.log.Info("lifecycle group stopped")
	return nil
}

func (g *Group) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), g.grace)
	defer cancel()

	var errs []error
	for i := len(g.services) - 1; i >= 0; i-- {
		if err := g.services[i].Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
