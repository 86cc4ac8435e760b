package srv

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/vitalbot/pkg/log"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

// Service is a long-running component. Start may block until ctx is done or
// Shutdown is called.
type Service interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Run starts every service and blocks until ctx is cancelled or one of them
// fails. Services are then shut down in reverse order of registration.
func Run(ctx context.Context, services []Service) error {
	logger := log.FromCtx(ctx)
	g, gctx := errgroup.WithContext(ctx)

	for _, service := range services {
		g.Go(func() error {
			if err := service.Start(gctx); err != nil {
				return fmt.Errorf("%T failed to start: %w", service, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		var errs []error
		for i := len(services) - 1; i >= 0; i-- {
			if err := services[i].Shutdown(sctx); err != nil {
				logger.Error().Err(err).Msgf("%T failed to shutdown", services[i])
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}
