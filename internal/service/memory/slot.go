package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/pkg/log"
)

type fetchResult[T any] struct {
	data  T
	empty bool
	err   error
}

// fetchSlot runs one source under its own timeout. Errors, panics and
// timeouts all collapse into an unavailable slot.
func fetchSlot[T any](
	ctx context.Context,
	name string,
	timeout time.Duration,
	fetch func(ctx context.Context) (T, bool, error),
) core.Slot[T] {
	logger := log.FromCtx(ctx).With().Str("source", name).Logger()

	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan fetchResult[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fetchResult[T]{err: fmt.Errorf("%w: panic: %v", core.ErrSourceUnavailable, r)}
			}
		}()
		data, empty, err := fetch(sctx)
		done <- fetchResult[T]{data: data, empty: empty, err: err}
	}()

	var res fetchResult[T]
	select {
	case res = <-done:
	case <-sctx.Done():
		res = fetchResult[T]{err: fmt.Errorf("%w: %v", core.ErrSourceUnavailable, sctx.Err())}
	}

	switch {
	case res.err != nil:
		if !errors.Is(res.err, core.ErrSourceUnavailable) {
			res.err = fmt.Errorf("%w: %v", core.ErrSourceUnavailable, res.err)
		}
		logger.Warn().Err(res.err).Msg("memory source degraded")
		var zero T
		return core.Slot[T]{Status: core.SlotUnavailable, Data: zero, Err: res.err.Error()}
	case res.empty:
		logger.Debug().Msg("memory source empty")
		return core.Slot[T]{Status: core.SlotEmpty, Data: res.data}
	default:
		return core.Slot[T]{Status: core.SlotOK, Data: res.data}
	}
}
