package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"go.uber.org/atomic"

	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
)

// settler is implemented by every driver message.
type settler interface {
	Message
	Nackable

	settled() bool
}

// settleGuard guards a message against being settled twice.
type settleGuard struct {
	done atomic.Bool
}

func (o *settleGuard) settled() bool { return o.done.Load() }

// claim reports whether the caller is the first to settle.
func (o *settleGuard) claim() bool { return !o.done.Swap(true) }

// dispatch runs handler for msg and settles it when autoAck is set and the
// handler did not settle it itself.
func dispatch(ctx context.Context, kind string, handler Handler, msg settler, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, kind, func() error {
		return handler(ctx, msg)
	})

	if msg.settled() || !autoAck {
		return herr
	}
	if herr == nil {
		return msg.Ack(ctx)
	}

	return errors.Join(herr, msg.Nack(ctx))
}

// runWorkers drains in with n goroutines and returns once in is closed and
// every worker has exited.
func runWorkers[T any](n int, in <-chan T, fn func(T)) *sync.WaitGroup {
	var wg sync.WaitGroup
	for range n {
		wg.Go(func() {
			for item := range in {
				fn(item)
			}
		})
	}
	return &wg
}

func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if frames := instrument.InternalFrames(stack); len(frames) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", frames)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return fn()
}
