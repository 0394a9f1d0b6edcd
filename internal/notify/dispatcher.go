package notify

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Consumer is one independent reaction to notification events. Each
// consumer reads through its own group, so a failing consumer never holds
// back another.
type Consumer interface {
	Name() string
	Handle(ctx context.Context, msg Message) error
}

// Dispatcher runs consumers side by side over one Source.
type Dispatcher struct {
	source    Source
	consumers []Consumer
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(source Source, consumers ...Consumer) *Dispatcher {
	return &Dispatcher{source: source, consumers: consumers}
}

// Run blocks until ctx is done or a consumer's source fails.
func (d *Dispatcher) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, c := range d.consumers {
		g.Go(func() error {
			slog.Info("notification consumer started", "consumer", c.Name())
			defer slog.Info("notification consumer stopped", "consumer", c.Name())

			if err := d.source.Consume(ctx, c.Name(), handlerFor(c)); err != nil {
				return fmt.Errorf("consumer %s: %w", c.Name(), err)
			}
			return nil
		})
	}

	return g.Wait()
}

func handlerFor(c Consumer) Handler {
	return func(ctx context.Context, msg Message) error {
		if err := c.Handle(ctx, msg); err != nil {
			slog.Warn("notification consumer failed",
				"consumer", c.Name(),
				"event", msg.Name,
				"task_id", msg.Event.Task.ID,
				"error", err,
			)
			return err
		}
		return nil
	}
}
