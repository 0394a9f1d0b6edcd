package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/mtlprog/tasktrail/internal/domain"
)

// ErrChannelFull is returned by LocalChannel.Emit when a consumer's buffer
// is full.
var ErrChannelFull = errors.New("notification buffer full")

// LocalChannel is an in-process channel used when no Redis is configured.
// Every consumer group gets its own buffer. Groups named at construction
// buffer events from the start; a group that first appears in Consume only
// sees events emitted after it subscribed.
type LocalChannel struct {
	mu     sync.RWMutex
	size   int
	groups map[string]chan Message
}

// NewLocalChannel creates a LocalChannel with a per-group buffer of size.
func NewLocalChannel(size int, groups ...string) *LocalChannel {
	if size < 1 {
		size = 1
	}
	c := &LocalChannel{size: size, groups: make(map[string]chan Message)}
	for _, g := range groups {
		c.subscribe(g)
	}
	return c
}

// Emit hands the event to every group without blocking. It fails with
// ErrChannelFull if any group's buffer was full; the other groups still
// receive the event.
func (c *LocalChannel) Emit(_ context.Context, name domain.EventName, event domain.NotificationEvent) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	msg := Message{Name: name, Event: event}
	var err error
	for _, ch := range c.groups {
		select {
		case ch <- msg:
		default:
			err = ErrChannelFull
		}
	}
	return err
}

// Consume delivers messages to handle until ctx is done. In-process delivery
// does not retry failed messages.
func (c *LocalChannel) Consume(ctx context.Context, group string, handle Handler) error {
	ch := c.subscribe(group)
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-ch:
			_ = handle(ctx, msg)
		}
	}
}

func (c *LocalChannel) subscribe(group string) chan Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch, ok := c.groups[group]
	if !ok {
		ch = make(chan Message, c.size)
		c.groups[group] = ch
	}
	return ch
}
