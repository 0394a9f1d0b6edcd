package notify

import (
	"context"
	"log/slog"

	"github.com/mtlprog/tasktrail/internal/domain"
	"github.com/mtlprog/tasktrail/internal/metrics"
	"github.com/mtlprog/tasktrail/internal/service"
)

// Consumer names, also used as Redis consumer group names.
const (
	ConsumerStore = "store"
	ConsumerPush  = "push"
)

// Live push event names.
const (
	PushTaskUpdated = "task:updated"
	PushTaskCreated = "task:created"
	PushCommentNew  = "comment:new"
)

// NotificationStore persists per-user notification rows.
type NotificationStore interface {
	Save(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
}

// Pusher delivers a live event to every connection of a user. Users without
// a connection are skipped silently.
type Pusher interface {
	Push(userID, event string, payload any) error
}

// PushPayload is the body of a live event.
type PushPayload struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// StoreConsumer writes one notification row per recipient.
type StoreConsumer struct {
	store   NotificationStore
	metrics *metrics.Pipeline
}

// NewStoreConsumer creates a new StoreConsumer. m may be nil.
func NewStoreConsumer(store NotificationStore, m *metrics.Pipeline) *StoreConsumer {
	return &StoreConsumer{store: store, metrics: m}
}

// Name implements Consumer.
func (c *StoreConsumer) Name() string { return ConsumerStore }

// Handle stores the rendered notification for every recipient. A failed
// recipient is logged and counted without affecting the others, and the
// message is not retried, so recipients already written never get a
// duplicate row.
func (c *StoreConsumer) Handle(ctx context.Context, msg Message) error {
	title, content := service.RenderEvent(msg.Name, msg.Event)

	for _, userID := range msg.Event.Recipients {
		_, err := c.store.Save(ctx, &domain.Notification{
			UserID:  userID,
			Title:   title,
			Content: content,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.metrics.ObserveDelivery(ConsumerStore, metrics.OutcomeError)
			slog.Warn("failed to store notification",
				"user_id", userID,
				"event", msg.Name,
				"task_id", msg.Event.Task.ID,
				"error", err,
			)
			continue
		}
		c.metrics.ObserveDelivery(ConsumerStore, metrics.OutcomeOK)
	}
	return nil
}

// PushConsumer pushes a live event to connected recipients.
type PushConsumer struct {
	pusher  Pusher
	metrics *metrics.Pipeline
}

// NewPushConsumer creates a new PushConsumer. m may be nil.
func NewPushConsumer(pusher Pusher, m *metrics.Pipeline) *PushConsumer {
	return &PushConsumer{pusher: pusher, metrics: m}
}

// Name implements Consumer.
func (c *PushConsumer) Name() string { return ConsumerPush }

// Handle pushes to every recipient. Live pushes are best effort: a failed
// push is logged and counted, and the message is still acknowledged.
func (c *PushConsumer) Handle(_ context.Context, msg Message) error {
	title, content := service.RenderEvent(msg.Name, msg.Event)
	payload := PushPayload{Title: title, Content: content}
	event := PushEventName(msg.Name)

	for _, userID := range msg.Event.Recipients {
		if err := c.pusher.Push(userID, event, payload); err != nil {
			c.metrics.ObserveDelivery(ConsumerPush, metrics.OutcomeError)
			slog.Warn("failed to push notification",
				"user_id", userID,
				"event", event,
				"error", err,
			)
			continue
		}
		c.metrics.ObserveDelivery(ConsumerPush, metrics.OutcomeOK)
	}
	return nil
}

// PushEventName maps a channel event to its live event name.
func PushEventName(name domain.EventName) string {
	switch name {
	case domain.EventTaskCreated:
		return PushTaskCreated
	case domain.EventTaskComment:
		return PushCommentNew
	default:
		return PushTaskUpdated
	}
}
