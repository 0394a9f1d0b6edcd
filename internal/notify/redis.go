package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mtlprog/tasktrail/internal/config"
	"github.com/mtlprog/tasktrail/internal/domain"
)

// streamMaxLen caps the stream length; trimming is approximate.
const streamMaxLen = 100_000

// NewRedisClient connects to Redis and verifies the connection with a ping.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("redis connected", "addr", cfg.Addr, "db", cfg.DB)
	return rdb, nil
}

// RedisChannel appends notification events to a Redis stream.
type RedisChannel struct {
	rdb    *redis.Client
	stream string
}

// NewRedisChannel creates a new RedisChannel.
func NewRedisChannel(rdb *redis.Client, stream string) *RedisChannel {
	return &RedisChannel{rdb: rdb, stream: stream}
}

// Emit appends the event. Returning nil means the stream accepted it.
func (c *RedisChannel) Emit(ctx context.Context, name domain.EventName, event domain.NotificationEvent) error {
	values, err := encodeFields(name, event)
	if err != nil {
		return err
	}

	err = c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: c.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", c.stream, err)
	}
	return nil
}

// RedisSource reads a stream through consumer groups, one group per
// dispatcher consumer, so each consumer sees every event and acknowledges
// it on its own.
type RedisSource struct {
	rdb      *redis.Client
	stream   string
	consumer string
	batch    int64
	block    time.Duration
}

// NewRedisSource creates a new RedisSource. consumer names this process
// inside every group.
func NewRedisSource(rdb *redis.Client, cfg config.NotifyConfig, consumer string) *RedisSource {
	return &RedisSource{
		rdb:      rdb,
		stream:   cfg.Stream,
		consumer: consumer,
		batch:    cfg.Batch,
		block:    cfg.Block,
	}
}

// Consume creates the group if needed, first replays entries this consumer
// read but never acknowledged, then follows new entries until ctx is done.
func (s *RedisSource) Consume(ctx context.Context, group string, handle Handler) error {
	if err := s.ensureGroup(ctx, group); err != nil {
		return err
	}

	if err := s.drain(ctx, group, "0", handle); err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		streams, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: s.consumer,
			Streams:  []string{s.stream, ">"},
			Count:    s.batch,
			Block:    s.block,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("xreadgroup %s/%s: %w", s.stream, group, err)
		}

		for _, stream := range streams {
			s.process(ctx, group, stream.Messages, handle)
		}
	}
}

// drain re-reads this consumer's pending entries until none are left.
func (s *RedisSource) drain(ctx context.Context, group, start string, handle Handler) error {
	cursor := start
	for {
		streams, err := s.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    group,
			Consumer: s.consumer,
			Streams:  []string{s.stream, cursor},
			Count:    s.batch,
			Block:    -1,
		}).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil
			}
			return fmt.Errorf("read pending %s/%s: %w", s.stream, group, err)
		}

		var entries []redis.XMessage
		for _, stream := range streams {
			entries = append(entries, stream.Messages...)
		}
		if len(entries) == 0 {
			return nil
		}

		if acked := s.process(ctx, group, entries, handle); acked == 0 {
			// Nothing could be handled; leave the rest for the next start.
			return nil
		}
		cursor = entries[len(entries)-1].ID
	}
}

// process handles entries and acknowledges the ones that succeeded or can
// never succeed. It returns how many were acknowledged.
func (s *RedisSource) process(ctx context.Context, group string, entries []redis.XMessage, handle Handler) int {
	acked := 0
	for _, entry := range entries {
		msg, err := decodeFields(entry.ID, entry.Values)
		if err == nil {
			err = handle(ctx, msg)
		}

		if err != nil && !errors.Is(err, ErrMalformedMessage) {
			slog.Warn("notification left pending",
				"group", group,
				"entry_id", entry.ID,
				"error", err,
			)
			continue
		}
		if err != nil {
			slog.Error("dropping malformed notification", "group", group, "entry_id", entry.ID, "error", err)
		}

		if err := s.rdb.XAck(ctx, s.stream, group, entry.ID).Err(); err != nil {
			slog.Warn("failed to ack notification", "group", group, "entry_id", entry.ID, "error", err)
			continue
		}
		acked++
	}
	return acked
}

func (s *RedisSource) ensureGroup(ctx context.Context, group string) error {
	err := s.rdb.XGroupCreateMkStream(ctx, s.stream, group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create group %s on %s: %w", group, s.stream, err)
	}
	return nil
}
