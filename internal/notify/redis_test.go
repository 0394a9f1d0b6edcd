package notify_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mtlprog/tasktrail/internal/config"
	"github.com/mtlprog/tasktrail/internal/domain"
	"github.com/mtlprog/tasktrail/internal/notify"
)

// RedisTestSuite runs the stream channel against a real Redis.
type RedisTestSuite struct {
	suite.Suite
	ctx    context.Context
	rdb    *redis.Client
	stream string
}

// SetupSuite runs once before all tests.
func (s *RedisTestSuite) SetupSuite() {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		s.T().Skip("REDIS_ADDR is not set")
	}

	s.ctx = context.Background()
	rdb, err := notify.NewRedisClient(s.ctx, config.RedisConfig{Addr: addr})
	s.Require().NoError(err)
	s.rdb = rdb
}

// SetupTest runs before each test.
func (s *RedisTestSuite) SetupTest() {
	s.stream = "tasktrail:test:" + uuid.NewString()
}

// TearDownTest runs after each test.
func (s *RedisTestSuite) TearDownTest() {
	s.rdb.Del(s.ctx, s.stream)
}

// TearDownSuite runs once after all tests.
func (s *RedisTestSuite) TearDownSuite() {
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
}

func (s *RedisTestSuite) source() *notify.RedisSource {
	return notify.NewRedisSource(s.rdb, config.NotifyConfig{
		Stream: s.stream,
		Batch:  10,
		Block:  100 * time.Millisecond,
	}, "test-consumer")
}

// TestEmitAndConsume tests that every group sees the event once and acks it.
func (s *RedisTestSuite) TestEmitAndConsume() {
	channel := notify.NewRedisChannel(s.rdb, s.stream)
	event := domain.NotificationEvent{
		Recipients: []string{"u1"},
		Task:       domain.TaskSnapshot{ID: "t1", Title: "Fix", Status: "TODO", AssigneeIDs: []string{"u1"}},
		Action:     domain.ActionAssigned,
	}
	s.Require().NoError(channel.Emit(s.ctx, domain.EventTaskAssigned, event))

	for _, group := range []string{notify.ConsumerStore, notify.ConsumerPush} {
		ctx, cancel := context.WithCancel(s.ctx)
		got := make(chan notify.Message, 1)

		go func() {
			_ = s.source().Consume(ctx, group, func(_ context.Context, msg notify.Message) error {
				got <- msg
				return nil
			})
		}()

		select {
		case msg := <-got:
			s.Equal(domain.EventTaskAssigned, msg.Name)
			s.Equal(event, msg.Event)
		case <-time.After(3 * time.Second):
			s.Fail("timed out waiting for group " + group)
		}

		s.Eventually(func() bool {
			pending, err := s.rdb.XPending(s.ctx, s.stream, group).Result()
			return err == nil && pending.Count == 0
		}, 2*time.Second, 20*time.Millisecond)
		cancel()
	}
}

// TestRedisTestSuite runs the test suite.
func TestRedisTestSuite(t *testing.T) {
	suite.Run(t, new(RedisTestSuite))
}
