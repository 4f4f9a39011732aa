// Package notify delivers user-facing notifications: the per-session toast
// feed, its live WebSocket stream and outbound e-mail.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vxplore/Clinik-pe-sub000/internal/observability/metrics"
	"github.com/vxplore/Clinik-pe-sub000/internal/session"
	"github.com/vxplore/Clinik-pe-sub000/pkg/logging"
)

// Level is the visual severity of a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notification is one toast shown to the user.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func newNotification(level Level, success bool, message string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Success:   success,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}

func Success(message string) Notification { return newNotification(LevelSuccess, true, message) }
func Error(message string) Notification   { return newNotification(LevelError, false, message) }
func Info(message string) Notification    { return newNotification(LevelInfo, true, message) }

// Warning reports a partial failure, such as a change kept locally after the
// backend rejected it.
func Warning(message string) Notification { return newNotification(LevelWarning, false, message) }

const defaultFeedSize = 50

// Feed keeps the latest notifications of each session in a Redis list and
// fans new ones out over pub/sub.
type Feed struct {
	redis   *redis.Client
	ttl     time.Duration
	size    int64
	metrics *metrics.DashboardMetrics
	logger  *logging.Logger
}

func NewFeed(redisClient *redis.Client, ttl time.Duration, m *metrics.DashboardMetrics, logger *logging.Logger) *Feed {
	if logger == nil {
		logger = logging.Default()
	}
	return &Feed{redis: redisClient, ttl: ttl, size: defaultFeedSize, metrics: m, logger: logger}
}

func channel(sessionID string) string {
	return session.Key("notify", sessionID) + ":live"
}

// Push records n for the session and publishes it to live subscribers.
func (f *Feed) Push(ctx context.Context, sessionID string, n Notification) error {
	f.metrics.ObserveNotification(string(n.Level))
	if sessionID == "" {
		return nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("notify: marshal notification: %w", err)
	}
	key := session.Key("notify", sessionID)
	pipe := f.redis.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, f.size-1)
	if f.ttl > 0 {
		pipe.Expire(ctx, key, f.ttl)
	}
	pipe.Publish(ctx, channel(sessionID), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("notify: push: %w", err)
	}
	return nil
}

// Recent returns up to limit notifications, newest first.
func (f *Feed) Recent(ctx context.Context, sessionID string, limit int) ([]Notification, error) {
	if limit <= 0 || int64(limit) > f.size {
		limit = int(f.size)
	}
	raw, err := f.redis.LRange(ctx, session.Key("notify", sessionID), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("notify: recent: %w", err)
	}
	out := make([]Notification, 0, len(raw))
	for _, item := range raw {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			f.logger.Warn("notify: dropping undecodable notification", "session_id", sessionID, "error", err)
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Subscription delivers notifications pushed after it was opened.
type Subscription struct {
	pubsub *redis.PubSub
	done   chan struct{}
	once   sync.Once
	C      <-chan Notification
}

// Close stops delivery; C is closed once the pending message, if any, is dropped.
func (s *Subscription) Close() error {
	s.once.Do(func() { close(s.done) })
	return s.pubsub.Close()
}

// Subscribe opens a live subscription for a session. The subscription is
// confirmed before Subscribe returns, so no later Push is missed.
func (f *Feed) Subscribe(ctx context.Context, sessionID string) (*Subscription, error) {
	pubsub := f.redis.Subscribe(ctx, channel(sessionID))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("notify: subscribe: %w", err)
	}

	out := make(chan Notification, 16)
	sub := &Subscription{pubsub: pubsub, done: make(chan struct{}), C: out}
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var n Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				f.logger.Warn("notify: dropping undecodable live notification", "session_id", sessionID, "error", err)
				continue
			}
			select {
			case out <- n:
			case <-sub.done:
				return
			}
		}
	}()
	return sub, nil
}
