package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "clinikpe"

var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session: not found")

	// ErrInvalidSession is returned when a session lacks required fields.
	ErrInvalidSession = errors.New("session: invalid session")
)

// Key builds the Redis key of a per-session value.
func Key(kind, sessionID string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, kind, sessionID)
}

// Store persists sessions in Redis.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewStore creates a session store whose sessions live for ttl.
func NewStore(redisClient *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Store{redis: redisClient, ttl: ttl, now: time.Now}
}

func (s *Store) TTL() time.Duration { return s.ttl }

// Create assigns an id and expiry to sess and saves it.
func (s *Store) Create(ctx context.Context, sess Session) (Session, error) {
	if sess.UpstreamToken == "" {
		return Session{}, fmt.Errorf("%w: missing upstream token", ErrInvalidSession)
	}
	if sess.Kind == "" {
		sess.Kind = KindAdmin
	}
	now := s.now().UTC()
	sess.ID = uuid.NewString()
	sess.CreatedAt = now
	sess.ExpiresAt = now.Add(s.ttl)
	if err := s.write(ctx, sess, s.ttl); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get loads a session.
func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrNotFound
	}
	data, err := s.redis.Get(ctx, Key("session", id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: get: %w", err)
	}
	sess, err := unmarshal(data)
	if err != nil {
		return Session{}, fmt.Errorf("session: unmarshal: %w", err)
	}
	if sess.Expired(s.now()) {
		return Session{}, ErrNotFound
	}
	return sess, nil
}

// Update overwrites an existing session without extending its lifetime.
func (s *Store) Update(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidSession)
	}
	remaining := sess.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return ErrNotFound
	}
	exists, err := s.redis.Exists(ctx, Key("session", sess.ID)).Result()
	if err != nil {
		return fmt.Errorf("session: exists: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	return s.write(ctx, sess, remaining)
}

// Delete removes only the session record. Use Clear on logout.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, Key("session", id)).Err(); err != nil {
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

func (s *Store) write(ctx context.Context, sess Session, ttl time.Duration) error {
	data, err := marshal(sess)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}
	if err := s.redis.Set(ctx, Key("session", sess.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("session: set: %w", err)
	}
	return nil
}

// Clear removes every key belonging to a session: the session itself, the
// sidebar state, cached boards and the notification feed.
func Clear(ctx context.Context, redisClient *redis.Client, id string) error {
	if id == "" {
		return nil
	}
	keys := []string{
		Key("session", id),
		Key("sidebar", id),
		Key("notify", id),
	}
	iter := redisClient.Scan(ctx, 0, Key("board", id)+":*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("session: scan boards: %w", err)
	}
	if err := redisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// SidebarState is the persisted navigation state of the sidebar menu.
type SidebarState struct {
	Collapsed bool     `json:"collapsed"`
	ActiveKey string   `json:"active_key"`
	Expanded  []string `json:"expanded"`
}

// SidebarStore persists SidebarState per session.
type SidebarStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewSidebarStore(redisClient *redis.Client, ttl time.Duration) *SidebarStore {
	return &SidebarStore{redis: redisClient, ttl: ttl}
}

// Get returns the saved state, or the zero state when none exists.
func (s *SidebarStore) Get(ctx context.Context, sessionID string) (SidebarState, error) {
	state := SidebarState{Expanded: []string{}}
	data, err := s.redis.Get(ctx, Key("sidebar", sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("session: get sidebar: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		return SidebarState{Expanded: []string{}}, fmt.Errorf("session: unmarshal sidebar: %w", err)
	}
	if state.Expanded == nil {
		state.Expanded = []string{}
	}
	return state, nil
}

func (s *SidebarStore) Set(ctx context.Context, sessionID string, state SidebarState) error {
	if state.Expanded == nil {
		state.Expanded = []string{}
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("session: marshal sidebar: %w", err)
	}
	if err := s.redis.Set(ctx, Key("sidebar", sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session: set sidebar: %w", err)
	}
	return nil
}

// BoardCache keeps the last loaded order of a reorderable list per session so
// a drop can be resolved against what the user is looking at.
type BoardCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewBoardCache(redisClient *redis.Client, ttl time.Duration) *BoardCache {
	return &BoardCache{redis: redisClient, ttl: ttl}
}

func boardKey(sessionID, kind string) string {
	return Key("board", sessionID) + ":" + kind
}

// Load decodes the cached board into out. It reports false when nothing is cached.
func (c *BoardCache) Load(ctx context.Context, sessionID, kind string, out any) (bool, error) {
	data, err := c.redis.Get(ctx, boardKey(sessionID, kind)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: get board: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("session: unmarshal board: %w", err)
	}
	return true, nil
}

func (c *BoardCache) Save(ctx context.Context, sessionID, kind string, items any) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("session: marshal board: %w", err)
	}
	if err := c.redis.Set(ctx, boardKey(sessionID, kind), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("session: set board: %w", err)
	}
	return nil
}

// Invalidate drops a cached board.
func (c *BoardCache) Invalidate(ctx context.Context, sessionID, kind string) error {
	if err := c.redis.Del(ctx, boardKey(sessionID, kind)).Err(); err != nil {
		return fmt.Errorf("session: delete board: %w", err)
	}
	return nil
}
