package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	appErrors "github.com/cineops/showtime-api/pkg/errors"
)

// RoomLocker serialises booking attempts against a single room so the
// conflict-check-and-insert sequence is atomic across writers.
type RoomLocker interface {
	Acquire(ctx context.Context, roomID string) (release func(), err error)
}

// RedisRoomLocker implements RoomLocker with a SET NX lease per room.
// When multiple API instances share a database this is the portable
// backstop against check-then-act races on the same room.
type RedisRoomLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
}

// NewRedisRoomLocker builds a locker. TTL bounds how long a crashed holder
// can block a room; retry is the poll interval while waiting.
func NewRedisRoomLocker(client *redis.Client, ttl, retry time.Duration) *RedisRoomLocker {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}
	return &RedisRoomLocker{client: client, ttl: ttl, retry: retry}
}

// Acquire blocks until the room lease is obtained, the lease TTL worth of
// waiting has elapsed, or ctx is done.
func (l *RedisRoomLocker) Acquire(ctx context.Context, roomID string) (func(), error) {
	key := fmt.Sprintf("lock:room:%s", roomID)
	token := uuid.NewString()
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire room lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, appErrors.Clone(appErrors.ErrLockBusy, "")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}

	release := func() {
		// Delete only our own lease; an expired lock may belong to someone else.
		const script = `if redis.call("get", KEYS[1]) == ARGV[1] then return redis.call("del", KEYS[1]) else return 0 end`
		_ = l.client.Eval(context.Background(), script, []string{key}, token).Err()
	}
	return release, nil
}

// LocalRoomLocker is the single-instance fallback used when Redis is not
// configured: a plain per-room mutex.
type LocalRoomLocker struct {
	mu    sync.Mutex
	rooms map[string]*sync.Mutex
}

// NewLocalRoomLocker builds an in-process locker.
func NewLocalRoomLocker() *LocalRoomLocker {
	return &LocalRoomLocker{rooms: make(map[string]*sync.Mutex)}
}

// Acquire takes the mutex for the room, creating it on first use.
func (l *LocalRoomLocker) Acquire(_ context.Context, roomID string) (func(), error) {
	l.mu.Lock()
	m, ok := l.rooms[roomID]
	if !ok {
		m = &sync.Mutex{}
		l.rooms[roomID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}
