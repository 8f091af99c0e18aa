// Package views deduplicates event views per viewer in a shared Redis store
// so that every service instance sees the same viewer sets.
package views

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Dedup keeps one Redis set of viewer addresses per event. Each set expires
// ttl after its last new viewer.
type Dedup struct {
	client *redis.Client
	ttl    time.Duration
}

// NewClient connects to Redis at addr.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewDedup(client *redis.Client, ttl time.Duration) *Dedup {
	return &Dedup{client: client, ttl: ttl}
}

func key(eventID uint) string {
	return fmt.Sprintf("views:event:%d", eventID)
}

// FirstView records the viewer and reports whether it had not viewed the
// event before.
func (d *Dedup) FirstView(ctx context.Context, eventID uint, viewer string) (bool, error) {
	k := key(eventID)
	pipe := d.client.TxPipeline()
	added := pipe.SAdd(ctx, k, viewer)
	pipe.Expire(ctx, k, d.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("record viewer: %w", err)
	}
	return added.Val() == 1, nil
}

// Reset forgets every viewer of the event.
func (d *Dedup) Reset(ctx context.Context, eventID uint) error {
	if err := d.client.Del(ctx, key(eventID)).Err(); err != nil {
		return fmt.Errorf("reset viewers: %w", err)
	}
	return nil
}

// Viewers counts the distinct viewers currently remembered.
func (d *Dedup) Viewers(ctx context.Context, eventID uint) (int64, error) {
	n, err := d.client.SCard(ctx, key(eventID)).Result()
	if err != nil {
		return 0, fmt.Errorf("count viewers: %w", err)
	}
	return n, nil
}
