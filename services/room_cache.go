package services

import (
	"context"
	"encoding/json"
	"time"

	"hms-backend/models"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const availableRoomsKey = "rooms:available"

// RoomCache caches the available-rooms listing in Redis. The listing is read
// on every booking page load but changes only when a room changes state, so a
// short TTL plus explicit invalidation keeps it fresh. All methods tolerate a
// nil receiver, so callers never need to check whether caching is enabled.
type RoomCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRoomCache(rdb *redis.Client, ttl time.Duration) *RoomCache {
	if rdb == nil {
		return nil
	}
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	return &RoomCache{rdb: rdb, ttl: ttl}
}

func (c *RoomCache) Get(ctx context.Context) ([]models.Room, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, availableRoomsKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.WithError(err).Warn("room cache read failed")
		}
		return nil, false
	}
	var rooms []models.Room
	if err := json.Unmarshal(raw, &rooms); err != nil {
		return nil, false
	}
	return rooms, true
}

func (c *RoomCache) Set(ctx context.Context, rooms []models.Room) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(rooms)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, availableRoomsKey, raw, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("room cache write failed")
	}
}

func (c *RoomCache) Invalidate(ctx context.Context) {
	if c == nil {
		return
	}
	if err := c.rdb.Del(ctx, availableRoomsKey).Err(); err != nil {
		log.WithError(err).Warn("room cache invalidation failed")
	}
}
