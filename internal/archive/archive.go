// Package archive persists finished-game results to Redis. Live rooms are
// never stored here; the archive only receives terminal results.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arfandy/coup-server/internal/service"
)

func resultKey(roomID int) string { return "coup:result:" + strconv.Itoa(roomID) }

const recentKey = "coup:results:recent"

// recentLimit bounds the index of recently finished games.
const recentLimit = 100

// Client wraps the Redis connection used for the results archive.
type Client struct {
	rdb *redis.Client
}

// NewClient connects from a redis:// URL and verifies the connection.
func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// NewClientFromPool wraps an existing redis.Client for use in tests.
func NewClientFromPool(rdb *redis.Client) *Client {
	return &Client{rdb: rdb}
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// record is the stored form of a result, with the finish time attached.
type record struct {
	RoomID     int    `json:"room_id"`
	Winner     string `json:"winner"`
	Message    string `json:"message"`
	Turns      int    `json:"turns"`
	DurationMS int64  `json:"duration_ms"`
	FinishedAt int64  `json:"finished_at"`
}

// RecordResult stores one finished game and indexes it under the recent list.
// Room ids are reused across server restarts, so a later game overwrites an
// earlier one at the same id.
func (c *Client) RecordResult(ctx context.Context, roomID int, result service.GameResult) error {
	rec := record{
		RoomID:     roomID,
		Winner:     result.Winner,
		Message:    result.Message,
		Turns:      result.Turns,
		DurationMS: result.Duration.Milliseconds(),
		FinishedAt: time.Now().Unix(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := c.rdb.Set(ctx, resultKey(roomID), data, 0).Err(); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	pipe := c.rdb.Pipeline()
	pipe.LPush(ctx, recentKey, roomID)
	pipe.LTrim(ctx, recentKey, 0, recentLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("index result: %w", err)
	}
	return nil
}

// GetResult fetches one archived result. Returns nil when the room has no
// archived game.
func (c *Client) GetResult(ctx context.Context, roomID int) (json.RawMessage, error) {
	data, err := c.rdb.Get(ctx, resultKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	return json.RawMessage(data), nil
}

// RecentRoomIDs lists the most recently finished rooms, newest first.
func (c *Client) RecentRoomIDs(ctx context.Context) ([]int, error) {
	raw, err := c.rdb.LRange(ctx, recentKey, 0, recentLimit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list recent results: %w", err)
	}
	ids := make([]int, 0, len(raw))
	for _, s := range raw {
		id, err := strconv.Atoi(s)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
