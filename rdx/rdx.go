package rdx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenTTL = time.Hour

// Client caches issued session tokens in redis. Best effort everywhere: a
// nil Client (no REDIS_URL configured) and a down redis both degrade to
// token checks against the JWT alone. Constructed in main, injected.
type Client struct {
	conn *redis.Client
}

func New(url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Client{conn: redis.NewClient(opts)}, nil
}

func tokenKey(userID int) string {
	return fmt.Sprintf("auth:token:%d", userID)
}

func (c *Client) StoreToken(ctx context.Context, userID int, token string) error {
	if c == nil {
		return nil
	}
	return c.conn.Set(ctx, tokenKey(userID), token, tokenTTL).Err()
}

func (c *Client) DeleteToken(ctx context.Context, userID int) error {
	if c == nil {
		return nil
	}
	return c.conn.Del(ctx, tokenKey(userID)).Err()
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.conn.Close()
}
