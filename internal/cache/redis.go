package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"stagedoor/internal/models"

	"github.com/redis/go-redis/v9"
)

// Config holds the Redis cache settings. When Enabled is false no client is
// created and all reads go straight to the database.
type Config struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// ShowCache is a read-through cache for show records. Seat counters change
// on every booking, so entries are short-lived and invalidated on every
// mutation; a miss is never an error.
type ShowCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewShowCache(cfg Config) (*ShowCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &ShowCache{client: rdb, ttl: cfg.TTL}, nil
}

func showKey(id string) string {
	return "show:" + id
}

// GetShow returns the cached show or (nil, nil) on a miss.
func (c *ShowCache) GetShow(ctx context.Context, id string) (*models.Show, error) {
	data, err := c.client.Get(ctx, showKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("cache lookup: %w", err)
	}

	var show models.Show
	if err := json.Unmarshal(data, &show); err != nil {
		return nil, fmt.Errorf("cache decode: %w", err)
	}
	return &show, nil
}

func (c *ShowCache) SetShow(ctx context.Context, show *models.Show) error {
	data, err := json.Marshal(show)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, showKey(show.ID.String()), data, c.ttl).Err()
}

// InvalidateShow drops the cached entry after any seat-count or catalog
// mutation so reads reflect the latest committed state.
func (c *ShowCache) InvalidateShow(ctx context.Context, id string) error {
	return c.client.Del(ctx, showKey(id)).Err()
}

// HealthCheck pings Redis with a short timeout.
func (c *ShowCache) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

func (c *ShowCache) Close() error {
	return c.client.Close()
}
