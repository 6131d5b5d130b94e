package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache guarda snapshots de exibição por pouco tempo. Serve só a navegação
// do catálogo; a colocação de aposta nunca lê daqui.
type Cache struct {
	R   *redis.Client
	TTL time.Duration
}

func New(r *redis.Client, ttl time.Duration) *Cache { return &Cache{R: r, TTL: ttl} }

func keySport(sportKey string) string { return "catalog:sport:" + sportKey }

func keyEvent(sportKey, eventID string) string { return "catalog:event:" + sportKey + ":" + eventID }

func (c *Cache) GetSport(ctx context.Context, sportKey string, dst any) (bool, error) {
	return c.get(ctx, keySport(sportKey), dst)
}

func (c *Cache) SetSport(ctx context.Context, sportKey string, v any) error {
	return c.set(ctx, keySport(sportKey), v)
}

func (c *Cache) GetEvent(ctx context.Context, sportKey, eventID string, dst any) (bool, error) {
	return c.get(ctx, keyEvent(sportKey, eventID), dst)
}

func (c *Cache) SetEvent(ctx context.Context, sportKey, eventID string, v any) error {
	return c.set(ctx, keyEvent(sportKey, eventID), v)
}

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Cache) set(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.R.Set(ctx, key, b, c.TTL).Err()
}
