package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TenantCache recuerda la organización activa de cada usuario.
type TenantCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewTenantCache ttl 0 = 30 días.
func NewTenantCache(client *redis.Client, ttl time.Duration) *TenantCache {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &TenantCache{client: client, ttl: ttl}
}

func currentTenantKey(userID string) string {
	return "tenant:current:" + userID
}

// GetCurrent devuelve "" si no hay valor guardado.
func (c *TenantCache) GetCurrent(ctx context.Context, userID string) (string, error) {
	v, err := c.client.Get(ctx, currentTenantKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("leer organización actual: %w", err)
	}
	return v, nil
}

// SetCurrent guarda la organización activa.
func (c *TenantCache) SetCurrent(ctx context.Context, userID, tenantID string) error {
	if err := c.client.Set(ctx, currentTenantKey(userID), tenantID, c.ttl).Err(); err != nil {
		return fmt.Errorf("guardar organización actual: %w", err)
	}
	return nil
}

// ClearCurrent olvida la organización activa (p. ej. al perder la membresía).
func (c *TenantCache) ClearCurrent(ctx context.Context, userID string) error {
	if err := c.client.Del(ctx, currentTenantKey(userID)).Err(); err != nil {
		return fmt.Errorf("borrar organización actual: %w", err)
	}
	return nil
}
