package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist JTIs revocados (cierre de sesión) hasta su vencimiento natural.
type TokenBlacklist struct {
	client *redis.Client
}

// NewTokenBlacklist construye la lista negra sobre un cliente existente.
func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

func blacklistKey(jti string) string {
	return "token:blacklist:jti:" + jti
}

// Revoke marca el JTI como revocado durante ttl. Un ttl <= 0 no hace nada (el token ya venció).
func (b *TokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := b.client.Set(ctx, blacklistKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revocar token: %w", err)
	}
	return nil
}

// IsRevoked informa si el JTI fue revocado.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("consultar lista negra: %w", err)
	}
	return n > 0, nil
}
