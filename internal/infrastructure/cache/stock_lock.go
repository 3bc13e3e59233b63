package cache

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Tienda-api/internal/domain"
)

// releaseScript borra la llave solo si sigue siendo nuestra.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// StockLocker locks distribuidos con SET NX + TTL. Las llaves las arma el llamador
// (lock:inventory:{tenant}:{almacén}:{producto}) para serializar ajustes de stock entre instancias.
type StockLocker struct {
	client   *redis.Client
	ttl      time.Duration
	attempts int
	wait     time.Duration
}

// NewStockLocker ttl es la vida máxima del lock si el proceso muere sin liberarlo.
func NewStockLocker(client *redis.Client, ttl time.Duration) *StockLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &StockLocker{client: client, ttl: ttl, attempts: 20, wait: 50 * time.Millisecond}
}

// Acquire toma todos los locks (en orden para evitar interbloqueos) o ninguno.
// Devuelve domain.ErrStockLocked si alguno sigue ocupado tras los reintentos.
func (l *StockLocker) Acquire(ctx context.Context, keys []string) (func(), error) {
	sorted := uniqueSorted(keys)
	token := uuid.NewString()
	held := make([]string, 0, len(sorted))

	release := func() {
		// contexto propio: liberar aunque la petición ya se haya cancelado
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for _, k := range held {
			_ = releaseScript.Run(rctx, l.client, []string{k}, token).Err()
		}
	}

	for _, key := range sorted {
		ok, err := l.acquireOne(ctx, key, token)
		if err != nil {
			release()
			return nil, err
		}
		if !ok {
			release()
			return nil, fmt.Errorf("%w: %s", domain.ErrStockLocked, key)
		}
		held = append(held, key)
	}
	return release, nil
}

func (l *StockLocker) acquireOne(ctx context.Context, key, token string) (bool, error) {
	for i := 0; i < l.attempts; i++ {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return false, fmt.Errorf("lock redis %s: %w", key, err)
		}
		if ok {
			return true, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(l.wait):
		}
	}
	return false, nil
}

func uniqueSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
