// Package retry reintenta operaciones con backoff exponencial.
// Solo se reintentan los errores que domain.IsRetryable considera transitorios;
// el resto corta el ciclo en el primer intento.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/jhoicas/Tienda-api/internal/domain"
)

// Config parámetros del reintento.
type Config struct {
	MaxAttempts     int           // intentos totales, incluido el primero
	InitialInterval time.Duration // espera antes del segundo intento; se duplica en cada fallo
	MaxInterval     time.Duration // tope por espera (0 = 30s)
	// Retryable decide qué errores se reintentan. Nil = domain.IsRetryable.
	Retryable func(error) bool
	// OnRetry se invoca antes de cada espera (logging).
	OnRetry func(err error, wait time.Duration)
}

// Default 3 intentos empezando en 1s.
func Default() Config {
	return Config{MaxAttempts: 3, InitialInterval: time.Second}
}

// Do ejecuta op hasta que tenga éxito, falle con un error no reintentable,
// se agoten los intentos o se cancele ctx. Devuelve el último error de op.
func Do(ctx context.Context, cfg Config, op func(ctx context.Context) error) error {
	_, err := DoValue(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// DoValue igual que Do pero para operaciones que devuelven un valor.
func DoValue[T any](ctx context.Context, cfg Config, op func(ctx context.Context) (T, error)) (T, error) {
	retryable := cfg.Retryable
	if retryable == nil {
		retryable = domain.IsRetryable
	}

	var result T
	operation := func() error {
		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var notify backoff.Notify
	if cfg.OnRetry != nil {
		notify = func(err error, d time.Duration) { cfg.OnRetry(err, d) }
	}

	err := backoff.RetryNotify(operation, newBackOff(ctx, cfg), notify)
	return result, err
}

// Wrap devuelve una versión de fn que se reintenta con cfg.
func Wrap[T any](cfg Config, fn func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return DoValue(ctx, cfg, fn)
	}
}

func newBackOff(ctx context.Context, cfg Config) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if cfg.InitialInterval > 0 {
		eb.InitialInterval = cfg.InitialInterval
	}
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxInterval = 30 * time.Second
	if cfg.MaxInterval > 0 {
		eb.MaxInterval = cfg.MaxInterval
	}
	eb.MaxElapsedTime = 0
	eb.Reset()

	var b backoff.BackOff = eb
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	return backoff.WithContext(b, ctx)
}
