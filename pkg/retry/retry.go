package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Policy política de reintentos con backoff exponencial. Se aplica de forma
// uniforme a todas las llamadas salientes (ShipStation, Shopify, Sheets).
// El delay por intento es BaseDelay * 2^n, acotado por MaxDelay; una señal
// explícita de rate limit (RateLimitError con Retry-After) tiene prioridad.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Retryable decide si un error amerita reintento. nil = reintentar todo.
	Retryable func(error) bool
	Log       zerolog.Logger
}

// Default política observada en el sistema original: 5 intentos, base 1s.
func Default(log zerolog.Logger) Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		Log:         log,
	}
}

// RateLimitError señal de límite de tasa (HTTP 429). Siempre es reintentable;
// si el upstream indicó Retry-After, ese valor reemplaza al backoff calculado.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limit excedido (retry-after %s)", e.RetryAfter)
	}
	return "rate limit excedido"
}

// IsRateLimit reporta si err encadena un RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// Do ejecuta fn hasta MaxAttempts veces. Devuelve nil en el primer éxito,
// el error original si no es reintentable, o el último error al agotar intentos.
// Respeta la cancelación del contexto durante las esperas.
func (p Policy) Do(ctx context.Context, op string, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !p.retryable(err) {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		delay := p.delay(attempt, err)
		p.Log.Warn().
			Str("op", op).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Err(err).
			Msg("llamada fallida, reintentando")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%s: agotados %d intentos: %w", op, attempts, err)
}

func (p Policy) retryable(err error) bool {
	if IsRateLimit(err) {
		return true
	}
	if p.Retryable == nil {
		return true
	}
	return p.Retryable(err)
}

func (p Policy) delay(attempt int, err error) time.Duration {
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.RetryAfter > 0 {
		return rl.RetryAfter
	}
	d := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}
