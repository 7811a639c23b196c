package ai

import (
	"context"

	"golang.org/x/time/rate"
)

type limited struct {
	next    Translator
	limiter *rate.Limiter
}

// WithRateLimit caps calls to t at rps per second, shared by every caller.
func WithRateLimit(t Translator, rps float64, burst int) Translator {
	if burst <= 0 {
		burst = 1
	}
	return &limited{next: t, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (l *limited) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return l.next.Translate(ctx, text, source, target)
}
