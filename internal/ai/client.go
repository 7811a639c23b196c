package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Translator turns text from one language into another. Implementations are
// safe for concurrent use.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (string, error)
}

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
	ProviderNone   = "none"
)

type Config struct {
	// Provider is "groq", "gemini", "mock" or "none". Empty picks groq or
	// gemini from whichever key is set.
	Provider     string
	GroqAPIKey   string
	GeminiAPIKey string
	Model        string
	BaseURL      string
	Timeout      time.Duration
	// RequestsPerSecond caps outgoing provider calls across all workers.
	// Zero disables the limiter.
	RequestsPerSecond float64
	Burst             int
}

// NewClient creates the translator described by cfg. A missing credential is
// not an error: the result is Unavailable and every record simply keeps
// description_en absent.
func NewClient(ctx context.Context, cfg Config) (Translator, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	groqKey := strings.TrimSpace(cfg.GroqAPIKey)
	geminiKey := strings.TrimSpace(cfg.GeminiAPIKey)

	if provider == "" {
		switch {
		case groqKey != "":
			provider = ProviderGroq
		case geminiKey != "":
			provider = ProviderGemini
		default:
			provider = ProviderNone
		}
	}

	var t Translator
	switch provider {
	case ProviderGroq:
		if groqKey == "" {
			slog.Warn("translation skipped: provider groq selected but GROQ_API_KEY is not set")
			return Unavailable{}, nil
		}
		slog.Info("using groq translator", "model", firstNonEmpty(cfg.Model, defaultGroqModel))
		t = NewGroqClient(groqKey, cfg.Model, cfg.BaseURL, cfg.Timeout)
	case ProviderGemini:
		if geminiKey == "" {
			slog.Warn("translation skipped: provider gemini selected but GEMINI_API_KEY is not set")
			return Unavailable{}, nil
		}
		g, err := NewGeminiClient(ctx, geminiKey, cfg.Model, cfg.BaseURL, cfg.Timeout)
		if err != nil {
			return nil, err
		}
		slog.Info("using gemini translator", "model", g.model)
		t = g
	case ProviderMock:
		slog.Info("using mock translator")
		t = NewMockClient()
	case ProviderNone:
		slog.Info("translation skipped: no translation credential configured")
		return Unavailable{}, nil
	default:
		return nil, fmt.Errorf("unknown translation provider %q", cfg.Provider)
	}

	if cfg.RequestsPerSecond > 0 {
		t = WithRateLimit(t, cfg.RequestsPerSecond, cfg.Burst)
	}
	return t, nil
}

// Unavailable is the translator used when no provider is configured.
type Unavailable struct{}

func (Unavailable) Translate(context.Context, string, string, string) (string, error) {
	return "", ErrUnavailable
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
