package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.0-flash"

// GeminiClient translates with Google's Gemini API.
// Get an API key at https://aistudio.google.com/apikey
type GeminiClient struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

func NewGeminiClient(ctx context.Context, apiKey, model, baseURL string, timeout time.Duration) (*GeminiClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(apiKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(baseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(baseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiClient{
		client:  client,
		model:   firstNonEmpty(model, defaultGeminiModel),
		timeout: timeout,
	}, nil
}

func (g *GeminiClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	temperature := float32(0.1)
	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		genai.Text(buildPrompt(text, source, target)),
		&genai.GenerateContentConfig{
			Temperature:    &temperature,
			CandidateCount: 1,
		},
	)
	if err != nil {
		return "", classifyGeminiErr(err)
	}

	out := cleanTranslation(resp.Text())
	if out == "" {
		return "", &TranslationError{Provider: ProviderGemini, Reason: ReasonEmpty}
	}
	return out, nil
}

func classifyGeminiErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &TranslationError{Provider: ProviderGemini, Reason: reasonForStatus(apiErr.Code), Status: apiErr.Code, Err: err}
	}
	return transportError(ProviderGemini, err)
}
