package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultGroqBaseURL = "https://api.groq.com/openai/v1"
	defaultGroqModel   = "llama-3.1-8b-instant"
)

// GroqClient translates through Groq's OpenAI-compatible chat completions API.
type GroqClient struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

func NewGroqClient(apiKey, model, baseURL string, timeout time.Duration) *GroqClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &GroqClient{
		apiKey:  apiKey,
		model:   firstNonEmpty(model, defaultGroqModel),
		baseURL: strings.TrimRight(firstNonEmpty(baseURL, defaultGroqBaseURL), "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

func (g *GroqClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	reqBody := chatRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "user", Content: buildPrompt(text, source, target)},
		},
		Temperature: 0.1,
		MaxTokens:   2048,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", transportError(ProviderGroq, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(ProviderGroq, err)
	}

	var chatResp chatResponse
	jsonErr := json.Unmarshal(body, &chatResp)

	if resp.StatusCode >= 400 {
		cause := fmt.Errorf("%s", strings.TrimSpace(string(body)))
		if jsonErr == nil && chatResp.Error != nil {
			cause = fmt.Errorf("%s", chatResp.Error.Message)
		}
		return "", &TranslationError{Provider: ProviderGroq, Reason: reasonForStatus(resp.StatusCode), Status: resp.StatusCode, Err: cause}
	}
	if jsonErr != nil {
		return "", &TranslationError{Provider: ProviderGroq, Reason: ReasonProvider, Status: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", jsonErr)}
	}
	if len(chatResp.Choices) == 0 {
		return "", &TranslationError{Provider: ProviderGroq, Reason: ReasonEmpty, Status: resp.StatusCode}
	}

	out := cleanTranslation(chatResp.Choices[0].Message.Content)
	if out == "" {
		return "", &TranslationError{Provider: ProviderGroq, Reason: ReasonEmpty, Status: resp.StatusCode}
	}
	return out, nil
}
