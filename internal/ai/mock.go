package ai

import (
	"context"
	"strings"
)

// MockClient "translates" by tagging the text with the target language. It
// is handy for local runs without a provider key.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) Translate(ctx context.Context, text, source, target string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", &TranslationError{Provider: ProviderMock, Reason: ReasonEmpty}
	}
	return "[" + strings.ToLower(target) + "] " + text, nil
}
