package provider

import (
	"context"
	"fmt"
)

// MockProvider is a mock AI provider for testing.
type MockProvider struct {
	Translations map[string]string // Map of source markup to translation
	Language     string            // Language returned by DetectLanguage (default "en")
	CallCount    int               // Number of times Translate was called
	LastRequest  *TranslateRequest // Last request received
}

// NewMockProvider creates a new mock provider with default translations.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Translations: map[string]string{
			"Hello":                        "안녕하세요",
			"Hello World":                  "안녕 세계",
			"Welcome to our site.":         "우리 사이트에 오신 것을 환영합니다.",
			"Hello <strong>world</strong>!": "안녕 <strong>세계</strong>!",
			"Use ⟦0-0⟧ to install":         "설치하려면 ⟦0-0⟧ 를 사용하세요",
		},
		Language: "en",
	}
}

// Translate returns mock translations. Unknown inputs come back bracketed so
// tests can tell a real lookup from a passthrough.
func (m *MockProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	m.CallCount++
	m.LastRequest = &req

	results := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		if translation, ok := m.Translations[text]; ok {
			results[i] = translation
		} else {
			results[i] = fmt.Sprintf("[%s]", text)
		}
	}

	return results, nil
}

// DetectLanguage returns the configured language code.
func (m *MockProvider) DetectLanguage(ctx context.Context, text string) (string, error) {
	return m.Language, nil
}

// Reset resets the call count and last request.
func (m *MockProvider) Reset() {
	m.CallCount = 0
	m.LastRequest = nil
}

// Verify MockProvider implements AIProvider and LanguageDetector
var (
	_ AIProvider       = (*MockProvider)(nil)
	_ LanguageDetector = (*MockProvider)(nil)
)
