package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	hantranslate "github.com/Capstone-Design-Hongik/hantranslate.ai"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements AIProvider using OpenAI's API. It also
// implements LanguageDetector and supports incremental streaming via
// TranslateStream.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // OpenAI API key (uses OPENAI_API_KEY env var if empty)
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Translate translates a batch of unit markup strings using OpenAI.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	systemPrompt := p.buildSystemPrompt(req)
	userMessage := p.buildUserMessage(req)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, &hantranslate.ProviderError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &hantranslate.ProviderError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	translations, err := p.parseResponse(resp.Choices[0].Message.Content, len(req.Texts))
	if err != nil {
		return nil, err
	}

	return translations, nil
}

// TranslateStream translates a single unit's markup, delivering the result
// as an incremental sequence of text chunks whose concatenation equals the
// final translated markup. The chunk callback runs on the calling goroutine.
func (p *OpenAIProvider) TranslateStream(ctx context.Context, req TranslateRequest, onChunk func(chunk string)) (string, error) {
	if len(req.Texts) != 1 {
		return "", &hantranslate.ProviderError{
			Message: "streaming translates exactly one unit per call",
		}
	}

	systemPrompt := p.buildStreamPrompt(req)

	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Texts[0]},
		},
		Temperature: p.temperature,
		Stream:      true,
	})
	if err != nil {
		return "", &hantranslate.ProviderError{
			Message:   "OpenAI streaming call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", &hantranslate.ProviderError{
				Message:   "OpenAI stream interrupted",
				Cause:     err,
				Retryable: isRetryableError(err),
			}
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		sb.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}

	return sb.String(), nil
}

// DetectLanguage identifies the dominant language of a text sample and
// returns its short code (e.g. "en", "ko").
func (p *OpenAIProvider) DetectLanguage(ctx context.Context, text string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleSystem,
				Content: "Identify the dominant natural language of the user's text. " +
					"Respond with a JSON object: { \"language\": \"<ISO 639-1 code>\" }. " +
					"Ignore code fragments, URLs, and markup.",
			},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", &hantranslate.ProviderError{
			Message:   "OpenAI language detection failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}
	if len(resp.Choices) == 0 {
		return "", &hantranslate.ProviderError{Message: "no response from OpenAI", Retryable: true}
	}

	var parsed struct {
		Language string `json:"language"`
	}
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil || parsed.Language == "" {
		return "", &hantranslate.ProviderError{Message: "invalid detection response format"}
	}
	return strings.ToLower(parsed.Language), nil
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = "en"
	}

	targetName := hantranslate.GetLanguageName(req.TargetLang)
	localeHint := hantranslate.GetLocaleClarification(req.TargetLang)

	// Get style description (default to neutral)
	styleDesc := hantranslate.GetStyleDescription(req.Style)

	// Build context section
	contextText := "The content is general web content."
	if req.Context != "" {
		contextText = fmt.Sprintf("The content is for: %s. Adapt the tone to be appropriate for this context.", req.Context)
	}

	prompt := fmt.Sprintf(`# Role
You are an expert native translator. You translate content to %s with the fluency and nuance of a highly educated native speaker.

# Context
%s

# Register
%s

# Task
Translate the provided markup snippets into idiomatic %s.

# Style Guide
- **Natural Flow**: Avoid literal translations. Rephrase sentences to sound completely natural to a native speaker.
- **Vocabulary**: Use precise, culturally relevant terminology. Avoid awkward "translationese" or robotic phrasing.
- **Tone**: Maintain the original intent but adapt the wording to fit the target culture's expectations.
- **Idioms**: Never translate idioms literally. Replace source-language idioms with natural %s equivalents.
- **Markup Safety**: Keep every HTML tag, attribute, class name, id, URL, and email address exactly as it appears. Translate only the human-readable text between tags.
- **Placeholders**: Markers of the form ⟦N-M⟧ stand for protected fragments. Copy each marker into your output EXACTLY once, unaltered, at the natural position for the sentence. Never translate, drop, duplicate, or reorder characters inside a marker.
- **Interpolation**: Do NOT translate variables or template placeholders (e.g., {{name}}, {count}, %%s, $1).
- **Formatting**: Preserve meaningful whitespace (leading/trailing spaces, multiple spaces, newlines). Use idiomatic punctuation for the target language.
- **Context Hints**: Each snippet may come with a "context" field describing where it sits in the page; use it to disambiguate, never echo it.`, targetName, contextText, styleDesc, targetName, targetName)

	// Add locale clarification if available
	if localeHint != "" {
		prompt += fmt.Sprintf("\n- **Locale**: %s", localeHint)
	}

	// Add user-provided glossary if available
	if len(req.Glossary) > 0 {
		prompt += "\n\n# Glossary\nWhen you encounter these phrases, prefer these translations (unless context demands otherwise):"
		for source, target := range req.Glossary {
			prompt += fmt.Sprintf("\n- \"%s\" → %s", source, target)
		}
	}

	// Add quality check instruction
	prompt += fmt.Sprintf("\n\n# Quality Check\nAfter translating each snippet, verify it sounds like native %s and not a calque, and that every ⟦N-M⟧ marker from the input appears exactly once in your output.", targetName)

	// Add format requirements
	prompt += `

# Format
Return a valid JSON object with a single key "translations" containing an array of strings in the exact same order as the input.
Example: { "translations": ["translated snippet 1", "translated snippet 2"] }
- Do NOT wrap in Markdown code blocks.`

	// Add exclusions if provided
	if len(req.ExcludedTerms) > 0 {
		terms := strings.Join(req.ExcludedTerms, "\n- ")
		prompt += fmt.Sprintf("\n\n# Exclusions\nDo NOT translate the following terms. Keep them exactly as they appear in the source:\n- %s", terms)
	}

	return prompt
}

// buildStreamPrompt is the single-snippet variant used by TranslateStream:
// plain text out, no JSON envelope, since chunks are displayed as they arrive.
func (p *OpenAIProvider) buildStreamPrompt(req TranslateRequest) string {
	targetName := hantranslate.GetLanguageName(req.TargetLang)
	prompt := fmt.Sprintf("Translate the user's markup snippet into idiomatic %s. "+
		"Keep every HTML tag and attribute exactly as it appears; translate only the human-readable text. "+
		"Markers of the form ⟦N-M⟧ are protected placeholders: copy each exactly once, unaltered. "+
		"Respond with the translated snippet only, no commentary, no code fences.", targetName)
	if len(req.ExcludedTerms) > 0 {
		prompt += " Never translate these terms: " + strings.Join(req.ExcludedTerms, ", ") + "."
	}
	return prompt
}

func (p *OpenAIProvider) buildUserMessage(req TranslateRequest) string {
	// If we have per-text contexts, use the object format
	hasContexts := false
	for _, ctx := range req.TextContexts {
		if ctx != "" {
			hasContexts = true
			break
		}
	}

	if !hasContexts {
		// Simple array format
		data, _ := json.Marshal(req.Texts)
		return string(data)
	}

	// Object format with contexts
	type item struct {
		Text    string `json:"text"`
		Context string `json:"context,omitempty"`
	}

	items := make([]item, len(req.Texts))
	for i, text := range req.Texts {
		items[i].Text = text
		if i < len(req.TextContexts) {
			items[i].Context = req.TextContexts[i]
		}
	}

	data, _ := json.Marshal(map[string][]item{"items": items})
	return string(data)
}

func (p *OpenAIProvider) parseResponse(content string, expectedCount int) ([]string, error) {
	// Try parsing as object first
	var objResult map[string]interface{}
	if err := json.Unmarshal([]byte(content), &objResult); err == nil {
		// Look for "translations" key
		if translations, ok := objResult["translations"]; ok {
			if arr, ok := translations.([]interface{}); ok {
				return toStringSlice(arr, expectedCount)
			}
		}

		// Fallback: find first array value
		for _, v := range objResult {
			if arr, ok := v.([]interface{}); ok {
				return toStringSlice(arr, expectedCount)
			}
		}
	}

	// Try parsing as direct array
	var arrResult []interface{}
	if err := json.Unmarshal([]byte(content), &arrResult); err == nil {
		return toStringSlice(arrResult, expectedCount)
	}

	return nil, &hantranslate.ProviderError{
		Message:   "invalid response format from OpenAI",
		Retryable: false,
	}
}

func toStringSlice(arr []interface{}, expectedCount int) ([]string, error) {
	result := make([]string, len(arr))
	for i, v := range arr {
		if s, ok := v.(string); ok {
			result[i] = s
		} else {
			result[i] = fmt.Sprintf("%v", v)
		}
	}

	if len(result) != expectedCount {
		return nil, &hantranslate.CountMismatchError{
			Expected: expectedCount,
			Got:      len(result),
		}
	}

	return result, nil
}

func isRetryableError(err error) bool {
	// Check for common retryable conditions
	errStr := err.Error()
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(errStr), pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAIProvider implements AIProvider and LanguageDetector
var (
	_ AIProvider       = (*OpenAIProvider)(nil)
	_ LanguageDetector = (*OpenAIProvider)(nil)
)
