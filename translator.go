package hantranslate

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Translator orchestrates the full page translation pipeline: parse,
// extract, cache lookup, provider round-trip, apply.
type Translator struct {
	targetLang    string
	sourceLang    string
	provider      AIProvider
	cache         TranslationCache
	rules         Rules
	hasRules      bool
	excludedTerms []string
	context       string
	glossary      map[string]string
	style         TranslationStyle
}

// AIProvider is the interface for AI translation backends. The provider is
// an opaque asynchronous text-in/text-out collaborator; it may fail or
// truncate per call, scoped to that call only.
type AIProvider interface {
	Translate(ctx context.Context, req TranslateRequest) ([]string, error)
}

// LanguageDetector is the optional detection half of the translation
// collaborator.
type LanguageDetector interface {
	DetectLanguage(ctx context.Context, text string) (string, error)
}

// TranslateRequest contains the parameters for a translation request. Texts
// carry unit markup with protected fragments already replaced by placeholder
// tokens; providers must return the tokens verbatim.
type TranslateRequest struct {
	Texts         []string
	TargetLang    string
	SourceLang    string
	ExcludedTerms []string
	Context       string
	TextContexts  []string
	Glossary      map[string]string
	Style         TranslationStyle
}

// TranslationCache is the interface for translation caching.
type TranslationCache interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
}

// TranslatorOption is a functional option for configuring the Translator.
type TranslatorOption func(*Translator)

// WithSourceLang sets the source language.
func WithSourceLang(lang string) TranslatorOption {
	return func(t *Translator) {
		t.sourceLang = lang
	}
}

// WithCache sets the translation cache.
func WithCache(cache TranslationCache) TranslatorOption {
	return func(t *Translator) {
		t.cache = cache
	}
}

// WithClassifierRules sets custom extraction classifier rules.
func WithClassifierRules(r Rules) TranslatorOption {
	return func(t *Translator) {
		t.rules = r
		t.hasRules = true
	}
}

// WithExcludedTerms sets terms that should not be translated.
func WithExcludedTerms(terms []string) TranslatorOption {
	return func(t *Translator) {
		t.excludedTerms = terms
	}
}

// WithContext sets the global translation context.
func WithContext(ctx string) TranslatorOption {
	return func(t *Translator) {
		t.context = ctx
	}
}

// WithGlossary sets preferred translations for specific phrases.
func WithGlossary(glossary map[string]string) TranslatorOption {
	return func(t *Translator) {
		t.glossary = glossary
	}
}

// WithStyle sets the translation style/register.
func WithStyle(style TranslationStyle) TranslatorOption {
	return func(t *Translator) {
		t.style = style
	}
}

// NewTranslator creates a new Translator with the given target language and
// provider.
func NewTranslator(targetLang string, provider AIProvider, opts ...TranslatorOption) *Translator {
	t := &Translator{
		targetLang: targetLang,
		sourceLang: "en",
		provider:   provider,
		style:      StyleNeutral,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// NewEngineFor builds an extraction engine over page markup using the
// translator's classifier rules. Callers that need progressive apply or
// restore access use the engine directly.
func (t *Translator) NewEngineFor(content string) (*Engine, *goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, nil, &ParseError{Message: "failed to parse HTML document", Cause: err}
	}
	var opts []EngineOption
	if t.hasRules {
		opts = append(opts, WithRules(t.rules))
	}
	return NewEngine(doc.Nodes[0], opts...), doc, nil
}

// TranslatePage translates a full HTML page and returns the final markup
// with per-unit statistics.
func (t *Translator) TranslatePage(ctx context.Context, content string) (*TranslatedPage, error) {
	// Skip if source == target
	if t.isSourceLang() {
		return &TranslatedPage{Content: content}, nil
	}

	engine, doc, err := t.NewEngineFor(content)
	if err != nil {
		return nil, err
	}

	units := engine.ExtractUnits()
	if len(units) == 0 {
		// Valid terminal state: nothing to translate.
		return &TranslatedPage{Content: content}, nil
	}

	results, cachedCount, translatedCount, err := t.translateUnits(ctx, units)
	if err != nil {
		return nil, err
	}

	report := engine.Apply(results)
	final := t.setHTMLAttributes(doc)

	return &TranslatedPage{
		Content:         final,
		TranslatedCount: translatedCount,
		CachedCount:     cachedCount,
		TotalUnits:      len(units),
		Report:          report,
	}, nil
}

// DetectSourceLanguage asks the provider to identify the dominant language
// of a page's extracted text. Requires a provider implementing
// LanguageDetector.
func (t *Translator) DetectSourceLanguage(ctx context.Context, content string) (string, error) {
	detector, ok := t.provider.(LanguageDetector)
	if !ok {
		return "", &ProviderError{Message: "provider does not support language detection"}
	}

	engine, _, err := t.NewEngineFor(content)
	if err != nil {
		return "", err
	}
	units := engine.ExtractUnits()

	var sample strings.Builder
	for _, u := range units {
		if sample.Len() > 1000 {
			break
		}
		sample.WriteString(u.Text)
		sample.WriteString("\n")
	}
	if strings.TrimSpace(sample.String()) == "" {
		return "", &ProviderError{Message: "no text content to detect language from"}
	}

	return detector.DetectLanguage(ctx, sample.String())
}

// translateUnits resolves unit translations through the cache and provider,
// deduplicating repeated markup by hash.
func (t *Translator) translateUnits(ctx context.Context, units []ContentUnit) ([]UnitTranslation, int, int, error) {
	byHash := make(map[string]string)
	var cacheMisses []ContentUnit
	seenHashes := make(map[string]bool)
	cachedCount := 0

	// Check cache for each unit
	for _, u := range units {
		cacheKey := CacheKey(u.Hash, t.targetLang)

		if t.cache != nil {
			if cached, ok := t.cache.Get(cacheKey); ok {
				byHash[u.Hash] = cached
				cachedCount++
				continue
			}
		}

		// Deduplicate cache misses
		if !seenHashes[u.Hash] {
			cacheMisses = append(cacheMisses, u)
			seenHashes[u.Hash] = true
		}
	}

	// Translate cache misses via AI
	translatedCount := 0
	if len(cacheMisses) > 0 && t.provider != nil {
		texts := make([]string, len(cacheMisses))
		textContexts := make([]string, len(cacheMisses))
		for i, u := range cacheMisses {
			texts[i] = u.TranslatableMarkup
			textContexts[i] = u.Context
		}

		results, err := t.provider.Translate(ctx, TranslateRequest{
			Texts:         texts,
			TargetLang:    t.targetLang,
			SourceLang:    t.sourceLang,
			ExcludedTerms: t.excludedTerms,
			Context:       t.context,
			TextContexts:  textContexts,
			Glossary:      t.glossary,
			Style:         t.style,
		})
		if err != nil {
			return nil, 0, 0, err
		}
		if len(results) != len(cacheMisses) {
			return nil, 0, 0, &CountMismatchError{Expected: len(cacheMisses), Got: len(results)}
		}

		// Cache and store results
		for i, u := range cacheMisses {
			byHash[u.Hash] = results[i]
			if t.cache != nil {
				_ = t.cache.Set(CacheKey(u.Hash, t.targetLang), results[i]) // Ignore cache set errors
			}
			translatedCount++
		}
	}

	out := make([]UnitTranslation, 0, len(units))
	for _, u := range units {
		if translated, ok := byHash[u.Hash]; ok {
			out = append(out, UnitTranslation{ID: u.ID, TranslatedMarkup: translated})
		}
	}
	return out, cachedCount, translatedCount, nil
}

// isSourceLang checks if target matches source (no translation needed).
func (t *Translator) isSourceLang() bool {
	return normalizeBaseLang(t.targetLang) == normalizeBaseLang(t.sourceLang)
}

// setHTMLAttributes sets lang and dir attributes on the <html> tag and
// serializes the document.
func (t *Translator) setHTMLAttributes(doc *goquery.Document) string {
	htmlTag := doc.Find("html")
	if htmlTag.Length() > 0 {
		htmlTag.SetAttr("lang", ToHTMLLang(t.targetLang))
		htmlTag.SetAttr("dir", GetDirection(t.targetLang))
	}

	result, err := doc.Html()
	if err != nil {
		return ""
	}
	return result
}

// TargetLang returns the target language.
func (t *Translator) TargetLang() string {
	return t.targetLang
}

// SourceLang returns the source language.
func (t *Translator) SourceLang() string {
	return t.sourceLang
}

// IsSourceLang checks if the target language matches the source language.
// When true, translation can be bypassed.
func (t *Translator) IsSourceLang(targetLangOverride ...string) bool {
	targetLang := t.targetLang
	if len(targetLangOverride) > 0 && targetLangOverride[0] != "" {
		targetLang = targetLangOverride[0]
	}
	return normalizeBaseLang(targetLang) == normalizeBaseLang(t.sourceLang)
}

// IsRTL returns true if the target language uses right-to-left text direction.
func (t *Translator) IsRTL(targetLangOverride ...string) bool {
	targetLang := t.targetLang
	if len(targetLangOverride) > 0 && targetLangOverride[0] != "" {
		targetLang = targetLangOverride[0]
	}
	return IsRTL(targetLang)
}

// GetDir returns the text direction for the target language ("ltr" or "rtl").
func (t *Translator) GetDir(targetLangOverride ...string) string {
	targetLang := t.targetLang
	if len(targetLangOverride) > 0 && targetLangOverride[0] != "" {
		targetLang = targetLangOverride[0]
	}
	return GetDirection(targetLang)
}

// Glossary returns the glossary of preferred translations.
func (t *Translator) Glossary() map[string]string {
	return t.glossary
}

// Style returns the translation style.
func (t *Translator) Style() TranslationStyle {
	return t.style
}

// Context returns the global translation context.
func (t *Translator) Context() string {
	return t.context
}

// ExcludedTerms returns the list of excluded terms.
func (t *Translator) ExcludedTerms() []string {
	return t.excludedTerms
}

// normalizeBaseLang extracts the base language code (e.g., "en" from "en_US").
func normalizeBaseLang(lang string) string {
	parts := strings.Split(NormalizeLocale(lang), "_")
	if len(parts) > 0 {
		return strings.ToLower(parts[0])
	}
	return strings.ToLower(lang)
}
