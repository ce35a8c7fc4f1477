package hantranslate

// TranslationStyle controls the tone and formality of translations.
type TranslationStyle string

const (
	// StyleFormal uses formal, professional language suitable for official documents.
	StyleFormal TranslationStyle = "formal"
	// StyleNeutral uses a neutral, professional tone suitable for general content.
	StyleNeutral TranslationStyle = "neutral"
	// StyleCasual uses casual, conversational language suitable for blogs/social media.
	StyleCasual TranslationStyle = "casual"
	// StyleMarketing uses persuasive, engaging language for promotional content.
	StyleMarketing TranslationStyle = "marketing"
	// StyleTechnical uses precise, technical language for documentation.
	StyleTechnical TranslationStyle = "technical"
)

// styleDescriptions maps each style to the register instruction given to the AI.
var styleDescriptions = map[TranslationStyle]string{
	StyleFormal:    "Use a formal, respectful register appropriate for official documents.",
	StyleNeutral:   "Use a neutral, professional register appropriate for general web content.",
	StyleCasual:    "Use a casual, conversational register appropriate for blogs and social media.",
	StyleMarketing: "Use a persuasive, engaging register appropriate for promotional content.",
	StyleTechnical: "Use a precise, technical register appropriate for developer documentation.",
}

// GetStyleDescription returns the register instruction for a style.
// Unknown or empty styles fall back to neutral.
func GetStyleDescription(style TranslationStyle) string {
	if desc, ok := styleDescriptions[style]; ok {
		return desc
	}
	return styleDescriptions[StyleNeutral]
}

// ContentUnit is the public view of one extracted translation unit: a
// block-level node's markup treated as a single translation request granule.
// Placeholder maps and original snapshots stay inside the Engine; callers
// only see what they need to request a translation.
type ContentUnit struct {
	ID                 string // Unique within one extraction pass only
	TranslatableMarkup string // Markup with protected fragments replaced by tokens
	Text               string // Rendered plain text (tokens included)
	Hash               string // SHA-256 hash of TranslatableMarkup
	Context            string // Disambiguation context for AI
	PlaceholderCount   int    // Number of protected fragments in this unit
}

// Placeholder records one protected fragment substituted out of a unit's
// markup before translation.
type Placeholder struct {
	Token            string // Opaque marker inserted into translatable markup
	OriginalFragment string // The protected markup it stands for
}

// UnitTranslation is one translated result keyed by unit id.
type UnitTranslation struct {
	ID               string
	TranslatedMarkup string
}

// ApplyStatus is the per-unit outcome of an Apply call.
type ApplyStatus string

const (
	// StatusApplied means the translated markup was written to the owner node.
	StatusApplied ApplyStatus = "applied"
	// StatusStale means the unit id belongs to an invalidated extraction pass.
	StatusStale ApplyStatus = "stale"
	// StatusDetached means the owner node is no longer attached to the live tree.
	StatusDetached ApplyStatus = "detached"
)

// ApplyOutcome reports what happened to a single unit during Apply.
type ApplyOutcome struct {
	ID            string
	Status        ApplyStatus
	MissingTokens []string // Tokens absent from the translated markup (non-fatal)
	Err           error    // StaleUnitError, DetachedElementWarning, or MissingPlaceholderWarning
}

// ApplyReport aggregates the per-unit outcomes of one Apply call.
// One unit's failure never aborts the remaining units.
type ApplyReport struct {
	Outcomes []ApplyOutcome
}

// Applied returns the number of units successfully written.
func (r *ApplyReport) Applied() int { return r.count(StatusApplied) }

// Stale returns the number of results rejected as belonging to an invalidated pass.
func (r *ApplyReport) Stale() int { return r.count(StatusStale) }

// Detached returns the number of results whose owner node had left the tree.
func (r *ApplyReport) Detached() int { return r.count(StatusDetached) }

// MissingPlaceholders returns the outcomes of applied units with at least
// one unresolved placeholder token.
func (r *ApplyReport) MissingPlaceholders() []ApplyOutcome {
	var out []ApplyOutcome
	for _, o := range r.Outcomes {
		if len(o.MissingTokens) > 0 {
			out = append(out, o)
		}
	}
	return out
}

func (r *ApplyReport) count(s ApplyStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// TranslatedPage is the result of a page translation operation.
type TranslatedPage struct {
	Content         string       // Translated page markup
	TranslatedCount int          // Number of newly translated units
	CachedCount     int          // Number of cache hits
	TotalUnits      int          // Total translatable units found
	Report          *ApplyReport // Per-unit apply outcomes (nil when nothing was applied)
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}
