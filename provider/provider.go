// Package provider defines the AI provider interface and implementations.
package provider

import hantranslate "github.com/Capstone-Design-Hongik/hantranslate.ai"

// AIProvider is the interface for AI translation backends.
// This is an alias to the main package interface for convenience.
type AIProvider = hantranslate.AIProvider

// LanguageDetector is an alias to the main package detection interface.
type LanguageDetector = hantranslate.LanguageDetector

// TranslateRequest is an alias to the main package type.
type TranslateRequest = hantranslate.TranslateRequest
