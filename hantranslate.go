// Package hantranslate provides an AI-powered page translation engine.
//
// Hantranslate extracts translatable content units from an HTML document
// tree, protects inline fragments that must survive translation unchanged
// (inline code, keyboard input, etc.), hands the translatable markup to an
// AI provider, and reinserts the translated results without corrupting the
// document structure.
//
// Basic usage:
//
//	import (
//	    "context"
//	    hantranslate "github.com/Capstone-Design-Hongik/hantranslate.ai"
//	    "github.com/Capstone-Design-Hongik/hantranslate.ai/cache"
//	    "github.com/Capstone-Design-Hongik/hantranslate.ai/provider"
//	)
//
//	func main() {
//	    // Create provider
//	    p := provider.NewOpenAIProvider(provider.OpenAIConfig{
//	        APIKey: os.Getenv("OPENAI_API_KEY"),
//	    })
//
//	    // Create translator
//	    t := hantranslate.NewTranslator("ko_KR", p,
//	        hantranslate.WithCache(cache.NewInMemoryCache(3600)),
//	    )
//
//	    // Translate a page
//	    result, err := t.TranslatePage(context.Background(), "<p>Hello World</p>")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result.Content) // <p>안녕 세계</p>
//	}
//
// For finer control (progressive display, restoring originals), use Engine
// directly: ParseDocument + NewEngine + ExtractUnits/Apply/RestoreAll.
package hantranslate
