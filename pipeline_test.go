package hantranslate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// concurrentProvider is a goroutine-safe test double for the progressive
// pipeline. It prefixes every text with a marker and can fail the batch
// containing a chosen text.
type concurrentProvider struct {
	mu        sync.Mutex
	calls     int
	failOn    string // fail any batch containing this substring
	batchLens []int
}

func (p *concurrentProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	p.mu.Lock()
	p.calls++
	p.batchLens = append(p.batchLens, len(req.Texts))
	p.mu.Unlock()

	if p.failOn != "" {
		for _, text := range req.Texts {
			if strings.Contains(text, p.failOn) {
				return nil, &ProviderError{Message: "batch failed", Retryable: true}
			}
		}
	}
	out := make([]string, len(req.Texts))
	for i, text := range req.Texts {
		out[i] = "번역:" + text
	}
	return out, nil
}

func manyParagraphs(n int) string {
	var sb strings.Builder
	sb.WriteString("<div>")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "<p>Paragraph %d</p>", i)
	}
	sb.WriteString("</div>")
	return sb.String()
}

func TestTranslatePageProgressive_Batches(t *testing.T) {
	provider := &concurrentProvider{}
	tr := NewTranslator("ko_KR", provider)

	page, err := tr.TranslatePageProgressive(context.Background(), manyParagraphs(25), PipelineConfig{
		BatchSize:   10,
		Concurrency: 2,
	}, nil)
	if err != nil {
		t.Fatalf("Progressive translation failed: %v", err)
	}

	if provider.calls != 3 {
		t.Errorf("Expected 3 batches for 25 units at size 10, got %d", provider.calls)
	}
	if page.TotalUnits != 25 || page.TranslatedCount != 25 {
		t.Errorf("Unexpected counts: total=%d translated=%d", page.TotalUnits, page.TranslatedCount)
	}
	if strings.Count(page.Content, "번역:Paragraph") != 25 {
		t.Errorf("Every paragraph should be translated")
	}
}

func TestTranslatePageProgressive_ProgressIsMonotonic(t *testing.T) {
	provider := &concurrentProvider{}
	tr := NewTranslator("ko_KR", provider)

	var dones []int
	var total int
	progress := func(done, tot int, outcomes []ApplyOutcome) {
		dones = append(dones, done)
		total = tot
	}

	_, err := tr.TranslatePageProgressive(context.Background(), manyParagraphs(12), PipelineConfig{
		BatchSize:   5,
		Concurrency: 3,
	}, progress)
	if err != nil {
		t.Fatal(err)
	}

	if total != 12 {
		t.Errorf("Expected total 12, got %d", total)
	}
	if len(dones) == 0 {
		t.Fatal("Progress callback never fired")
	}
	prev := 0
	for _, d := range dones {
		if d <= prev {
			t.Errorf("Progress must strictly increase: %v", dones)
			break
		}
		prev = d
	}
	if dones[len(dones)-1] != 12 {
		t.Errorf("Final progress should reach the total: %v", dones)
	}
}

func TestTranslatePageProgressive_BatchFailureIsIsolated(t *testing.T) {
	// Paragraph 0 is in the first batch of five; that batch fails.
	provider := &concurrentProvider{failOn: "Paragraph 0"}
	tr := NewTranslator("ko_KR", provider)

	page, err := tr.TranslatePageProgressive(context.Background(), manyParagraphs(15), PipelineConfig{
		BatchSize:   5,
		Concurrency: 1,
	}, nil)

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected the batch failure to surface, got %v", err)
	}
	if page == nil {
		t.Fatal("Partial page must still be returned")
	}
	if page.TranslatedCount != 10 {
		t.Errorf("Two of three batches should land, got %d translated", page.TranslatedCount)
	}
	// Failed units keep their original text.
	if !strings.Contains(page.Content, ">Paragraph 0<") {
		t.Errorf("Failed batch should leave originals in place: %q", page.Content)
	}
}

func TestTranslatePageProgressive_CachedUnitsApplyFirst(t *testing.T) {
	provider := &concurrentProvider{}
	cache := newConcurrentCache()
	tr := NewTranslator("ko_KR", provider, WithCache(cache))

	content := manyParagraphs(8)
	if _, err := tr.TranslatePageProgressive(context.Background(), content, PipelineConfig{}, nil); err != nil {
		t.Fatal(err)
	}
	callsAfterWarm := provider.calls

	var firstDone int
	page, err := tr.TranslatePageProgressive(context.Background(), content, PipelineConfig{}, func(done, total int, outcomes []ApplyOutcome) {
		if firstDone == 0 {
			firstDone = done
		}
	})
	if err != nil {
		t.Fatal(err)
	}

	if provider.calls != callsAfterWarm {
		t.Errorf("Warm run should not hit the provider")
	}
	if page.CachedCount != 8 || page.TranslatedCount != 0 {
		t.Errorf("Unexpected counts: cached=%d translated=%d", page.CachedCount, page.TranslatedCount)
	}
	if firstDone != 8 {
		t.Errorf("All cached units should apply in the first progress event, got %d", firstDone)
	}
}

func TestTranslatePageProgressive_SourceEqualsTarget(t *testing.T) {
	provider := &concurrentProvider{}
	tr := NewTranslator("en", provider)

	content := `<p>Hello</p>`
	page, err := tr.TranslatePageProgressive(context.Background(), content, PipelineConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if page.Content != content || provider.calls != 0 {
		t.Errorf("Source-language page must bypass the pipeline")
	}
}

func TestLookupCached_ParallelPath(t *testing.T) {
	cache := newConcurrentCache()
	provider := &concurrentProvider{}
	tr := NewTranslator("ko_KR", provider, WithCache(cache))

	engine := mustEngine(t, manyParagraphs(20))
	units := engine.ExtractUnits()
	for _, u := range units[:10] {
		cache.Set(CacheKey(u.Hash, "ko_KR"), "번역:"+u.TranslatableMarkup)
	}

	cached, misses := tr.lookupCached(units, 5)
	if len(cached) != 10 || len(misses) != 10 {
		t.Fatalf("Expected 10 cached + 10 misses, got %d/%d", len(cached), len(misses))
	}
	// Misses keep document order.
	for i, m := range misses {
		if m.ID != units[10+i].ID {
			t.Errorf("Miss %d out of document order: got %q, want %q", i, m.ID, units[10+i].ID)
		}
	}
}

func TestPipelineConfig_Defaults(t *testing.T) {
	cfg := PipelineConfig{}.withDefaults()
	if cfg.BatchSize != 10 || cfg.Concurrency != 3 || cfg.ParallelThreshold != 5 {
		t.Errorf("Unexpected defaults: %+v", cfg)
	}

	cfg = PipelineConfig{BatchSize: 2, Concurrency: 1, ParallelThreshold: 100}.withDefaults()
	if cfg.BatchSize != 2 || cfg.Concurrency != 1 || cfg.ParallelThreshold != 100 {
		t.Errorf("Explicit values must survive: %+v", cfg)
	}
}

// concurrentCache is a mutex-guarded map cache for parallel lookup tests.
type concurrentCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newConcurrentCache() *concurrentCache {
	return &concurrentCache{data: make(map[string]string)}
}

func (c *concurrentCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *concurrentCache) Set(key, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}
