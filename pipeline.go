package hantranslate

import (
	"context"
	"sync"
)

// ProgressFunc receives per-batch progress during progressive translation:
// how many units have completed, the total, and the apply outcomes of the
// batch that just landed.
type ProgressFunc func(done, total int, outcomes []ApplyOutcome)

// PipelineConfig tunes the progressive translation pipeline.
type PipelineConfig struct {
	// BatchSize is the number of units per provider request (default: 10).
	BatchSize int
	// Concurrency is the number of in-flight provider requests (default: 3).
	Concurrency int
	// ParallelThreshold is the minimum unit count before cache lookups go
	// parallel (default: 5).
	ParallelThreshold int
}

func (c PipelineConfig) withDefaults() PipelineConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 10
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 3
	}
	if c.ParallelThreshold <= 0 {
		c.ParallelThreshold = 5
	}
	return c
}

// batchResult carries one translated batch from a worker to the applier.
type batchResult struct {
	units        []ContentUnit
	translations []string
	err          error
}

// TranslatePageProgressive translates a page batch by batch, applying each
// batch's results as soon as they arrive. Batches complete in any order;
// reinsertion imposes no ordering between units, so partial translations
// become visible progressively. The engine remains the single writer: all
// Apply calls happen on the calling goroutine.
//
// Per-batch provider failures are isolated: a failed batch leaves its units
// untranslated and the rest of the page proceeds. The first failure is
// returned alongside the partial result.
func (t *Translator) TranslatePageProgressive(ctx context.Context, content string, cfg PipelineConfig, progress ProgressFunc) (*TranslatedPage, error) {
	cfg = cfg.withDefaults()

	if t.isSourceLang() {
		return &TranslatedPage{Content: content}, nil
	}

	engine, doc, err := t.NewEngineFor(content)
	if err != nil {
		return nil, err
	}

	units := engine.ExtractUnits()
	if len(units) == 0 {
		return &TranslatedPage{Content: content}, nil
	}

	// Cache pass first: cached units apply immediately.
	cached, misses := t.lookupCached(units, cfg.ParallelThreshold)
	report := &ApplyReport{}
	done := 0
	if len(cached) > 0 {
		r := engine.Apply(cached)
		report.Outcomes = append(report.Outcomes, r.Outcomes...)
		done += len(cached)
		if progress != nil {
			progress(done, len(units), r.Outcomes)
		}
	}

	// Fan the misses out in batches, apply as results arrive.
	var firstErr error
	translatedCount := 0
	if len(misses) > 0 && t.provider != nil {
		results := make(chan batchResult)
		sem := make(chan struct{}, cfg.Concurrency)
		var wg sync.WaitGroup

		for start := 0; start < len(misses); start += cfg.BatchSize {
			end := start + cfg.BatchSize
			if end > len(misses) {
				end = len(misses)
			}
			batch := misses[start:end]

			wg.Add(1)
			go func(batch []ContentUnit) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				translations, err := t.translateBatchUnits(ctx, batch)
				results <- batchResult{units: batch, translations: translations, err: err}
			}(batch)
		}

		go func() {
			wg.Wait()
			close(results)
		}()

		for res := range results {
			if res.err != nil {
				if firstErr == nil {
					firstErr = res.err
				}
				done += len(res.units)
				if progress != nil {
					progress(done, len(units), nil)
				}
				continue
			}

			applied := make([]UnitTranslation, len(res.units))
			for i, u := range res.units {
				applied[i] = UnitTranslation{ID: u.ID, TranslatedMarkup: res.translations[i]}
				if t.cache != nil {
					_ = t.cache.Set(CacheKey(u.Hash, t.targetLang), res.translations[i])
				}
			}
			r := engine.Apply(applied)
			report.Outcomes = append(report.Outcomes, r.Outcomes...)
			translatedCount += len(applied)
			done += len(applied)
			if progress != nil {
				progress(done, len(units), r.Outcomes)
			}
		}
	}

	page := &TranslatedPage{
		Content:         t.setHTMLAttributes(doc),
		TranslatedCount: translatedCount,
		CachedCount:     len(cached),
		TotalUnits:      len(units),
		Report:          report,
	}
	return page, firstErr
}

// lookupCached resolves units against the cache, in parallel above the
// threshold, and returns ready-to-apply cached translations plus the misses
// in document order.
func (t *Translator) lookupCached(units []ContentUnit, threshold int) ([]UnitTranslation, []ContentUnit) {
	if t.cache == nil {
		return nil, units
	}
	if len(units) < threshold {
		var cached []UnitTranslation
		var misses []ContentUnit
		for _, u := range units {
			if val, ok := t.cache.Get(CacheKey(u.Hash, t.targetLang)); ok {
				cached = append(cached, UnitTranslation{ID: u.ID, TranslatedMarkup: val})
			} else {
				misses = append(misses, u)
			}
		}
		return cached, misses
	}
	return t.parallelCacheLookup(units)
}

// parallelCacheLookup performs cache lookups in parallel using goroutines,
// one per unique markup hash.
func (t *Translator) parallelCacheLookup(units []ContentUnit) ([]UnitTranslation, []ContentUnit) {
	type lookupResult struct {
		hash  string
		value string
		found bool
	}

	uniqueHashes := make(map[string]bool)
	for _, u := range units {
		uniqueHashes[u.Hash] = true
	}

	results := make(chan lookupResult, len(uniqueHashes))
	var wg sync.WaitGroup

	for hash := range uniqueHashes {
		wg.Add(1)
		go func(h string) {
			defer wg.Done()
			if val, ok := t.cache.Get(CacheKey(h, t.targetLang)); ok {
				results <- lookupResult{hash: h, value: val, found: true}
			} else {
				results <- lookupResult{hash: h, found: false}
			}
		}(hash)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	byHash := make(map[string]string)
	for result := range results {
		if result.found {
			byHash[result.hash] = result.value
		}
	}

	var cached []UnitTranslation
	var misses []ContentUnit
	for _, u := range units {
		if val, ok := byHash[u.Hash]; ok {
			cached = append(cached, UnitTranslation{ID: u.ID, TranslatedMarkup: val})
		} else {
			misses = append(misses, u)
		}
	}
	return cached, misses
}

// translateBatchUnits sends one batch of units to the provider.
func (t *Translator) translateBatchUnits(ctx context.Context, batch []ContentUnit) ([]string, error) {
	texts := make([]string, len(batch))
	textContexts := make([]string, len(batch))
	for i, u := range batch {
		texts[i] = u.TranslatableMarkup
		textContexts[i] = u.Context
	}

	translations, err := t.provider.Translate(ctx, TranslateRequest{
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
		return nil, err
	}
	if len(translations) != len(batch) {
		return nil, &CountMismatchError{Expected: len(batch), Got: len(translations)}
	}
	return translations, nil
}
