package hantranslate

import (
	"strings"

	"golang.org/x/net/html"
)

// Apply writes translated results back into the document tree. Each result
// is handled independently: a stale id or detached owner node is reported
// and skipped, a missing placeholder token degrades to a warning, and no
// failure aborts the remaining results. Applying the same result twice
// yields the same final markup as applying it once.
//
// Results may arrive in any order relative to document order; each unit's
// write is independent, which allows progressive display as asynchronous
// translations complete.
func (e *Engine) Apply(results []UnitTranslation) *ApplyReport {
	report := &ApplyReport{Outcomes: make([]ApplyOutcome, 0, len(results))}
	for _, res := range results {
		report.Outcomes = append(report.Outcomes, e.applyOne(res))
	}
	return report
}

// applyOne resolves and writes a single translated result.
func (e *Engine) applyOne(res UnitTranslation) ApplyOutcome {
	u, ok := e.registry[res.ID]
	if !ok {
		return ApplyOutcome{
			ID:     res.ID,
			Status: StatusStale,
			Err:    &StaleUnitError{ID: res.ID},
		}
	}

	// Re-validate attachment immediately before the write. The page may
	// have removed the owner during the translation round-trip.
	if !e.attached(u.owner) {
		return ApplyOutcome{
			ID:     res.ID,
			Status: StatusDetached,
			Err:    &DetachedElementWarning{ID: res.ID},
		}
	}

	resolved, missing := resolvePlaceholders(res.TranslatedMarkup, u.placeholders)

	outcome := ApplyOutcome{ID: res.ID, Status: StatusApplied}
	if len(missing) > 0 {
		outcome.MissingTokens = missing
		outcome.Err = &MissingPlaceholderWarning{ID: res.ID, Tokens: missing}
	}

	if err := setChildren(u.owner, resolved); err != nil {
		// Fragment parse failure: keep the unit's last applied state
		// rather than writing truncated markup.
		outcome.Status = StatusDetached
		outcome.Err = err
		return outcome
	}
	return outcome
}

// resolvePlaceholders substitutes every recorded token with its original
// fragment. Substitution is textual, not positional: translation may reorder
// the surrounding text freely. Tokens absent from the translated markup are
// returned as missing; any token-like text the translator invented stays
// visible in the output rather than corrupting structure.
func resolvePlaceholders(translated string, placeholders []Placeholder) (string, []string) {
	resolved := translated
	var missing []string
	for _, ph := range placeholders {
		if !strings.Contains(resolved, ph.Token) {
			missing = append(missing, ph.Token)
			continue
		}
		resolved = strings.Replace(resolved, ph.Token, ph.OriginalFragment, 1)
	}
	return resolved, missing
}

// Restore writes a unit's pristine original markup back to its owner node,
// regardless of any translations applied since extraction. Returns a
// StaleUnitError for ids from an invalidated pass and a
// DetachedElementWarning when the owner has left the tree.
func (e *Engine) Restore(id string) error {
	u, ok := e.registry[id]
	if !ok {
		return &StaleUnitError{ID: id}
	}
	if !e.attached(u.owner) {
		return &DetachedElementWarning{ID: id}
	}
	return setChildren(u.owner, u.originalMarkup)
}

// RestoreAll restores the original markup of every unit in the current pass.
// Units that can no longer be written (detached owners) are skipped.
func (e *Engine) RestoreAll() {
	for _, u := range e.units {
		_ = e.Restore(u.id)
	}
}

// setChildren replaces a node's children with the given markup fragment
// parsed in the node's own element context.
func setChildren(owner *html.Node, markup string) error {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     owner.Data,
		DataAtom: owner.DataAtom,
	}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return &ParseError{Message: "failed to parse markup fragment", Cause: err}
	}

	for c := owner.FirstChild; c != nil; {
		next := c.NextSibling
		owner.RemoveChild(c)
		c = next
	}
	for _, n := range nodes {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		owner.AppendChild(n)
	}
	return nil
}
