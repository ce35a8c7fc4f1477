package hantranslate

import "testing"

// extractFromMarkup runs one extraction pass over markup on a fresh engine.
func extractFromMarkup(t *testing.T, content string) []ContentUnit {
	t.Helper()
	return mustEngine(t, content).ExtractUnits()
}

func TestDiffPasses_NoChanges(t *testing.T) {
	old := extractFromMarkup(t, `<div><p>One</p><p>Two</p></div>`)
	new_ := extractFromMarkup(t, `<div><p>One</p><p>Two</p></div>`)

	result := DiffPasses(old, new_)
	if result.HasChanges() {
		t.Errorf("Identical pages should produce no changes: %+v", result.Stats())
	}
	if len(result.Unchanged) != 2 {
		t.Errorf("Expected 2 unchanged, got %d", len(result.Unchanged))
	}
}

func TestDiffPasses_AddedAndRemoved(t *testing.T) {
	old := extractFromMarkup(t, `<div><p>One</p><p>Two</p></div>`)
	new_ := extractFromMarkup(t, `<div><p>One</p><p>Three</p><p>Four</p></div>`)

	result := DiffPasses(old, new_)
	stats := result.Stats()
	if stats.Unchanged != 1 {
		t.Errorf("Expected 1 unchanged, got %d", stats.Unchanged)
	}
	if stats.Removed != 1 {
		t.Errorf("Expected 1 removed, got %d", stats.Removed)
	}
	if stats.Added != 2 {
		t.Errorf("Expected 2 added, got %d", stats.Added)
	}
	if !result.HasChanges() {
		t.Error("HasChanges should be true")
	}
}

func TestDiffPasses_NeedsTranslation(t *testing.T) {
	old := extractFromMarkup(t, `<p>One</p>`)
	new_ := extractFromMarkup(t, `<div><p>One</p><p>Two</p></div>`)

	need := DiffPasses(old, new_).NeedsTranslation()
	if len(need) != 1 {
		t.Fatalf("Expected 1 unit needing translation, got %d", len(need))
	}
	if need[0].Text != "Two" {
		t.Errorf("Expected 'Two', got %q", need[0].Text)
	}
}

func TestDiffPassesWithContext_ModifiedByPosition(t *testing.T) {
	old := extractFromMarkup(t, `<div><p>Hello there</p><p>Stable</p></div>`)
	new_ := extractFromMarkup(t, `<div><p>Hello friend</p><p>Stable</p></div>`)

	result := DiffPassesWithContext(old, new_)
	stats := result.Stats()
	if stats.Modified != 1 {
		t.Fatalf("Expected 1 modified, got %+v", stats)
	}
	if stats.Added != 0 || stats.Removed != 0 {
		t.Errorf("Modified pair should be consumed from added/removed: %+v", stats)
	}
	m := result.Modified[0]
	if m.Old.Text != "Hello there" || m.New.Text != "Hello friend" {
		t.Errorf("Unexpected modified pair: %q -> %q", m.Old.Text, m.New.Text)
	}
}

func TestDiffPassesWithContext_ModifiedByContext(t *testing.T) {
	// The tagline moves to a different position but its class keeps the
	// context equal across passes.
	old := extractFromMarkup(t, `<div><p>Shared</p><p class="tagline">Old slogan</p></div>`)
	new_ := extractFromMarkup(t, `<div><p class="tagline">New slogan</p><p>Shared</p></div>`)

	result := DiffPassesWithContext(old, new_)
	if len(result.Modified) != 1 {
		t.Fatalf("Expected 1 modified via context match, got %+v", result.Stats())
	}
	if result.Modified[0].New.Text != "New slogan" {
		t.Errorf("Unexpected new side: %q", result.Modified[0].New.Text)
	}
}

func TestDiffPassesWithContext_NeedsTranslationIncludesModified(t *testing.T) {
	old := extractFromMarkup(t, `<div><p>Alpha</p><p>Beta</p></div>`)
	new_ := extractFromMarkup(t, `<div><p>Alpha updated</p><p>Beta</p><p>Gamma</p></div>`)

	result := DiffPassesWithContext(old, new_)
	need := result.NeedsTranslation()

	texts := make(map[string]bool)
	for _, u := range need {
		texts[u.Text] = true
	}
	if !texts["Alpha updated"] || !texts["Gamma"] {
		t.Errorf("Expected the modified and added units, got %v", texts)
	}
	if texts["Beta"] {
		t.Error("Unchanged units must not need retranslation")
	}
}

func TestSamePosition(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"unit-1-0", "unit-2-0", true},
		{"unit-1-3", "unit-5-3", true},
		{"unit-1-0", "unit-2-1", false},
		{"unit-1-10", "unit-2-1", false},
		{"", "", false},
	}
	for _, tc := range cases {
		if got := samePosition(tc.a, tc.b); got != tc.want {
			t.Errorf("samePosition(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}
