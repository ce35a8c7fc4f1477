package hantranslate

import "strings"

// DiffResult represents the difference between two extraction passes over
// successive versions of a page.
type DiffResult struct {
	// Added contains units that are new (not in the previous pass).
	Added []ContentUnit

	// Removed contains units that disappeared (not in the new pass).
	Removed []ContentUnit

	// Unchanged contains units whose markup exists in both passes.
	Unchanged []ContentUnit

	// Modified contains pairs where the markup changed but position or
	// context suggests the same element. Heuristic.
	Modified []ModifiedUnit
}

// ModifiedUnit represents a unit whose markup was modified between passes.
type ModifiedUnit struct {
	Old ContentUnit
	New ContentUnit
}

// Stats returns summary statistics for the diff.
func (d *DiffResult) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Unchanged: len(d.Unchanged),
		Modified:  len(d.Modified),
	}
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int
	Removed   int
	Unchanged int
	Modified  int
}

// HasChanges returns true if there are any differences.
func (d *DiffResult) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Modified) > 0
}

// NeedsTranslation returns the units that need to be (re)translated: new
// units and the new side of modified units.
func (d *DiffResult) NeedsTranslation() []ContentUnit {
	result := make([]ContentUnit, 0, len(d.Added)+len(d.Modified))
	result = append(result, d.Added...)
	for _, m := range d.Modified {
		result = append(result, m.New)
	}
	return result
}

// samePosition reports whether two unit ids from different passes share the
// same positional index ("unit-<pass>-<index>").
func samePosition(a, b string) bool {
	return positionIndex(a) != "" && positionIndex(a) == positionIndex(b)
}

func positionIndex(id string) string {
	i := strings.LastIndex(id, "-")
	if i < 0 {
		return ""
	}
	return id[i+1:]
}

// DiffPasses compares the units of two extraction passes by markup hash.
// Useful for incremental translation: only translate what changed.
func DiffPasses(oldUnits, newUnits []ContentUnit) *DiffResult {
	result := &DiffResult{}

	oldByHash := make(map[string]ContentUnit)
	newByHash := make(map[string]ContentUnit)

	for _, u := range oldUnits {
		oldByHash[u.Hash] = u
	}
	for _, u := range newUnits {
		newByHash[u.Hash] = u
	}

	for hash, oldUnit := range oldByHash {
		if _, exists := newByHash[hash]; exists {
			result.Unchanged = append(result.Unchanged, oldUnit)
		} else {
			result.Removed = append(result.Removed, oldUnit)
		}
	}

	for hash, newUnit := range newByHash {
		if _, exists := oldByHash[hash]; !exists {
			result.Added = append(result.Added, newUnit)
		}
	}

	return result
}

// DiffPassesWithContext performs a more sophisticated diff that detects
// modified units: same document position or same disambiguation context,
// different markup.
func DiffPassesWithContext(oldUnits, newUnits []ContentUnit) *DiffResult {
	result := DiffPasses(oldUnits, newUnits)

	if len(result.Added) > 0 && len(result.Removed) > 0 {
		matched := make(map[int]bool) // indices of matched added units
		removedMatched := make(map[int]bool)

		for ri, removed := range result.Removed {
			for ai, added := range result.Added {
				if matched[ai] {
					continue
				}

				// Match by position in document (ids carry the pass
				// sequence, so compare the positional index only)
				if samePosition(removed.ID, added.ID) {
					result.Modified = append(result.Modified, ModifiedUnit{Old: removed, New: added})
					matched[ai] = true
					removedMatched[ri] = true
					break
				}

				// Match by similar context
				if removed.Context != "" && removed.Context == added.Context {
					result.Modified = append(result.Modified, ModifiedUnit{Old: removed, New: added})
					matched[ai] = true
					removedMatched[ri] = true
					break
				}
			}
		}

		// Filter out matched units from Added and Removed
		newAdded := make([]ContentUnit, 0)
		for i, u := range result.Added {
			if !matched[i] {
				newAdded = append(newAdded, u)
			}
		}
		result.Added = newAdded

		newRemoved := make([]ContentUnit, 0)
		for i, u := range result.Removed {
			if !removedMatched[i] {
				newRemoved = append(newRemoved, u)
			}
		}
		result.Removed = newRemoved
	}

	return result
}
