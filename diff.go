package invlocale

import "sort"

// Field names reported by DiffContent.
const (
	FieldTitle           = "title"
	FieldDescription     = "description"
	FieldLongDescription = "longDescription"
	FieldCategory        = "category"
	FieldTags            = "tags"
)

// DiffResult represents the difference between two versions of a listing's
// translatable content.
type DiffResult struct {
	// Changed lists the modified fields in declaration order.
	Changed []string

	// AddedTags contains tags present only in the new version.
	AddedTags []string

	// RemovedTags contains tags present only in the old version.
	RemovedTags []string
}

// HasChanges returns true if any translatable field differs.
func (d *DiffResult) HasChanges() bool {
	return len(d.Changed) > 0
}

// Touches reports whether field is among the changed fields.
func (d *DiffResult) Touches(field string) bool {
	for _, f := range d.Changed {
		if f == field {
			return true
		}
	}
	return false
}

// DiffContent compares two versions field by field. Tags are compared as a
// set, matching ComputeHash: reordering tags is not a change.
func DiffContent(old, new TranslatableContent) *DiffResult {
	result := &DiffResult{}

	if old.Title != new.Title {
		result.Changed = append(result.Changed, FieldTitle)
	}
	if old.Description != new.Description {
		result.Changed = append(result.Changed, FieldDescription)
	}
	if old.LongDescription != new.LongDescription {
		result.Changed = append(result.Changed, FieldLongDescription)
	}
	if old.Category != new.Category {
		result.Changed = append(result.Changed, FieldCategory)
	}

	oldTags := countTags(old.Tags)
	newTags := countTags(new.Tags)
	for tag, n := range newTags {
		for i := oldTags[tag]; i < n; i++ {
			result.AddedTags = append(result.AddedTags, tag)
		}
	}
	for tag, n := range oldTags {
		for i := newTags[tag]; i < n; i++ {
			result.RemovedTags = append(result.RemovedTags, tag)
		}
	}
	sort.Strings(result.AddedTags)
	sort.Strings(result.RemovedTags)

	if len(result.AddedTags) > 0 || len(result.RemovedTags) > 0 {
		result.Changed = append(result.Changed, FieldTags)
	}

	return result
}

func countTags(tags []string) map[string]int {
	m := make(map[string]int, len(tags))
	for _, t := range tags {
		m[t]++
	}
	return m
}
