// Package revision maintains the bounded per-entity index of pointers into
// the commit log. The index is an access accelerator: it records how to find
// the manifest that was current on any given day, but never owns manifest
// lifetime. It is written exclusively by the entity-store save hook;
// application code must treat it as read-only.
package revision

import (
	"sort"
	"time"

	"annal/internal/commitlog"
)

// Entry maps one commit instant to the manifest committed at that instant.
type Entry struct {
	At  time.Time
	Ref commitlog.Ref
}

// Index is an ordered set of entries, ascending by commit instant with unique
// instants. The zero value is an empty, usable index. Index values are
// immutable: operations return new indexes and never modify the receiver, so
// an entity snapshot can share an index with the caller's original safely.
type Index struct {
	entries []Entry
}

// FromEntries builds an index from entries in any order. Later duplicates of
// the same instant win.
func FromEntries(entries []Entry) Index {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At.Before(sorted[j].At) })
	deduped := sorted[:0]
	for _, e := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].At.Equal(e.At) {
			deduped[n-1] = e
			continue
		}
		deduped = append(deduped, e)
	}
	return Index{entries: deduped}
}

// Len returns the number of entries.
func (x Index) Len() int { return len(x.entries) }

// IsEmpty reports whether the index has no entries.
func (x Index) IsEmpty() bool { return len(x.entries) == 0 }

// Oldest returns the earliest entry, if any.
func (x Index) Oldest() (Entry, bool) {
	if len(x.entries) == 0 {
		return Entry{}, false
	}
	return x.entries[0], true
}

// Newest returns the latest entry, if any.
func (x Index) Newest() (Entry, bool) {
	if len(x.entries) == 0 {
		return Entry{}, false
	}
	return x.entries[len(x.entries)-1], true
}

// Entries returns a copy of the entries in ascending order.
func (x Index) Entries() []Entry {
	return append([]Entry(nil), x.entries...)
}

// AsOf returns the newest entry at or before t. For instants older than the
// retention window this lands on the boundary anchor; for instants before the
// first entry there is no answer.
func (x Index) AsOf(t time.Time) (Entry, bool) {
	i := sort.Search(len(x.entries), func(i int) bool { return x.entries[i].At.After(t) })
	if i == 0 {
		return Entry{}, false
	}
	return x.entries[i-1], true
}

// Columns flattens the index into the persisted layout: two parallel,
// order-corresponding sequences of commit instants and manifest references.
func (x Index) Columns() ([]time.Time, []commitlog.Ref) {
	if len(x.entries) == 0 {
		return nil, nil
	}
	times := make([]time.Time, len(x.entries))
	refs := make([]commitlog.Ref, len(x.entries))
	for i, e := range x.entries {
		times[i] = e.At
		refs[i] = e.Ref
	}
	return times, refs
}

// FromColumns rebuilds an index from its persisted columns. A row written
// before the index existed, or one whose columns were partially lost, loads
// as an empty index rather than failing: the commit log still holds the full
// history, so a missing accelerator is degradation, not corruption. That
// covers either column being absent, and a length mismatch between them.
func FromColumns(times []time.Time, refs []commitlog.Ref) Index {
	if len(times) == 0 || len(refs) == 0 || len(times) != len(refs) {
		return Index{}
	}
	entries := make([]Entry, len(times))
	for i := range times {
		entries[i] = Entry{At: times[i].UTC(), Ref: refs[i]}
	}
	return FromEntries(entries)
}
