package revision

import (
	"time"

	"annal/internal/commitlog"
)

// RetentionDays is the trailing window within which every distinct day's
// latest commit stays individually addressable. One boundary entry older than
// the window is kept as the anchor for lookups before it.
const RetentionDays = 30

// Compact folds the manifest reference produced by the current transaction
// into an entity's existing index and applies the retention policy:
//
//  1. If the newest existing entry shares now's UTC calendar day, it is
//     replaced; same-day saves collapse to the latest commit of the day.
//  2. Entries newer than now minus RetentionDays are all kept.
//  3. Of the entries at or before that cutoff, only the newest survives as
//     the boundary anchor.
//
// Compact is pure: it never fails and never modifies existing. Callers are
// expected to supply non-decreasing values of now for a given entity; if a
// backdated instant does arrive (clock skew), the new entry is placed in
// sorted position instead of corrupting iteration order, and the day-collapse
// rule still applies against the newest existing entry.
func Compact(existing Index, ref commitlog.Ref, now time.Time) Index {
	now = now.UTC()

	working := existing.entries
	if n := len(working); n > 0 && sameDay(working[n-1].At, now) {
		working = working[:n-1]
	}

	cutoff := now.AddDate(0, 0, -RetentionDays)

	// Entries are ascending, so the boundary anchor is the last entry at or
	// before the cutoff; everything after it is inside the window.
	firstInWindow := len(working)
	for i, e := range working {
		if e.At.After(cutoff) {
			firstInWindow = i
			break
		}
	}

	kept := make([]Entry, 0, len(working)-firstInWindow+2)
	if firstInWindow > 0 {
		kept = append(kept, working[firstInWindow-1])
	}
	kept = append(kept, working[firstInWindow:]...)

	pos := len(kept)
	for pos > 0 && kept[pos-1].At.After(now) {
		pos--
	}
	kept = append(kept, Entry{})
	copy(kept[pos+1:], kept[pos:])
	kept[pos] = Entry{At: now, Ref: ref}

	return Index{entries: kept}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
