package revision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annal/internal/commitlog"
)

var startTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func TestCompactFirstSave(t *testing.T) {
	ref := commitlog.NewRef()

	idx := Compact(Index{}, ref, startTime)

	require.Equal(t, 1, idx.Len())
	entry, ok := idx.Newest()
	require.True(t, ok)
	assert.True(t, entry.At.Equal(startTime))
	assert.Equal(t, ref, entry.Ref)
}

func TestCompactSameDayCollapse(t *testing.T) {
	first := commitlog.NewRef()
	second := commitlog.NewRef()

	idx := Compact(Index{}, first, startTime)
	idx = Compact(idx, second, startTime.Add(time.Hour))

	require.Equal(t, 1, idx.Len())
	entry, _ := idx.Newest()
	assert.True(t, entry.At.Equal(startTime.Add(time.Hour)))
	assert.Equal(t, second, entry.Ref)
}

func TestCompactTwoDaysKeepsBoth(t *testing.T) {
	idx := Compact(Index{}, commitlog.NewRef(), startTime)
	idx = Compact(idx, commitlog.NewRef(), startTime.AddDate(0, 0, 1))

	require.Equal(t, 2, idx.Len())
	oldest, _ := idx.Oldest()
	newest, _ := idx.Newest()
	assert.True(t, oldest.At.Equal(startTime))
	assert.True(t, newest.At.Equal(startTime.AddDate(0, 0, 1)))
}

func TestCompactDailySavesTruncatedAtThirtyPlusOne(t *testing.T) {
	now := startTime
	idx := Compact(Index{}, commitlog.NewRef(), now)
	for i := 0; i < 35; i++ {
		now = now.AddDate(0, 0, 1)
		idx = Compact(idx, commitlog.NewRef(), now)
	}

	require.Equal(t, RetentionDays+1, idx.Len())
	oldest, _ := idx.Oldest()
	assert.True(t, oldest.At.Equal(now.AddDate(0, 0, -RetentionDays)),
		"oldest entry must sit exactly at the window cutoff")
}

func TestCompactSparseSavesKeepBoundaryAnchor(t *testing.T) {
	now := startTime
	idx := Compact(Index{}, commitlog.NewRef(), now)
	require.Equal(t, 1, idx.Len())

	now = now.AddDate(0, 0, 29)
	idx = Compact(idx, commitlog.NewRef(), now)
	require.Equal(t, 2, idx.Len())
	oldest, _ := idx.Oldest()
	assert.True(t, oldest.At.Equal(startTime))

	// 58 days out: the original entry is outside the window but survives as
	// the single boundary anchor.
	now = now.AddDate(0, 0, 29)
	idx = Compact(idx, commitlog.NewRef(), now)
	require.Equal(t, 3, idx.Len())
	oldest, _ = idx.Oldest()
	assert.True(t, oldest.At.Equal(startTime))

	// 87 days out: the day-29 entry replaces it as boundary; size stays 3.
	now = now.AddDate(0, 0, 29)
	idx = Compact(idx, commitlog.NewRef(), now)
	require.Equal(t, 3, idx.Len())
	oldest, _ = idx.Oldest()
	assert.True(t, oldest.At.Equal(startTime.AddDate(0, 0, 29)))
}

func TestCompactBoundedUnderLongDailyHistory(t *testing.T) {
	now := startTime
	idx := Index{}
	for i := 0; i < 100; i++ {
		idx = Compact(idx, commitlog.NewRef(), now)
		require.LessOrEqual(t, idx.Len(), RetentionDays+1, "day %d", i)
		now = now.AddDate(0, 0, 1)
	}
}

func TestCompactDoesNotMutateExisting(t *testing.T) {
	idx := Compact(Index{}, commitlog.NewRef(), startTime)
	idx = Compact(idx, commitlog.NewRef(), startTime.AddDate(0, 0, 1))
	before := idx.Entries()

	Compact(idx, commitlog.NewRef(), startTime.AddDate(0, 0, 40))

	assert.Equal(t, before, idx.Entries())
}

func TestCompactBackdatedCommitKeepsOrder(t *testing.T) {
	idx := Compact(Index{}, commitlog.NewRef(), startTime)
	idx = Compact(idx, commitlog.NewRef(), startTime.AddDate(0, 0, 2))

	// A commit instant between the existing entries lands in sorted
	// position rather than corrupting iteration order.
	idx = Compact(idx, commitlog.NewRef(), startTime.AddDate(0, 0, 1))

	entries := idx.Entries()
	require.Len(t, entries, 3)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i-1].At.Before(entries[i].At))
	}
}

func TestCompactResultAlwaysNonEmpty(t *testing.T) {
	idx := Compact(Index{}, commitlog.NewRef(), startTime)
	for i := 0; i < 5; i++ {
		idx = Compact(idx, commitlog.NewRef(), startTime.AddDate(0, i+2, 0))
		assert.False(t, idx.IsEmpty())
	}
}
