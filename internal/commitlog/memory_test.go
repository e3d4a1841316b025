package commitlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"annal/internal/commitlog"
	"annal/pkg/clock"
	txcontext "annal/pkg/platform/tx"
	"annal/pkg/sentinel"
)

var startTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func TestMemoryLogAppendResolve(t *testing.T) {
	log := commitlog.NewMemoryLog(clock.NewFake(startTime))
	ctx := context.Background()

	m, err := log.Append(ctx, "example.test", []byte(`{"name":"example.test"}`))
	require.NoError(t, err)
	assert.False(t, m.Ref.IsZero())
	assert.True(t, m.CommitTime.Equal(startTime))

	resolved, err := log.Resolve(ctx, m.Ref)
	require.NoError(t, err)
	assert.Equal(t, m, resolved)
}

func TestMemoryLogAppendUsesPinnedCommitTime(t *testing.T) {
	log := commitlog.NewMemoryLog(clock.NewFake(startTime))
	pinned := startTime.AddDate(0, 0, 7)
	ctx := txcontext.WithCommitTime(context.Background(), pinned)

	m, err := log.Append(ctx, "example.test", nil)
	require.NoError(t, err)
	assert.True(t, m.CommitTime.Equal(pinned))
}

func TestMemoryLogResolveUnknownRef(t *testing.T) {
	log := commitlog.NewMemoryLog(clock.NewFake(startTime))

	_, err := log.Resolve(context.Background(), commitlog.NewRef())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryLogPayloadIsCopied(t *testing.T) {
	log := commitlog.NewMemoryLog(clock.NewFake(startTime))
	ctx := context.Background()

	payload := []byte(`{"v":1}`)
	m, err := log.Append(ctx, "example.test", payload)
	require.NoError(t, err)

	payload[5] = '2'
	resolved, err := log.Resolve(ctx, m.Ref)
	require.NoError(t, err)
	assert.Equal(t, `{"v":1}`, string(resolved.Payload))
}

func TestMemoryLogUnpublishedCursor(t *testing.T) {
	log := commitlog.NewMemoryLog(clock.NewFake(startTime))
	ctx := context.Background()

	var refs []commitlog.Ref
	for _, key := range []string{"a.test", "b.test", "c.test"} {
		m, err := log.Append(ctx, key, nil)
		require.NoError(t, err)
		refs = append(refs, m.Ref)
	}

	pending, err := log.Unpublished(ctx, 2)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "a.test", pending[0].EntityKey)
	assert.Equal(t, "b.test", pending[1].EntityKey)

	require.NoError(t, log.MarkPublished(ctx, refs[:2]))

	pending, err = log.Unpublished(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "c.test", pending[0].EntityKey)
}
