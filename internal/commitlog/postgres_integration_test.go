//go:build integration

package commitlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"annal/internal/commitlog"
	"annal/pkg/clock"
	txcontext "annal/pkg/platform/tx"
	"annal/pkg/sentinel"
	"annal/pkg/testutil/containers"
)

type PostgresLogSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	clock *clock.Fake
	log   *commitlog.PostgresLog
	ctx   context.Context
}

func TestPostgresLogSuite(t *testing.T) {
	suite.Run(t, new(PostgresLogSuite))
}

func (s *PostgresLogSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
}

func (s *PostgresLogSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "commit_manifests"))
	s.clock = clock.NewFake(startTime)
	s.log = commitlog.NewPostgresLog(s.pg.Pool, s.clock)
}

func (s *PostgresLogSuite) TestAppendResolveRoundTrip() {
	m, err := s.log.Append(s.ctx, "example.test", []byte(`{"name":"example.test"}`))
	s.Require().NoError(err)
	s.False(m.Ref.IsZero())
	s.True(m.CommitTime.Equal(startTime))

	resolved, err := s.log.Resolve(s.ctx, m.Ref)
	s.Require().NoError(err)
	s.Equal(m.Ref, resolved.Ref)
	s.Equal("example.test", resolved.EntityKey)
	s.True(resolved.CommitTime.Equal(startTime))
	s.Equal(m.Payload, resolved.Payload)
}

func (s *PostgresLogSuite) TestAppendUsesPinnedCommitTime() {
	pinned := startTime.AddDate(0, 0, 3)
	ctx := txcontext.WithCommitTime(s.ctx, pinned)

	m, err := s.log.Append(ctx, "example.test", nil)
	s.Require().NoError(err)
	s.True(m.CommitTime.Equal(pinned))

	resolved, err := s.log.Resolve(s.ctx, m.Ref)
	s.Require().NoError(err)
	s.True(resolved.CommitTime.Equal(pinned))
}

func (s *PostgresLogSuite) TestResolveUnknownRef() {
	_, err := s.log.Resolve(s.ctx, commitlog.NewRef())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresLogSuite) TestOutboxCursor() {
	var refs []commitlog.Ref
	for _, key := range []string{"a.test", "b.test", "c.test"} {
		m, err := s.log.Append(s.ctx, key, nil)
		s.Require().NoError(err)
		refs = append(refs, m.Ref)
		s.clock.Advance(time.Second)
	}

	pending, err := s.log.Unpublished(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal("a.test", pending[0].EntityKey)
	s.Equal("b.test", pending[1].EntityKey)

	s.Require().NoError(s.log.MarkPublished(s.ctx, refs[:2]))

	pending, err = s.log.Unpublished(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal("c.test", pending[0].EntityKey)
}
