//go:build integration

package domain_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"annal/internal/commitlog"
	"annal/internal/domain"
	"annal/internal/entitystore"
	"annal/internal/platform/postgres"
	"annal/pkg/clock"
	"annal/pkg/sentinel"
	"annal/pkg/testutil/containers"
)

var startTime = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	clock *clock.Fake
	log   *commitlog.PostgresLog
	store *entitystore.Store[*domain.Domain]
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "domains", "commit_manifests"))

	s.clock = clock.NewFake(startTime)
	s.log = commitlog.NewPostgresLog(s.pg.Pool, s.clock)
	s.store = entitystore.New[*domain.Domain](
		postgres.NewTxManager(s.pg.Pool, s.clock),
		domain.NewPostgresBackend(s.pg.Pool),
		s.log,
	)
}

func (s *PostgresStoreSuite) saveNew(name string) {
	d, err := domain.New(name, "registrar-1", 1)
	s.Require().NoError(err)
	d.Registrant = "alice"
	d.Nameservers = []string{"ns1." + name, "ns2." + name}
	s.Require().NoError(d.SetAuthInfo("transfer-secret"))
	s.Require().NoError(s.store.Save(s.ctx, d))
}

func (s *PostgresStoreSuite) TestSaveAndLoadRoundTrip() {
	s.saveNew("example.test")

	loaded, err := s.store.Find(s.ctx, "example.test")
	s.Require().NoError(err)
	s.Equal("example.test", loaded.Name)
	s.Equal("test", loaded.TLD)
	s.Equal("alice", loaded.Registrant)
	s.Equal([]string{"ns1.example.test", "ns2.example.test"}, loaded.Nameservers)
	s.True(loaded.CheckAuthInfo("transfer-secret"))
	s.True(loaded.CreatedAt.Equal(startTime))
	s.Equal(1, loaded.RevisionIndex().Len())
}

func (s *PostgresStoreSuite) TestRevisionIndexSurvivesReload() {
	s.saveNew("example.test")

	s.clock.AdvanceDays(1)
	loaded, err := s.store.Find(s.ctx, "example.test")
	s.Require().NoError(err)
	loaded.Registrant = "bob"
	s.Require().NoError(s.store.Save(s.ctx, loaded))

	reloaded, err := s.store.Find(s.ctx, "example.test")
	s.Require().NoError(err)
	entries := reloaded.RevisionIndex().Entries()
	s.Require().Len(entries, 2)
	s.True(entries[0].At.Equal(startTime))
	s.True(entries[1].At.Equal(startTime.AddDate(0, 0, 1)))

	manifest, err := s.log.Resolve(s.ctx, entries[0].Ref)
	s.Require().NoError(err)
	s.True(manifest.CommitTime.Equal(startTime))
	s.Contains(string(manifest.Payload), `"registrant":"alice"`)
}

func (s *PostgresStoreSuite) TestFindAtReadsHistoricalState() {
	s.saveNew("example.test")

	s.clock.AdvanceDays(10)
	loaded, err := s.store.Find(s.ctx, "example.test")
	s.Require().NoError(err)
	loaded.Registrant = "bob"
	s.Require().NoError(s.store.Save(s.ctx, loaded))

	manifest, err := s.store.FindAt(s.ctx, "example.test", startTime.AddDate(0, 0, 4))
	s.Require().NoError(err)
	s.True(manifest.CommitTime.Equal(startTime))
	s.Contains(string(manifest.Payload), `"registrant":"alice"`)
}

func (s *PostgresStoreSuite) TestFindNeverSaved() {
	_, err := s.store.Find(s.ctx, "missing.test")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRowWithoutIndexColumnsLoadsDegraded() {
	// A row from before the index migration carries NULL array columns.
	_, err := s.pg.Pool.Exec(s.ctx, `
		INSERT INTO domains (name, tld, registrar_id, created_at, updated_at)
		VALUES ('legacy.test', 'test', 'registrar-1', $1, $1)
	`, startTime)
	s.Require().NoError(err)

	loaded, err := s.store.Find(s.ctx, "legacy.test")
	s.Require().NoError(err)
	s.True(loaded.RevisionIndex().IsEmpty())

	_, err = s.store.FindAt(s.ctx, "legacy.test", s.clock.Now())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

type failingBackend struct {
	entitystore.Backend[*domain.Domain]
}

func (failingBackend) Put(context.Context, *domain.Domain) error {
	return context.DeadlineExceeded
}

func (s *PostgresStoreSuite) TestFailedSaveLeavesNoManifest() {
	store := entitystore.New[*domain.Domain](
		postgres.NewTxManager(s.pg.Pool, s.clock),
		failingBackend{domain.NewPostgresBackend(s.pg.Pool)},
		s.log,
	)

	d, err := domain.New("example.test", "registrar-1", 1)
	s.Require().NoError(err)
	s.Require().Error(store.Save(s.ctx, d))

	// The manifest append rolled back with the entity write.
	var count int
	s.Require().NoError(s.pg.Pool.QueryRow(s.ctx,
		`SELECT count(*) FROM commit_manifests`).Scan(&count))
	s.Zero(count)

	_, err = s.store.Find(s.ctx, "example.test")
	s.ErrorIs(err, sentinel.ErrNotFound)
}
