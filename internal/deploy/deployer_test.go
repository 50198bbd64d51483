package deploy

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"cqlmap/internal/compiler"
	"cqlmap/internal/config"
	internaldb "cqlmap/internal/db"
	"cqlmap/internal/db/repository"
	"cqlmap/internal/domain"
	"cqlmap/internal/metrics"
)

const goodSchema = `
type User @cql_input {
  id: ID!
  name: String
}
type Query {
  user(id: ID!): User
}
type Mutation {
  insertUser(user: UserInput!): Boolean
}
`

const partialSchema = `
type User { id: ID! }
type Query {
  user(id: ID!): User
  users(name: String): [User]
}
`

type failingRepo struct{ err error }

func (f failingRepo) Record(context.Context, *domain.Deployment) error { return f.err }

func (f failingRepo) LatestVersion(context.Context, string) (int, error) { return 0, f.err }

func (f failingRepo) Latest(context.Context, string) (*domain.Deployment, error) { return nil, f.err }

type fixture struct {
	deployer *Deployer
	repo     *repository.DeploymentRepo
	metrics  *metrics.Collector
}

func newFixture(t *testing.T, allowPartial bool) fixture {
	t.Helper()
	writeDB, readDB := internaldb.OpenTestSQLite(t)
	repo := repository.NewDeploymentRepo(writeDB, readDB)
	logger := slog.New(slog.DiscardHandler)
	m := metrics.New(prometheus.NewRegistry())
	d, err := NewDeployer(Deps{
		Compiler:     compiler.New(compiler.Options{Logger: logger}),
		Repo:         repo,
		Metrics:      m,
		Logger:       logger,
		AllowPartial: allowPartial,
		Concurrency:  2,
	})
	require.NoError(t, err)
	return fixture{deployer: d, repo: repo, metrics: m}
}

func TestDeploy_Accepted(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	res, err := f.deployer.Deploy(ctx, Request{Keyspace: "accounts", Source: goodSchema})
	require.NoError(t, err)
	require.NotNil(t, res.Model)
	assert.True(t, res.Published)
	assert.True(t, res.Deployment.Accepted)
	assert.Equal(t, 1, res.Deployment.Version)
	assert.Equal(t, 2, res.Deployment.OperationCount)
	assert.NotEqual(t, uuid.Nil, res.Deployment.ID)
	assert.Len(t, res.Deployment.SourceSHA256, 64)

	cur, err := f.deployer.Registry().Current("accounts")
	require.NoError(t, err)
	assert.Same(t, res.Model, cur.Model)
	assert.Equal(t, res.Deployment.ID, cur.Deployment.ID)

	stored, err := f.repo.Latest(ctx, "accounts")
	require.NoError(t, err)
	assert.Equal(t, res.Deployment.ID, stored.ID)
	assert.True(t, stored.Accepted)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compilations.WithLabelValues(metrics.OutcomeAccepted)))
	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues("compiled")))
}

func TestDeploy_RejectedIsRecordedNotPublished(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	res, err := f.deployer.Deploy(ctx, Request{Keyspace: "accounts", Source: partialSchema})
	require.Error(t, err)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "Query users: unknown field name in type User")

	require.NotNil(t, res)
	assert.False(t, res.Published)
	assert.False(t, res.Deployment.Accepted)
	assert.Equal(t, 1, res.Deployment.ErrorCount)

	_, err = f.deployer.Registry().Current("accounts")
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)

	stored, err := f.repo.Latest(ctx, "accounts")
	require.NoError(t, err)
	assert.False(t, stored.Accepted)
	require.Len(t, stored.Diagnostics, 1)
	assert.Equal(t, "users", stored.Diagnostics[0].Element)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compilations.WithLabelValues(metrics.OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues("skipped")))
}

func TestDeploy_PartialSchemas(t *testing.T) {
	tests := []struct {
		name         string
		allowPartial bool
		force        bool
	}{
		{"allow partial", true, false},
		{"force", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.allowPartial)

			res, err := f.deployer.Deploy(context.Background(),
				Request{Keyspace: "accounts", Source: partialSchema, Force: tt.force})
			require.NoError(t, err)
			assert.True(t, res.Published)
			assert.True(t, res.Deployment.Accepted)
			assert.Equal(t, 1, res.Deployment.OperationCount)
			assert.Equal(t, 1, res.Deployment.ErrorCount)

			cur, err := f.deployer.Registry().Current("accounts")
			require.NoError(t, err)
			_, ok := cur.Model.Operation("Query", "users")
			assert.False(t, ok)
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compilations.WithLabelValues(metrics.OutcomePartial)))
		})
	}
}

func TestDeploy_ParseFailure(t *testing.T) {
	f := newFixture(t, true)

	res, err := f.deployer.Deploy(context.Background(), Request{Keyspace: "accounts", Source: "type {"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "schema does not parse", verr.Message)
	require.NotNil(t, res)
	assert.Nil(t, res.Model)
	assert.False(t, res.Deployment.Accepted)
	assert.Equal(t, 1, res.Deployment.ErrorCount)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compilations.WithLabelValues(metrics.OutcomeFailed)))
}

func TestDeploy_VersionsIncrease(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.deployer.Deploy(ctx, Request{Keyspace: "accounts", Source: goodSchema})
	require.NoError(t, err)
	_, err = f.deployer.Deploy(ctx, Request{Keyspace: "accounts", Source: partialSchema})
	require.Error(t, err)
	res, err := f.deployer.Deploy(ctx, Request{Keyspace: "accounts", Source: goodSchema})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Deployment.Version)

	cur, err := f.deployer.Registry().Current("accounts")
	require.NoError(t, err)
	assert.Equal(t, 3, cur.Deployment.Version)
}

func TestDeploy_InvalidKeyspace(t *testing.T) {
	f := newFixture(t, false)

	res, err := f.deployer.Deploy(context.Background(), Request{Keyspace: "bad-name", Source: goodSchema})
	assert.Nil(t, res)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "invalid keyspace", verr.Message)

	v, err := f.repo.LatestVersion(context.Background(), "bad-name")
	require.NoError(t, err)
	assert.Zero(t, v)
}

func TestDeploy_CanceledContext(t *testing.T) {
	f := newFixture(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.deployer.Deploy(ctx, Request{Keyspace: "accounts", Source: goodSchema})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeploy_RepoFailure(t *testing.T) {
	boom := errors.New("disk full")
	d, err := NewDeployer(Deps{
		Repo:   failingRepo{err: boom},
		Logger: slog.New(slog.DiscardHandler),
	})
	require.NoError(t, err)

	res, err := d.Deploy(context.Background(), Request{Keyspace: "accounts", Source: goodSchema})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, d.Registry().Keyspaces())
}

func TestNewDeployer_RequiresRepo(t *testing.T) {
	d, err := NewDeployer(Deps{Logger: slog.New(slog.DiscardHandler)})
	assert.Nil(t, d)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Message, "deployment repository")
}

func TestDeployAll(t *testing.T) {
	f := newFixture(t, false)

	reqs := []Request{
		{Keyspace: "ks_a", Source: goodSchema},
		{Keyspace: "ks_b", Source: partialSchema},
		{Keyspace: "ks_c", Source: goodSchema},
		{Keyspace: "ks_d", Source: goodSchema},
	}
	results, err := f.deployer.DeployAll(context.Background(), reqs)
	require.Error(t, err)
	require.Len(t, multierr.Errors(err), 1)
	assert.Contains(t, err.Error(), "deploy ks_b")

	require.Len(t, results, len(reqs))
	for i, res := range results {
		require.NotNil(t, res, "result %d", i)
		assert.Equal(t, reqs[i].Keyspace, res.Deployment.Keyspace)
	}
	assert.False(t, results[1].Published)
	assert.Equal(t, []string{"ks_a", "ks_c", "ks_d"}, f.deployer.Registry().Keyspaces())
}

func TestRegistry_ConcurrentPublishKeepsNewest(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for v := 1; v <= 20; v++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.publish(&Published{Deployment: domain.Deployment{Keyspace: "ks", Version: v}})
			_, _ = r.Current("ks")
		}()
	}
	wg.Wait()

	cur, err := r.Current("ks")
	require.NoError(t, err)
	assert.Equal(t, 20, cur.Deployment.Version)
	assert.False(t, r.publish(&Published{Deployment: domain.Deployment{Keyspace: "ks", Version: 5}}))
}

func TestOpen_FromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		StorePath:          filepath.Join(dir, "ledger.sqlite"),
		CompileConcurrency: 2,
		Warnings:           []string{"ignored"},
	}

	d, ledger, err := Open(cfg, prometheus.NewRegistry(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	t.Cleanup(func() { ledger.Close() })

	for i := 1; i <= 2; i++ {
		res, err := d.Deploy(context.Background(), Request{Keyspace: "accounts", Source: goodSchema})
		require.NoError(t, err)
		assert.Equal(t, i, res.Deployment.Version, "deployment %d", i)
	}
}

func TestOpen_BadConventions(t *testing.T) {
	cfg := &config.Config{
		StorePath:       filepath.Join(t.TempDir(), "ledger.sqlite"),
		ConventionsFile: "testdata/bad_conventions.yaml",
	}
	_, _, err := Open(cfg, nil, slog.New(slog.DiscardHandler))
	require.Error(t, err)
}
