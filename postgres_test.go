package fixtures

import (
	"context"
	"testing"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func TestPostgresRequiresDocker(t *testing.T) {
	p := NewPostgres(NewDocker())
	assert.Error(t, p.SetUp(context.Background()))
	assert.NoError(t, p.TearDown(context.Background()))
}

func TestPostgresRunOptions(t *testing.T) {
	d := NewDocker(DockerNamePrefix("gofixtures"))
	d.resolveNames()
	p := NewPostgres(d, PostgresVersion("14-alpine"), PostgresMounts([]string{"/tmp:/tmp"}))
	p.log = zaptest.NewLogger(t)
	p.setDefaults()

	opts := p.runOptions()
	assert.Equal(t, DEFAULT_POSTGRES_REPO, opts.Repository)
	assert.Equal(t, "14-alpine", opts.Tag)
	assert.Contains(t, opts.Env, "POSTGRES_DB=gofixtures")
	assert.Contains(t, opts.Env, "POSTGRES_PASSWORD="+p.GetSettings().Password)
	assert.Contains(t, opts.Cmd, "fsync=off")
	assert.Equal(t, []string{"/tmp:/tmp"}, opts.Mounts)
	assert.Empty(t, opts.Networks)
	assert.Equal(t, uint(600), p.expireAfter)
	assert.Equal(t, uint(15), p.timeoutAfter)
}

func TestPostgres(t *testing.T) {
	skipWithoutDocker(t)
	ctx := context.Background()

	fixtures := newTestFixtures(t)
	defer fixtures.RecoverTearDown(ctx)
	d := NewDocker(DockerNamePrefix("gofixtures"))
	require.NoError(t, fixtures.Add(ctx, d))
	require.NoError(t, fixtures.Add(ctx, NewPostgres(d)))
	defer func() { assert.NoError(t, fixtures.TearDown(ctx)) }()

	p := fixtures.Postgres()
	assert.NoError(t, p.Ping(ctx))

	pool, err := p.Connect(ctx)
	require.NoError(t, err)
	defer pool.Close()
	assert.Equal(t, "gofixtures", pool.Config().ConnConfig.Database)
}

func TestPostgresSample(t *testing.T) {
	skipWithoutDocker(t)
	ctx := context.Background()

	fixtures := newTestFixtures(t)
	defer fixtures.RecoverTearDown(ctx)
	d := NewDocker(DockerNamePrefix("gofixtures"))
	require.NoError(t, fixtures.Add(ctx, d, NewPostgres(d), NewSample()))
	defer func() { assert.NoError(t, fixtures.TearDown(ctx)) }()

	p := fixtures.Postgres()
	require.NoError(t, p.LoadSample(ctx, "SampleData", fixtures.Sample().Data()))

	exists, err := p.TableExists(ctx, "", "public", "sample_data")
	require.NoError(t, err)
	assert.True(t, exists)

	cols, err := p.GetTableColumns(ctx, "", "public", "sample_data")
	require.NoError(t, err)
	assert.Equal(t, []string{"key", "value"}, cols)

	tables, err := p.GetTables(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"sample_data"}, tables)

	got, err := p.ReadSample(ctx, "sample_data")
	require.NoError(t, err)
	assert.Equal(t, SampleData(), got)

	require.NoError(t, p.LoadSample(ctx, "sample_data", map[string]string{"key": "other"}))
	got, err = p.ReadSample(ctx, "sample_data")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"key": "other"}, got)
}

func TestPostgresSetUpKeepsContainer(t *testing.T) {
	d := NewDocker()
	d.pool = &dockertest.Pool{}
	p := NewPostgres(d)
	running := &dockertest.Resource{Container: &docker.Container{ID: "abc", Name: "/running"}}
	p.resource = running

	require.NoError(t, p.SetUp(context.Background()))
	assert.Same(t, running, p.resource)
}

func TestPostgresTearDownPurgesOnce(t *testing.T) {
	ctx := context.Background()
	// Nothing listens here, so the single purge fails and logs once.
	client, err := docker.NewClient("tcp://127.0.0.1:1")
	require.NoError(t, err)
	d := NewDocker()
	d.pool = &dockertest.Pool{Client: client}

	core, logs := observer.New(zap.DebugLevel)
	p := NewPostgres(d)
	p.log = zap.New(core)
	p.resource = &dockertest.Resource{Container: &docker.Container{ID: "abc", Name: "/gone"}}

	assert.NoError(t, p.TearDown(ctx))
	assert.NoError(t, p.TearDown(ctx))
	wg.Wait()

	assert.Nil(t, p.resource)
	assert.Equal(t, 1, logs.FilterMessage("failed to purge container").Len())
}
