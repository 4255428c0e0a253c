package fixtures

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/ory/dockertest/v3"
	"go.uber.org/zap"
)

const (
	DEFAULT_POSTGRES_REPO    = "postgres"
	DEFAULT_POSTGRES_VERSION = "13-alpine"
)

type PostgresOpt func(*Postgres)

func NewPostgres(d *Docker, opts ...PostgresOpt) *Postgres {
	f := &Postgres{
		docker: d,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func PostgresSettings(settings *ConnectionSettings) PostgresOpt {
	return func(f *Postgres) {
		f.settings = settings
	}
}

func PostgresRepo(repo string) PostgresOpt {
	return func(f *Postgres) {
		f.repo = repo
	}
}

func PostgresVersion(version string) PostgresOpt {
	return func(f *Postgres) {
		f.version = version
	}
}

// PostgresExpireAfter is the container's lifetime in seconds, enforced by docker even if the test binary dies. Defaults to 600.
func PostgresExpireAfter(expireAfter uint) PostgresOpt {
	return func(f *Postgres) {
		f.expireAfter = expireAfter
	}
}

// PostgresTimeoutAfter caps, in seconds, how long SetUp waits for connections. Defaults to 15.
func PostgresTimeoutAfter(timeoutAfter uint) PostgresOpt {
	return func(f *Postgres) {
		f.timeoutAfter = timeoutAfter
	}
}

func PostgresSkipTearDown() PostgresOpt {
	return func(f *Postgres) {
		f.skipTearDown = true
	}
}

func PostgresMounts(mounts []string) PostgresOpt {
	return func(f *Postgres) {
		f.mounts = mounts
	}
}

type Postgres struct {
	BaseFixture
	log          *zap.Logger
	docker       *Docker
	settings     *ConnectionSettings
	resource     *dockertest.Resource
	repo         string
	version      string
	expireAfter  uint
	timeoutAfter uint
	skipTearDown bool
	mounts       []string
}

func (f *Postgres) GetSettings() *ConnectionSettings {
	return f.settings
}

func (f *Postgres) setDefaults() {
	if f.log == nil {
		f.log = logger()
	}
	if f.repo == "" {
		f.repo = DEFAULT_POSTGRES_REPO
	}
	if f.version == "" {
		f.version = DEFAULT_POSTGRES_VERSION
	}
	if f.expireAfter == 0 {
		f.expireAfter = 600
	}
	if f.timeoutAfter == 0 {
		f.timeoutAfter = 15
	}
	if f.settings == nil {
		f.settings = &ConnectionSettings{
			User:       "postgres",
			Password:   GenerateString(),
			Database:   f.docker.GetNamePrefix(),
			DisableSSL: true,
		}
	}
}

// runOptions trades durability for speed; see
// https://www.postgresql.org/docs/current/non-durability.html
func (f *Postgres) runOptions() *dockertest.RunOptions {
	networks := []*dockertest.Network{}
	if f.docker.GetNetwork() != nil {
		networks = append(networks, f.docker.GetNetwork())
	}
	mem := memoryMB() / 8
	return &dockertest.RunOptions{
		Repository: f.repo,
		Tag:        f.version,
		Env: []string{
			"POSTGRES_USER=" + f.settings.User,
			"POSTGRES_PASSWORD=" + f.settings.Password,
			"POSTGRES_DB=" + f.settings.Database,
		},
		Networks: networks,
		Cmd: []string{
			"-c", "fsync=off",
			"-c", "synchronous_commit=off",
			"-c", "full_page_writes=off",
			"-c", "random_page_cost=1.1",
			"-c", fmt.Sprintf("shared_buffers=%vMB", mem),
			"-c", fmt.Sprintf("work_mem=%vMB", mem),
		},
		Mounts: f.mounts,
	}
}

func (f *Postgres) SetUp(ctx context.Context) error {
	if f.docker == nil || f.docker.GetPool() == nil {
		return errors.New("postgres requires a docker fixture that has been set up")
	}
	if f.resource != nil {
		return nil
	}
	f.setDefaults()

	var err error
	f.resource, err = f.docker.GetPool().RunWithOptions(f.runOptions())
	if err != nil {
		return fmt.Errorf("failed to start postgres container: %w", err)
	}
	f.settings.Host = GetContainerAddress(f.resource, f.docker.GetNetwork())
	if err := f.resource.Expire(f.expireAfter); err != nil {
		return fmt.Errorf("failed to set container expiry: %w", err)
	}

	if err := f.WaitForReady(ctx, time.Second*time.Duration(f.timeoutAfter)); err != nil {
		return fmt.Errorf("%w\n%v", err, getLogs(f.log, f.resource.Container.ID, f.docker.GetPool()))
	}
	f.log.Debug("postgres ready", zap.String("container", f.GetHostName()), zap.String("host", f.settings.Host), zap.String("port", f.settings.Port))
	return nil
}

func (f *Postgres) TearDown(context.Context) error {
	if f.skipTearDown || f.resource == nil {
		return nil
	}
	wg.Add(1)
	go purge(f.log, f.docker.GetPool(), f.resource)
	f.resource = nil
	return nil
}

// WaitForReady polls until a connection succeeds. The mapped port is re-read on every attempt.
func (f *Postgres) WaitForReady(ctx context.Context, d time.Duration) error {
	if err := Retry(ctx, d, func() error {
		port := GetContainerTcpPort(f.resource, f.docker.GetNetwork(), "5432")
		if port == "" {
			return fmt.Errorf("could not get port from container: %v", f.GetHostName())
		}
		f.settings.Port = port

		db, err := f.settings.Connect(ctx)
		if err != nil {
			return err
		}
		return db.Close(ctx)
	}); err != nil {
		return fmt.Errorf("gave up waiting for postgres: %w", err)
	}
	return nil
}

// Connect opens a pool against the primary database.
func (f *Postgres) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	return f.settings.ConnectPool(ctx)
}

func (f *Postgres) MustConnect(ctx context.Context) *pgxpool.Pool {
	pool, err := f.Connect(ctx)
	if err != nil {
		panic(err)
	}
	return pool
}

// GetConnection opens one connection; an empty database means the primary one.
func (f *Postgres) GetConnection(ctx context.Context, database string) (*pgx.Conn, error) {
	settings := f.settings.Copy()
	if database != "" {
		settings.Database = database
	}
	return settings.Connect(ctx)
}

func (f *Postgres) GetHostName() string {
	if f.resource == nil {
		return ""
	}
	return GetHostName(f.resource)
}

func (f *Postgres) Ping(ctx context.Context) error {
	db, err := f.GetConnection(ctx, "")
	if err != nil {
		return err
	}
	defer db.Close(ctx)
	return db.Ping(ctx)
}

func (f *Postgres) TableExists(ctx context.Context, database, schema, table string) (bool, error) {
	db, err := f.GetConnection(ctx, database)
	if err != nil {
		return false, err
	}
	defer db.Close(ctx)
	count := 0
	query := "SELECT count(*) FROM pg_catalog.pg_tables WHERE schemaname = $1 AND tablename = $2"
	if err := db.QueryRow(ctx, query, schema, table).Scan(&count); err != nil {
		return false, err
	}
	return count == 1, nil
}

func (f *Postgres) GetTableColumns(ctx context.Context, database, schema, table string) ([]string, error) {
	db, err := f.GetConnection(ctx, database)
	if err != nil {
		return nil, err
	}
	defer db.Close(ctx)
	var columnNames pgtype.TextArray
	query := "SELECT array_agg(column_name::text ORDER BY ordinal_position) FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2"
	if err := db.QueryRow(ctx, query, schema, table).Scan(&columnNames); err != nil {
		return nil, err
	}
	cols := make([]string, 0, len(columnNames.Elements))
	for _, text := range columnNames.Elements {
		cols = append(cols, text.String)
	}
	return cols, nil
}

func (f *Postgres) GetTables(ctx context.Context, database string) ([]string, error) {
	db, err := f.GetConnection(ctx, database)
	if err != nil {
		return nil, err
	}
	defer db.Close(ctx)
	rows, err := db.Query(ctx, "SELECT tablename FROM pg_catalog.pg_tables WHERE schemaname != 'information_schema' AND schemaname != 'pg_catalog' ORDER BY tablename")
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()
	tables := []string{}
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		tables = append(tables, table)
	}
	return tables, rows.Err()
}
