package fixtures

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type ConnectionSettings struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	DisableSSL   bool
	MaxOpenConns int
}

func (cs *ConnectionSettings) String() string {
	sslmode := "require"
	if cs.DisableSSL {
		sslmode = "disable"
	}
	dsn := fmt.Sprintf("host=%v port=%v user=%v password=%v dbname=%v sslmode=%v",
		cs.Host,
		cs.Port,
		cs.User,
		cs.Password,
		cs.Database,
		sslmode,
	)
	if cs.MaxOpenConns > 0 {
		dsn += fmt.Sprintf(" pool_max_conns=%v", cs.MaxOpenConns)
	}
	return dsn
}

func (cs *ConnectionSettings) Copy() *ConnectionSettings {
	s := *cs
	return &s
}

// Connect opens a single connection and pings it.
func (cs *ConnectionSettings) Connect(ctx context.Context) (*pgx.Conn, error) {
	conf, err := pgx.ParseConfig(cs.connString())
	if err != nil {
		return nil, err
	}
	conn, err := pgx.ConnectConfig(ctx, conf)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	return conn, nil
}

func (cs *ConnectionSettings) ConnectPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, err := pgxpool.Connect(ctx, cs.String())
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// connString is String without pool-only parameters, which pgx.ParseConfig rejects as runtime params.
func (cs *ConnectionSettings) connString() string {
	s := cs.Copy()
	s.MaxOpenConns = 0
	return s.String()
}
