package fixtures

import (
	"context"
	"errors"
	"fmt"

	"github.com/iancoleman/strcase"
	"github.com/jackc/pgx/v4"
	"go.uber.org/zap"
)

// SampleTableName normalizes name to the snake_case table LoadSample writes.
func SampleTableName(name string) string {
	return strcase.ToSnake(name)
}

// LoadSample writes data into a (key, value) table in the primary database, creating it if needed.
// Existing keys are overwritten.
func (f *Postgres) LoadSample(ctx context.Context, table string, data map[string]string) error {
	table = SampleTableName(table)
	if table == "" {
		return errors.New("must provide a table name")
	}
	ident := pgx.Identifier{table}.Sanitize()

	db, err := f.GetConnection(ctx, "")
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	return db.BeginFunc(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, fmt.Sprintf("CREATE TABLE IF NOT EXISTS %v (key text PRIMARY KEY, value text NOT NULL)", ident)); err != nil {
			return fmt.Errorf("failed to create sample table: %w", err)
		}
		if len(data) == 0 {
			return nil
		}
		batch := &pgx.Batch{}
		for k, v := range data {
			batch.Queue(fmt.Sprintf("INSERT INTO %v (key, value) VALUES ($1, $2) ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value", ident), k, v)
		}
		br := tx.SendBatch(ctx, batch)
		for range data {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert sample row: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return err
		}
		f.log.Debug("load sample", zap.String("table", table), zap.Int("rows", len(data)), zap.String("container", f.GetHostName()))
		return nil
	})
}

// ReadSample reads a table written by LoadSample.
func (f *Postgres) ReadSample(ctx context.Context, table string) (map[string]string, error) {
	table = SampleTableName(table)
	if table == "" {
		return nil, errors.New("must provide a table name")
	}
	db, err := f.GetConnection(ctx, "")
	if err != nil {
		return nil, err
	}
	defer db.Close(ctx)

	rows, err := db.Query(ctx, fmt.Sprintf("SELECT key, value FROM %v", pgx.Identifier{table}.Sanitize()))
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()
	data := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		data[k] = v
	}
	return data, rows.Err()
}
