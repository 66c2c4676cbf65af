package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/safar/flowerstore/internal/database"
)

// Postgres stores keys in the client_storage table, scoped by namespace so
// several profiles can share one database.
type Postgres struct {
	db        *sql.DB
	namespace string
}

func NewPostgres(db *sql.DB, namespace string) *Postgres {
	if namespace == "" {
		namespace = "default"
	}
	return &Postgres{db: db, namespace: namespace}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var value string

	query := `
		SELECT value
		FROM client_storage
		WHERE namespace = $1 AND key = $2`

	err := p.db.QueryRowContext(ctx, query, p.namespace, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get %s: %w", key, err)
	}

	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	return database.WithRetry(ctx, p.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO client_storage (namespace, key, value, updated_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (namespace, key)
			 DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			p.namespace, key, value)
		if err != nil {
			return fmt.Errorf("set %s: %w", key, err)
		}
		return nil
	})
}

func (p *Postgres) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return database.WithRetry(ctx, p.db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM client_storage
			 WHERE namespace = $1 AND key = ANY($2)`,
			p.namespace, pq.Array(keys))
		if err != nil {
			return fmt.Errorf("delete keys: %w", err)
		}
		return nil
	})
}

func (p *Postgres) Close() error {
	return p.db.Close()
}
