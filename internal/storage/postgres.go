package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresBlob хранит документ состояния в одной строке таблицы app_state.
type PostgresBlob struct {
	pool *pgxpool.Pool
}

// NewPostgresBlob создаёт хранилище в PostgreSQL и инициализирует схему через миграции.
func NewPostgresBlob(dsn string) (*PostgresBlob, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	b := &PostgresBlob{pool: pool}

	if err := b.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return b, nil
}

func (b *PostgresBlob) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(b.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

func (b *PostgresBlob) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Load возвращает последний записанный документ или ErrNotFound при первом запуске.
func (b *PostgresBlob) Load(ctx context.Context) ([]byte, error) {
	var document []byte
	err := b.pool.QueryRow(ctx,
		`SELECT document FROM app_state WHERE id = 1`,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("select state document: %w", err)
	}
	return document, nil
}

// Save перезаписывает документ состояния целиком.
func (b *PostgresBlob) Save(ctx context.Context, document []byte) error {
	return b.withRetry(ctx, func() error {
		_, err := b.pool.Exec(ctx,
			`INSERT INTO app_state (id, document) VALUES (1, $1)
			 ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`,
			document,
		)
		if err != nil {
			return fmt.Errorf("upsert state document: %w", err)
		}
		return nil
	})
}

// Close закрывает пул соединений с БД.
func (b *PostgresBlob) Close() error {
	b.pool.Close()
	return nil
}
