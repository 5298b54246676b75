package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrConstraint — строка нарушила ограничение схемы (CHECK, UNIQUE, NOT NULL).
var ErrConstraint = errors.New("ledger constraint violated")

// ErrIdempotencyConflict — ключ идемпотентности уже занят строкой с другими параметрами.
var ErrIdempotencyConflict = errors.New("idempotency key reused with different parameters")

// querier — общее у *pgxpool.Pool и pgx.Tx.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPool — создаёт пул соединений к Postgres на базе DSN.
// Если maxConns > 0 — переопределяем размер пула.
// Запросы трассируются через otelpgx (noop без настроенного провайдера).
// В конце выполняем Ping для fail-fast.
func NewPool(ctx context.Context, dsn string, maxConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 30 * time.Minute
	cfg.ConnConfig.Tracer = otelpgx.NewTracer()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if connErr := pool.Ping(ctx); connErr != nil {
		pool.Close()
		return nil, connErr
	}

	return pool, nil
}

// rollback — откат при выходе; после Commit возвращается ErrTxClosed, его игнорируем.
func rollback(ctx context.Context, tx pgx.Tx) {
	if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
		_ = rbErr
	}
}

// nullable — пустая строка пишется как NULL (уникальный индекс по ключу идемпотентности).
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// dbError — ошибки класса 23 (integrity constraint violation) сводятся к ErrConstraint.
func dbError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		return fmt.Errorf("%s: %w: %s", op, ErrConstraint, pgErr.ConstraintName)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// matchStored — сверяет строку, уже записанную под ключом, с повтором.
// query выбирает (account_id, <значение>) по ключу в $1.
func matchStored(ctx context.Context, q querier, query, key string, accountID int64, value int) error {
	var storedAccount int64
	var storedValue int
	if err := q.QueryRow(ctx, query, key).Scan(&storedAccount, &storedValue); err != nil {
		return fmt.Errorf("load idempotent row: %w", err)
	}
	if storedAccount != accountID || storedValue != value {
		return fmt.Errorf("%w: key=%q stored account=%d value=%d, got account=%d value=%d",
			ErrIdempotencyConflict, key, storedAccount, storedValue, accountID, value)
	}
	return nil
}
