//go:build integration

package testutil

import (
	"context"
	"fmt"
	"time"

	pgrepo "github.com/Gunvolt24/ticket_service/internal/repo/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// LedgerDB — Postgres в контейнере со схемой payments/seat_reservations.
type LedgerDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	DSN       string
}

// StartLedgerDB поднимает postgres:16, применяет миграции и открывает пул.
func StartLedgerDB(ctx context.Context) (*LedgerDB, func(context.Context) error, error) {
	pg, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		tc.WithLifecycleHooks(lifecycleLog(tcLogger)),
		postgres.WithDatabase("tickets"),
		postgres.WithUsername("app"),
		postgres.WithPassword("app"),
		tc.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("run postgres: %w", err)
	}
	terminate := func(err error) (*LedgerDB, func(context.Context) error, error) {
		_ = tc.TerminateContainer(pg)
		return nil, nil, err
	}

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return terminate(fmt.Errorf("conn string: %w", err))
	}
	if err := pgrepo.Migrate(ctx, dsn); err != nil {
		return terminate(err)
	}

	pool, err := pgrepo.NewPool(ctx, dsn, 8)
	if err != nil {
		return terminate(err)
	}

	stop := func(c context.Context) error {
		pool.Close()
		return pg.Terminate(c)
	}
	return &LedgerDB{Container: pg, Pool: pool, DSN: dsn}, stop, nil
}

// Ledgers — списания и резерв мест поверх пула; capacity <= 0 — без ограничения.
func (db *LedgerDB) Ledgers(capacity int) (*pgrepo.PaymentLedger, *pgrepo.SeatLedger) {
	return pgrepo.NewPaymentLedger(db.Pool), pgrepo.NewSeatLedger(db.Pool, capacity)
}
