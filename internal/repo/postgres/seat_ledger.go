package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gunvolt24/ticket_service/internal/ports"
	"github.com/Gunvolt24/ticket_service/pkg/ctxmeta"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Проверка, что SeatLedger удовлетворяет интерфейсу SeatReserver.
var _ ports.SeatReserver = (*SeatLedger)(nil)

// ErrNoSeatsAvailable — резерв превысил бы вместимость зала.
var ErrNoSeatsAvailable = errors.New("no seats available")

// seatLockID — ключ advisory-lock, сериализующего резервы при ограниченной вместимости.
const seatLockID int64 = 0x7469636b6574 // "ticket"

// SeatLedger — резервирование мест в таблице seat_reservations.
// capacity <= 0 — без ограничения вместимости.
type SeatLedger struct {
	pool     *pgxpool.Pool
	capacity int
}

// NewSeatLedger — конструктор SeatLedger.
func NewSeatLedger(pool *pgxpool.Pool, capacity int) *SeatLedger {
	return &SeatLedger{pool: pool, capacity: capacity}
}

// Reserve — резервирует seats мест на аккаунт в одной транзакции.
func (l *SeatLedger) Reserve(ctx context.Context, accountID int64, seats int) error {
	if accountID < 1 {
		return fmt.Errorf("reserve: invalid account id %d", accountID)
	}
	if seats < 0 {
		return fmt.Errorf("reserve: negative seats %d", seats)
	}

	key, _ := ctxmeta.IdempotencyKeyFromContext(ctx)
	rid, _ := ctxmeta.RequestIDFromContext(ctx)

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer rollback(ctx, tx)

	// Повтор по ключу не проходит проверку вместимости второй раз.
	if key != "" {
		err = matchStored(ctx, tx, seatsByKeyQuery, key, accountID, seats)
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
	}

	if l.capacity > 0 {
		// Блокировка до конца транзакции: подсчёт и вставка не пересекаются с соседями.
		if _, err = tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, seatLockID); err != nil {
			return fmt.Errorf("lock seats: %w", err)
		}

		var reserved int
		if err = tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(seats), 0)::int FROM seat_reservations
		`).Scan(&reserved); err != nil {
			return fmt.Errorf("count reserved seats: %w", err)
		}
		if reserved+seats > l.capacity {
			return fmt.Errorf("%w: requested=%d reserved=%d capacity=%d", ErrNoSeatsAvailable, seats, reserved, l.capacity)
		}
	}

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO seat_reservations (account_id, seats, idempotency_key, request_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id
	`, accountID, seats, nullable(key), nullable(rid)).Scan(&id)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// параллельный повтор успел записать строку раньше
		return matchStored(ctx, tx, seatsByKeyQuery, key, accountID, seats)
	case err != nil:
		return dbError("insert reservation", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit reservation: %w", err)
	}
	return nil
}

const seatsByKeyQuery = `SELECT account_id, seats FROM seat_reservations WHERE idempotency_key = $1`

// ReservedSeats — всего зарезервировано мест.
func (l *SeatLedger) ReservedSeats(ctx context.Context) (int, error) {
	var total int
	if err := l.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(seats), 0)::int FROM seat_reservations
	`).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum reservations: %w", err)
	}
	return total, nil
}
