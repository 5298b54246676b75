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

// Проверка, что PaymentLedger удовлетворяет интерфейсу PaymentProcessor.
var _ ports.PaymentProcessor = (*PaymentLedger)(nil)

// PaymentLedger — платёжный процессор, записывающий списания в таблицу payments.
// Повтор с тем же ключом идемпотентности (из ctxmeta) не создаёт второе списание;
// тот же ключ с другим аккаунтом или суммой даёт ErrIdempotencyConflict.
type PaymentLedger struct {
	pool *pgxpool.Pool
}

// NewPaymentLedger — конструктор PaymentLedger.
func NewPaymentLedger(pool *pgxpool.Pool) *PaymentLedger { return &PaymentLedger{pool: pool} }

// Charge — записывает списание amount со счёта accountID.
func (l *PaymentLedger) Charge(ctx context.Context, accountID int64, amount int) error {
	if accountID < 1 {
		return fmt.Errorf("charge: invalid account id %d", accountID)
	}
	if amount < 0 {
		return fmt.Errorf("charge: negative amount %d", amount)
	}

	key, _ := ctxmeta.IdempotencyKeyFromContext(ctx)
	rid, _ := ctxmeta.RequestIDFromContext(ctx)

	var id int64
	err := l.pool.QueryRow(ctx, `
		INSERT INTO payments (account_id, amount, idempotency_key, request_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id
	`, accountID, amount, nullable(key), nullable(rid)).Scan(&id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		// строка с этим ключом уже есть
		return matchStored(ctx, l.pool, paymentByKeyQuery, key, accountID, amount)
	default:
		return dbError("insert payment", err)
	}
}

const paymentByKeyQuery = `SELECT account_id, amount FROM payments WHERE idempotency_key = $1`

// ChargedTotal — сумма списаний по аккаунту (0, если списаний не было).
func (l *PaymentLedger) ChargedTotal(ctx context.Context, accountID int64) (int, error) {
	var total int
	err := l.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)::int FROM payments WHERE account_id = $1
	`, accountID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum payments: %w", err)
	}
	return total, nil
}
