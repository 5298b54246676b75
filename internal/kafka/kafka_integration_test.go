//go:build integration

package kafka_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	ikafka "github.com/Gunvolt24/ticket_service/internal/kafka"
	pgrepo "github.com/Gunvolt24/ticket_service/internal/repo/postgres"
	"github.com/Gunvolt24/ticket_service/internal/testutil"
	"github.com/Gunvolt24/ticket_service/internal/usecase"
	"github.com/Gunvolt24/ticket_service/pkg/logger"
	"github.com/Gunvolt24/ticket_service/pkg/validate"
)

type stack struct {
	ctx      context.Context
	kf       *testutil.KafkaEnv
	payments *pgrepo.PaymentLedger
	seats    *pgrepo.SeatLedger
	svc      *usecase.PurchaseService
	log      *logger.ZapLogger
}

func newStack(t *testing.T, capacity int) *stack {
	t.Helper()

	// Длинный контекст — на контейнеры
	ctxStart, cancelStart := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancelStart)

	pg, stopPG, err := testutil.StartLedgerDB(ctxStart)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stopPG(context.Background()) })

	kf, stopKF, err := testutil.StartKafkaTC(ctxStart)
	require.NoError(t, err)
	t.Cleanup(func() { _ = stopKF(context.Background()) })

	// Короткий контекст — сам тест
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)

	logg, closer, err := logger.NewZapLogger(false)
	require.NoError(t, err)
	t.Cleanup(func() { _ = closer() })

	payments, seats := pg.Ledgers(capacity)
	svc := usecase.NewPurchaseService(validate.NewPurchaseValidator(), payments, seats, logg)

	return &stack{ctx: ctx, kf: kf, payments: payments, seats: seats, svc: svc, log: logg}
}

func (s *stack) startConsumer(t *testing.T, topic, group string, processor interface {
	ProcessMessage(ctx context.Context, raw []byte) error
}) {
	t.Helper()
	consumer := ikafka.NewConsumer(&ikafka.ConsumerConfig{
		Brokers:        s.kf.Brokers,
		Topic:          topic,
		GroupID:        group,
		StartOffset:    "first",
		ProcessTimeout: 3 * time.Second,
		RetryInitial:   200 * time.Millisecond,
		RetryMax:       2 * time.Second,
	}, processor, s.log)

	runCtx, cancelRun := context.WithCancel(s.ctx)
	t.Cleanup(func() {
		cancelRun()
		_ = consumer.Close()
	})
	go func() { _ = consumer.Run(runCtx) }()

	// даём консьюмеру присоединиться к группе/получить assignment
	time.Sleep(1500 * time.Millisecond)
}

func (s *stack) waitCharged(t *testing.T, accountID int64, want int) {
	t.Helper()
	deadline := time.Now().Add(20 * time.Second)
	for {
		got, err := s.payments.ChargedTotal(s.ctx, accountID)
		require.NoError(t, err)
		if got == want {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("account %d: charged %d, want %d", accountID, got, want)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// 1) Валидная покупка списывается и резервирует места
func TestKafka_ValidPurchase_ChargedAndReserved_TC(t *testing.T) {
	s := newStack(t, 0)

	topic, group, err := s.kf.NewTopic(s.ctx, t.Name())
	require.NoError(t, err)
	s.startConsumer(t, topic, group, s.svc)

	account := testutil.UniqAccountID()
	require.NoError(t, s.kf.Publish(s.ctx, topic, testutil.PurchaseJSON(account, 10, 5, 3)))

	s.waitCharged(t, account, 325)
	reserved, err := s.seats.ReservedSeats(s.ctx)
	require.NoError(t, err)
	require.Equal(t, 15, reserved)
}

// 2) Мусор и отказ по правилам пропускаются, следующая валидная покупка проходит
func TestKafka_SkipMalformedAndRejected_ThenProcessValid_TC(t *testing.T) {
	s := newStack(t, 0)

	topic, group, err := s.kf.NewTopic(s.ctx, t.Name())
	require.NoError(t, err)
	s.startConsumer(t, topic, group, s.svc)

	rejected := testutil.UniqAccountID()
	ok := testutil.UniqAccountID()

	require.NoError(t, s.kf.Publish(s.ctx, topic,
		[]byte("not-a-json"),
		testutil.PurchaseJSON(rejected, 2, 0, 15), // младенцев больше
		testutil.PurchaseJSON(ok, 2, 0, 0),
	))

	s.waitCharged(t, ok, 50)
	got, err := s.payments.ChargedTotal(s.ctx, rejected)
	require.NoError(t, err)
	require.Zero(t, got)
}

// 3) Нет мест: списание прошло, резерв упал — сообщение коммитится, повтора нет
func TestKafka_ReserveFailsAfterCharge_Committed_TC(t *testing.T) {
	s := newStack(t, 1)

	topic, group, err := s.kf.NewTopic(s.ctx, t.Name())
	require.NoError(t, err)
	s.startConsumer(t, topic, group, s.svc)

	account := testutil.UniqAccountID()
	require.NoError(t, s.kf.Publish(s.ctx, topic, testutil.PurchaseJSON(account, 2, 0, 0)))

	// Одно списание без отката и без повторной доставки
	s.waitCharged(t, account, 50)
	time.Sleep(2 * time.Second)
	got, err := s.payments.ChargedTotal(s.ctx, account)
	require.NoError(t, err)
	require.Equal(t, 50, got)

	reserved, err := s.seats.ReservedSeats(s.ctx)
	require.NoError(t, err)
	require.Zero(t, reserved)
}

// 4) At-least-once: при непредвиденной ошибке оффсет не коммитится, после рестарта — передоставка
func TestKafka_Redelivery_AfterRestart_NoCommit_TC(t *testing.T) {
	s := newStack(t, 0)

	topic, group, err := s.kf.NewTopic(s.ctx, t.Name())
	require.NoError(t, err)

	account := testutil.UniqAccountID()
	require.NoError(t, s.kf.Publish(s.ctx, topic, testutil.PurchaseJSON(account, 1, 0, 0)))

	// Фаза 1: обработчик всегда падает временной ошибкой
	failing := ikafka.NewConsumer(&ikafka.ConsumerConfig{
		Brokers:        s.kf.Brokers,
		Topic:          topic,
		GroupID:        group,
		StartOffset:    "first",
		ProcessTimeout: 300 * time.Millisecond,
		RetryInitial:   100 * time.Millisecond,
		RetryMax:       300 * time.Millisecond,
	}, alwaysFailProcessor{}, s.log)

	runCtx1, cancelRun1 := context.WithCancel(s.ctx)
	go func() { _ = failing.Run(runCtx1) }()
	time.Sleep(2 * time.Second)
	cancelRun1()
	_ = failing.Close()

	// Фаза 2: та же группа, нормальный сервис — перехватываем некоммиченное
	s.startConsumer(t, topic, group, s.svc)
	s.waitCharged(t, account, 25)
}

// -----------------функции-помощники-----------------

// обработчик-заглушка: всегда «временная» ошибка, оффсет не коммитится
type alwaysFailProcessor struct{}

func (alwaysFailProcessor) ProcessMessage(context.Context, []byte) error {
	return errors.New("temporary failure")
}
