package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/ticket_service/internal/domain"
	"github.com/Gunvolt24/ticket_service/internal/kafka/mocks"
	"github.com/Gunvolt24/ticket_service/pkg/ctxmeta"
	"github.com/Gunvolt24/ticket_service/pkg/validate"
)

type nopLogger struct{}

func (nopLogger) Infof(context.Context, string, ...any)  {}
func (nopLogger) Warnf(context.Context, string, ...any)  {}
func (nopLogger) Errorf(context.Context, string, ...any) {}

var testReaderConfig = kafka.ReaderConfig{Topic: "purchases", GroupID: "g1", Brokers: []string{"b:9092"}}

// runAsync запускает Consumer.Run в отдельной горутине и возвращает канал с ошибкой.
func runAsync(ctx context.Context, c *Consumer) <-chan error {
	errCh := make(chan error, 1)
	go func() { errCh <- c.Run(ctx) }()
	return errCh
}

func newTestConsumer(r reader, s messageProcessor) *Consumer {
	return &Consumer{
		reader: r, service: s, log: nopLogger{},
		processTimeout: 30 * time.Millisecond,
		retryInitial:   5 * time.Millisecond,
		retryMax:       10 * time.Millisecond,
		jitterRand:     rand.New(rand.NewSource(1)),
	}
}

// blockUntilCancel — следующий FetchMessage ждёт отмены контекста.
func blockUntilCancel(r *mocks.Mockreader) {
	r.EXPECT().FetchMessage(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (kafka.Message, error) {
			<-ctx.Done()
			return kafka.Message{}, ctx.Err()
		})
}

// runOnce — один цикл обработки, затем отмена и проверка корректного выхода.
func runOnce(t *testing.T, c *Consumer) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	errCh := runAsync(ctx, c)

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("want context.Canceled, got %v", err)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timeout waiting for Run to stop")
	}
}

// Коммит-политика: какие исходы обработки фиксируют оффсет.
func TestRun_CommitPolicy(t *testing.T) {
	tests := []struct {
		name       string
		processErr error
		wantCommit bool
	}{
		{"success", nil, true},
		{"malformed", fmt.Errorf("%w: invalid json", validate.ErrMalformedRequest), true},
		{"rejected", domain.NewInvalidPurchase(domain.KindNoAdult, "no adult"), true},
		{"rejected_wrapped", fmt.Errorf("purchase from message: %w", domain.NewInvalidPurchase(domain.KindAboveMax, "too many")), true},
		{"third_party", domain.ThirdPartyError(errors.New("payment gateway timeout")), true},
		{"unexpected", errors.New("db down"), false},
		{"deadline", context.DeadlineExceeded, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			r := mocks.NewMockreader(ctrl)
			s := mocks.NewMockmessageProcessor(ctrl)

			r.EXPECT().Config().Return(testReaderConfig).AnyTimes()
			r.EXPECT().FetchMessage(gomock.Any()).
				Return(kafka.Message{Offset: 1, Value: []byte("payload")}, nil)
			s.EXPECT().ProcessMessage(gomock.Any(), []byte("payload")).Return(tt.processErr)
			if tt.wantCommit {
				r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(nil)
			}
			// Без ожидания CommitMessages лишний вызов уронит тест как "unexpected call".
			blockUntilCancel(r)

			runOnce(t, newTestConsumer(r, s))
		})
	}
}

// Ошибки FetchMessage ретраятся; по отмене контекста — корректный выход
func TestRun_FetchError_RetryThenStopOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockmessageProcessor(ctrl)

	r.EXPECT().Config().Return(testReaderConfig).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{}, errors.New("broker error")).AnyTimes()

	c := newTestConsumer(r, s)

	ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
	defer cancel()

	if err := c.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want DeadlineExceeded, got %v", err)
	}
}

// CommitMessages вернул ошибку — получаем предупреждение; цикл живёт дальше
func TestRun_CommitWarnOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockmessageProcessor(ctrl)

	r.EXPECT().Config().Return(testReaderConfig).AnyTimes()
	r.EXPECT().FetchMessage(gomock.Any()).
		Return(kafka.Message{Offset: 3, Value: []byte("ok")}, nil)
	s.EXPECT().ProcessMessage(gomock.Any(), []byte("ok")).Return(nil)
	r.EXPECT().CommitMessages(gomock.Any(), gomock.Any()).Return(errors.New("temporary"))
	blockUntilCancel(r)

	runOnce(t, newTestConsumer(r, s))
}

// Обработка получает request id и дедлайн
func TestHandleMessage_ContextCarriesRequestIDAndTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockmessageProcessor(ctrl)

	s.EXPECT().ProcessMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ []byte) error {
			if rid, ok := ctxmeta.RequestIDFromContext(ctx); !ok || rid != "rid-1" {
				t.Errorf("request id = %q ok=%v, want rid-1", rid, ok)
			}
			if _, ok := ctx.Deadline(); !ok {
				t.Errorf("process context must have a deadline")
			}
			return nil
		})

	c := newTestConsumer(r, s)
	msg := kafka.Message{
		Value:   []byte("{}"),
		Headers: []kafka.Header{{Key: "x-request-id", Value: []byte("rid-1")}},
	}
	if !c.handleMessage(context.Background(), "purchases", &msg) {
		t.Fatalf("successful processing must be committed")
	}
}

func TestMessageID_FallbackToCoordinates(t *testing.T) {
	msg := kafka.Message{Topic: "purchases", Partition: 2, Offset: 42}
	if got := messageID(&msg); got != "purchases/2/42" {
		t.Fatalf("messageID = %q", got)
	}
}

func TestBackoff(t *testing.T) {
	c := newTestConsumer(nil, nil)

	if got := c.nextBackoff(4 * time.Millisecond); got != 8*time.Millisecond {
		t.Fatalf("nextBackoff(4ms) = %s", got)
	}
	if got := c.nextBackoff(8 * time.Millisecond); got != c.retryMax {
		t.Fatalf("nextBackoff must be capped by retryMax, got %s", got)
	}
	for i := 0; i < 100; i++ {
		d := c.withJitterEqual(10 * time.Millisecond)
		if d < 5*time.Millisecond || d > 10*time.Millisecond {
			t.Fatalf("jitter out of range: %s", d)
		}
	}
	if c.withJitterEqual(0) != 0 {
		t.Fatalf("zero delay must stay zero")
	}
}

// Close прокидывает вызов в reader.Close() ровно один раз
func TestClose_DelegatesToReaderOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	r := mocks.NewMockreader(ctrl)
	s := mocks.NewMockmessageProcessor(ctrl)

	r.EXPECT().Close().Return(nil).Times(1)

	c := newTestConsumer(r, s)
	if err := c.Close(); err != nil {
		t.Fatalf("expected nil from Close, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close must be a no-op, got %v", err)
	}
}
