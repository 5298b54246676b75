package usecase

import (
	"context"
	"fmt"

	"github.com/Gunvolt24/ticket_service/internal/domain"
	"github.com/Gunvolt24/ticket_service/internal/ports"
	"github.com/Gunvolt24/ticket_service/pkg/metrics"
	"github.com/Gunvolt24/ticket_service/pkg/pricing"
	"github.com/Gunvolt24/ticket_service/pkg/telemetry"
	"github.com/Gunvolt24/ticket_service/pkg/validate"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PurchaseService — прикладная логика покупки билетов (без знаний о транспорте).
// Состояние после конструирования не меняется, методы безопасны для конкурентных вызовов.
type PurchaseService struct {
	validator ports.PurchaseValidator
	payments  ports.PaymentProcessor
	seats     ports.SeatReserver
	log       ports.Logger
}

// NewPurchaseService — DI-конструктор.
func NewPurchaseService(
	validator ports.PurchaseValidator,
	payments ports.PaymentProcessor,
	seats ports.SeatReserver,
	log ports.Logger,
) *PurchaseService {
	return &PurchaseService{
		validator: validator,
		payments:  payments,
		seats:     seats,
		log:       log,
	}
}

// PurchaseTickets — купить билеты: проверка, списание, резерв мест.
// Любая ошибка — *domain.InvalidPurchaseError.
func (s *PurchaseService) PurchaseTickets(ctx context.Context, req domain.PurchaseRequest) error {
	_, err := s.Purchase(ctx, req)
	return err
}

// Purchase — то же, что PurchaseTickets, но возвращает чек.
// Шаги:
//  1. проверка правил (первое нарушение возвращается как есть, внешние сервисы не вызываются);
//  2. расчёт суммы и числа мест;
//  3. списание; при ошибке резерв не выполняется;
//  4. резерв мест. Отката списания при ошибке резерва нет.
func (s *PurchaseService) Purchase(ctx context.Context, req domain.PurchaseRequest) (*domain.Receipt, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "purchase.tickets")
	defer span.End()

	if err := s.validator.Validate(ctx, req); err != nil {
		s.log.Warnf(ctx, "purchase rejected err=%v", err)
		metrics.PurchasesTotal.WithLabelValues(metrics.ResultRejected).Inc()
		span.SetStatus(codes.Error, "rejected")
		return nil, err
	}

	accountID := *req.AccountID
	receipt := &domain.Receipt{
		AccountID:   accountID,
		TotalAmount: pricing.TotalPayable(req.Tickets),
		TotalSeats:  pricing.TotalSeats(req.Tickets),
		TicketCount: pricing.TicketCount(req.Tickets),
	}
	span.SetAttributes(
		attribute.Int64("purchase.account_id", accountID),
		attribute.Int("purchase.amount", receipt.TotalAmount),
		attribute.Int("purchase.seats", receipt.TotalSeats),
	)

	if err := s.payments.Charge(ctx, accountID, receipt.TotalAmount); err != nil {
		s.log.Errorf(ctx, "payment failed account=%d amount=%d err=%v", accountID, receipt.TotalAmount, err)
		return nil, s.thirdParty(span, err)
	}

	if err := s.seats.Reserve(ctx, accountID, receipt.TotalSeats); err != nil {
		// Деньги уже списаны: компенсации нет, фиксируем в логе.
		s.log.Warnf(ctx, "seat reservation failed after charge account=%d amount=%d seats=%d err=%v",
			accountID, receipt.TotalAmount, receipt.TotalSeats, err)
		return nil, s.thirdParty(span, err)
	}

	metrics.PurchasesTotal.WithLabelValues(metrics.ResultSuccess).Inc()
	metrics.PurchaseAmountTotal.Add(float64(receipt.TotalAmount))
	metrics.SeatsReservedTotal.Add(float64(receipt.TotalSeats))

	s.log.Infof(ctx, "purchase completed account=%d amount=%d seats=%d tickets=%d",
		accountID, receipt.TotalAmount, receipt.TotalSeats, receipt.TicketCount)
	return receipt, nil
}

// ProcessMessage — покупка из сообщения Kafka (raw JSON).
// Некорректный JSON возвращается как validate.ErrMalformedRequest.
func (s *PurchaseService) ProcessMessage(ctx context.Context, raw []byte) error {
	req, err := validate.DecodePurchaseRequest(raw)
	if err != nil {
		s.log.Warnf(ctx, "malformed purchase message err=%v", err)
		return err
	}
	if err := s.PurchaseTickets(ctx, req); err != nil {
		return fmt.Errorf("purchase from message: %w", err)
	}
	return nil
}

func (s *PurchaseService) thirdParty(span trace.Span, cause error) error {
	metrics.PurchasesTotal.WithLabelValues(metrics.ResultThirdParty).Inc()
	span.RecordError(cause)
	span.SetStatus(codes.Error, string(domain.KindThirdParty))
	return domain.ThirdPartyError(cause)
}
